// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan finds engineering line items in the text of specification
// documents. Each line is tested against a fixed table of category
// patterns; a matching line yields a Record whose quantity is read from the
// rest of the line and whose description is taken from the lines that
// follow it.
package scan

import (
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/takeoff/pkg/types"
)

// maxDescLines is the most lines gathered into one record's description.
const maxDescLines = 3

// Scan walks lines in order and returns the records found, in document
// order. It never fails; input without codes yields no records.
func Scan(lines []string) []types.Record {
	var records []types.Record

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		code, ok := findCode(line)
		if !ok {
			i++
			continue
		}

		var desc string
		desc, i = collectDescription(lines, i+1)

		records = append(records, types.Record{
			Code: code,
			Desc: desc,
			Type: Classify(code),
			Qty:  ResolveQuantity(line, code),
		})
	}

	return records
}

// collectDescription gathers up to maxDescLines trimmed lines starting at
// start. It stops before a blank line or a line carrying another code. It
// returns the joined description and the index of the first unconsumed line.
func collectDescription(lines []string, start int) (string, int) {
	var parts []string
	i := start
	for i < len(lines) && len(parts) < maxDescLines {
		next := strings.TrimSpace(lines[i])
		if next == "" || matchesAny(next) {
			break
		}
		parts = append(parts, next)
		i++
	}
	return strings.Join(parts, " "), i
}

// ScanText splits text into lines and scans them.
func ScanText(text string) []types.Record {
	return Scan(SplitLines(text))
}

// SplitLines splits text on line boundaries: \n, \r\n, \r, vertical tab,
// form feed, the file/group/record separators, NEL and the Unicode line and
// paragraph separators. A trailing boundary does not produce an empty line.
func SplitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isLineBreak(r) {
			i += size
			continue
		}
		lines = append(lines, text[start:i])
		i += size
		if r == '\r' && i < len(text) && text[i] == '\n' {
			i++
		}
		start = i
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

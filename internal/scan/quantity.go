// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"regexp"
	"strings"

	"github.com/pdiddy/takeoff/pkg/types"
)

var (
	// labelledQtyRe matches an optionally labelled count or "As specified",
	// e.g. "qty: 40", "Quantity As specified", " 12".
	labelledQtyRe = regexp.MustCompile(`(?i)(?:qty|quantity)?[:\s]*([0-9]+|As specified)`)

	// bareNumberRe matches any standalone digit run.
	bareNumberRe = regexp.MustCompile(`\b(\d+)\b`)
)

// ResolveQuantity infers the quantity of the item identified by code on
// line. The first occurrence of code is removed so its own digits are not
// read as a count. It returns the captured digits or "As specified" phrase,
// else the first standalone number, else "1".
func ResolveQuantity(line, code string) string {
	rest := line
	if code != "" {
		rest = strings.Replace(line, code, "", 1)
	}

	if m := labelledQtyRe.FindStringSubmatch(rest); m != nil {
		return m[1]
	}
	if m := bareNumberRe.FindStringSubmatch(rest); m != nil {
		return m[1]
	}
	return types.DefaultQty
}

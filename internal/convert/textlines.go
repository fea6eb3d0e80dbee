// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// tjSpace is the TJ adjustment, in thousandths of an em, beyond which a
// gap between two strings is read as a word space.
const tjSpace = 200

// matrix is a PDF transformation matrix [a b c d e f], applied to row
// vectors.
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m × n.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func translate(tx, ty float64) matrix {
	return matrix{1, 0, 0, 1, tx, ty}
}

// textWalker tracks the text positioning state of a content stream and
// feeds every shown string to a lineBuilder at its device position.
type textWalker struct {
	page     pdf.Page
	encoders map[string]pdf.TextEncoding
	enc      pdf.TextEncoding

	ctm      matrix
	saved    []matrix
	tlm      matrix
	leading  float64
	fontSize float64

	lines lineBuilder
}

func newTextWalker(page pdf.Page) *textWalker {
	return &textWalker{
		page:     page,
		encoders: make(map[string]pdf.TextEncoding),
		ctm:      identity,
		tlm:      identity,
	}
}

// do handles one content-stream operator.
func (w *textWalker) do(stk *pdf.Stack, op string) {
	args := make([]pdf.Value, stk.Len())
	for i := len(args) - 1; i >= 0; i-- {
		args[i] = stk.Pop()
	}

	switch op {
	case "q":
		w.saved = append(w.saved, w.ctm)
	case "Q":
		if n := len(w.saved); n > 0 {
			w.ctm = w.saved[n-1]
			w.saved = w.saved[:n-1]
		}
	case "cm":
		if m, ok := matrixArgs(args); ok {
			w.ctm = m.mul(w.ctm)
		}
	case "BT":
		w.tlm = identity
	case "Tf":
		if len(args) == 2 {
			w.setFont(args[0].Name())
			w.fontSize = args[1].Float64()
		}
	case "TL":
		if len(args) == 1 {
			w.leading = args[0].Float64()
		}
	case "Td":
		if len(args) == 2 {
			w.moveLine(args[0].Float64(), args[1].Float64())
		}
	case "TD":
		if len(args) == 2 {
			w.leading = -args[1].Float64()
			w.moveLine(args[0].Float64(), args[1].Float64())
		}
	case "Tm":
		if m, ok := matrixArgs(args); ok {
			w.tlm = m
			w.lines.move()
		}
	case "T*":
		w.moveLine(0, -w.leading)
	case "Tj":
		if len(args) == 1 {
			w.show(w.decode(args[0]))
		}
	case "'":
		if len(args) == 1 {
			w.moveLine(0, -w.leading)
			w.show(w.decode(args[0]))
		}
	case "\"":
		if len(args) == 3 {
			w.moveLine(0, -w.leading)
			w.show(w.decode(args[2]))
		}
	case "TJ":
		if len(args) == 1 {
			w.show(w.decodeArray(args[0]))
		}
	}
}

func (w *textWalker) moveLine(tx, ty float64) {
	w.tlm = translate(tx, ty).mul(w.tlm)
	w.lines.move()
}

func (w *textWalker) setFont(name string) {
	enc, ok := w.encoders[name]
	if !ok {
		enc = w.page.Font(name).Encoder()
		w.encoders[name] = enc
	}
	w.enc = enc
}

func (w *textWalker) decode(v pdf.Value) string {
	if v.Kind() != pdf.String {
		return ""
	}
	if w.enc == nil {
		return v.RawString()
	}
	return w.enc.Decode(v.RawString())
}

// decodeArray joins the strings of a TJ array, reading large negative
// adjustments as word spaces.
func (w *textWalker) decodeArray(v pdf.Value) string {
	var sb strings.Builder
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		switch item.Kind() {
		case pdf.String:
			sb.WriteString(w.decode(item))
		case pdf.Integer, pdf.Real:
			if -item.Float64() > tjSpace {
				appendSpace(&sb)
			}
		}
	}
	return sb.String()
}

func (w *textWalker) show(text string) {
	m := w.tlm.mul(w.ctm)
	size := w.fontSize * math.Hypot(m[2], m[3])
	w.lines.show(m[4], m[5], size, text)
}

func matrixArgs(args []pdf.Value) (matrix, bool) {
	if len(args) != 6 {
		return matrix{}, false
	}
	var m matrix
	for i, a := range args {
		m[i] = a.Float64()
	}
	return m, true
}

// lineBuilder assembles shown strings into lines. A string whose baseline
// differs from the current line by more than half its font size starts a
// new line. A string placed to the right of the previous one by a
// positioning operator is separated from it by a space.
type lineBuilder struct {
	lines []string
	cur   strings.Builder
	open  bool
	x, y  float64
	moved bool
}

// move records that a positioning operator ran since the last string.
func (b *lineBuilder) move() {
	b.moved = true
}

func (b *lineBuilder) show(x, y, size float64, text string) {
	if text == "" {
		return
	}
	tolerance := math.Max(size/2, 1)

	switch {
	case !b.open:
		b.open = true
	case math.Abs(y-b.y) > tolerance:
		b.flush()
		b.open = true
	case b.moved && x > b.x:
		if r, _ := utf8.DecodeRuneInString(text); !unicode.IsSpace(r) {
			appendSpace(&b.cur)
		}
	}

	b.cur.WriteString(text)
	b.x, b.y, b.moved = x, y, false
}

func (b *lineBuilder) flush() {
	b.lines = append(b.lines, strings.TrimRight(b.cur.String(), " \t"))
	b.cur.Reset()
	b.open = false
}

// finish closes the current line and returns all lines.
func (b *lineBuilder) finish() []string {
	if b.open {
		b.flush()
	}
	return b.lines
}

// appendSpace adds a space unless sb is empty or already ends in whitespace.
func appendSpace(sb *strings.Builder) {
	s := sb.String()
	if s == "" {
		return
	}
	if r, _ := utf8.DecodeLastRuneInString(s); unicode.IsSpace(r) {
		return
	}
	sb.WriteByte(' ')
}

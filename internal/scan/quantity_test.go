// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveQuantity(t *testing.T) {
	tests := []struct {
		name string
		line string
		code string
		want string
	}{
		{"labelled colon", "665 mesh qty: 40", "665 mesh", "40"},
		{"labelled no separator", "D16@200 QTY12", "D16@200", "12"},
		{"quantity word", "360UB57 Quantity 8 off", "360UB57", "8"},
		{"as specified", "0.55mm BMT Quantity As specified", "0.55mm BMT", "As specified"},
		{"as specified keeps case", "0.55mm BMT qty: AS SPECIFIED", "0.55mm BMT", "AS SPECIFIED"},
		{"bare number", "360UB57 x 4", "360UB57", "4"},
		{"first number wins", "360UB57 rafter 12 of 14", "360UB57", "12"},
		{"code only", "360UB57", "360UB57", "1"},
		{"code with words", "360UB57 frame", "360UB57", "1"},
		{"code digits ignored", "D16@200 stirrups", "D16@200", "1"},
		{"only first occurrence removed", "360UB57 and 360UB57", "360UB57", "360"},
		{"number glued to word", "665 mesh L12", "665 mesh", "12"},
		{"code absent from line", "qty 3", "360UB57", "3"},
		{"empty line", "", "360UB57", "1"},
		{"non-breaking space after label", "665\u00a0mesh qty:\u00a040", "665\u00a0mesh", "40"},
		{"non-breaking space before phrase", "0.55mm BMT Quantity\u00a0As specified", "0.55mm BMT", "As specified"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveQuantity(tt.line, tt.code))
		})
	}
}

func TestResolveQuantity_IgnoresCodeDigits(t *testing.T) {
	lines := []struct{ line, code string }{
		{"360UB57", "360UB57"},
		{"Supply 360UB57 rafters", "360UB57"},
		{"D16@200 each way", "D16@200"},
		{"665 mesh top and bottom", "665 mesh"},
		{"0.55mm BMT sheeting", "0.55mm BMT"},
	}
	for _, l := range lines {
		t.Run(l.line, func(t *testing.T) {
			got := ResolveQuantity(l.line, l.code)
			assert.Equal(t, "1", got)
		})
	}
}

var qtyTokenRe = regexp.MustCompile(`^(?:[0-9]+|(?i:as specified))$`)

func TestResolveQuantity_Total(t *testing.T) {
	lines := strings.Split(sampleSchedule, "\n")
	codes := []string{"360UB57", "D16@200", "665 mesh", "0.55mm BMT", "x"}
	for _, line := range lines {
		for _, code := range codes {
			got := ResolveQuantity(line, code)
			assert.Regexp(t, qtyTokenRe, got, "line %q code %q", line, code)
		}
	}
}

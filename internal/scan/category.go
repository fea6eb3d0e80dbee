// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"regexp"

	"github.com/pdiddy/takeoff/pkg/types"
)

// categoryPattern pairs a category with the pattern that recognizes its codes.
type categoryPattern struct {
	category types.Category
	re       *regexp.Regexp
}

// categoryPatterns is the fixed category table. Order matters: it decides
// both which match wins at equal offsets and how a code is classified.
var categoryPatterns = []categoryPattern{
	// 360UB57
	{types.CategoryPortalFrame, regexp.MustCompile(`(?i)\b\d{3}UB\d{2}\b`)},
	// D16@200
	{types.CategoryReinforcement, regexp.MustCompile(`(?i)\bD\d{2}@\d{2,3}\b`)},
	// 665 mesh, 665mesh, 665<NBSP>mesh
	{types.CategoryWeldedMesh, regexp.MustCompile(`(?i)\b\d{3}[\s\p{Zs}]?mesh\b`)},
	// 0.55mm BMT
	{types.CategoryRoofing, regexp.MustCompile(`(?i)\b0\.55mm BMT\b`)},
}

// findCode returns the leftmost code in line across all category patterns.
// When two patterns match at the same offset the earlier category wins.
func findCode(line string) (string, bool) {
	start, end := -1, -1
	for _, p := range categoryPatterns {
		loc := p.re.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if start < 0 || loc[0] < start {
			start, end = loc[0], loc[1]
		}
	}
	if start < 0 {
		return "", false
	}
	return line[start:end], true
}

// matchesAny reports whether line contains a code of any category.
func matchesAny(line string) bool {
	for _, p := range categoryPatterns {
		if p.re.MatchString(line) {
			return true
		}
	}
	return false
}

// Classify returns the first category whose pattern matches code, or
// CategoryUnknown.
func Classify(code string) types.Category {
	for _, p := range categoryPatterns {
		if p.re.MatchString(code) {
			return p.category
		}
	}
	return types.CategoryUnknown
}

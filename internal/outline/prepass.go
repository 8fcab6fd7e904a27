package outline

import (
	"fmt"
	"math"
	"strings"

	"github.com/dgallion1/docrank/internal/doc"
)

// Stats is the per-document pre-pass result: typography statistics plus
// the boilerplate exclusion set. It is computed once per document and
// passed into scoring, never held as ambient state.
type Stats struct {
	BodyFontSize float64
	PageCount    int
	PageHeight   float64

	boilerplate map[string]struct{}
}

// IsBoilerplate reports whether a block matched a recurring
// text+position key during the pre-pass.
func (s Stats) IsBoilerplate(b doc.TextBlock) bool {
	if len(s.boilerplate) == 0 {
		return false
	}
	_, ok := s.boilerplate[boilerplateKey(b, s.PageHeight)]
	return ok
}

// BoilerplateKeys returns the number of excluded keys.
func (s Stats) BoilerplateKeys() int { return len(s.boilerplate) }

// ComputeStats runs the document pre-pass: body font size (the mode of
// block font sizes), page geometry, and header/footer detection. A key
// recurring on more than pageFraction of the pages is boilerplate.
// Single-page documents never produce boilerplate.
func ComputeStats(blocks []doc.TextBlock, pageFraction float64) Stats {
	st := Stats{boilerplate: make(map[string]struct{})}
	if len(blocks) == 0 {
		return st
	}

	sizeCounts := make(map[float64]int)
	for _, b := range blocks {
		st.PageCount = max(st.PageCount, b.Page)
		st.PageHeight = math.Max(st.PageHeight, b.BBox.Y+b.BBox.Height)
		sizeCounts[roundSize(b.FontSize)]++
	}

	// Mode of font sizes; equal counts resolve to the smaller size, since
	// body text is never larger than the headings competing with it.
	for size, count := range sizeCounts {
		best := sizeCounts[roundSize(st.BodyFontSize)]
		if st.BodyFontSize == 0 || count > best || (count == best && size < st.BodyFontSize) {
			st.BodyFontSize = size
		}
	}

	if st.PageCount < 2 {
		return st
	}

	pagesByKey := make(map[string]map[int]struct{})
	for _, b := range blocks {
		key := boilerplateKey(b, st.PageHeight)
		if pagesByKey[key] == nil {
			pagesByKey[key] = make(map[int]struct{})
		}
		pagesByKey[key][b.Page] = struct{}{}
	}
	for key, pages := range pagesByKey {
		if len(pages) < 2 {
			continue
		}
		if float64(len(pages))/float64(st.PageCount) > pageFraction {
			st.boilerplate[key] = struct{}{}
		}
	}
	return st
}

// boilerplateKey normalizes a block to lowercased collapsed text plus a
// coarse relative-position bucket, so "Page 3 of 12" in a footer matches
// across pages while the same words mid-page do not.
func boilerplateKey(b doc.TextBlock, pageHeight float64) string {
	text := normalizeText(b.Text)
	bucket := 0
	if pageHeight > 0 {
		bucket = int(b.BBox.Y/pageHeight*20 + 0.5)
	}
	return fmt.Sprintf("%s|%d", stripDigits(text), bucket)
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// stripDigits folds page counters ("page 3", "page 4") onto one key.
func stripDigits(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteByte('#')
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func roundSize(size float64) float64 {
	return math.Round(size*2) / 2
}

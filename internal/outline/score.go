package outline

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/docrank/internal/doc"
)

// Sub-score weights for heading confidence. Fixed; they sum to 1.0.
const (
	weightFontRatio = 0.30
	weightBold      = 0.25
	weightPattern   = 0.30
	weightIsolation = 0.15

	// A block at twice the body size gets full font credit.
	fontRatioSaturation = 2.0
)

var (
	numberedPattern = regexp.MustCompile(`^\d+(\.\d+)*[.)]?\s+\S`)
	markerPattern   = regexp.MustCompile(`(?i)^(chapter|section|part|appendix|annex)\s+(\d+|[ivxlcdm]+|[a-z])\b`)
	allCapsPattern  = regexp.MustCompile(`^[A-Z][A-Z0-9\s\-:,&']{2,}$`)
)

// Well-known section names that read as headings even without numbering.
var sectionKeywords = map[string]struct{}{
	"introduction": {}, "conclusion": {}, "abstract": {}, "summary": {},
	"overview": {}, "background": {}, "methodology": {}, "results": {},
	"discussion": {}, "references": {}, "appendix": {}, "acknowledgments": {},
	"bibliography": {}, "contents": {}, "glossary": {}, "index": {},
}

// scoreCandidates computes the weighted composite for every non-excluded
// block and returns the accepted candidates in reading order.
func (e *Extractor) scoreCandidates(blocks []doc.TextBlock, stats Stats) []doc.HeadingCandidate {
	var accepted []doc.HeadingCandidate
	for i, b := range blocks {
		if stats.IsBoilerplate(b) {
			continue
		}
		n := len(strings.TrimSpace(b.Text))
		if n < 1 || n > e.cfg.MaxHeadingChars {
			continue
		}
		score := compositeScore(b, i, blocks, stats)
		if score < e.cfg.ConfidenceThreshold {
			continue
		}
		accepted = append(accepted, doc.HeadingCandidate{
			Block:      b,
			BlockIndex: i,
			Confidence: score,
			Accepted:   true,
		})
	}
	return accepted
}

func compositeScore(b doc.TextBlock, idx int, blocks []doc.TextBlock, stats Stats) float64 {
	font := fontRatioScore(b.FontSize, stats.BodyFontSize)
	bold := 0.0
	if b.Bold {
		bold = 1.0
	}
	pattern := patternScore(b.Text)
	isolation := isolationScore(idx, blocks)

	score := weightFontRatio*font + weightBold*bold + weightPattern*pattern + weightIsolation*isolation
	return clamp01(score)
}

// fontRatioScore normalizes the block/body size ratio: 1.0 and below is
// body text (zero credit), the saturation ratio and above is full credit.
func fontRatioScore(size, bodySize float64) float64 {
	if bodySize <= 0 || size <= bodySize {
		return 0
	}
	ratio := size / bodySize
	return clamp01((ratio - 1) / (fontRatioSaturation - 1))
}

// patternScore recognizes heading-shaped text: numbered prefixes,
// chapter-style markers, short all-caps lines, and well-known section
// names score fully; short title-case lines score half.
func patternScore(text string) float64 {
	t := strings.TrimSpace(text)
	if t == "" || len(t) > 200 {
		return 0
	}
	if numberedPattern.MatchString(t) || markerPattern.MatchString(t) {
		return 1.0
	}
	if len(t) <= 60 && len(t) >= 4 && allCapsPattern.MatchString(t) {
		return 1.0
	}
	if len(t) <= 60 && keywordLine(t) {
		return 1.0
	}
	if len(t) <= 60 && isTitleCase(t) {
		return 0.5
	}
	return 0
}

// IsHeadingLike reports whether text matches the heading pattern set at
// all. The section extractor uses it to drop heading-shaped boilerplate
// (running heads) from body capture.
func IsHeadingLike(text string) bool {
	return patternScore(text) > 0
}

func keywordLine(t string) bool {
	words := strings.Fields(strings.ToLower(t))
	if len(words) == 0 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		if _, ok := sectionKeywords[strings.Trim(w, ".:,")]; ok {
			return true
		}
	}
	return false
}

// isTitleCase requires every long word capitalized, at least two words.
func isTitleCase(t string) bool {
	words := strings.Fields(t)
	if len(words) < 2 || len(words) > 8 {
		return false
	}
	for _, w := range words {
		r := []rune(w)
		if len(r) <= 3 {
			continue
		}
		if unicode.IsLetter(r[0]) && !unicode.IsUpper(r[0]) {
			return false
		}
	}
	return unicode.IsUpper([]rune(words[0])[0])
}

// isolationScore measures how much clear vertical space surrounds a block
// on its page. Sharing a line with another block scores zero; both gaps
// clearing half the font size scores one.
func isolationScore(idx int, blocks []doc.TextBlock) float64 {
	b := blocks[idx]
	threshold := b.FontSize * 0.5
	if threshold <= 0 {
		return 0
	}

	gapAbove := threshold
	if idx > 0 && blocks[idx-1].Page == b.Page {
		prev := blocks[idx-1]
		if sameLine(prev, b) {
			return 0
		}
		gapAbove = prev.BBox.Y - (b.BBox.Y + b.BBox.Height)
	}

	gapBelow := threshold
	if idx < len(blocks)-1 && blocks[idx+1].Page == b.Page {
		next := blocks[idx+1]
		if sameLine(b, next) {
			return 0
		}
		gapBelow = b.BBox.Y - (next.BBox.Y + next.BBox.Height)
	}

	m := math.Min(gapAbove, gapBelow)
	if m >= threshold {
		return 1
	}
	if m <= 0 {
		return 0
	}
	return m / threshold
}

func sameLine(a, b doc.TextBlock) bool {
	tol := math.Min(a.BBox.Height, b.BBox.Height) * 0.5
	if tol <= 0 {
		tol = 1
	}
	return math.Abs(a.BBox.Y-b.BBox.Y) < tol
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

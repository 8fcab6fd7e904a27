package outline

import (
	"math"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/docrank/internal/doc"
)

// titleResult carries the winning title plus the block indexes it
// consumed, so tier mapping can exclude those blocks from the outline.
type titleResult struct {
	title    string
	consumed []int
}

type titleContext struct {
	docID  string
	blocks []doc.TextBlock
	cands  []doc.HeadingCandidate
	stats  Stats
	cfg    Config
}

// titleStrategies is the resolver's ordered fallback chain; the first
// strategy producing a non-empty title wins. The last one cannot fail.
var titleStrategies = []func(titleContext) titleResult{
	titleFromLargestFirstPage,
	titleFromFirstTitleLikeCandidate,
	titleFromLeadingBlocks,
	titleFromDocumentID,
}

func resolveTitle(ctx titleContext) titleResult {
	for _, strategy := range titleStrategies {
		if res := strategy(ctx); strings.TrimSpace(res.title) != "" {
			return res
		}
	}
	return titleResult{title: "Untitled Document"}
}

// titleFromLargestFirstPage picks the largest-font text on the first
// page, skipping boilerplate and anything long enough to read as a body
// paragraph. Blocks tied for the largest size combine into one title, up
// to three lines.
func titleFromLargestFirstPage(ctx titleContext) titleResult {
	var pool []int
	maxSize := 0.0
	for i, b := range ctx.blocks {
		if b.Page != 1 || ctx.stats.IsBoilerplate(b) {
			continue
		}
		t := strings.TrimSpace(b.Text)
		if t == "" || len(t) > ctx.cfg.TitleLengthCap {
			continue
		}
		pool = append(pool, i)
		maxSize = math.Max(maxSize, b.FontSize)
	}
	if len(pool) == 0 {
		return titleResult{}
	}

	var parts []string
	var consumed []int
	for _, i := range pool {
		if math.Abs(ctx.blocks[i].FontSize-maxSize) >= 0.1 {
			continue
		}
		parts = append(parts, strings.TrimSpace(ctx.blocks[i].Text))
		consumed = append(consumed, i)
		if len(parts) == 3 {
			break
		}
	}
	title := truncateChars(cleanTitle(strings.Join(parts, " ")), ctx.cfg.TitleLengthCap)
	return titleResult{title: title, consumed: consumed}
}

// titleFromFirstTitleLikeCandidate returns the first accepted heading
// whose text reads as a title: leading uppercase or digit, no trailing
// sentence punctuation.
func titleFromFirstTitleLikeCandidate(ctx titleContext) titleResult {
	for _, c := range ctx.cands {
		t := strings.TrimSpace(c.Block.Text)
		if t == "" || len(t) > ctx.cfg.TitleLengthCap || !titleLike(t) {
			continue
		}
		return titleResult{title: cleanTitle(t), consumed: []int{c.BlockIndex}}
	}
	return titleResult{}
}

// titleFromLeadingBlocks concatenates the first few non-boilerplate
// blocks on page 1.
func titleFromLeadingBlocks(ctx titleContext) titleResult {
	var parts []string
	for _, b := range ctx.blocks {
		if b.Page != 1 || ctx.stats.IsBoilerplate(b) {
			continue
		}
		t := strings.TrimSpace(b.Text)
		if t == "" {
			continue
		}
		parts = append(parts, t)
		if len(parts) == ctx.cfg.TitleFallbackBlocks {
			break
		}
	}
	if len(parts) == 0 {
		return titleResult{}
	}
	title := truncateChars(cleanTitle(strings.Join(parts, " ")), ctx.cfg.TitleLengthCap)
	return titleResult{title: title}
}

// titleFromDocumentID derives a placeholder from the document's own
// identifier. Guaranteed non-empty.
func titleFromDocumentID(ctx titleContext) titleResult {
	id := filepath.Base(ctx.docID)
	id = strings.TrimSuffix(id, filepath.Ext(id))
	if strings.Trim(id, ". ") == "" {
		return titleResult{title: "Untitled Document"}
	}
	return titleResult{title: "Document: " + id}
}

func titleLike(t string) bool {
	r := []rune(t)
	if !unicode.IsUpper(r[0]) && !unicode.IsDigit(r[0]) {
		return false
	}
	switch r[len(r)-1] {
	case '.', ',', ';', ':':
		return false
	}
	return true
}

var (
	titlePrefixPattern = regexp.MustCompile(`(?i)^(title:\s*|subject:\s*)`)
	titleSuffixPattern = regexp.MustCompile(`(?i)\s*\.(pdf|docx?|txt|md|html?)$`)
)

// cleanTitle collapses whitespace, strips label prefixes and file
// extensions, and capitalizes the first letter.
func cleanTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	title = titlePrefixPattern.ReplaceAllString(title, "")
	title = titleSuffixPattern.ReplaceAllString(title, "")
	if title != "" {
		r := []rune(title)
		if unicode.IsLower(r[0]) {
			r[0] = unicode.ToUpper(r[0])
			title = string(r)
		}
	}
	return strings.TrimSpace(title)
}

// truncateChars cuts at the last word boundary inside the cap.
func truncateChars(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	cut := string(r[:max])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}

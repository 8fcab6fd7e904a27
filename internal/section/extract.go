// Package section attaches body text to the headings that introduce it.
package section

import (
	"strings"

	"github.com/dgallion1/docrank/internal/doc"
	"github.com/dgallion1/docrank/internal/outline"
)

// Config controls body capture.
type Config struct {
	// CharCap truncates a section's captured body. Zero means unlimited.
	CharCap int
	// RefinedChars bounds the snippet emitted per ranked section.
	RefinedChars int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		CharCap:      0,
		RefinedChars: 500,
	}
}

// Extract builds one Section per outline heading, in heading order.
// Every body block belongs to the nearest preceding heading, so a
// section's window ends where the next heading of any depth opens and
// no block is shared between sections. Blocks before the first heading
// belong to no section. Heading-shaped boilerplate (running heads) is
// dropped; other boilerplate stays in the body.
func Extract(a outline.Analysis, blocks []doc.TextBlock, cfg Config) []doc.Section {
	if len(a.Headings) == 0 {
		return nil
	}

	headingAt := make(map[int]int, len(a.Headings))
	for i, h := range a.Headings {
		headingAt[h.BlockIndex] = i
	}
	titleAt := make(map[int]struct{}, len(a.TitleBlocks))
	for _, i := range a.TitleBlocks {
		titleAt[i] = struct{}{}
	}

	sections := make([]doc.Section, len(a.Headings))
	for i, h := range a.Headings {
		sections[i] = doc.Section{
			DocumentID: a.DocumentID,
			Title:      h.Text,
			Level:      h.Level,
			Page:       h.Page,
		}
	}

	parts := make([][]string, len(sections))
	current := -1
	for i, b := range blocks {
		if hi, ok := headingAt[i]; ok {
			current = hi
			continue
		}
		if _, ok := titleAt[i]; ok {
			continue
		}
		if current < 0 {
			continue // front matter before the first heading
		}
		if a.Stats.IsBoilerplate(b) && outline.IsHeadingLike(b.Text) {
			continue
		}
		t := strings.TrimSpace(b.Text)
		if t == "" {
			continue
		}
		parts[current] = append(parts[current], t)
	}

	for i := range sections {
		body := normalizeSpace(strings.Join(parts[i], " "))
		if cfg.CharCap > 0 {
			body = truncateAtWord(body, cfg.CharCap)
		}
		sections[i].BodyText = body
	}
	return sections
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateAtWord cuts at the last word boundary inside the cap.
func truncateAtWord(s string, max int) string {
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

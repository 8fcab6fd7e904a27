// Package outline turns styled text blocks into a document title and a
// hierarchical heading outline. The approach is purely typographic: font
// size relative to the body, boldness, structural text patterns, and
// vertical isolation vote on each block, and the top styling tiers among
// the accepted blocks become H1 through H3.
package outline

import (
	"strings"

	"github.com/dgallion1/docrank/internal/doc"
)

// Config controls candidate scoring, boilerplate detection, and title
// resolution.
type Config struct {
	// ConfidenceThreshold is the minimum composite score for a block to
	// be accepted as a heading.
	ConfidenceThreshold float64
	// MaxHeadingChars rejects blocks longer than this many characters.
	MaxHeadingChars int
	// BoilerplateFraction marks text repeating on more than this share
	// of pages as boilerplate.
	BoilerplateFraction float64
	// TitleLengthCap bounds the resolved title length.
	TitleLengthCap int
	// TitleFallbackBlocks is how many leading first-page blocks the
	// concatenation fallback joins.
	TitleFallbackBlocks int
}

// DefaultConfig returns the tuning used in production.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.5,
		MaxHeadingChars:     200,
		BoilerplateFraction: 0.5,
		TitleLengthCap:      150,
		TitleFallbackBlocks: 3,
	}
}

// Extractor analyzes one document's blocks at a time. Safe for
// concurrent use.
type Extractor struct {
	cfg Config
}

// NewExtractor builds an Extractor, filling zero config fields with
// defaults.
func NewExtractor(cfg Config) *Extractor {
	def := DefaultConfig()
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if cfg.MaxHeadingChars <= 0 {
		cfg.MaxHeadingChars = def.MaxHeadingChars
	}
	if cfg.BoilerplateFraction <= 0 {
		cfg.BoilerplateFraction = def.BoilerplateFraction
	}
	if cfg.TitleLengthCap <= 0 {
		cfg.TitleLengthCap = def.TitleLengthCap
	}
	if cfg.TitleFallbackBlocks <= 0 {
		cfg.TitleFallbackBlocks = def.TitleFallbackBlocks
	}
	return &Extractor{cfg: cfg}
}

// Heading is an accepted candidate with its final level, tied back to
// the block it came from.
type Heading struct {
	BlockIndex int
	Level      doc.Level
	Text       string
	Page       int
}

// Analysis is everything the outline stage learned about one document.
type Analysis struct {
	DocumentID  string
	Title       string
	TitleBlocks []int // block indexes consumed by the title
	Outline     []doc.OutlineEntry
	Headings    []Heading
	Stats       Stats
}

// Analyze runs the full outline pipeline on one document's blocks.
// Blocks must be in reading order. The returned title is never empty;
// the outline may be.
func (e *Extractor) Analyze(docID string, blocks []doc.TextBlock) Analysis {
	stats := ComputeStats(blocks, e.cfg.BoilerplateFraction)
	cands := e.scoreCandidates(blocks, stats)

	title := resolveTitle(titleContext{
		docID:  docID,
		blocks: blocks,
		cands:  cands,
		stats:  stats,
		cfg:    e.cfg,
	})

	consumed := make(map[int]struct{}, len(title.consumed))
	for _, i := range title.consumed {
		consumed[i] = struct{}{}
	}
	kept := cands[:0:0]
	for _, c := range cands {
		if _, ok := consumed[c.BlockIndex]; ok {
			continue
		}
		kept = append(kept, c)
	}

	tiers := buildTierMap(kept)
	var stack levelStack
	stack.Reset()

	analysis := Analysis{
		DocumentID:  docID,
		Title:       title.title,
		TitleBlocks: title.consumed,
		Stats:       stats,
	}
	for _, c := range kept {
		level := levelForTier(stack.Push(tiers.tierFor(c)))
		text := strings.TrimSpace(c.Block.Text)
		analysis.Headings = append(analysis.Headings, Heading{
			BlockIndex: c.BlockIndex,
			Level:      level,
			Text:       text,
			Page:       c.Block.Page,
		})
		analysis.Outline = append(analysis.Outline, doc.OutlineEntry{
			Level: level,
			Text:  text,
			Page:  c.Block.Page,
		})
	}
	return analysis
}

// Result converts an Analysis to the outline-only output shape.
func (a Analysis) Result() doc.Outline {
	entries := a.Outline
	if entries == nil {
		entries = []doc.OutlineEntry{}
	}
	return doc.Outline{Title: a.Title, Entries: entries}
}

// Package rank scores sections against a persona query and merges them
// across documents into one deterministic importance ordering.
package rank

import (
	"sort"

	"github.com/dgallion1/docrank/internal/doc"
)

// Config controls ranking output size and explanation rendering.
type Config struct {
	// MaxSections caps the ranked list. Zero means no cap.
	MaxSections int
	// MaxSubsections is how many top sections get a detail snippet.
	MaxSubsections int
	// Salience is the sub-score threshold for explanation labels.
	Salience float64
	// TopKeywords bounds each extracted keyword set.
	TopKeywords int
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		MaxSections:    10,
		MaxSubsections: 5,
		Salience:       0.5,
		TopKeywords:    12,
	}
}

// Item is one section entering the ranking, tagged with its origin for
// deterministic tie-breaking.
type Item struct {
	Section doc.Section
	// DocOrder is the owning document's position in the request.
	DocOrder int
	// Extraction is the section's order within its document.
	Extraction int
	// PageCount is the owning document's page count.
	PageCount int
	// SemanticSim is the provider's similarity for this section against
	// the query, before clamping.
	SemanticSim float64
}

// RankedSection is an item with its composite score, dense rank, and
// explanation labels.
type RankedSection struct {
	Item
	Score       float64
	Rank        int
	Subscores   Subscores
	Explanation []string
}

// Rank scores every item against the query and returns the top sections
// in importance order. Ranks are dense, 1..N. Ties sort by document
// order, then page, then extraction order, so identical input yields an
// identical ranking.
func Rank(items []Item, q Query, cfg Config) []RankedSection {
	def := DefaultConfig()
	if cfg.Salience <= 0 {
		cfg.Salience = def.Salience
	}
	if cfg.TopKeywords <= 0 {
		cfg.TopKeywords = def.TopKeywords
	}

	ranked := make([]RankedSection, 0, len(items))
	for _, it := range items {
		score, sub := scoreItem(it, q, cfg.TopKeywords)
		ranked = append(ranked, RankedSection{
			Item:        it,
			Score:       score,
			Subscores:   sub,
			Explanation: explanation(sub, cfg.Salience),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.DocOrder != b.DocOrder {
			return a.DocOrder < b.DocOrder
		}
		if a.Section.Page != b.Section.Page {
			return a.Section.Page < b.Section.Page
		}
		return a.Extraction < b.Extraction
	})

	if cfg.MaxSections > 0 && len(ranked) > cfg.MaxSections {
		ranked = ranked[:cfg.MaxSections]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

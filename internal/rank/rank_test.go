package rank

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docrank/internal/doc"
)

func personaQuery(role, job string) doc.PersonaQuery {
	return doc.PersonaQuery{Role: role, Job: job}
}

func item(docOrder, extraction int, s doc.Section, sim float64) Item {
	return Item{
		Section:     s,
		DocOrder:    docOrder,
		Extraction:  extraction,
		PageCount:   1,
		SemanticSim: sim,
	}
}

func TestPositionScore(t *testing.T) {
	assert.Equal(t, 1.0, positionScore(1, 10))
	assert.Equal(t, 1.0, positionScore(1, 1))
	assert.InDelta(t, 1/1.9, positionScore(10, 10), 1e-9)
	assert.Equal(t, 1.0, positionScore(0, 0), "degenerate input pins to the first page")
	assert.Greater(t, positionScore(2, 10), positionScore(9, 10))
}

func TestLevelWeight(t *testing.T) {
	assert.Equal(t, 1.0, levelWeight(doc.LevelH1))
	assert.Equal(t, 0.8, levelWeight(doc.LevelH2))
	assert.Equal(t, 0.6, levelWeight(doc.LevelH3))
	assert.Equal(t, 0.4, levelWeight(doc.LevelNone))
	assert.Equal(t, 0.4, levelWeight(doc.LevelTitle))
}

func TestComposite_WeightsSumToOne(t *testing.T) {
	full := Subscores{Semantic: 1, Domain: 1, Job: 1, Position: 1, Level: 1}
	assert.InDelta(t, 1.0, full.Composite(), 1e-9)
	assert.Equal(t, 0.0, Subscores{}.Composite())
}

func TestExplanation_OrderedByContribution(t *testing.T) {
	sub := Subscores{Semantic: 0.6, Domain: 0.9, Job: 0.2, Position: 1.0, Level: 1.0}

	got := explanation(sub, 0.5)
	want := []string{
		labelSemantic, // 0.40*0.6 = 0.24
		labelDomain,   // 0.25*0.9 = 0.225
		labelPosition, // 0.10*1.0 = 0.10
		labelLevel,    // 0.05*1.0 = 0.05
	}
	assert.Equal(t, want, got)
	assert.NotContains(t, got, labelJob, "sub-scores at or below salience are silent")
}

func TestExplanation_EmptyWhenNothingSalient(t *testing.T) {
	assert.Empty(t, explanation(Subscores{Semantic: 0.3, Position: 0.5}, 0.5))
}

func TestRank_NegativeSimilarityClamps(t *testing.T) {
	items := []Item{item(0, 0, doc.Section{Title: "Anything", Page: 1, Level: doc.LevelH1}, -3)}
	ranked := Rank(items, BuildQuery(personaQuery("analyst", "review results"), 12), DefaultConfig())

	require.Len(t, ranked, 1)
	assert.Equal(t, 0.0, ranked[0].Subscores.Semantic)
	assert.GreaterOrEqual(t, ranked[0].Score, 0.0)
	assert.LessOrEqual(t, ranked[0].Score, 1.0)
}

func TestRank_JobOverlapOutranksUnrelated(t *testing.T) {
	forms := doc.Section{
		DocumentID: "acrobat-guide.pdf",
		Title:      "Fillable Forms",
		Level:      doc.LevelH1,
		Page:       1,
		BodyText:   "create and manage fillable forms for onboarding and compliance checks",
	}
	catering := doc.Section{
		DocumentID: "cafeteria.pdf",
		Title:      "Catering Menus",
		Level:      doc.LevelH1,
		Page:       1,
		BodyText:   "weekly menu rotation for the cafeteria and seasonal dishes",
	}

	q := BuildQuery(personaQuery("HR professional", "Create and manage fillable forms for onboarding and compliance"), 12)
	ranked := Rank([]Item{
		item(0, 0, catering, 0.5),
		item(1, 0, forms, 0.5),
	}, q, DefaultConfig())

	require.Len(t, ranked, 2)
	assert.Equal(t, "Fillable Forms", ranked[0].Section.Title)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
	assert.Contains(t, ranked[0].Explanation, labelJob)
}

func TestRank_DenseRanksAndTruncation(t *testing.T) {
	var items []Item
	for i := 0; i < 15; i++ {
		items = append(items, item(0, i, doc.Section{
			Title: fmt.Sprintf("Part %d", i),
			Page:  1,
			Level: doc.LevelH2,
		}, float64(i)/15))
	}

	ranked := Rank(items, BuildQuery(personaQuery("reader", "skim the parts"), 12), DefaultConfig())

	require.Len(t, ranked, 10)
	for i, r := range ranked {
		assert.Equal(t, i+1, r.Rank)
		if i > 0 {
			assert.LessOrEqual(t, r.Score, ranked[i-1].Score)
		}
	}
	assert.Equal(t, "Part 14", ranked[0].Section.Title, "highest similarity wins")
}

func TestRank_TiesBreakByDocumentThenExtraction(t *testing.T) {
	same := doc.Section{Title: "Shared Heading", Level: doc.LevelH2, Page: 1, BodyText: "identical body text"}
	items := []Item{
		item(1, 0, same, 0.4),
		item(0, 1, same, 0.4),
		item(0, 0, same, 0.4),
	}

	ranked := Rank(items, BuildQuery(personaQuery("reader", "find the heading"), 12), DefaultConfig())

	require.Len(t, ranked, 3)
	assert.Equal(t, 0, ranked[0].DocOrder)
	assert.Equal(t, 0, ranked[0].Extraction)
	assert.Equal(t, 0, ranked[1].DocOrder)
	assert.Equal(t, 1, ranked[1].Extraction)
	assert.Equal(t, 1, ranked[2].DocOrder)
}

func TestRank_Deterministic(t *testing.T) {
	items := []Item{
		item(0, 0, doc.Section{Title: "Alpha Setup", Level: doc.LevelH1, Page: 1, BodyText: "setup steps for the alpha unit"}, 0.7),
		item(0, 1, doc.Section{Title: "Beta Teardown", Level: doc.LevelH2, Page: 2, BodyText: "teardown steps for the beta unit"}, 0.4),
		item(1, 0, doc.Section{Title: "Safety", Level: doc.LevelH1, Page: 1, BodyText: "safety notes apply to both units"}, 0.6),
	}
	q := BuildQuery(personaQuery("field technician", "set up the alpha unit safely"), 12)

	first := Rank(items, q, DefaultConfig())
	second := Rank(items, q, DefaultConfig())
	assert.Equal(t, first, second)
}

func TestRank_EmptyInput(t *testing.T) {
	ranked := Rank(nil, BuildQuery(personaQuery("anyone", "anything"), 12), DefaultConfig())
	assert.Empty(t, ranked)
}

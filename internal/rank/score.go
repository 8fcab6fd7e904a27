package rank

import (
	"sort"

	"github.com/dgallion1/docrank/internal/doc"
)

// Relevance sub-score weights. Fixed; they sum to 1.0.
const (
	weightSemantic = 0.40
	weightDomain   = 0.25
	weightJob      = 0.20
	weightPosition = 0.10
	weightLevel    = 0.05
)

// Subscores are the named components of one section's relevance score.
type Subscores struct {
	Semantic float64
	Domain   float64
	Job      float64
	Position float64
	Level    float64
}

// Composite is the weighted sum, clamped to [0,1].
func (s Subscores) Composite() float64 {
	v := weightSemantic*s.Semantic + weightDomain*s.Domain + weightJob*s.Job +
		weightPosition*s.Position + weightLevel*s.Level
	return clamp01(v)
}

func scoreItem(it Item, q Query, topK int) (float64, Subscores) {
	kw := Keywords(it.Section.Title+" "+it.Section.BodyText, topK)
	sub := Subscores{
		Semantic: clamp01(it.SemanticSim),
		Domain:   Jaccard(q.RoleTerms, kw),
		Job:      Jaccard(q.JobTerms, kw),
		Position: positionScore(it.Section.Page, it.PageCount),
		Level:    levelWeight(it.Section.Level),
	}
	return sub.Composite(), sub
}

// positionScore rewards sections appearing earlier in their document.
func positionScore(page, pageCount int) float64 {
	if page < 1 {
		page = 1
	}
	if pageCount < page {
		pageCount = page
	}
	norm := float64(page-1) / float64(pageCount)
	return 1 / (1 + norm)
}

func levelWeight(l doc.Level) float64 {
	switch l {
	case doc.LevelH1:
		return 1.0
	case doc.LevelH2:
		return 0.8
	case doc.LevelH3:
		return 0.6
	}
	return 0.4
}

// Explanation labels, keyed to their sub-scores.
const (
	labelSemantic = "high semantic relevance"
	labelDomain   = "domain-specific content"
	labelJob      = "highly relevant to job"
	labelPosition = "early document position"
	labelLevel    = "prominent section level"
)

// explanation renders the salient sub-scores as fixed labels, ordered by
// weighted contribution descending. Empty when nothing is salient.
func explanation(s Subscores, salience float64) []string {
	type contrib struct {
		label  string
		weight float64
		sub    float64
	}
	cs := []contrib{
		{labelSemantic, weightSemantic, s.Semantic},
		{labelDomain, weightDomain, s.Domain},
		{labelJob, weightJob, s.Job},
		{labelPosition, weightPosition, s.Position},
		{labelLevel, weightLevel, s.Level},
	}
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].weight*cs[i].sub > cs[j].weight*cs[j].sub
	})

	var labels []string
	for _, c := range cs {
		if c.sub > salience {
			labels = append(labels, c.label)
		}
	}
	return labels
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

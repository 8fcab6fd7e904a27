package similarity

import (
	"math"
	"sort"

	"github.com/dgallion1/docrank/internal/rank"
)

// TFIDF is the corpus-statistics provider. It fits smoothed TF-IDF
// vectors over the run's texts plus the query and compares them by
// cosine similarity. It needs no network or model files, and the same
// input always produces the same scores: the vocabulary is sorted so
// vector components sum in a fixed order.
type TFIDF struct{}

func NewTFIDF() *TFIDF { return &TFIDF{} }

func (p *TFIDF) Info() Info {
	return Info{Name: "tf-idf", Mode: ModeCorpus}
}

// Score fits on the given texts and query; nothing carries over between
// calls. Texts with no usable terms score zero.
func (p *TFIDF) Score(texts []string, query string) []float64 {
	docs := make([][]string, 0, len(texts)+1)
	for _, t := range texts {
		docs = append(docs, rank.Tokens(t))
	}
	docs = append(docs, rank.Tokens(query))

	df := make(map[string]int)
	for _, toks := range docs {
		seen := make(map[string]struct{}, len(toks))
		for _, t := range toks {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	vocab := make([]string, 0, len(df))
	for t := range df {
		vocab = append(vocab, t)
	}
	sort.Strings(vocab)
	pos := make(map[string]int, len(vocab))
	for i, t := range vocab {
		pos[t] = i
	}

	// Smoothed inverse document frequency, never zero, so terms that
	// appear everywhere still contribute.
	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for i, t := range vocab {
		idf[i] = math.Log(1+n/float64(1+df[t])) + 1
	}

	vectorize := func(toks []string) []float64 {
		v := make([]float64, len(vocab))
		for _, t := range toks {
			v[pos[t]]++
		}
		for i := range v {
			v[i] *= idf[i]
		}
		return v
	}

	queryVec := vectorize(docs[len(docs)-1])
	scores := make([]float64, len(texts))
	for i := range texts {
		scores[i] = cosine(vectorize(docs[i]), queryVec)
	}
	return scores
}

func cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

package rank

import (
	"regexp"
	"sort"
	"strings"
)

var wordPattern = regexp.MustCompile(`[a-zA-Z]{3,}`)

// Common English stop words. Terms under three letters never tokenize,
// so two-letter words are not listed.
var stopwords = map[string]struct{}{
	"about": {}, "above": {}, "after": {}, "again": {}, "all": {},
	"also": {}, "and": {}, "any": {}, "are": {}, "because": {},
	"been": {}, "before": {}, "being": {}, "below": {}, "between": {},
	"both": {}, "but": {}, "can": {}, "could": {}, "did": {},
	"does": {}, "down": {}, "during": {}, "each": {}, "few": {},
	"for": {}, "from": {}, "further": {}, "had": {}, "has": {},
	"have": {}, "having": {}, "her": {}, "here": {}, "hers": {},
	"him": {}, "his": {}, "how": {}, "into": {}, "its": {},
	"just": {}, "like": {}, "may": {}, "might": {}, "more": {},
	"most": {}, "much": {}, "must": {}, "nor": {}, "not": {},
	"now": {}, "off": {}, "once": {}, "only": {}, "other": {},
	"our": {}, "out": {}, "over": {}, "own": {}, "same": {},
	"she": {}, "should": {}, "some": {}, "such": {}, "than": {},
	"that": {}, "the": {}, "their": {}, "them": {}, "then": {},
	"there": {}, "these": {}, "they": {}, "this": {}, "those": {},
	"through": {}, "too": {}, "under": {}, "until": {}, "very": {},
	"was": {}, "were": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "while": {}, "who": {}, "why": {}, "will": {},
	"with": {}, "would": {}, "you": {}, "your": {},
}

// Tokens splits text into lowercased non-stopword terms. The same
// tokenization feeds keyword extraction and corpus-statistics scoring
// so both see identical vocabularies.
func Tokens(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	toks := words[:0]
	for _, w := range words {
		if _, stop := stopwords[w]; stop {
			continue
		}
		toks = append(toks, w)
	}
	return toks
}

// Keywords extracts the top-K most frequent non-stopword terms from
// text, lowercased. Frequency ties resolve alphabetically so the set is
// deterministic.
func Keywords(text string, topK int) map[string]struct{} {
	if topK <= 0 {
		topK = 12
	}
	counts := make(map[string]int)
	for _, w := range Tokens(text) {
		counts[w]++
	}

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > topK {
		terms = terms[:topK]
	}

	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}

// Jaccard is |A∩B| / |A∪B|. Either set empty scores zero.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func sortedTerms(set map[string]struct{}) []string {
	terms := make([]string, 0, len(set))
	for t := range set {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

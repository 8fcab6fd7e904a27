package similarity

import "strings"

// maxInputTokens caps each text sent to the embeddings endpoint. Most
// embedding models reject inputs past an 8k context window, and one
// oversized section would fail the whole batch.
const maxInputTokens = 8000

// Roughly 1.33 tokens per word for English text.
const tokensPerWord = 1.33

// EstimateTokens gives a rough token count from the word count. Exact
// tokenization is not required for clamping.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	tokens := int(float64(words) * tokensPerWord)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// ClampTokens truncates text to at most maxTokens by the estimate above,
// cutting at a paragraph boundary where possible, then a sentence
// boundary, then a plain word cut.
func ClampTokens(text string, maxTokens int) string {
	if maxTokens <= 0 || EstimateTokens(text) <= maxTokens {
		return text
	}
	maxWords := int(float64(maxTokens) / tokensPerWord)
	if maxWords < 1 {
		maxWords = 1
	}

	var b strings.Builder
	used := 0
	for _, para := range splitParagraphs(text) {
		w := len(strings.Fields(para))
		if used+w > maxWords {
			if used == 0 {
				return clampSentences(para, maxWords)
			}
			break
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(para)
		used += w
	}
	return b.String()
}

func clampSentences(text string, maxWords int) string {
	var b strings.Builder
	used := 0
	for _, sent := range splitSentences(text) {
		w := len(strings.Fields(sent))
		if used+w > maxWords {
			if used == 0 {
				words := strings.Fields(sent)
				return strings.Join(words[:maxWords], " ")
			}
			break
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(sent)
		used += w
	}
	return b.String()
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences does basic sentence splitting on terminal punctuation.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

package section

import "github.com/dgallion1/docrank/internal/doc"

// Refined returns the snippet shown in secondary detail listings: the
// section body collapsed and cut at a word boundary. Sections with no
// captured body fall back to their heading text so the snippet is never
// empty.
func Refined(s doc.Section, maxChars int) string {
	body := normalizeSpace(s.BodyText)
	if body == "" {
		body = normalizeSpace(s.Title)
	}
	return truncateAtWord(body, maxChars)
}

package doc

// Level is a resolved heading depth.
type Level string

const (
	LevelTitle Level = "Title"
	LevelH1    Level = "H1"
	LevelH2    Level = "H2"
	LevelH3    Level = "H3"
	LevelNone  Level = "" // body text
)

// BBox is a block's position on its page, in points. Y is the block's
// baseline in a bottom-left origin, so earlier blocks on a page have
// larger Y values.
type BBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// TextBlock is one styled text fragment emitted by a document source.
// Blocks arrive in reading order: ascending page, top of page first.
type TextBlock struct {
	DocumentID string
	Page       int // 1-based
	Text       string
	FontSize   float64 // points
	FontName   string
	Bold       bool
	BBox       BBox
}

// HeadingCandidate is a block with its heading-confidence verdict.
type HeadingCandidate struct {
	Block      TextBlock
	BlockIndex int // index into the source block slice
	Confidence float64
	Accepted   bool
	Level      Level
}

// OutlineEntry is one emitted heading.
type OutlineEntry struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// Outline is the outline-only result for a single document.
type Outline struct {
	Title   string         `json:"title"`
	Entries []OutlineEntry `json:"outline"`
}

// Section is a heading plus the body text its window captured. Body text
// belongs to exactly one section.
type Section struct {
	DocumentID string
	Title      string
	Level      Level
	Page       int
	BodyText   string
}

// WordCount returns the number of whitespace-separated words in the
// section body.
func (s Section) WordCount() int {
	n := 0
	inWord := false
	for _, r := range s.BodyText {
		switch r {
		case ' ', '\t', '\n', '\r':
			inWord = false
		default:
			if !inWord {
				n++
			}
			inWord = true
		}
	}
	return n
}

// PersonaQuery is the pair of free-text inputs sections are scored against.
type PersonaQuery struct {
	Role string
	Job  string
}

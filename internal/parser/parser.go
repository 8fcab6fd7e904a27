package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docrank/internal/doc"
)

// Source converts raw document bytes into an ordered stream of styled
// text blocks. Blocks come out in reading order with pages starting at 1.
type Source interface {
	Extract(r io.Reader, docID string) ([]doc.TextBlock, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate source for a filename.
func ForFile(filename string) (Source, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextSource{}, nil
	case ".md", ".markdown":
		return &MarkdownSource{}, nil
	case ".csv":
		return &CSVSource{}, nil
	case ".html", ".htm":
		return &HTMLSource{}, nil
	case ".pdf":
		return &PDFSource{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXSource{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Synthetic typography for formats that carry structure but no real font
// metadata. Heading levels map onto a fixed size ladder so the same
// downstream heuristics apply to every format.
const (
	synthBodySize = 11.0
	synthPageTop  = 720.0
	synthLeftX    = 72.0
)

func synthSize(level int) float64 {
	switch level {
	case synthTitleLevel:
		return 28
	case 1:
		return 24
	case 2:
		return 18
	case 3:
		return 14
	case 0:
		return synthBodySize
	default:
		return 12
	}
}

// synthTitleLevel marks document-level title text (e.g. the HTML <title>
// element), placed above the H1 tier.
const synthTitleLevel = -1

// synthLine is an intermediate line produced by the structural sources;
// level 0 means body text, 1-6 mirror the source's own heading depth.
type synthLine struct {
	text  string
	level int
}

// layoutLines turns structural lines into positioned blocks on a single
// synthetic page. Headings get generous leading above and below so the
// isolation signal reads them the way it reads print typography.
func layoutLines(lines []synthLine, docID string) []doc.TextBlock {
	blocks := make([]doc.TextBlock, 0, len(lines))
	y := synthPageTop
	prevSize := 0.0
	for _, ln := range lines {
		text := strings.TrimSpace(ln.text)
		if text == "" {
			continue
		}
		size := synthSize(ln.level)
		lead := 4.0
		if ln.level != 0 {
			lead = size
		} else if prevSize > synthBodySize {
			lead = prevSize * 0.6
		}
		y -= lead + size
		blocks = append(blocks, doc.TextBlock{
			DocumentID: docID,
			Page:       1,
			Text:       text,
			FontSize:   size,
			FontName:   synthFontName(ln.level),
			Bold:       ln.level != 0,
			BBox: doc.BBox{
				X:      synthLeftX,
				Y:      y,
				Width:  float64(len(text)) * size * 0.5,
				Height: size,
			},
		})
		prevSize = size
	}
	return blocks
}

func synthFontName(level int) string {
	if level != 0 {
		return "Helvetica-Bold"
	}
	return "Helvetica"
}

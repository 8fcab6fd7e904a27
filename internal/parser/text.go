package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docrank/internal/doc"
)

// TextSource handles plain text files. Typography is uniform, so only
// pattern and isolation signals can distinguish headings downstream.
type TextSource struct{}

func (s *TextSource) Extract(r io.Reader, docID string) ([]doc.TextBlock, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []synthLine
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			lines = append(lines, synthLine{text: current.String()})
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return layoutLines(lines, docID), nil
}

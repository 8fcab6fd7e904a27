package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/dgallion1/docrank/internal/doc"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFSource handles PDF files. It reads styled fragments through the Go
// library first, then falls back to pdftotext (plain text, synthetic
// typography) if available.
type PDFSource struct {
	FallbackPdftotext bool
}

const (
	pdfRowTolerance   = 3.0 // Y tolerance for grouping fragments into one line
	pdfWordSpaceRatio = 0.3 // fraction of font size treated as a word gap
)

func (s *PDFSource) Extract(r io.Reader, docID string) ([]doc.TextBlock, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docrank-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	blocks, err := extractStyledBlocks(tmpPath, docID)
	if (err != nil || len(blocks) == 0) && s.FallbackPdftotext {
		text, ferr := extractPdftotext(tmpPath)
		if ferr == nil {
			return plainTextBlocks(text, docID), nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return blocks, nil
}

// extractStyledBlocks reads per-fragment font and position data and merges
// fragments into line-level blocks: same line, same font signature.
func extractStyledBlocks(path, docID string) ([]doc.TextBlock, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []doc.TextBlock
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		texts := make([]pdflib.Text, 0, len(content.Text))
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) != "" {
				texts = append(texts, t)
			}
		}
		if len(texts) == 0 {
			continue
		}
		for _, row := range groupRows(texts) {
			out = append(out, mergeRow(row, docID, i)...)
		}
	}
	return out, nil
}

// groupRows buckets fragments by Y coordinate and returns rows top to
// bottom (larger Y first), each row sorted by X.
func groupRows(texts []pdflib.Text) [][]pdflib.Text {
	type bucket struct {
		yMin, yMax float64
		texts      []pdflib.Text
	}
	var buckets []bucket
	for _, t := range texts {
		placed := false
		for i := range buckets {
			if t.Y >= buckets[i].yMin-pdfRowTolerance && t.Y <= buckets[i].yMax+pdfRowTolerance {
				buckets[i].texts = append(buckets[i].texts, t)
				buckets[i].yMin = math.Min(buckets[i].yMin, t.Y)
				buckets[i].yMax = math.Max(buckets[i].yMax, t.Y)
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, bucket{yMin: t.Y, yMax: t.Y, texts: []pdflib.Text{t}})
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].yMax > buckets[j].yMax
	})

	rows := make([][]pdflib.Text, len(buckets))
	for i, b := range buckets {
		row := b.texts
		sort.SliceStable(row, func(a, c int) bool {
			return row[a].X < row[c].X
		})
		rows[i] = row
	}
	return rows
}

// mergeRow concatenates a row's fragments into blocks, splitting when the
// font signature changes. Gaps wider than a fraction of the font size
// become spaces.
func mergeRow(row []pdflib.Text, docID string, page int) []doc.TextBlock {
	var blocks []doc.TextBlock
	var cur *doc.TextBlock
	var curEnd float64
	var sb strings.Builder

	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = strings.TrimSpace(sb.String())
		cur.BBox.Width = curEnd - cur.BBox.X
		if cur.Text != "" {
			blocks = append(blocks, *cur)
		}
		cur = nil
		sb.Reset()
	}

	for _, t := range row {
		if cur != nil && !sameFont(cur.FontName, cur.FontSize, t) {
			flush()
		}
		if cur == nil {
			cur = &doc.TextBlock{
				DocumentID: docID,
				Page:       page,
				FontSize:   t.FontSize,
				FontName:   t.Font,
				Bold:       isBoldFont(t.Font),
				BBox: doc.BBox{
					X:      t.X,
					Y:      t.Y,
					Width:  t.W,
					Height: t.FontSize,
				},
			}
			curEnd = t.X + t.W
			sb.WriteString(t.S)
			continue
		}
		gap := t.X - curEnd
		threshold := pdfWordSpaceRatio * cur.FontSize
		if threshold <= 0 {
			threshold = 3.0
		}
		if gap > threshold && !strings.HasSuffix(sb.String(), " ") {
			sb.WriteString(" ")
		}
		sb.WriteString(t.S)
		if t.X+t.W > curEnd {
			curEnd = t.X + t.W
		}
	}
	flush()
	return blocks
}

func sameFont(name string, size float64, t pdflib.Text) bool {
	return name == t.Font && math.Abs(size-t.FontSize) < 0.1
}

// isBoldFont detects boldness from PostScript font names such as
// "Helvetica-Bold" or "Arial,BoldItalic".
func isBoldFont(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "bold") ||
		strings.Contains(n, "black") ||
		strings.Contains(n, "heavy")
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

// plainTextBlocks turns pdftotext output into body-only blocks, keeping
// page boundaries from form feeds.
func plainTextBlocks(text, docID string) []doc.TextBlock {
	var out []doc.TextBlock
	for i, pageText := range strings.Split(text, "\f") {
		var lines []synthLine
		for _, para := range splitParagraphs(pageText) {
			lines = append(lines, synthLine{text: para})
		}
		pageBlocks := layoutLines(lines, docID)
		for j := range pageBlocks {
			pageBlocks[j].Page = i + 1
		}
		out = append(out, pageBlocks...)
	}
	return out
}

func splitParagraphs(text string) []string {
	var paras []string
	var cur strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if cur.Len() > 0 {
				paras = append(paras, cur.String())
				cur.Reset()
			}
			continue
		}
		if cur.Len() > 0 {
			cur.WriteString("\n")
		}
		cur.WriteString(strings.TrimSpace(line))
	}
	if cur.Len() > 0 {
		paras = append(paras, cur.String())
	}
	return paras
}

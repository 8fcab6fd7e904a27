package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownSource_HeadingLadder(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.

## Section B

Section B content.
`
	s := &MarkdownSource{}
	blocks, err := s.Extract(strings.NewReader(input), "doc.md")
	require.NoError(t, err)
	require.Len(t, blocks, 8)

	assert.Equal(t, "Title", blocks[0].Text)
	assert.Equal(t, 24.0, blocks[0].FontSize)
	assert.True(t, blocks[0].Bold)

	assert.Equal(t, "Section A", blocks[2].Text)
	assert.Equal(t, 18.0, blocks[2].FontSize)

	assert.Equal(t, "Subsection A1", blocks[4].Text)
	assert.Equal(t, 14.0, blocks[4].FontSize)

	assert.Equal(t, "Intro text.", blocks[1].Text)
	assert.Equal(t, synthBodySize, blocks[1].FontSize)
	assert.False(t, blocks[1].Bold)
}

func TestMarkdownSource_NoHeadings(t *testing.T) {
	input := `Just some plain text.

Another paragraph here.`

	s := &MarkdownSource{}
	blocks, err := s.Extract(strings.NewReader(input), "plain.md")
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	for _, b := range blocks {
		assert.Equal(t, synthBodySize, b.FontSize)
		assert.False(t, b.Bold)
	}
	assert.Equal(t, "Just some plain text.", blocks[0].Text)
	assert.Equal(t, "Another paragraph here.", blocks[1].Text)
}

func TestMarkdownSource_CodeBlocks(t *testing.T) {
	input := "# API Reference\n\nSome intro.\n\n## Endpoints\n\nList of endpoints:\n\n```\nGET /api/users\nPOST /api/users\n```\n\nMore text after code.\n"

	s := &MarkdownSource{}
	blocks, err := s.Extract(strings.NewReader(input), "api.md")
	require.NoError(t, err)

	var joined []string
	for _, b := range blocks {
		joined = append(joined, b.Text)
	}
	all := strings.Join(joined, "\n")
	assert.Contains(t, all, "GET /api/users")
	assert.Contains(t, all, "More text after code.")

	// Headings keep their ladder sizes around the code block.
	assert.Equal(t, "API Reference", blocks[0].Text)
	assert.Equal(t, 24.0, blocks[0].FontSize)
	assert.Equal(t, "Endpoints", blocks[2].Text)
	assert.Equal(t, 18.0, blocks[2].FontSize)
}

func TestMarkdownSource_EmptyInput(t *testing.T) {
	s := &MarkdownSource{}
	blocks, err := s.Extract(strings.NewReader(""), "empty.md")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestMarkdownSource_SetextHeadings(t *testing.T) {
	input := "Main Title\n==========\n\nBody one.\n\nSecond Level\n------------\n\nBody two.\n"
	s := &MarkdownSource{}
	blocks, err := s.Extract(strings.NewReader(input), "setext.md")
	require.NoError(t, err)
	require.Len(t, blocks, 4)

	assert.Equal(t, "Main Title", blocks[0].Text)
	assert.Equal(t, 24.0, blocks[0].FontSize)
	assert.Equal(t, "Second Level", blocks[2].Text)
	assert.Equal(t, 18.0, blocks[2].FontSize)
}

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/doc"
	"github.com/dgallion1/docrank/internal/similarity"
)

const handbookMarkdown = `# Employee Handbook

## Fillable Forms

Create and manage fillable forms for onboarding and compliance checks.

## Cafeteria Menu

Weekly menu rotations from the catering vendor.
`

const cateringMarkdown = `# Catering Guide

## Buffet Stations

Hot buffet stations with vegetarian options for corporate events.
`

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	sim := similarity.NewSelector(similarity.Options{}, zerolog.Nop())
	return NewRunner(config.Default(), sim, zerolog.Nop())
}

func TestRunner_RanksJobRelevantSectionFirst(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "forms.md", handbookMarkdown)
	writeDoc(t, dir, "catering.md", cateringMarkdown)

	req := Request{
		Documents: []DocumentRef{
			{Name: "forms.md", Path: filepath.Join(dir, "forms.md")},
			{Name: "catering.md", Path: filepath.Join(dir, "catering.md")},
		},
		Persona: doc.PersonaQuery{
			Role: "HR professional",
			Job:  "create fillable forms for onboarding",
		},
	}

	res, err := newTestRunner(t).Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"forms.md", "catering.md"}, res.Metadata.InputDocuments)
	assert.Equal(t, "HR professional", res.Metadata.Persona)
	assert.Equal(t, "create fillable forms for onboarding", res.Metadata.JobToBeDone)
	assert.False(t, res.Metadata.PartialResults)
	assert.Zero(t, res.Metadata.DocumentsSkipped)
	assert.Equal(t, "corpus-statistics", res.Metadata.SimilarityProvider.Mode)
	assert.NotEmpty(t, res.Metadata.ProcessingTimestamp)

	require.Len(t, res.Extracted, 3)
	titles := make([]string, len(res.Extracted))
	for i, s := range res.Extracted {
		assert.Equal(t, i+1, s.ImportanceRank, "ranks must be dense")
		assert.GreaterOrEqual(t, s.RelevanceScore, 0.0)
		assert.LessOrEqual(t, s.RelevanceScore, 1.0)
		assert.Equal(t, 1, s.PageNumber)
		titles[i] = s.SectionTitle
	}
	assert.Equal(t, []string{"Fillable Forms", "Cafeteria Menu", "Buffet Stations"}, titles)

	top := res.Extracted[0]
	assert.Equal(t, "forms.md", top.Document)
	assert.Contains(t, top.Explanation, "highly relevant to job")

	require.NotEmpty(t, res.Subsections)
	assert.LessOrEqual(t, len(res.Subsections), 5)
	assert.Equal(t, "forms.md", res.Subsections[0].Document)
	assert.Contains(t, res.Subsections[0].RefinedText, "fillable forms")
	assert.Equal(t, top.RelevanceScore, res.Subsections[0].RelevanceScore)
}

func TestRunner_OverlapOnlySectionsExplainByPositionAndLevel(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "catering.md", cateringMarkdown)

	req := Request{
		Documents: []DocumentRef{{Name: "catering.md", Path: filepath.Join(dir, "catering.md")}},
		Persona:   doc.PersonaQuery{Role: "HR professional", Job: "create fillable forms"},
	}

	res, err := newTestRunner(t).Run(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Extracted, 1)
	assert.Equal(t, []string{"early document position", "prominent section level"},
		res.Extracted[0].Explanation)
}

func TestRunner_SkipsUnreadableDocumentAndMarksPartial(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "forms.md", handbookMarkdown)

	req := Request{
		Documents: []DocumentRef{
			{Name: "forms.md", Path: filepath.Join(dir, "forms.md")},
			{Name: "gone.md", Path: filepath.Join(dir, "gone.md")},
		},
		Persona: doc.PersonaQuery{Role: "HR professional", Job: "create fillable forms"},
	}

	res, err := newTestRunner(t).Run(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, res.Metadata.PartialResults)
	assert.Equal(t, 1, res.Metadata.DocumentsSkipped)
	assert.Equal(t, []string{"forms.md", "gone.md"}, res.Metadata.InputDocuments,
		"metadata lists every requested document")
	for _, s := range res.Extracted {
		assert.Equal(t, "forms.md", s.Document)
	}
}

func TestRunner_AllDocumentsFailing(t *testing.T) {
	req := Request{
		Documents: []DocumentRef{{Name: "gone.md", Path: "/nonexistent/gone.md"}},
		Persona:   doc.PersonaQuery{Role: "HR professional", Job: "create fillable forms"},
	}

	_, err := newTestRunner(t).Run(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no documents could be analyzed")
}

func TestRunner_RejectsInvalidRequest(t *testing.T) {
	_, err := newTestRunner(t).Run(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestRunner_UnsupportedExtensionSkipped(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "forms.md", handbookMarkdown)
	writeDoc(t, dir, "data.bin", "binary blob")

	req := Request{
		Documents: []DocumentRef{
			{Name: "forms.md", Path: filepath.Join(dir, "forms.md")},
			{Name: "data.bin", Path: filepath.Join(dir, "data.bin")},
		},
		Persona: doc.PersonaQuery{Role: "HR professional", Job: "create fillable forms"},
	}

	res, err := newTestRunner(t).Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Metadata.DocumentsSkipped)
	assert.True(t, res.Metadata.PartialResults)
}

func TestRunner_DeterministicAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "forms.md", handbookMarkdown)
	writeDoc(t, dir, "catering.md", cateringMarkdown)

	req := Request{
		Documents: []DocumentRef{
			{Name: "forms.md", Path: filepath.Join(dir, "forms.md")},
			{Name: "catering.md", Path: filepath.Join(dir, "catering.md")},
		},
		Persona: doc.PersonaQuery{Role: "HR professional", Job: "create fillable forms for onboarding"},
	}

	r := newTestRunner(t)
	first, err := r.Run(context.Background(), req)
	require.NoError(t, err)
	second, err := r.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Extracted, second.Extracted)
	assert.Equal(t, first.Subsections, second.Subsections)
}

func TestRunner_AnalyzeOutline(t *testing.T) {
	out, err := newTestRunner(t).AnalyzeOutline("handbook.md", []byte(handbookMarkdown))
	require.NoError(t, err)

	assert.Equal(t, "Employee Handbook", out.Title)
	require.Len(t, out.Entries, 2)
	assert.Equal(t, doc.OutlineEntry{Level: doc.LevelH1, Text: "Fillable Forms", Page: 1}, out.Entries[0])
	assert.Equal(t, doc.OutlineEntry{Level: doc.LevelH1, Text: "Cafeteria Menu", Page: 1}, out.Entries[1])
}

func TestRunner_AnalyzeOutlineUnsupported(t *testing.T) {
	_, err := newTestRunner(t).AnalyzeOutline("image.png", []byte{1, 2, 3})
	require.Error(t, err)
}

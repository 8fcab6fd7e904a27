package outline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docrank/internal/doc"
)

func TestPatternScore(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"1. Introduction", 1.0},
		{"2.3 Evaluation Setup", 1.0},
		{"4) Deployment", 1.0},
		{"Chapter IV", 1.0},
		{"Appendix A", 1.0},
		{"Section 12 Wiring", 1.0},
		{"EXECUTIVE SUMMARY", 1.0},
		{"TABLE OF CONTENTS", 1.0},
		{"Introduction", 1.0},
		{"References", 1.0},
		{"Getting Started Guide", 0.5},
		{"the quick brown fox jumps over the lazy dog", 0},
		{"plain lowercase line", 0},
		{"", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, patternScore(tc.text), "text %q", tc.text)
	}
}

func TestPatternScore_LongLinesNeverMatch(t *testing.T) {
	long := strings.Repeat("WORD ", 30)
	assert.Equal(t, 0.0, patternScore(long))
}

func TestIsHeadingLike(t *testing.T) {
	assert.True(t, IsHeadingLike("3. Evaluation"))
	assert.True(t, IsHeadingLike("METHODOLOGY"))
	assert.False(t, IsHeadingLike("just some ordinary sentence text here"))
}

func TestFontRatioScore(t *testing.T) {
	assert.Equal(t, 0.0, fontRatioScore(11, 11))
	assert.Equal(t, 0.0, fontRatioScore(9, 11))
	assert.InDelta(t, 0.5, fontRatioScore(16.5, 11), 1e-9)
	assert.Equal(t, 1.0, fontRatioScore(22, 11))
	assert.Equal(t, 1.0, fontRatioScore(30, 11))
	assert.Equal(t, 0.0, fontRatioScore(14, 0))
}

func TestIsolationScore_GenerousGapsScoreFull(t *testing.T) {
	blocks := []doc.TextBlock{
		tb("above", 1, 11, false, 700),
		tb("Heading", 1, 14, true, 640),
		tb("below", 1, 11, false, 580),
	}
	assert.Equal(t, 1.0, isolationScore(1, blocks))
}

func TestIsolationScore_SharedLineScoresZero(t *testing.T) {
	blocks := []doc.TextBlock{
		tb("left cell", 1, 11, false, 700),
		tb("right cell", 1, 11, false, 700),
	}
	assert.Equal(t, 0.0, isolationScore(0, blocks))
	assert.Equal(t, 0.0, isolationScore(1, blocks))
}

func TestIsolationScore_CrampedGapScoresFraction(t *testing.T) {
	blocks := []doc.TextBlock{
		tb("above", 1, 12, false, 700),
		tb("tight", 1, 12, false, 685),
	}
	// Gap above is 700-(685+12)=3pt against a 6pt threshold.
	assert.InDelta(t, 0.5, isolationScore(1, blocks), 1e-9)
}

func TestIsolationScore_PageEdgesCountAsClear(t *testing.T) {
	blocks := []doc.TextBlock{
		tb("end of page one", 1, 11, false, 80),
		tb("Fresh Page Heading", 2, 14, true, 700),
		tb("body resumes here", 2, 11, false, 640),
	}
	assert.Equal(t, 1.0, isolationScore(1, blocks))
}

func TestScoreCandidates_AcceptsHeadingsRejectsBody(t *testing.T) {
	blocks := []doc.TextBlock{
		tb("1. Scope", 1, 16, true, 700),
		tb("this document applies to all field installations in the region.", 1, 11, false, 650),
		tb("2. Terms", 1, 16, true, 600),
		tb("terms are used as defined in the glossary unless noted otherwise.", 1, 11, false, 550),
	}
	e := NewExtractor(DefaultConfig())
	stats := ComputeStats(blocks, DefaultConfig().BoilerplateFraction)

	cands := e.scoreCandidates(blocks, stats)
	require.Len(t, cands, 2)
	assert.Equal(t, "1. Scope", cands[0].Block.Text)
	assert.Equal(t, 0, cands[0].BlockIndex)
	assert.Equal(t, "2. Terms", cands[1].Block.Text)
	assert.Equal(t, 2, cands[1].BlockIndex)
	for _, c := range cands {
		assert.True(t, c.Accepted)
		assert.GreaterOrEqual(t, c.Confidence, 0.5)
		assert.LessOrEqual(t, c.Confidence, 1.0)
	}
}

func TestScoreCandidates_RejectsOverlongText(t *testing.T) {
	long := strings.Repeat("HEADING SHAPED TEXT ", 20) // 400 chars
	blocks := []doc.TextBlock{
		tb(long, 1, 20, true, 700),
		tb("short body line for the size mode.", 1, 11, false, 640),
		tb("another short body line for the size mode.", 1, 11, false, 600),
	}
	e := NewExtractor(DefaultConfig())
	stats := ComputeStats(blocks, DefaultConfig().BoilerplateFraction)
	assert.Empty(t, e.scoreCandidates(blocks, stats))
}

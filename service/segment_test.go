package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentClausesSplitsOnBlankLines(t *testing.T) {
	text := "The first clause covers data processing obligations in detail.\n" +
		"\n" +
		"The second clause covers breach notification duties in detail.\n"

	clauses := SegmentClauses(text, 20)

	require.Len(t, clauses, 2)
	assert.Equal(t, "clause_1", clauses[0].ID)
	assert.Equal(t, "clause_2", clauses[1].ID)
	assert.Contains(t, clauses[0].Text, "first clause")
	assert.Contains(t, clauses[1].Text, "second clause")
}

func TestSegmentClausesSplitsOnNumberedHeadings(t *testing.T) {
	text := "1. The processor shall process personal data only on documented instructions.\n" +
		"2. The processor shall notify the controller of any personal data breach.\n" +
		"3. The processor shall implement appropriate technical measures throughout.\n"

	clauses := SegmentClauses(text, 20)

	require.Len(t, clauses, 3)
	assert.Contains(t, clauses[0].Text, "documented instructions")
	assert.Contains(t, clauses[1].Text, "data breach")
	assert.Contains(t, clauses[2].Text, "technical measures")
}

func TestSegmentClausesJoinsWrappedLines(t *testing.T) {
	text := "The processor shall implement appropriate\n" +
		"technical and organizational measures to ensure\n" +
		"a level of security appropriate to the risk.\n"

	clauses := SegmentClauses(text, 20)

	require.Len(t, clauses, 1)
	assert.NotContains(t, clauses[0].Text, "\n")
	assert.Contains(t, clauses[0].Text, "appropriate technical and organizational measures")
}

func TestSegmentClausesMergesShortFragmentsForward(t *testing.T) {
	text := "Exhibit A\n" +
		"\n" +
		"This clause is long enough to survive the minimum length filter applied during segmentation.\n"

	clauses := SegmentClauses(text, 20)

	require.Len(t, clauses, 1)
	assert.Contains(t, clauses[0].Text, "Exhibit A This clause is long enough")
	// The merged clause starts where the fragment started
	assert.Equal(t, 0, clauses[0].StartChar)
}

func TestSegmentClausesDropsTrailingShortFragment(t *testing.T) {
	text := "This clause is long enough to survive the minimum length filter applied during segmentation.\n" +
		"\n" +
		"Signed.\n"

	clauses := SegmentClauses(text, 20)

	require.Len(t, clauses, 1)
	assert.NotContains(t, clauses[0].Text, "Signed")
}

func TestSegmentClausesSplitsOnSectionSymbolAndRomanHeadings(t *testing.T) {
	text := "§ 4.2 The controller shall maintain records of all processing activities.\n" +
		"IV. The processor shall assist the controller with data subject requests.\n"

	clauses := SegmentClauses(text, 20)

	require.Len(t, clauses, 2)
	assert.Contains(t, clauses[0].Text, "records of all processing")
	assert.Contains(t, clauses[1].Text, "data subject requests")
}

func TestSegmentClausesOffsets(t *testing.T) {
	first := "The first clause covers data processing obligations in detail."
	second := "The second clause covers breach notification duties in detail."
	text := first + "\n\n" + second + "\n"

	clauses := SegmentClauses(text, 20)

	require.Len(t, clauses, 2)
	assert.Equal(t, 0, clauses[0].StartChar)
	assert.Equal(t, first, strings.TrimSpace(text[clauses[0].StartChar:clauses[0].EndChar]))
	assert.Equal(t, second, strings.TrimSpace(text[clauses[1].StartChar:clauses[1].EndChar]))
	assert.Greater(t, clauses[1].StartChar, clauses[0].StartChar)
}

func TestSegmentClausesWordCount(t *testing.T) {
	text := "One two three four five six seven eight nine ten.\n"

	clauses := SegmentClauses(text, 20)

	require.Len(t, clauses, 1)
	assert.Equal(t, 10, clauses[0].WordCount)
}

func TestSegmentClausesEmptyInput(t *testing.T) {
	assert.Empty(t, SegmentClauses("", 20))
	assert.Empty(t, SegmentClauses("\n\n\n", 20))
}

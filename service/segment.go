package service

import (
	"fmt"
	"regexp"
	"strings"

	"compliance-backend/models"
)

// headingPattern matches numbered or labeled section starts such as
// "1.", "2.3", "Section 4", "ARTICLE V", "§ 4.2", "IV.", "(a)".
var headingPattern = regexp.MustCompile(`(?i)^\s*(\d+(\.\d+)*[.)]\s+|section\s+\d+|article\s+[IVXLC\d]+|§\s*\d+(\.\d+)*|(?-i:[IVXLC]+[.)])\s+|\([a-z]\)\s+)`)

// SegmentClauses splits contract text into clauses. Paragraphs separated by
// blank lines are the base unit; a line that looks like a numbered heading
// also starts a new clause. Fragments shorter than minLength characters are
// merged into the clause that follows them; a trailing short fragment is
// dropped.
func SegmentClauses(text string, minLength int) []models.Clause {
	var blocks []block

	offset := 0
	var current strings.Builder
	currentStart := -1

	flush := func(end int) {
		raw := current.String()
		if strings.TrimSpace(raw) != "" {
			blocks = append(blocks, block{text: raw, start: currentStart, end: end})
		}
		current.Reset()
		currentStart = -1
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		lineStart := offset
		offset += len(line)
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			flush(lineStart)
			continue
		}
		if headingPattern.MatchString(line) && current.Len() > 0 {
			flush(lineStart)
		}
		if currentStart < 0 {
			currentStart = lineStart
		}
		current.WriteString(line)
	}
	flush(offset)

	var clauses []models.Clause
	pending := ""
	pendingStart := -1
	for _, b := range blocks {
		normalized := normalizeClauseText(b.text)
		start := b.start
		if pending != "" {
			normalized = pending + " " + normalized
			start = pendingStart
			pending = ""
		}
		if len(normalized) < minLength {
			// Carry the fragment into the next clause
			pending = normalized
			pendingStart = start
			continue
		}
		clauses = append(clauses, models.Clause{
			ID:        fmt.Sprintf("clause_%d", len(clauses)+1),
			Text:      normalized,
			StartChar: start,
			EndChar:   b.end,
			WordCount: len(strings.Fields(normalized)),
		})
	}
	// A trailing fragment has no clause to merge into

	return clauses
}

type block struct {
	text  string
	start int
	end   int
}

// normalizeClauseText joins wrapped lines into a single line and collapses
// runs of whitespace.
func normalizeClauseText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

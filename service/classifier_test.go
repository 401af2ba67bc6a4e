package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyClauseBreachNotification(t *testing.T) {
	text := "The processor shall notify the controller of any security breach or data breach " +
		"without undue delay and in any event within 72 hours of becoming aware of the incident."

	predicted, confidence, alternatives := ClassifyClause(text, 3)

	assert.Equal(t, "Breach Notification", predicted)
	assert.GreaterOrEqual(t, confidence, 0.5)
	assert.LessOrEqual(t, confidence, 0.95)
	assert.Len(t, alternatives, 3)
	assert.Equal(t, "Breach Notification", alternatives[0].Type)
}

func TestClassifyClauseDataTransfer(t *testing.T) {
	text := "Personal data shall not be transferred to a third country outside the EEA " +
		"without standard contractual clauses or an adequacy decision covering the " +
		"cross-border international transfer."

	predicted, _, _ := ClassifyClause(text, 3)

	assert.Equal(t, "Data Transfer", predicted)
}

func TestClassifyClauseSubProcessor(t *testing.T) {
	text := "The processor shall not engage any sub-processor without the prior written " +
		"authorization of the controller, and shall give the controller the opportunity to object."

	predicted, _, _ := ClassifyClause(text, 3)

	assert.Equal(t, "Sub-processor Authorization", predicted)
}

func TestClassifyClauseFallsBackToOther(t *testing.T) {
	predicted, confidence, alternatives := ClassifyClause("zzzz wwww qqqq", 3)

	assert.Equal(t, "Other", predicted)
	assert.Equal(t, 0.5, confidence)
	assert.Len(t, alternatives, 1)
}

func TestClassifyClauseConfidenceBounds(t *testing.T) {
	// A text drowning in keywords must still cap at 0.95
	text := "security breach data breach notification notify incident 72 hours " +
		"without undue delay unauthorized access breach response incident response security incident"

	_, confidence, _ := ClassifyClause(text, 1)

	assert.LessOrEqual(t, confidence, 0.95)
	assert.Greater(t, confidence, 0.5)
}

func TestRegulatoryType(t *testing.T) {
	tests := []struct {
		clauseType string
		expected   string
		applicable bool
	}{
		{"Breach Notification", "Breach Notification", true},
		{"Confidentiality", "Security Safeguards", true},
		{"Governing Law", "Data Transfer", true},
		{"Indemnification", "Breach Notification", true},
		{"Anti-Assignment", "Sub-processor Authorization", true},
		{"Parties", "", false},
		{"Document Name", "", false},
		{"Effective Date", "", false},
		{"Other", "Other", true}, // unknown types pass through
	}

	for _, tt := range tests {
		t.Run(tt.clauseType, func(t *testing.T) {
			mapped, applicable := RegulatoryType(tt.clauseType)
			assert.Equal(t, tt.applicable, applicable)
			assert.Equal(t, tt.expected, mapped)
		})
	}
}

func TestScaleConfidence(t *testing.T) {
	assert.Equal(t, 0.5, scaleConfidence(0))
	assert.InDelta(t, 0.725, scaleConfidence(0.5), 0.001)
	assert.Equal(t, 0.95, scaleConfidence(1.0))
	assert.Equal(t, 0.95, scaleConfidence(2.0))
}

package service

import (
	"testing"

	"compliance-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestClassifyUpdateType(t *testing.T) {
	tests := []struct {
		text     string
		expected models.UpdateType
	}{
		{"GDPR amendment passed by parliament", models.UpdateAmendment},
		{"Regulator issues fine for privacy violation", models.UpdateEnforcement},
		{"New guidance on data retention published", models.UpdateGuidance},
		{"Court ruling clarifies consent requirements", models.UpdateRuling},
		{"Draft proposal opens public consultation", models.UpdateProposal},
		{"Annual privacy conference announced", models.UpdateOther},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyUpdateType(tt.text))
		})
	}
}

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		text     string
		expected models.UpdateSeverity
	}{
		{"Mandatory compliance deadline announced", models.SeverityCritical},
		{"New requirement effective next quarter", models.SeverityHigh},
		{"Guidance document clarifies scope", models.SeverityMedium},
		{"Conference panel discusses trends", models.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifySeverity(tt.text))
		})
	}
}

func TestUrgencyScore(t *testing.T) {
	assert.Equal(t, 100.0, urgencyScore(models.SeverityCritical, ""))
	assert.Equal(t, 90.0, urgencyScore(models.SeverityHigh, "2 days ago"))
	assert.Equal(t, 55.0, urgencyScore(models.SeverityMedium, "1 week ago"))
	assert.Equal(t, 20.0, urgencyScore(models.SeverityLow, "3 months ago"))
	// Recency bonus never pushes past 100
	assert.Equal(t, 100.0, urgencyScore(models.SeverityCritical, "1 hour ago"))
}

func TestContentHashStable(t *testing.T) {
	a := contentHash("GDPR amendment", "https://example.eu/a")
	b := contentHash("GDPR amendment", "https://example.eu/a")
	c := contentHash("GDPR amendment", "https://example.eu/other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestBuildUpdate(t *testing.T) {
	update := buildUpdate("HIPAA", SearchResult{
		Title:   "OCR enforcement action results in penalty",
		Snippet: "A covered entity was fined for a breach.",
		Link:    "https://hhs.gov/news/1",
		Source:  "hhs.gov",
		Date:    "3 days ago",
	})

	assert.Equal(t, "HIPAA", update.Framework)
	assert.Equal(t, models.UpdateEnforcement, update.UpdateType)
	assert.Equal(t, models.SeverityHigh, update.Severity)
	assert.NotEmpty(t, update.ContentHash)
	assert.Greater(t, update.UrgencyScore, 0.0)
}

func TestSeverityRank(t *testing.T) {
	assert.Greater(t, models.SeverityRank(models.SeverityCritical), models.SeverityRank(models.SeverityHigh))
	assert.Greater(t, models.SeverityRank(models.SeverityHigh), models.SeverityRank(models.SeverityMedium))
	assert.Greater(t, models.SeverityRank(models.SeverityMedium), models.SeverityRank(models.SeverityLow))
	assert.Equal(t, 0, models.SeverityRank(models.UpdateSeverity("bogus")))
}

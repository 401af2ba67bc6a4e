package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"compliance-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *models.ComplianceReport {
	return &models.ComplianceReport{
		ID:                uuid.New(),
		DocumentID:        uuid.New(),
		FrameworksChecked: []string{"GDPR", "HIPAA"},
		OverallScore:      72.5,
		FrameworkScores:   models.FrameworkScores{"GDPR": 80.0, "HIPAA": 65.0},
		ClauseResults: models.ClauseResults{
			{
				ClauseID:   "clause_1",
				ClauseText: "The processor shall notify the controller of any breach.",
				ClauseType: "Breach Notification",
				Framework:  "GDPR",
				Status:     models.StatusPartial,
				RiskLevel:  models.RiskHigh,
				Confidence: 0.82,
				Matches: []models.RequirementMatch{
					{RequirementID: "GDPR_ART33_01", ArticleReference: "Article 33", Similarity: 0.61},
				},
				Recommendation: "Add the 72-hour deadline.",
			},
		},
		MissingRequirements: models.MissingRequirements{
			{
				Requirement: models.Requirement{
					RequirementID:    "GDPR_ART28_01",
					Framework:        "GDPR",
					ArticleReference: "Article 28(3)",
					ClauseType:       "Data Processing",
					Description:      "Processing only on documented instructions.",
					Mandatory:        true,
					RiskLevel:        models.RiskHigh,
				},
				Recommendation: "Add a documented-instructions clause.",
			},
		},
		HighRiskItems: models.ClauseResults{
			{ClauseID: "clause_1", Framework: "GDPR", ClauseType: "Breach Notification", Status: models.StatusPartial, RiskLevel: models.RiskHigh, Confidence: 0.82},
		},
		Summary:   models.Summary{TotalClauses: 1, PartialClauses: 1, HighRiskCount: 1},
		CreatedAt: time.Now(),
	}
}

func TestExportJSON(t *testing.T) {
	report := sampleReport()

	data, contentType, filename, err := Export(report, FormatJSON)

	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.Contains(t, filename, ".json")

	var decoded models.ComplianceReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report.ID, decoded.ID)
	assert.Equal(t, 72.5, decoded.OverallScore)
}

func TestExportCSV(t *testing.T) {
	report := sampleReport()

	data, contentType, filename, err := Export(report, FormatCSV)

	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, filename, ".csv")

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)

	// Header + one clause result + one missing requirement
	require.Len(t, records, 3)
	assert.Equal(t, "clause_id", records[0][0])
	assert.Equal(t, "clause_1", records[1][0])
	assert.Equal(t, "partial", records[1][3])
	assert.Equal(t, "GDPR_ART28_01", records[2][0])
	assert.Equal(t, "missing", records[2][3])
}

func TestExportPDF(t *testing.T) {
	data, contentType, filename, err := Export(sampleReport(), FormatPDF)

	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.Contains(t, filename, ".pdf")
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestExportUnsupportedFormat(t *testing.T) {
	_, _, _, err := Export(sampleReport(), ExportFormat("xml"))

	assert.ErrorIs(t, err, ErrUnsupportedExportFormat)
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ComplianceStatus buckets how well a clause satisfies its matched requirements
type ComplianceStatus string

const (
	StatusCompliant     ComplianceStatus = "compliant"
	StatusPartial       ComplianceStatus = "partial"
	StatusNonCompliant  ComplianceStatus = "non_compliant"
	StatusNotApplicable ComplianceStatus = "not_applicable"
)

// RequirementMatch records one requirement matched to a clause
type RequirementMatch struct {
	RequirementID    string  `json:"requirement_id"`
	ArticleReference string  `json:"article_reference"`
	Similarity       float64 `json:"similarity"`
}

// ClauseResult is the compliance outcome for a single clause in one framework
type ClauseResult struct {
	ClauseID       string             `json:"clause_id"`
	ClauseText     string             `json:"clause_text"`
	ClauseType     string             `json:"clause_type"`
	Framework      string             `json:"framework"`
	Status         ComplianceStatus   `json:"status"`
	RiskLevel      RiskLevel          `json:"risk_level"`
	Confidence     float64            `json:"confidence"`
	Matches        []RequirementMatch `json:"matches,omitempty"`
	Recommendation string             `json:"recommendation,omitempty"`
}

// ClauseResults is a list of clause results stored as JSONB
type ClauseResults []ClauseResult

// Value implements driver.Valuer for JSONB
func (c ClauseResults) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB
func (c *ClauseResults) Scan(value interface{}) error {
	return scanJSONB(value, c, func() { *c = make(ClauseResults, 0) })
}

// MissingRequirement is a mandatory requirement no clause covered
type MissingRequirement struct {
	Requirement    Requirement `json:"requirement"`
	Recommendation string      `json:"recommendation,omitempty"`
}

// MissingRequirements is a list of missing requirements stored as JSONB
type MissingRequirements []MissingRequirement

// Value implements driver.Valuer for JSONB
func (m MissingRequirements) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB
func (m *MissingRequirements) Scan(value interface{}) error {
	return scanJSONB(value, m, func() { *m = make(MissingRequirements, 0) })
}

// Summary holds per-status and per-risk counts for a report
type Summary struct {
	TotalClauses        int `json:"total_clauses"`
	CompliantClauses    int `json:"compliant_clauses"`
	PartialClauses      int `json:"partial_clauses"`
	NonCompliantClauses int `json:"non_compliant_clauses"`
	NotApplicable       int `json:"not_applicable"`
	HighRiskCount       int `json:"high_risk_count"`
	MediumRiskCount     int `json:"medium_risk_count"`
	LowRiskCount        int `json:"low_risk_count"`
}

// Value implements driver.Valuer for JSONB
func (s Summary) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB
func (s *Summary) Scan(value interface{}) error {
	return scanJSONB(value, s, func() { *s = Summary{} })
}

// FrameworkScores maps framework name to its compliance score
type FrameworkScores map[string]float64

// Value implements driver.Valuer for JSONB
func (f FrameworkScores) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner for JSONB
func (f *FrameworkScores) Scan(value interface{}) error {
	return scanJSONB(value, f, func() { *f = make(FrameworkScores) })
}

// ComplianceReport is the full result of analyzing one document
type ComplianceReport struct {
	ID                  uuid.UUID           `json:"id"`
	DocumentID          uuid.UUID           `json:"document_id"`
	FrameworksChecked   []string            `json:"frameworks_checked"`
	OverallScore        float64             `json:"overall_score"`
	FrameworkScores     FrameworkScores     `json:"framework_scores"`
	ClauseResults       ClauseResults       `json:"clause_results"`
	MissingRequirements MissingRequirements `json:"missing_requirements"`
	HighRiskItems       ClauseResults       `json:"high_risk_items"`
	PriorityIssues      ClauseResults       `json:"priority_issues"`
	Summary             Summary             `json:"summary"`
	CreatedAt           time.Time           `json:"created_at"`
}

// scanJSONB decodes a JSONB column that pgx may return as []byte, string, or nil
func scanJSONB(value interface{}, dest interface{}, reset func()) error {
	if value == nil {
		reset()
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		reset()
		return nil
	}

	if len(bytes) == 0 {
		reset()
		return nil
	}

	return json.Unmarshal(bytes, dest)
}

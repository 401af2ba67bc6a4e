package models

// RiskLevel classifies how severe a compliance gap is
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
)

// Requirement represents a single regulatory obligation from the knowledge base
type Requirement struct {
	RequirementID     string    `json:"requirement_id"`
	Framework         string    `json:"framework"`
	ArticleReference  string    `json:"article_reference"`
	ClauseType        string    `json:"clause_type"`
	Description       string    `json:"description"`
	Mandatory         bool      `json:"mandatory"`
	Keywords          []string  `json:"keywords"`
	MandatoryElements []string  `json:"mandatory_elements,omitempty"`
	RiskLevel         RiskLevel `json:"risk_level"`
	Distance          float64   `json:"distance,omitempty"` // Vector similarity distance
}

// EmbeddingText returns the text a requirement is embedded from
func (r *Requirement) EmbeddingText() string {
	text := r.Description
	for _, kw := range r.Keywords {
		text += " " + kw
	}
	return text
}

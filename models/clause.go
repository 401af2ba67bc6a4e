package models

// Clause represents a discrete provision extracted from a contract
type Clause struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`
	WordCount int    `json:"word_count"`
}

// ClauseAnalysis is a clause with its classification and embedding
type ClauseAnalysis struct {
	Clause         Clause    `json:"clause"`
	ClauseType     string    `json:"clause_type"`
	RegulatoryType string    `json:"regulatory_type,omitempty"`
	Confidence     float64   `json:"confidence"`
	Embedding      []float64 `json:"-"`
}

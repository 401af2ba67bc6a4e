package models

import (
	"time"

	"github.com/google/uuid"
)

// UpdateType classifies what kind of regulatory change an update describes
type UpdateType string

const (
	UpdateAmendment   UpdateType = "amendment"
	UpdateGuidance    UpdateType = "guidance"
	UpdateEnforcement UpdateType = "enforcement"
	UpdateRuling      UpdateType = "ruling"
	UpdateProposal    UpdateType = "proposal"
	UpdateOther       UpdateType = "other"
)

// UpdateSeverity indicates how urgent a regulatory update is
type UpdateSeverity string

const (
	SeverityCritical UpdateSeverity = "critical"
	SeverityHigh     UpdateSeverity = "high"
	SeverityMedium   UpdateSeverity = "medium"
	SeverityLow      UpdateSeverity = "low"
)

// SeverityRank orders severities for minimum-severity filtering.
// Unknown severities rank below low.
func SeverityRank(s UpdateSeverity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// RegulatoryUpdate is a news item about a regulatory framework,
// deduplicated by a content hash over title and link.
type RegulatoryUpdate struct {
	ID           uuid.UUID      `json:"id"`
	Framework    string         `json:"framework"`
	Title        string         `json:"title"`
	Snippet      string         `json:"snippet"`
	Link         string         `json:"link"`
	Source       string         `json:"source,omitempty"`
	UpdateType   UpdateType     `json:"update_type"`
	Severity     UpdateSeverity `json:"severity"`
	UrgencyScore float64        `json:"urgency_score"`
	ContentHash  string         `json:"content_hash"`
	PublishedAt  *time.Time     `json:"published_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

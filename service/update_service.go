package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"compliance-backend/kb"
	"compliance-backend/models"
	"compliance-backend/repository"
)

// UpdateService sweeps regulatory sources for changes and persists what it finds
type UpdateService struct {
	serper     *SerperClient
	updateRepo *repository.RegulatoryUpdateRepository
	notifier   *SlackNotifier
}

// UpdateServiceOption is a functional option for UpdateService
type UpdateServiceOption func(*UpdateService)

// UpdateWithSerperClient sets the search client
func UpdateWithSerperClient(client *SerperClient) UpdateServiceOption {
	return func(s *UpdateService) {
		s.serper = client
	}
}

// UpdateWithRepository sets the regulatory update repository
func UpdateWithRepository(repo *repository.RegulatoryUpdateRepository) UpdateServiceOption {
	return func(s *UpdateService) {
		s.updateRepo = repo
	}
}

// UpdateWithNotifier sets the Slack notifier for severe updates
func UpdateWithNotifier(notifier *SlackNotifier) UpdateServiceOption {
	return func(s *UpdateService) {
		s.notifier = notifier
	}
}

// NewUpdateService creates a new regulatory update service
func NewUpdateService(opts ...UpdateServiceOption) *UpdateService {
	s := &UpdateService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckResult summarizes one sweep across frameworks
type CheckResult struct {
	Checked     []string                   `json:"frameworks_checked"`
	NewUpdates  []*models.RegulatoryUpdate `json:"new_updates"`
	TotalFound  int                        `json:"total_found"`
	NewCount    int                        `json:"new_count"`
	ElapsedTime string                     `json:"elapsed_time"`
}

// CheckFrameworks sweeps the given frameworks (all when empty) for regulatory
// updates from the past week, deduplicates against stored rows and notifies
// on critical findings.
func (s *UpdateService) CheckFrameworks(ctx context.Context, frameworks []string) (*CheckResult, error) {
	if s.serper == nil || !s.serper.Configured() {
		return nil, ErrSerperNotConfigured
	}
	if s.updateRepo == nil {
		return nil, errors.New("regulatory update repository not set")
	}

	if len(frameworks) == 0 {
		frameworks = kb.Frameworks
	} else {
		normalized, err := normalizeFrameworks(frameworks)
		if err != nil {
			return nil, err
		}
		frameworks = normalized
	}

	start := time.Now()
	result := &CheckResult{Checked: frameworks}

	for _, framework := range frameworks {
		searchResults, err := s.serper.SearchRegulatoryUpdates(ctx, framework, "w")
		if err != nil {
			return nil, fmt.Errorf("failed to check %s: %w", framework, err)
		}
		result.TotalFound += len(searchResults)

		for _, sr := range searchResults {
			update := buildUpdate(framework, sr)
			inserted, err := s.updateRepo.Create(ctx, update)
			if err != nil {
				return nil, fmt.Errorf("failed to save update: %w", err)
			}
			if !inserted {
				continue
			}
			result.NewUpdates = append(result.NewUpdates, update)
			result.NewCount++

			if s.notifier != nil {
				if err := s.notifier.NotifyRegulatoryUpdate(update); err != nil {
					log.Printf("Warning: failed to notify about update %s: %v", update.ID, err)
				}
			}
		}
	}

	result.ElapsedTime = time.Since(start).Round(time.Millisecond).String()
	log.Printf("Regulatory sweep over %v: %d found, %d new", frameworks, result.TotalFound, result.NewCount)
	return result, nil
}

// ListUpdates returns stored updates, optionally filtered by framework and
// by minimum severity.
func (s *UpdateService) ListUpdates(ctx context.Context, framework string, minSeverity models.UpdateSeverity, limit int) ([]*models.RegulatoryUpdate, error) {
	if s.updateRepo == nil {
		return nil, errors.New("regulatory update repository not set")
	}
	if limit <= 0 {
		limit = 50
	}

	framework = strings.ToUpper(strings.TrimSpace(framework))
	updates, err := s.updateRepo.List(ctx, framework, limit)
	if err != nil {
		return nil, err
	}

	if minSeverity == "" {
		return updates, nil
	}

	floor := models.SeverityRank(minSeverity)
	filtered := make([]*models.RegulatoryUpdate, 0, len(updates))
	for _, u := range updates {
		if models.SeverityRank(u.Severity) >= floor {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

// buildUpdate turns a search result into a classified regulatory update
func buildUpdate(framework string, sr SearchResult) *models.RegulatoryUpdate {
	text := sr.Title + " " + sr.Snippet
	severity := classifySeverity(text)

	return &models.RegulatoryUpdate{
		Framework:    framework,
		Title:        sr.Title,
		Snippet:      sr.Snippet,
		Link:         sr.Link,
		Source:       sr.Source,
		UpdateType:   classifyUpdateType(text),
		Severity:     severity,
		UrgencyScore: urgencyScore(severity, sr.Date),
		ContentHash:  contentHash(sr.Title, sr.Link),
	}
}

// classifyUpdateType buckets an update by keywords in its title and snippet
func classifyUpdateType(text string) models.UpdateType {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, "amendment", "amended", "modified", "revised"):
		return models.UpdateAmendment
	case containsAny(lower, "enforcement", "fine", "penalty", "violation"):
		return models.UpdateEnforcement
	case containsAny(lower, "guidance", "clarification", "interpretation", "best practice"):
		return models.UpdateGuidance
	case containsAny(lower, "court", "ruling", "decision", "case"):
		return models.UpdateRuling
	case containsAny(lower, "proposed", "proposal", "draft"):
		return models.UpdateProposal
	default:
		return models.UpdateOther
	}
}

// classifySeverity estimates how urgent an update is from its wording
func classifySeverity(text string) models.UpdateSeverity {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, "immediate", "mandatory", "deadline", "enforcement action", "must comply"):
		return models.SeverityCritical
	case containsAny(lower, "new requirement", "amendment", "fine", "penalty", "effective"):
		return models.SeverityHigh
	case containsAny(lower, "guidance", "clarification", "update", "revised"):
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// urgencyScore computes a 0-100 urgency from severity and recency
func urgencyScore(severity models.UpdateSeverity, dateText string) float64 {
	score := 0.0
	switch severity {
	case models.SeverityCritical:
		score = 100
	case models.SeverityHigh:
		score = 80
	case models.SeverityMedium:
		score = 50
	case models.SeverityLow:
		score = 20
	default:
		score = 50
	}

	// Serper dates are loose strings like "2 days ago"
	lower := strings.ToLower(dateText)
	if strings.Contains(lower, "hour") || strings.Contains(lower, "day") {
		score += 10
	} else if strings.Contains(lower, "week") {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}

func containsAny(text string, substrings ...string) bool {
	for _, s := range substrings {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

func contentHash(title, link string) string {
	sum := sha256.Sum256([]byte(title + "|" + link))
	return hex.EncodeToString(sum[:])
}

// Package kb holds the regulatory requirement knowledge base for the
// GDPR, HIPAA, CCPA, and SOX frameworks. The seed data ships embedded in
// the binary and can be replaced with an extended set via the
// REQUIREMENTS_FILE environment variable.
package kb

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	_ "embed"

	"compliance-backend/models"
)

//go:embed data/requirements.json
var embeddedRequirements []byte

// Frameworks lists the supported regulatory frameworks
var Frameworks = []string{"GDPR", "HIPAA", "CCPA", "SOX"}

var (
	ErrUnknownFramework    = errors.New("unknown framework")
	ErrRequirementNotFound = errors.New("requirement not found")
)

// KnowledgeBase indexes regulatory requirements by framework
type KnowledgeBase struct {
	byFramework map[string][]models.Requirement
	byID        map[string]models.Requirement
}

type requirementsFile struct {
	Requirements []rawRequirement `json:"requirements"`
}

type rawRequirement struct {
	RequirementID     string   `json:"requirement_id"`
	Framework         string   `json:"framework"`
	ArticleReference  string   `json:"article_reference"`
	ClauseType        string   `json:"clause_type"`
	Description       string   `json:"description"`
	Mandatory         bool     `json:"mandatory"`
	Keywords          []string `json:"keywords"`
	MandatoryElements []string `json:"mandatory_elements"`
	RiskLevel         string   `json:"risk_level"`
}

// Load builds the knowledge base from the embedded seed data, or from the
// file named by REQUIREMENTS_FILE when that variable is set.
func Load() (*KnowledgeBase, error) {
	data := embeddedRequirements

	if path := os.Getenv("REQUIREMENTS_FILE"); path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read requirements file %s: %w", path, err)
		}
		log.Printf("Loading requirements from file: %s", path)
		data = fileData
	}

	var file requirementsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse requirements: %w", err)
	}
	if len(file.Requirements) == 0 {
		return nil, errors.New("requirements data is empty")
	}

	kb := &KnowledgeBase{
		byFramework: make(map[string][]models.Requirement),
		byID:        make(map[string]models.Requirement),
	}

	for _, raw := range file.Requirements {
		req := models.Requirement{
			RequirementID:     raw.RequirementID,
			Framework:         strings.ToUpper(strings.TrimSpace(raw.Framework)),
			ArticleReference:  raw.ArticleReference,
			ClauseType:        raw.ClauseType,
			Description:       raw.Description,
			Mandatory:         raw.Mandatory,
			Keywords:          raw.Keywords,
			MandatoryElements: raw.MandatoryElements,
			RiskLevel:         parseRiskLevel(raw.RiskLevel),
		}
		kb.byFramework[req.Framework] = append(kb.byFramework[req.Framework], req)
		kb.byID[req.RequirementID] = req
	}

	for _, fw := range Frameworks {
		log.Printf("Loaded %d %s requirements", len(kb.byFramework[fw]), fw)
	}

	return kb, nil
}

// parseRiskLevel maps risk level strings to RiskLevel values.
// "Critical" collapses to High; anything unrecognized defaults to Medium.
func parseRiskLevel(s string) models.RiskLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "critical":
		return models.RiskHigh
	case "low":
		return models.RiskLow
	default:
		return models.RiskMedium
	}
}

// Requirements returns all requirements for a framework
func (kb *KnowledgeBase) Requirements(framework string) ([]models.Requirement, error) {
	reqs, ok := kb.byFramework[strings.ToUpper(strings.TrimSpace(framework))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFramework, framework)
	}
	return reqs, nil
}

// All returns every requirement across all frameworks, ordered by framework
func (kb *KnowledgeBase) All() []models.Requirement {
	frameworks := make([]string, 0, len(kb.byFramework))
	for fw := range kb.byFramework {
		frameworks = append(frameworks, fw)
	}
	sort.Strings(frameworks)

	var all []models.Requirement
	for _, fw := range frameworks {
		all = append(all, kb.byFramework[fw]...)
	}
	return all
}

// ByClauseType returns requirements matching a clause type, optionally
// restricted to a single framework. Matching is case-insensitive with
// whitespace trimmed.
func (kb *KnowledgeBase) ByClauseType(clauseType, framework string) []models.Requirement {
	var pool []models.Requirement
	if framework != "" {
		reqs, err := kb.Requirements(framework)
		if err != nil {
			return nil
		}
		pool = reqs
	} else {
		pool = kb.All()
	}

	want := strings.ToLower(strings.TrimSpace(clauseType))
	var matched []models.Requirement
	for _, req := range pool {
		if strings.ToLower(strings.TrimSpace(req.ClauseType)) == want {
			matched = append(matched, req)
		}
	}
	return matched
}

// Mandatory returns all mandatory requirements for a framework
func (kb *KnowledgeBase) Mandatory(framework string) ([]models.Requirement, error) {
	reqs, err := kb.Requirements(framework)
	if err != nil {
		return nil, err
	}

	var mandatory []models.Requirement
	for _, req := range reqs {
		if req.Mandatory {
			mandatory = append(mandatory, req)
		}
	}
	return mandatory, nil
}

// ByID looks up a single requirement by its identifier
func (kb *KnowledgeBase) ByID(requirementID string) (models.Requirement, error) {
	req, ok := kb.byID[requirementID]
	if !ok {
		return models.Requirement{}, fmt.Errorf("%w: %s", ErrRequirementNotFound, requirementID)
	}
	return req, nil
}

// SearchKeyword returns requirements whose keywords, description, or
// article reference contain the given keyword, optionally restricted to
// a framework.
func (kb *KnowledgeBase) SearchKeyword(keyword, framework string) []models.Requirement {
	var pool []models.Requirement
	if framework != "" {
		reqs, err := kb.Requirements(framework)
		if err != nil {
			return nil
		}
		pool = reqs
	} else {
		pool = kb.All()
	}

	want := strings.ToLower(keyword)
	var matched []models.Requirement
	for _, req := range pool {
		haystack := strings.ToLower(strings.Join(req.Keywords, " ") + " " + req.Description + " " + req.ArticleReference)
		if strings.Contains(haystack, want) {
			matched = append(matched, req)
		}
	}
	return matched
}

// ClauseTypes returns the distinct clause types present in a framework
func (kb *KnowledgeBase) ClauseTypes(framework string) []string {
	reqs, err := kb.Requirements(framework)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var types []string
	for _, req := range reqs {
		if !seen[req.ClauseType] {
			seen[req.ClauseType] = true
			types = append(types, req.ClauseType)
		}
	}
	sort.Strings(types)
	return types
}

// FrameworkStats summarizes requirement counts for one framework
type FrameworkStats struct {
	Total     int `json:"total"`
	Mandatory int `json:"mandatory"`
	Optional  int `json:"optional"`
}

// Statistics reports per-framework requirement counts
func (kb *KnowledgeBase) Statistics() map[string]FrameworkStats {
	stats := make(map[string]FrameworkStats)
	for fw, reqs := range kb.byFramework {
		s := FrameworkStats{Total: len(reqs)}
		for _, req := range reqs {
			if req.Mandatory {
				s.Mandatory++
			}
		}
		s.Optional = s.Total - s.Mandatory
		stats[fw] = s
	}
	return stats
}

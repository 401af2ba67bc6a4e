package service

import (
	"math"
	"sort"

	"compliance-backend/models"
)

const (
	compliantWeight = 1.0
	partialWeight   = 0.70
	// Each missing mandatory requirement costs missingPenalty points,
	// with the total penalty capped.
	missingPenalty    = 0.15
	maxMissingPenalty = 10.0
)

// OverallScore calculates a 0-100 compliance score. Compliant clauses earn
// full points, partial clauses earn 70%, non-compliant clauses earn none,
// and not-applicable clauses are excluded. Missing mandatory requirements
// apply a capped penalty.
func OverallScore(results []models.ClauseResult, missing []models.MissingRequirement) float64 {
	var compliant, partial, nonCompliant int
	for _, r := range results {
		switch r.Status {
		case models.StatusCompliant:
			compliant++
		case models.StatusPartial:
			partial++
		case models.StatusNonCompliant:
			nonCompliant++
		}
	}

	scorable := compliant + partial + nonCompliant

	baseScore := 0.0
	if scorable > 0 {
		baseScore = (float64(compliant)*compliantWeight + float64(partial)*partialWeight) / float64(scorable) * 100
	}

	mandatoryMissing := 0
	for _, m := range missing {
		if m.Requirement.Mandatory {
			mandatoryMissing++
		}
	}

	finalScore := baseScore
	if mandatoryMissing > 0 {
		penalty := math.Min(float64(mandatoryMissing)*missingPenalty, maxMissingPenalty)
		finalScore = math.Max(0.0, baseScore-penalty)
	}

	return round2(finalScore)
}

// FrameworkScore calculates the score for a single framework
func FrameworkScore(results []models.ClauseResult, missing []models.MissingRequirement, framework string) float64 {
	var frameworkResults []models.ClauseResult
	for _, r := range results {
		if r.Framework == framework {
			frameworkResults = append(frameworkResults, r)
		}
	}

	var frameworkMissing []models.MissingRequirement
	for _, m := range missing {
		if m.Requirement.Framework == framework {
			frameworkMissing = append(frameworkMissing, m)
		}
	}

	return OverallScore(frameworkResults, frameworkMissing)
}

// Summarize counts results by compliance status and risk level
func Summarize(results []models.ClauseResult) models.Summary {
	s := models.Summary{TotalClauses: len(results)}
	for _, r := range results {
		switch r.Status {
		case models.StatusCompliant:
			s.CompliantClauses++
		case models.StatusPartial:
			s.PartialClauses++
		case models.StatusNonCompliant:
			s.NonCompliantClauses++
		case models.StatusNotApplicable:
			s.NotApplicable++
		}

		switch r.RiskLevel {
		case models.RiskHigh:
			s.HighRiskCount++
		case models.RiskMedium:
			s.MediumRiskCount++
		case models.RiskLow:
			s.LowRiskCount++
		}
	}
	return s
}

// defaultPriorityTopN caps how many priority issues a report carries
const defaultPriorityTopN = 10

var riskPriority = map[models.RiskLevel]int{
	models.RiskHigh:   3,
	models.RiskMedium: 2,
	models.RiskLow:    1,
}

var statusPriority = map[models.ComplianceStatus]int{
	models.StatusNonCompliant:  3,
	models.StatusPartial:       2,
	models.StatusCompliant:     1,
	models.StatusNotApplicable: 0,
}

// PriorityIssues returns the top issues to address, ordered by risk level
// descending, then status severity descending, then confidence ascending
// (the least certain verdicts need attention first).
func PriorityIssues(results []models.ClauseResult, topN int) []models.ClauseResult {
	sorted := make([]models.ClauseResult, len(results))
	copy(sorted, results)

	sort.SliceStable(sorted, func(i, j int) bool {
		if riskPriority[sorted[i].RiskLevel] != riskPriority[sorted[j].RiskLevel] {
			return riskPriority[sorted[i].RiskLevel] > riskPriority[sorted[j].RiskLevel]
		}
		if statusPriority[sorted[i].Status] != statusPriority[sorted[j].Status] {
			return statusPriority[sorted[i].Status] > statusPriority[sorted[j].Status]
		}
		return sorted[i].Confidence < sorted[j].Confidence
	})

	if topN > 0 && len(sorted) > topN {
		sorted = sorted[:topN]
	}
	return sorted
}

// HighRiskItems returns the high-risk results sorted by confidence
// ascending, so the least certain items surface first.
func HighRiskItems(results []models.ClauseResult) []models.ClauseResult {
	var highRisk []models.ClauseResult
	for _, r := range results {
		if r.RiskLevel == models.RiskHigh {
			highRisk = append(highRisk, r)
		}
	}

	sort.SliceStable(highRisk, func(i, j int) bool {
		return highRisk[i].Confidence < highRisk[j].Confidence
	})
	return highRisk
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

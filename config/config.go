// Package config centralizes the tunable parameters of the compliance
// pipeline. Values come from environment variables with sensible defaults,
// so a bare deployment works without any of them set.
package config

import (
	"log"
	"os"
	"strconv"
)

// Analysis holds thresholds and limits for the compliance pipeline
type Analysis struct {
	// MatchThreshold is the minimum cosine similarity for a clause to
	// count as matching a requirement at all.
	MatchThreshold float64
	// PartialThreshold and CompliantThreshold bucket matched clauses
	// into partial and compliant statuses.
	PartialThreshold   float64
	CompliantThreshold float64
	// TopKMatches limits how many requirement matches are kept per clause
	TopKMatches int
	// CoverageTopK is the wider match window used when checking whether
	// a mandatory requirement is covered by any clause.
	CoverageTopK int
	// MinClauseLength drops fragments shorter than this many characters
	MinClauseLength int
	// MaxFileSize caps uploaded document size in bytes
	MaxFileSize int64
	// MaxBatchFiles caps how many documents one batch request may hold
	MaxBatchFiles int
	// BatchWorkers is the number of documents analyzed concurrently in a batch
	BatchWorkers int
}

// DefaultAnalysis returns the built-in analysis parameters
func DefaultAnalysis() Analysis {
	return Analysis{
		MatchThreshold:     0.20,
		PartialThreshold:   0.50,
		CompliantThreshold: 0.75,
		TopKMatches:        3,
		CoverageTopK:       5,
		MinClauseLength:    20,
		MaxFileSize:        10 << 20,
		MaxBatchFiles:      10,
		BatchWorkers:       3,
	}
}

// AnalysisFromEnv returns the default parameters with any environment
// overrides applied.
func AnalysisFromEnv() Analysis {
	a := DefaultAnalysis()
	a.MatchThreshold = envThreshold("MATCH_THRESHOLD", a.MatchThreshold)
	a.PartialThreshold = envThreshold("PARTIAL_THRESHOLD", a.PartialThreshold)
	a.CompliantThreshold = envThreshold("COMPLIANT_THRESHOLD", a.CompliantThreshold)
	a.TopKMatches = envInt("TOP_K_MATCHES", a.TopKMatches)
	a.MinClauseLength = envInt("MIN_CLAUSE_LENGTH", a.MinClauseLength)
	a.MaxBatchFiles = envInt("MAX_BATCH_FILES", a.MaxBatchFiles)
	a.BatchWorkers = envInt("BATCH_WORKERS", a.BatchWorkers)
	return a
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Warning: invalid value for %s: %q, using default %v", key, raw, fallback)
		return fallback
	}
	return v
}

// envThreshold reads a similarity threshold, which must land in [0, 1]
func envThreshold(key string, fallback float64) float64 {
	v := envFloat(key, fallback)
	if v < 0 || v > 1 {
		log.Printf("Warning: %s out of range [0, 1]: %v, using default %v", key, v, fallback)
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid value for %s: %q, using default %v", key, raw, fallback)
		return fallback
	}
	return v
}

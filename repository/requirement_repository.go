package repository

import (
	"context"
	"fmt"
	"strings"

	"compliance-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RequirementRepository handles database operations for regulatory
// requirements and their embeddings
type RequirementRepository struct {
	db *pgxpool.Pool
}

// NewRequirementRepository creates a new requirement repository
func NewRequirementRepository(db *pgxpool.Pool) *RequirementRepository {
	return &RequirementRepository{db: db}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Upsert stores a requirement with its embedding, replacing any previous
// version of the same requirement.
func (r *RequirementRepository) Upsert(ctx context.Context, req *models.Requirement, embedding []float64) error {
	if len(embedding) != 768 {
		return fmt.Errorf("embedding must be 768 dimensions, got %d", len(embedding))
	}

	query := `
		INSERT INTO requirements (
			requirement_id, framework, article_reference, clause_type,
			description, mandatory, keywords, mandatory_elements, risk_level, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::vector)
		ON CONFLICT (requirement_id) DO UPDATE SET
			framework = EXCLUDED.framework,
			article_reference = EXCLUDED.article_reference,
			clause_type = EXCLUDED.clause_type,
			description = EXCLUDED.description,
			mandatory = EXCLUDED.mandatory,
			keywords = EXCLUDED.keywords,
			mandatory_elements = EXCLUDED.mandatory_elements,
			risk_level = EXCLUDED.risk_level,
			embedding = EXCLUDED.embedding`

	_, err := r.db.Exec(
		ctx, query,
		req.RequirementID,
		req.Framework,
		req.ArticleReference,
		req.ClauseType,
		req.Description,
		req.Mandatory,
		req.Keywords,
		req.MandatoryElements,
		req.RiskLevel,
		formatVector(embedding),
	)
	return err
}

// Search performs a vector similarity search over requirements.
// embedding: query embedding vector (768 dimensions)
// framework: framework filter (GDPR, HIPAA, CCPA, SOX)
// clauseType: optional clause type filter; empty searches the whole framework
// limit: maximum number of requirements to return
//
// Results carry the cosine distance in the Distance field, nearest first.
func (r *RequirementRepository) Search(
	ctx context.Context,
	embedding []float64,
	framework string,
	clauseType string,
	limit int,
) ([]models.Requirement, error) {
	if len(embedding) != 768 {
		return nil, fmt.Errorf("embedding must be 768 dimensions, got %d", len(embedding))
	}

	vectorStr := formatVector(embedding)

	var clauseFilter string
	var args []interface{}
	if clauseType == "" {
		clauseFilter = ""
		args = []interface{}{vectorStr, framework, limit}
	} else {
		clauseFilter = "AND LOWER(TRIM(clause_type)) = LOWER(TRIM($4))"
		args = []interface{}{vectorStr, framework, limit, clauseType}
	}

	query := fmt.Sprintf(`
		SELECT
			requirement_id,
			framework,
			article_reference,
			clause_type,
			description,
			mandatory,
			keywords,
			mandatory_elements,
			risk_level,
			embedding <=> $1::vector AS distance
		FROM requirements
		WHERE
			framework = $2
			%s
		ORDER BY distance
		LIMIT $3`, clauseFilter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("requirement search failed: %w", err)
	}
	defer rows.Close()

	var requirements []models.Requirement
	for rows.Next() {
		var req models.Requirement
		err := rows.Scan(
			&req.RequirementID,
			&req.Framework,
			&req.ArticleReference,
			&req.ClauseType,
			&req.Description,
			&req.Mandatory,
			&req.Keywords,
			&req.MandatoryElements,
			&req.RiskLevel,
			&req.Distance,
		)
		if err != nil {
			return nil, err
		}
		requirements = append(requirements, req)
	}

	return requirements, rows.Err()
}

// CountByFramework returns the number of stored requirements per framework
func (r *RequirementRepository) CountByFramework(ctx context.Context) (map[string]int, error) {
	query := `SELECT framework, COUNT(*) FROM requirements GROUP BY framework`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var framework string
		var count int
		if err := rows.Scan(&framework, &count); err != nil {
			return nil, err
		}
		counts[framework] = count
	}

	return counts, rows.Err()
}

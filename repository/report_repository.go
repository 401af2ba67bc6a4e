package repository

import (
	"context"

	"compliance-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReportRepository handles database operations for compliance reports
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create persists a compliance report
func (r *ReportRepository) Create(ctx context.Context, report *models.ComplianceReport) error {
	query := `
		INSERT INTO reports (
			document_id, frameworks_checked, overall_score, framework_scores,
			clause_results, missing_requirements, high_risk_items,
			priority_issues, summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		report.DocumentID,
		report.FrameworksChecked,
		report.OverallScore,
		report.FrameworkScores,
		report.ClauseResults,
		report.MissingRequirements,
		report.HighRiskItems,
		report.PriorityIssues,
		report.Summary,
	).Scan(&report.ID, &report.CreatedAt)

	return err
}

// GetByID retrieves a compliance report by ID
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ComplianceReport, error) {
	report := &models.ComplianceReport{}
	query := `
		SELECT id, document_id, frameworks_checked, overall_score, framework_scores,
			clause_results, missing_requirements, high_risk_items,
			priority_issues, summary, created_at
		FROM reports
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&report.ID,
		&report.DocumentID,
		&report.FrameworksChecked,
		&report.OverallScore,
		&report.FrameworkScores,
		&report.ClauseResults,
		&report.MissingRequirements,
		&report.HighRiskItems,
		&report.PriorityIssues,
		&report.Summary,
		&report.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	return report, nil
}

// GetByDocumentID retrieves the latest report for a document
func (r *ReportRepository) GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.ComplianceReport, error) {
	report := &models.ComplianceReport{}
	query := `
		SELECT id, document_id, frameworks_checked, overall_score, framework_scores,
			clause_results, missing_requirements, high_risk_items,
			priority_issues, summary, created_at
		FROM reports
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	err := r.db.QueryRow(ctx, query, documentID).Scan(
		&report.ID,
		&report.DocumentID,
		&report.FrameworksChecked,
		&report.OverallScore,
		&report.FrameworkScores,
		&report.ClauseResults,
		&report.MissingRequirements,
		&report.HighRiskItems,
		&report.PriorityIssues,
		&report.Summary,
		&report.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	return report, nil
}

// List retrieves recent reports, newest first
func (r *ReportRepository) List(ctx context.Context, limit int) ([]*models.ComplianceReport, error) {
	query := `
		SELECT id, document_id, frameworks_checked, overall_score, framework_scores,
			clause_results, missing_requirements, high_risk_items,
			priority_issues, summary, created_at
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*models.ComplianceReport
	for rows.Next() {
		report := &models.ComplianceReport{}
		err := rows.Scan(
			&report.ID,
			&report.DocumentID,
			&report.FrameworksChecked,
			&report.OverallScore,
			&report.FrameworkScores,
			&report.ClauseResults,
			&report.MissingRequirements,
			&report.HighRiskItems,
			&report.PriorityIssues,
			&report.Summary,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

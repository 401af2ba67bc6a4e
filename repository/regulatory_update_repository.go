package repository

import (
	"context"
	"errors"

	"compliance-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegulatoryUpdateRepository handles database operations for regulatory updates
type RegulatoryUpdateRepository struct {
	db *pgxpool.Pool
}

// NewRegulatoryUpdateRepository creates a new regulatory update repository
func NewRegulatoryUpdateRepository(db *pgxpool.Pool) *RegulatoryUpdateRepository {
	return &RegulatoryUpdateRepository{db: db}
}

// Create inserts a regulatory update unless one with the same content hash
// already exists. It returns true when the row was inserted.
func (r *RegulatoryUpdateRepository) Create(ctx context.Context, update *models.RegulatoryUpdate) (bool, error) {
	query := `
		INSERT INTO regulatory_updates (
			framework, title, snippet, link, source, update_type,
			severity, urgency_score, content_hash, published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (content_hash) DO NOTHING
		RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		update.Framework,
		update.Title,
		update.Snippet,
		update.Link,
		update.Source,
		update.UpdateType,
		update.Severity,
		update.UrgencyScore,
		update.ContentHash,
		update.PublishedAt,
	).Scan(&update.ID, &update.CreatedAt)

	if err != nil {
		// pgx returns ErrNoRows when the conflict clause swallowed the insert
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// List retrieves recent updates, newest first, optionally filtered by framework
func (r *RegulatoryUpdateRepository) List(ctx context.Context, framework string, limit int) ([]*models.RegulatoryUpdate, error) {
	var query string
	var args []interface{}

	if framework == "" {
		query = `
			SELECT id, framework, title, snippet, link, source, update_type,
				severity, urgency_score, content_hash, published_at, created_at
			FROM regulatory_updates
			ORDER BY created_at DESC
			LIMIT $1`
		args = []interface{}{limit}
	} else {
		query = `
			SELECT id, framework, title, snippet, link, source, update_type,
				severity, urgency_score, content_hash, published_at, created_at
			FROM regulatory_updates
			WHERE framework = $2
			ORDER BY created_at DESC
			LIMIT $1`
		args = []interface{}{limit, framework}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updates []*models.RegulatoryUpdate
	for rows.Next() {
		update := &models.RegulatoryUpdate{}
		err := rows.Scan(
			&update.ID,
			&update.Framework,
			&update.Title,
			&update.Snippet,
			&update.Link,
			&update.Source,
			&update.UpdateType,
			&update.Severity,
			&update.UrgencyScore,
			&update.ContentHash,
			&update.PublishedAt,
			&update.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		updates = append(updates, update)
	}

	return updates, rows.Err()
}

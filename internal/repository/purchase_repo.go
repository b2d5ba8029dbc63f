package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"siteops/internal/model"
)

type PurchaseRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPurchaseRepository(db *pgxpool.Pool, logger *zap.Logger) *PurchaseRepository {
	return &PurchaseRepository{db: db, logger: logger}
}

func (r *PurchaseRepository) Insert(ctx context.Context, p *model.PurchaseRequest) (int, error) {
	var id int
	err := r.db.QueryRow(ctx, `
		INSERT INTO purchase_requests (project_id, requested_by, item, quantity, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, p.ProjectID, p.RequestedBy, p.Item, p.Quantity, model.PurchaseStatusPending).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert purchase request",
			zap.Error(err),
			zap.Int("project_id", p.ProjectID),
		)
		return 0, err
	}
	r.logger.Info("Purchase request inserted", zap.Int("request_id", id))
	return id, nil
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id int) (*model.PurchaseRequest, error) {
	var p model.PurchaseRequest
	err := r.db.QueryRow(ctx, `
		SELECT id, project_id, requested_by, item, quantity, status,
		       decided_by, decided_at, created_at
		FROM purchase_requests WHERE id = $1
	`, id).Scan(&p.ID, &p.ProjectID, &p.RequestedBy, &p.Item, &p.Quantity,
		&p.Status, &p.DecidedBy, &p.DecidedAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase request %d: %w", id, model.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (r *PurchaseRepository) ListByProject(ctx context.Context, projectID int) ([]model.PurchaseRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, project_id, requested_by, item, quantity, status,
		       decided_by, decided_at, created_at
		FROM purchase_requests WHERE project_id = $1 ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		r.logger.Error("Failed to query purchase requests",
			zap.Error(err),
			zap.Int("project_id", projectID),
		)
		return nil, err
	}
	defer rows.Close()

	requests := []model.PurchaseRequest{}
	for rows.Next() {
		var p model.PurchaseRequest
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.RequestedBy, &p.Item, &p.Quantity,
			&p.Status, &p.DecidedBy, &p.DecidedAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, p)
	}
	return requests, rows.Err()
}

// Decide records an approve/reject decision; only pending requests move.
func (r *PurchaseRepository) Decide(ctx context.Context, id int, status string, decidedBy int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE purchase_requests
		SET status = $1, decided_by = $2, decided_at = NOW()
		WHERE id = $3 AND status = $4
	`, status, decidedBy, id, model.PurchaseStatusPending)
	if err != nil {
		r.logger.Error("Failed to decide purchase request",
			zap.Error(err),
			zap.Int("request_id", id),
		)
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchase request %d not pending: %w", id, model.ErrInvalidInput)
	}
	return nil
}

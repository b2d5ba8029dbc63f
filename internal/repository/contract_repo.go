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

type ContractRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewContractRepository(db *pgxpool.Pool, logger *zap.Logger) *ContractRepository {
	return &ContractRepository{db: db, logger: logger}
}

func (r *ContractRepository) Insert(ctx context.Context, c *model.Contract) (int, error) {
	var id int
	err := r.db.QueryRow(ctx, `
		INSERT INTO contracts (project_id, title, vendor, amount_cents, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, c.ProjectID, c.Title, c.Vendor, c.AmountCents, c.Status).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert contract", zap.Error(err), zap.String("title", c.Title))
		return 0, err
	}
	r.logger.Info("Contract inserted", zap.Int("contract_id", id))
	return id, nil
}

func (r *ContractRepository) GetByID(ctx context.Context, id int) (*model.Contract, error) {
	var c model.Contract
	err := r.db.QueryRow(ctx, `
		SELECT id, project_id, title, vendor, amount_cents, status, signed_at, created_at
		FROM contracts WHERE id = $1
	`, id).Scan(&c.ID, &c.ProjectID, &c.Title, &c.Vendor, &c.AmountCents, &c.Status, &c.SignedAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("contract %d: %w", id, model.ErrNotFound)
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContractRepository) ListByProject(ctx context.Context, projectID int) ([]model.Contract, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, project_id, title, vendor, amount_cents, status, signed_at, created_at
		FROM contracts WHERE project_id = $1 ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		r.logger.Error("Failed to query contracts", zap.Error(err), zap.Int("project_id", projectID))
		return nil, err
	}
	defer rows.Close()

	contracts := []model.Contract{}
	for rows.Next() {
		var c model.Contract
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Title, &c.Vendor, &c.AmountCents, &c.Status, &c.SignedAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

// MarkSigned sets the contract signed and stamps signed_at.
func (r *ContractRepository) MarkSigned(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE contracts SET status = $1, signed_at = NOW() WHERE id = $2
	`, model.ContractStatusSigned, id)
	if err != nil {
		r.logger.Error("Failed to mark contract signed", zap.Error(err), zap.Int("contract_id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contract %d: %w", id, model.ErrNotFound)
	}
	return nil
}

func (r *ContractRepository) SetStatus(ctx context.Context, id int, status string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE contracts SET status = $1 WHERE id = $2
	`, status, id)
	if err != nil {
		r.logger.Error("Failed to set contract status", zap.Error(err), zap.Int("contract_id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contract %d: %w", id, model.ErrNotFound)
	}
	return nil
}

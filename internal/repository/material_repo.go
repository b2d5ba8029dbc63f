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

type MaterialRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMaterialRepository(db *pgxpool.Pool, logger *zap.Logger) *MaterialRepository {
	return &MaterialRepository{db: db, logger: logger}
}

func (r *MaterialRepository) Insert(ctx context.Context, m *model.Material) (int, error) {
	var id int
	err := r.db.QueryRow(ctx, `
		INSERT INTO materials (project_id, name, unit, quantity, threshold)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, m.ProjectID, m.Name, m.Unit, m.Quantity, m.Threshold).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert material", zap.Error(err), zap.String("name", m.Name))
		return 0, err
	}
	r.logger.Info("Material inserted", zap.Int("material_id", id))
	return id, nil
}

func (r *MaterialRepository) GetByID(ctx context.Context, id int) (*model.Material, error) {
	var m model.Material
	err := r.db.QueryRow(ctx, `
		SELECT id, project_id, name, unit, quantity, threshold, created_at, updated_at
		FROM materials WHERE id = $1
	`, id).Scan(&m.ID, &m.ProjectID, &m.Name, &m.Unit, &m.Quantity, &m.Threshold, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("material %d: %w", id, model.ErrNotFound)
		}
		return nil, err
	}
	return &m, nil
}

func (r *MaterialRepository) ListByProject(ctx context.Context, projectID int) ([]model.Material, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, project_id, name, unit, quantity, threshold, created_at, updated_at
		FROM materials WHERE project_id = $1 ORDER BY name ASC
	`, projectID)
	if err != nil {
		r.logger.Error("Failed to query materials", zap.Error(err), zap.Int("project_id", projectID))
		return nil, err
	}
	defer rows.Close()

	materials := []model.Material{}
	for rows.Next() {
		var m model.Material
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Unit, &m.Quantity, &m.Threshold, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (r *MaterialRepository) Update(ctx context.Context, m *model.Material) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE materials
		SET name = $1, unit = $2, quantity = $3, threshold = $4, updated_at = NOW()
		WHERE id = $5
	`, m.Name, m.Unit, m.Quantity, m.Threshold, m.ID)
	if err != nil {
		r.logger.Error("Failed to update material", zap.Error(err), zap.Int("material_id", m.ID))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("material %d: %w", m.ID, model.ErrNotFound)
	}
	return nil
}

// AdjustQuantity applies a delta to the stored quantity, clamped at zero,
// and returns the refreshed row.
func (r *MaterialRepository) AdjustQuantity(ctx context.Context, id int, delta float64) (*model.Material, error) {
	var m model.Material
	err := r.db.QueryRow(ctx, `
		UPDATE materials
		SET quantity = GREATEST(quantity + $1, 0), updated_at = NOW()
		WHERE id = $2
		RETURNING id, project_id, name, unit, quantity, threshold, created_at, updated_at
	`, delta, id).Scan(&m.ID, &m.ProjectID, &m.Name, &m.Unit, &m.Quantity, &m.Threshold, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("material %d: %w", id, model.ErrNotFound)
		}
		r.logger.Error("Failed to adjust material quantity", zap.Error(err), zap.Int("material_id", id))
		return nil, err
	}
	return &m, nil
}

func (r *MaterialRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete material", zap.Error(err), zap.Int("material_id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("material %d: %w", id, model.ErrNotFound)
	}
	return nil
}

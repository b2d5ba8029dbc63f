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

type EquipmentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewEquipmentRepository(db *pgxpool.Pool, logger *zap.Logger) *EquipmentRepository {
	return &EquipmentRepository{db: db, logger: logger}
}

func (r *EquipmentRepository) Insert(ctx context.Context, e *model.Equipment) (int, error) {
	var id int
	err := r.db.QueryRow(ctx, `
		INSERT INTO equipment (project_id, name, serial, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, e.ProjectID, e.Name, e.Serial, e.Status).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert equipment", zap.Error(err), zap.String("name", e.Name))
		return 0, err
	}
	r.logger.Info("Equipment inserted", zap.Int("equipment_id", id))
	return id, nil
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id int) (*model.Equipment, error) {
	var e model.Equipment
	err := r.db.QueryRow(ctx, `
		SELECT id, project_id, name, serial, status, created_at, updated_at
		FROM equipment WHERE id = $1
	`, id).Scan(&e.ID, &e.ProjectID, &e.Name, &e.Serial, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("equipment %d: %w", id, model.ErrNotFound)
		}
		return nil, err
	}
	return &e, nil
}

func (r *EquipmentRepository) ListByProject(ctx context.Context, projectID int) ([]model.Equipment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, project_id, name, serial, status, created_at, updated_at
		FROM equipment WHERE project_id = $1 ORDER BY name ASC
	`, projectID)
	if err != nil {
		r.logger.Error("Failed to query equipment", zap.Error(err), zap.Int("project_id", projectID))
		return nil, err
	}
	defer rows.Close()

	items := []model.Equipment{}
	for rows.Next() {
		var e model.Equipment
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Name, &e.Serial, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *EquipmentRepository) SetStatus(ctx context.Context, id int, status string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE equipment SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		r.logger.Error("Failed to set equipment status", zap.Error(err), zap.Int("equipment_id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("equipment %d: %w", id, model.ErrNotFound)
	}
	return nil
}

func (r *EquipmentRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete equipment", zap.Error(err), zap.Int("equipment_id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("equipment %d: %w", id, model.ErrNotFound)
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"siteops/internal/model"
	"siteops/pkg/metrics"
)

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{db: db, logger: logger}
}

const projectColumns = `
	id, name, description, location, status, start_date, end_date,
	COALESCE(manager_id, 0), COALESCE(manager_ids, ''), progress,
	created_at, updated_at
`

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Location,
		&p.Status,
		&p.StartDate,
		&p.EndDate,
		&p.ManagerID,
		&p.ManagerIDsJSON,
		&p.Progress,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int) (*model.Project, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("select", "projects", time.Since(start)) }()

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("project %d: %w", id, model.ErrNotFound)
		}
		r.logger.Error("Failed to get project", zap.Error(err), zap.Int("project_id", id))
		return nil, err
	}
	return p, nil
}

func (r *ProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("select", "projects", time.Since(start)) }()

	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query projects", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) Insert(ctx context.Context, p *model.Project) (int, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("insert", "projects", time.Since(start)) }()

	r.logger.Debug("Inserting project", zap.String("name", p.Name))

	var id int
	err := r.db.QueryRow(ctx, `
		INSERT INTO projects (name, description, location, status, start_date,
		                      end_date, manager_id, manager_ids, progress)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0)
		RETURNING id
	`,
		p.Name,
		p.Description,
		p.Location,
		p.Status,
		p.StartDate,
		p.EndDate,
		p.ManagerID,
		p.ManagerIDsJSON,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err), zap.String("name", p.Name))
		return 0, err
	}

	r.logger.Info("Project inserted successfully", zap.Int("project_id", id))
	return id, nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("update", "projects", time.Since(start)) }()

	tag, err := r.db.Exec(ctx, `
		UPDATE projects
		SET name = $1, description = $2, location = $3, status = $4,
		    start_date = $5, end_date = $6, manager_id = $7, manager_ids = $8,
		    updated_at = NOW()
		WHERE id = $9
	`,
		p.Name,
		p.Description,
		p.Location,
		p.Status,
		p.StartDate,
		p.EndDate,
		p.ManagerID,
		p.ManagerIDsJSON,
		p.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update project", zap.Error(err), zap.Int("project_id", p.ID))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %d: %w", p.ID, model.ErrNotFound)
	}
	return nil
}

// UpdateProgress writes the derived progress percentage.
func (r *ProjectRepository) UpdateProgress(ctx context.Context, projectID, progress int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE projects SET progress = $1, updated_at = NOW() WHERE id = $2
	`, progress, projectID)
	if err != nil {
		r.logger.Error("Failed to update project progress",
			zap.Error(err),
			zap.Int("project_id", projectID),
		)
	}
	return err
}

func (r *ProjectRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete project", zap.Error(err), zap.Int("project_id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %d: %w", id, model.ErrNotFound)
	}
	r.logger.Info("Project deleted", zap.Int("project_id", id))
	return nil
}

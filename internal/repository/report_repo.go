package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"siteops/internal/model"
)

type ReportRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewReportRepository(db *pgxpool.Pool, logger *zap.Logger) *ReportRepository {
	return &ReportRepository{db: db, logger: logger}
}

func (r *ReportRepository) Insert(ctx context.Context, rep *model.SiteReport) (int, error) {
	var id int
	err := r.db.QueryRow(ctx, `
		INSERT INTO site_reports (project_id, author_id, report_date, weather,
		                          summary, workforce_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, rep.ProjectID, rep.AuthorID, rep.ReportDate, rep.Weather, rep.Summary, rep.WorkforceCount).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert site report",
			zap.Error(err),
			zap.Int("project_id", rep.ProjectID),
		)
		return 0, err
	}
	r.logger.Info("Site report inserted", zap.Int("report_id", id))
	return id, nil
}

func (r *ReportRepository) ListByProject(ctx context.Context, projectID int) ([]model.SiteReport, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, project_id, author_id, report_date, weather, summary,
		       workforce_count, created_at
		FROM site_reports WHERE project_id = $1 ORDER BY report_date DESC
	`, projectID)
	if err != nil {
		r.logger.Error("Failed to query site reports",
			zap.Error(err),
			zap.Int("project_id", projectID),
		)
		return nil, err
	}
	defer rows.Close()

	reports := []model.SiteReport{}
	for rows.Next() {
		var rep model.SiteReport
		if err := rows.Scan(&rep.ID, &rep.ProjectID, &rep.AuthorID, &rep.ReportDate,
			&rep.Weather, &rep.Summary, &rep.WorkforceCount, &rep.CreatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

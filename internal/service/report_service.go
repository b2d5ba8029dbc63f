package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"siteops/internal/model"
	"siteops/internal/repository"
)

type ReportService struct {
	reports  *repository.ReportRepository
	projects ProjectStore
	logger   *zap.Logger
}

func NewReportService(
	reports *repository.ReportRepository,
	projects ProjectStore,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		reports:  reports,
		projects: projects,
		logger:   logger,
	}
}

type ReportInput struct {
	ReportDate     *time.Time `json:"report_date"`
	Weather        string     `json:"weather"`
	Summary        string     `json:"summary"`
	WorkforceCount int        `json:"workforce_count"`
}

// Create files a daily site report. Any authenticated user on site may file
// one; the report date defaults to today.
func (s *ReportService) Create(ctx context.Context, projectID int, in ReportInput, actorID int) (*model.SiteReport, error) {
	if in.Summary == "" {
		return nil, fmt.Errorf("summary is required: %w", model.ErrInvalidInput)
	}
	if in.WorkforceCount < 0 {
		return nil, fmt.Errorf("workforce count cannot be negative: %w", model.ErrInvalidInput)
	}
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	reportDate := time.Now()
	if in.ReportDate != nil {
		reportDate = *in.ReportDate
	}

	rep := &model.SiteReport{
		ProjectID:      projectID,
		AuthorID:       actorID,
		ReportDate:     reportDate,
		Weather:        in.Weather,
		Summary:        in.Summary,
		WorkforceCount: in.WorkforceCount,
	}
	if _, err := s.reports.Insert(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *ReportService) List(ctx context.Context, projectID int) ([]model.SiteReport, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.reports.ListByProject(ctx, projectID)
}

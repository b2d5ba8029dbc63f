package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"siteops/internal/model"
	"siteops/internal/repository"
)

type MaterialService struct {
	materials *repository.MaterialRepository
	projects  ProjectStore
	notifier  Notifier
	logger    *zap.Logger
}

func NewMaterialService(
	materials *repository.MaterialRepository,
	projects ProjectStore,
	notifier Notifier,
	logger *zap.Logger,
) *MaterialService {
	return &MaterialService{
		materials: materials,
		projects:  projects,
		notifier:  notifier,
		logger:    logger,
	}
}

type MaterialInput struct {
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	Quantity  float64 `json:"quantity"`
	Threshold float64 `json:"threshold"`
}

func (s *MaterialService) Create(ctx context.Context, projectID int, in MaterialInput, actorID int) (*model.Material, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("material name is required: %w", model.ErrInvalidInput)
	}
	if in.Quantity < 0 || in.Threshold < 0 {
		return nil, fmt.Errorf("quantity and threshold cannot be negative: %w", model.ErrInvalidInput)
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !IsProjectManager(actorID, project) {
		return nil, fmt.Errorf("only project managers manage materials: %w", model.ErrForbidden)
	}

	m := &model.Material{
		ProjectID: projectID,
		Name:      in.Name,
		Unit:      in.Unit,
		Quantity:  in.Quantity,
		Threshold: in.Threshold,
	}
	id, err := s.materials.Insert(ctx, m)
	if err != nil {
		return nil, err
	}
	return s.materials.GetByID(ctx, id)
}

func (s *MaterialService) List(ctx context.Context, projectID int) ([]model.Material, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.materials.ListByProject(ctx, projectID)
}

func (s *MaterialService) Update(ctx context.Context, id int, in MaterialInput, actorID int) (*model.Material, error) {
	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, m.ProjectID)
	if err != nil {
		return nil, err
	}
	if !IsProjectManager(actorID, project) {
		return nil, fmt.Errorf("only project managers manage materials: %w", model.ErrForbidden)
	}

	if in.Name != "" {
		m.Name = in.Name
	}
	if in.Unit != "" {
		m.Unit = in.Unit
	}
	if in.Threshold >= 0 {
		m.Threshold = in.Threshold
	}
	if err := s.materials.Update(ctx, m); err != nil {
		return nil, err
	}
	return s.materials.GetByID(ctx, id)
}

// Adjust applies a stock delta (deliveries positive, consumption negative).
// When the result drops below the threshold, project managers get a low-stock
// notification; the adjustment itself is not blocked.
func (s *MaterialService) Adjust(ctx context.Context, id int, delta float64, actorID int) (*model.Material, error) {
	m, err := s.materials.AdjustQuantity(ctx, id, delta)
	if err != nil {
		return nil, err
	}

	if m.LowStock() {
		s.notifyLowStock(ctx, m)
	}
	return m, nil
}

func (s *MaterialService) notifyLowStock(ctx context.Context, m *model.Material) {
	project, err := s.projects.GetByID(ctx, m.ProjectID)
	if err != nil {
		s.logger.Warn("Low-stock lookup failed",
			zap.Int("project_id", m.ProjectID),
			zap.Error(err),
		)
		return
	}
	body := fmt.Sprintf("Material %q is low: %.2f %s left (threshold %.2f)",
		m.Name, m.Quantity, m.Unit, m.Threshold)
	for _, managerID := range ResolveManagerIDs(project) {
		if err := s.notifier.Notify(ctx, managerID, model.NotificationKindLowStock, body, m.ProjectID, 0); err != nil {
			s.logger.Warn("Low-stock notification failed",
				zap.Int("user_id", managerID),
				zap.Error(err),
			)
		}
	}
}

func (s *MaterialService) Delete(ctx context.Context, id, actorID int) error {
	m, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return err
	}

	project, err := s.projects.GetByID(ctx, m.ProjectID)
	if err != nil {
		return err
	}
	if !IsProjectManager(actorID, project) {
		return fmt.Errorf("only project managers manage materials: %w", model.ErrForbidden)
	}

	return s.materials.Delete(ctx, id)
}

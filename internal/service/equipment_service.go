package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"siteops/internal/model"
	"siteops/internal/repository"
)

type EquipmentService struct {
	equipment *repository.EquipmentRepository
	projects  ProjectStore
	logger    *zap.Logger
}

func NewEquipmentService(
	equipment *repository.EquipmentRepository,
	projects ProjectStore,
	logger *zap.Logger,
) *EquipmentService {
	return &EquipmentService{
		equipment: equipment,
		projects:  projects,
		logger:    logger,
	}
}

type EquipmentInput struct {
	Name   string `json:"name"`
	Serial string `json:"serial"`
	Status string `json:"status"`
}

func (s *EquipmentService) Create(ctx context.Context, projectID int, in EquipmentInput, actorID int) (*model.Equipment, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("equipment name is required: %w", model.ErrInvalidInput)
	}
	if in.Status == "" {
		in.Status = model.EquipmentStatusAvailable
	}
	if !model.ValidEquipmentStatus(in.Status) {
		return nil, fmt.Errorf("invalid equipment status %q: %w", in.Status, model.ErrInvalidInput)
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !IsProjectManager(actorID, project) {
		return nil, fmt.Errorf("only project managers manage equipment: %w", model.ErrForbidden)
	}

	e := &model.Equipment{
		ProjectID: projectID,
		Name:      in.Name,
		Serial:    in.Serial,
		Status:    in.Status,
	}
	id, err := s.equipment.Insert(ctx, e)
	if err != nil {
		return nil, err
	}
	return s.equipment.GetByID(ctx, id)
}

func (s *EquipmentService) List(ctx context.Context, projectID int) ([]model.Equipment, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.equipment.ListByProject(ctx, projectID)
}

// SetStatus flips the equipment status. Plain enum set; equipment carries no
// transition rules.
func (s *EquipmentService) SetStatus(ctx context.Context, id int, status string, actorID int) (*model.Equipment, error) {
	if !model.ValidEquipmentStatus(status) {
		return nil, fmt.Errorf("invalid equipment status %q: %w", status, model.ErrInvalidInput)
	}

	e, err := s.equipment.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, e.ProjectID)
	if err != nil {
		return nil, err
	}
	if !IsProjectManager(actorID, project) {
		return nil, fmt.Errorf("only project managers manage equipment: %w", model.ErrForbidden)
	}

	if err := s.equipment.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.equipment.GetByID(ctx, id)
}

func (s *EquipmentService) Delete(ctx context.Context, id, actorID int) error {
	e, err := s.equipment.GetByID(ctx, id)
	if err != nil {
		return err
	}

	project, err := s.projects.GetByID(ctx, e.ProjectID)
	if err != nil {
		return err
	}
	if !IsProjectManager(actorID, project) {
		return fmt.Errorf("only project managers manage equipment: %w", model.ErrForbidden)
	}

	return s.equipment.Delete(ctx, id)
}

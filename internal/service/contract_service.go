package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"siteops/internal/model"
	"siteops/internal/repository"
)

type ContractService struct {
	contracts *repository.ContractRepository
	projects  ProjectStore
	logger    *zap.Logger
}

func NewContractService(
	contracts *repository.ContractRepository,
	projects ProjectStore,
	logger *zap.Logger,
) *ContractService {
	return &ContractService{
		contracts: contracts,
		projects:  projects,
		logger:    logger,
	}
}

type ContractInput struct {
	Title       string `json:"title"`
	Vendor      string `json:"vendor"`
	AmountCents int64  `json:"amount_cents"`
}

func (s *ContractService) Create(ctx context.Context, projectID int, in ContractInput, actorID int) (*model.Contract, error) {
	if in.Title == "" || in.Vendor == "" {
		return nil, fmt.Errorf("title and vendor are required: %w", model.ErrInvalidInput)
	}
	if in.AmountCents < 0 {
		return nil, fmt.Errorf("amount cannot be negative: %w", model.ErrInvalidInput)
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !IsProjectManager(actorID, project) {
		return nil, fmt.Errorf("only project managers manage contracts: %w", model.ErrForbidden)
	}

	c := &model.Contract{
		ProjectID:   projectID,
		Title:       in.Title,
		Vendor:      in.Vendor,
		AmountCents: in.AmountCents,
		Status:      model.ContractStatusDraft,
	}
	id, err := s.contracts.Insert(ctx, c)
	if err != nil {
		return nil, err
	}
	return s.contracts.GetByID(ctx, id)
}

func (s *ContractService) List(ctx context.Context, projectID int) ([]model.Contract, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.contracts.ListByProject(ctx, projectID)
}

// Sign moves a draft contract to signed and stamps signed_at.
func (s *ContractService) Sign(ctx context.Context, id, actorID int) (*model.Contract, error) {
	c, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != model.ContractStatusDraft {
		return nil, fmt.Errorf("contract %d is %s, only drafts can be signed: %w",
			id, c.Status, model.ErrInvalidInput)
	}

	project, err := s.projects.GetByID(ctx, c.ProjectID)
	if err != nil {
		return nil, err
	}
	if !IsProjectManager(actorID, project) {
		return nil, fmt.Errorf("only project managers sign contracts: %w", model.ErrForbidden)
	}

	if err := s.contracts.MarkSigned(ctx, id); err != nil {
		return nil, err
	}
	return s.contracts.GetByID(ctx, id)
}

// Terminate ends a contract; terminated is terminal.
func (s *ContractService) Terminate(ctx context.Context, id, actorID int) (*model.Contract, error) {
	c, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == model.ContractStatusTerminated {
		return nil, fmt.Errorf("contract %d is already terminated: %w", id, model.ErrInvalidInput)
	}

	project, err := s.projects.GetByID(ctx, c.ProjectID)
	if err != nil {
		return nil, err
	}
	if !IsProjectManager(actorID, project) {
		return nil, fmt.Errorf("only project managers terminate contracts: %w", model.ErrForbidden)
	}

	if err := s.contracts.SetStatus(ctx, id, model.ContractStatusTerminated); err != nil {
		return nil, err
	}
	return s.contracts.GetByID(ctx, id)
}

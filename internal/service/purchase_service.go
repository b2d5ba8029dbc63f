package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"siteops/internal/model"
	"siteops/internal/repository"
)

type PurchaseService struct {
	purchases *repository.PurchaseRepository
	projects  ProjectStore
	notifier  Notifier
	logger    *zap.Logger
}

func NewPurchaseService(
	purchases *repository.PurchaseRepository,
	projects ProjectStore,
	notifier Notifier,
	logger *zap.Logger,
) *PurchaseService {
	return &PurchaseService{
		purchases: purchases,
		projects:  projects,
		notifier:  notifier,
		logger:    logger,
	}
}

type PurchaseInput struct {
	Item     string  `json:"item"`
	Quantity float64 `json:"quantity"`
}

// Create files a purchase request. Any authenticated user on site can raise
// one; only managers decide.
func (s *PurchaseService) Create(ctx context.Context, projectID int, in PurchaseInput, actorID int) (*model.PurchaseRequest, error) {
	if in.Item == "" {
		return nil, fmt.Errorf("item is required: %w", model.ErrInvalidInput)
	}
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", model.ErrInvalidInput)
	}
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	p := &model.PurchaseRequest{
		ProjectID:   projectID,
		RequestedBy: actorID,
		Item:        in.Item,
		Quantity:    in.Quantity,
		Status:      model.PurchaseStatusPending,
	}
	id, err := s.purchases.Insert(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.purchases.GetByID(ctx, id)
}

func (s *PurchaseService) List(ctx context.Context, projectID int) ([]model.PurchaseRequest, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.purchases.ListByProject(ctx, projectID)
}

// Decide approves or rejects a pending request and notifies the requester.
// Already-decided requests are rejected as invalid input.
func (s *PurchaseService) Decide(ctx context.Context, id int, approve bool, actorID int) (*model.PurchaseRequest, error) {
	p, err := s.purchases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, p.ProjectID)
	if err != nil {
		return nil, err
	}
	if !IsProjectManager(actorID, project) {
		return nil, fmt.Errorf("only project managers decide purchase requests: %w", model.ErrForbidden)
	}

	status := model.PurchaseStatusRejected
	if approve {
		status = model.PurchaseStatusApproved
	}
	if err := s.purchases.Decide(ctx, id, status, actorID); err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Your purchase request for %q was %s", p.Item, status)
	if err := s.notifier.Notify(ctx, p.RequestedBy, model.NotificationKindPurchaseDecision, body, p.ProjectID, 0); err != nil {
		s.logger.Warn("Purchase decision notification failed",
			zap.Int("request_id", id),
			zap.Error(err),
		)
	}

	return s.purchases.GetByID(ctx, id)
}

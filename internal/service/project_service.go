package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"siteops/internal/model"
)

type ProjectService struct {
	projects ProjectStore
	tasks    TaskStore
	logger   *zap.Logger
}

func NewProjectService(projects ProjectStore, tasks TaskStore, logger *zap.Logger) *ProjectService {
	return &ProjectService{projects: projects, tasks: tasks, logger: logger}
}

// IsManager reports whether userID manages the project.
func (s *ProjectService) IsManager(ctx context.Context, userID, projectID int) (bool, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return false, err
	}
	return IsProjectManager(userID, p), nil
}

// computeProgress derives the 0-100 completion percentage from flat task
// rows. Cancelled tasks never count. Top-level tasks are preferred as
// equally-weighted units of scope; when none remain the count falls back to
// all remaining tasks, flat.
func computeProgress(tasks []model.Task) int {
	remaining := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status != model.TaskStatusCancelled {
			remaining = append(remaining, t)
		}
	}

	counted := make([]model.Task, 0, len(remaining))
	for _, t := range remaining {
		if t.ParentID == nil {
			counted = append(counted, t)
		}
	}
	if len(counted) == 0 {
		counted = remaining
	}
	if len(counted) == 0 {
		return 0
	}

	completed := 0
	for _, t := range counted {
		if t.Status == model.TaskStatusCompleted {
			completed++
		}
	}

	progress := int(math.Round(100 * float64(completed) / float64(len(counted))))
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return progress
}

// RefreshProgress recomputes and persists the project's progress. Safe to
// re-run: recomputing with unchanged tasks yields the same value.
func (s *ProjectService) RefreshProgress(ctx context.Context, projectID int) (int, error) {
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to load tasks for progress: %w", err)
	}

	progress := computeProgress(tasks)
	if err := s.projects.UpdateProgress(ctx, projectID, progress); err != nil {
		return 0, fmt.Errorf("failed to persist progress: %w", err)
	}

	s.logger.Debug("Project progress refreshed",
		zap.Int("project_id", projectID),
		zap.Int("progress", progress),
	)
	return progress, nil
}

// Get returns the project with a freshly recomputed progress value and the
// normalized manager list.
func (s *ProjectService) Get(ctx context.Context, id int) (*model.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	progress, err := s.RefreshProgress(ctx, id)
	if err != nil {
		// stale progress is self-healing on the next read
		s.logger.Warn("Progress refresh failed on read",
			zap.Int("project_id", id),
			zap.Error(err),
		)
		progress = p.Progress
	}

	p.Progress = progress
	p.ManagerIDs = ResolveManagerIDs(p)
	return p, nil
}

func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i].ManagerIDs = ResolveManagerIDs(&projects[i])
	}
	return projects, nil
}

type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Status      string `json:"status"`
	ManagerID   int    `json:"manager_id"`
	ManagerIDs  []int  `json:"manager_ids"`
}

func (s *ProjectService) Create(ctx context.Context, in ProjectInput, actorID int) (*model.Project, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name is required: %w", model.ErrInvalidInput)
	}
	if in.Status == "" {
		in.Status = model.ProjectStatusPlanning
	}
	if !model.ValidProjectStatus(in.Status) {
		return nil, fmt.Errorf("invalid status %q: %w", in.Status, model.ErrInvalidInput)
	}
	if in.ManagerID == 0 && len(in.ManagerIDs) == 0 {
		// the creator manages by default
		in.ManagerID = actorID
	}

	p := &model.Project{
		Name:           in.Name,
		Description:    in.Description,
		Location:       in.Location,
		Status:         in.Status,
		ManagerID:      in.ManagerID,
		ManagerIDsJSON: EncodeManagerIDs(in.ManagerIDs),
	}

	id, err := s.projects.Insert(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.projects.GetByID(ctx, id)
}

// Update saves project edits; client-supplied progress is always discarded
// and recomputed from the task tree.
func (s *ProjectService) Update(ctx context.Context, id int, in ProjectInput, actorID int) (*model.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !IsProjectManager(actorID, p) {
		return nil, fmt.Errorf("user %d does not manage project %d: %w", actorID, id, model.ErrForbidden)
	}

	if in.Name != "" {
		p.Name = in.Name
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if in.Location != "" {
		p.Location = in.Location
	}
	if in.Status != "" {
		if !model.ValidProjectStatus(in.Status) {
			return nil, fmt.Errorf("invalid status %q: %w", in.Status, model.ErrInvalidInput)
		}
		p.Status = in.Status
	}
	if in.ManagerID != 0 {
		p.ManagerID = in.ManagerID
	}
	if len(in.ManagerIDs) > 0 {
		p.ManagerIDsJSON = EncodeManagerIDs(in.ManagerIDs)
	}

	if err := s.projects.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *ProjectService) Delete(ctx context.Context, id, actorID int) error {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !IsProjectManager(actorID, p) {
		return fmt.Errorf("user %d does not manage project %d: %w", actorID, id, model.ErrForbidden)
	}
	return s.projects.Delete(ctx, id)
}

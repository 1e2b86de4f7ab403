package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/pm-tracker/internal/apperror"
	"github.com/sakif/pm-tracker/internal/model"
	"github.com/sakif/pm-tracker/internal/repository"
)

const (
	msgTitleRequired = "Title is required"
	msgInvalidStatus = "Invalid status"
)

// CreateProjectInput is the body of a create request. Status defaults to
// Pending when nil.
type CreateProjectInput struct {
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Status      *model.Status `json:"status"`
}

// ProjectService enforces per-user ownership of projects.
//
// Every operation takes the caller's user id. A project that exists but
// belongs to someone else is reported exactly like a missing one.
//
// OWNERSHIP:
// The repository knows nothing about owners beyond the user_id column. It
// happily returns any row by id. The service is the only place the rule
// "a user may only touch their own projects" lives:
//
//	Get    -> ownedProject(userID, id)
//	Update -> ownedProject(userID, id), then validate, then repo.Update
//	Delete -> ownedProject(userID, id), then repo.Delete
//
// ownedProject turns both "no such row" and "someone else's row" into
// apperror.NotFound("Project"), so the HTTP layer answers 404 in both cases
// and a caller cannot tell which ids exist.
//
// ORDER OF CHECKS:
// Ownership comes before validation. A PUT with a bad status against a
// foreign project is a 404, not a 400; otherwise the 400 would confirm the
// project exists.
//
// VALIDATION:
//   - Title must be non-empty after trimming; it is stored as sent.
//   - Status must be one of model.Statuses, matched exactly.
//   - Description is free text and may be null.
type ProjectService struct {
	repo   repository.ProjectRepository
	logger *slog.Logger
}

func NewProjectService(repo repository.ProjectRepository, logger *slog.Logger) *ProjectService {
	return &ProjectService{repo: repo, logger: logger}
}

// List returns the caller's projects, newest first. Never nil.
func (s *ProjectService) List(ctx context.Context, userID int64) ([]model.Project, error) {
	projects, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/project: listing for user %d: %w", userID, err)
	}
	if projects == nil {
		projects = []model.Project{}
	}
	return projects, nil
}

func (s *ProjectService) Get(ctx context.Context, userID, id int64) (*model.Project, error) {
	return s.ownedProject(ctx, userID, id)
}

// Create validates the input and stores a project owned by userID.
// Title and description are stored exactly as given.
func (s *ProjectService) Create(ctx context.Context, userID int64, in CreateProjectInput) (*model.Project, error) {
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}

	status := model.StatusPending
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperror.ValidationFailed("status", msgInvalidStatus)
		}
		status = *in.Status
	}

	project := &model.Project{
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		UserID:      userID,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("service/project: creating: %w", err)
	}

	s.logger.Info("project created",
		slog.Int64("projectID", project.ID),
		slog.Int64("userID", userID),
	)

	return project, nil
}

// Update applies patch to a project the caller owns. Ownership is checked
// before the patch is validated, so a foreign id is 404 even with a bad body.
func (s *ProjectService) Update(ctx context.Context, userID, id int64, patch model.ProjectPatch) (*model.Project, error) {
	current, err := s.ownedProject(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperror.ValidationFailed("status", msgInvalidStatus)
	}

	if patch.Empty() {
		return current, nil
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("service/project: updating %d: %w", id, err)
	}

	s.logger.Info("project updated",
		slog.Int64("projectID", id),
		slog.Int64("userID", userID),
	)

	return updated, nil
}

func (s *ProjectService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.ownedProject(ctx, userID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/project: deleting %d: %w", id, err)
	}

	s.logger.Info("project deleted",
		slog.Int64("projectID", id),
		slog.Int64("userID", userID),
	)

	return nil
}

// ownedProject loads id and hides it unless userID owns it.
func (s *ProjectService) ownedProject(ctx context.Context, userID, id int64) (*model.Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("Project")
		}
		return nil, fmt.Errorf("service/project: loading %d: %w", id, err)
	}

	if !belongsTo(project, userID) {
		return nil, apperror.NotFound("Project")
	}
	return project, nil
}

func belongsTo(p *model.Project, userID int64) bool {
	return p.UserID == userID
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return apperror.ValidationFailed("title", msgTitleRequired)
	}
	return nil
}

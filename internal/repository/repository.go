// Package repository declares the storage contracts the service layer
// depends on. Implementations live in the sqlite and postgres subpackages.
//
// Implementations translate driver errors into apperror values:
// a missing row is apperror.ErrNotFound and a duplicate email is
// apperror.ErrConflict. Anything else is returned wrapped, as-is.
package repository

import (
	"context"

	"github.com/sakif/pm-tracker/internal/model"
)

// UserRepository is the credential store.
type UserRepository interface {
	// CreateUser inserts the user and fills in ID and CreatedAt.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// ProjectRepository is the project store. It knows nothing about ownership
// rules; the service layer enforces them.
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id int64) (*model.Project, error)
	// ListByOwner returns the user's projects, newest first.
	ListByOwner(ctx context.Context, userID int64) ([]model.Project, error)
	// Update writes only the columns set in patch and returns the stored row.
	Update(ctx context.Context, id int64, patch model.ProjectPatch) (*model.Project, error)
	Delete(ctx context.Context, id int64) error
}

// Store is a full storage backend owning a connection pool.
type Store interface {
	UserRepository
	ProjectRepository
	// Reset deletes every project and user. Used by the seed command.
	Reset(ctx context.Context) error
	Close() error
}

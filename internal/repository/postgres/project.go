package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/pm-tracker/internal/apperror"
	"github.com/sakif/pm-tracker/internal/model"
	"github.com/sakif/pm-tracker/internal/repository"
)

const projectColumns = `id, title, description, status, user_id, created_at`

// Create inserts a project; the database assigns ID and CreatedAt.
func (db *DB) Create(ctx context.Context, project *model.Project) error {
	err := db.conn.QueryRowxContext(ctx,
		`INSERT INTO projects (title, description, status, user_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		project.Title, project.Description, string(project.Status), project.UserID,
	).Scan(&project.ID, &project.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: creating project: %w", err)
	}
	return nil
}

func (db *DB) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	var p model.Project
	err := db.conn.GetContext(ctx, &p, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Project")
		}
		return nil, fmt.Errorf("postgres: getting project %d: %w", id, err)
	}
	return &p, nil
}

func (db *DB) ListByOwner(ctx context.Context, userID int64) ([]model.Project, error) {
	projects := make([]model.Project, 0)
	err := db.conn.SelectContext(ctx, &projects,
		`SELECT `+projectColumns+`
		 FROM projects
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing projects: %w", err)
	}
	return projects, nil
}

// Update writes the supplied columns and returns the updated row in one round trip.
func (db *DB) Update(ctx context.Context, id int64, patch model.ProjectPatch) (*model.Project, error) {
	assignments := repository.ProjectAssignments(patch)
	if len(assignments) == 0 {
		return db.GetByID(ctx, id)
	}

	sets := make([]string, 0, len(assignments))
	args := make([]any, 0, len(assignments)+1)
	for i, a := range assignments {
		sets = append(sets, fmt.Sprintf("%s = $%d", a.Column, i+1))
		args = append(args, a.Value)
	}
	args = append(args, id)

	query := fmt.Sprintf(
		`UPDATE projects SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), projectColumns,
	)

	var p model.Project
	if err := db.conn.GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Project")
		}
		return nil, fmt.Errorf("postgres: updating project %d: %w", id, err)
	}
	return &p, nil
}

func (db *DB) Delete(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting project %d: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("Project")
	}
	return nil
}

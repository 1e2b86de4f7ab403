package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/pm-tracker/internal/apperror"
	"github.com/sakif/pm-tracker/internal/model"
	"github.com/sakif/pm-tracker/internal/repository"
)

// projectColumns is the SELECT list shared by every read, in the order the
// Scan calls below read it. A new column is added here and in those Scans.
//
// PLACEHOLDERS:
// SQLite uses "?" for parameters. Values are never formatted into the SQL
// text; the driver sends them separately, which is what rules out SQL
// injection. Only column names from repository.ProjectAssignments, a fixed
// set, are spliced into the UPDATE statement.
const projectColumns = `id, title, description, status, user_id, created_at`

// Create inserts a project and fills in ID and CreatedAt.
func (db *DB) Create(ctx context.Context, project *model.Project) error {
	project.CreatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO projects (title, description, status, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		project.Title,
		project.Description,
		string(project.Status),
		project.UserID,
		project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading project id: %w", err)
	}
	project.ID = id

	return nil
}

// GetByID retrieves a single project by its id, whoever owns it.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	var p model.Project

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Title, &p.Description, &p.Status, &p.UserID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Project")
		}
		return nil, fmt.Errorf("sqlite: getting project %d: %w", id, err)
	}

	return &p, nil
}

// ListByOwner returns every project of userID, newest first.
// The id tiebreak keeps the order stable for rows created in the same instant.
func (db *DB) ListByOwner(ctx context.Context, userID int64) ([]model.Project, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+projectColumns+`
		 FROM projects
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects: %w", err)
	}
	defer rows.Close()

	projects := make([]model.Project, 0)

	for rows.Next() {
		var p model.Project
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.Status, &p.UserID, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning project row: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating projects: %w", err)
	}

	return projects, nil
}

// Update applies the supplied fields only, then reads the row back.
//
// For a patch with title and status the statement becomes:
//
//	UPDATE projects SET title = ?, status = ? WHERE id = ?
//
// RowsAffected tells a missing id apart from a successful write, since
// SQLite reports no error for an UPDATE that matched nothing.
func (db *DB) Update(ctx context.Context, id int64, patch model.ProjectPatch) (*model.Project, error) {
	assignments := repository.ProjectAssignments(patch)
	if len(assignments) == 0 {
		return db.GetByID(ctx, id)
	}

	sets := make([]string, 0, len(assignments))
	args := make([]any, 0, len(assignments)+1)
	for _, a := range assignments {
		sets = append(sets, a.Column+" = ?")
		args = append(args, a.Value)
	}
	args = append(args, id)

	result, err := db.conn.ExecContext(ctx,
		`UPDATE projects SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating project %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("Project")
	}

	return db.GetByID(ctx, id)
}

// Delete removes a project by its id.
func (db *DB) Delete(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM projects WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting project %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("Project")
	}

	return nil
}

package model

import "time"

// Status is the lifecycle state of a project. The set is closed.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists every accepted status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the enumerated statuses.
// Matching is exact: "pending" or " Pending" are rejected, not coerced.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Project is a record owned by exactly one user.
type Project struct {
	ID          int64     `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Description *string   `json:"description" db:"description"`
	Status      Status    `json:"status"      db:"status"`
	UserID      int64     `json:"user_id"     db:"user_id"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
}

// ProjectPatch carries a partial update. Nil fields are left unchanged.
type ProjectPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *Status `json:"status"`
}

// Empty reports whether the patch changes nothing.
func (p ProjectPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/pm-tracker/internal/apperror"
	"github.com/sakif/pm-tracker/internal/model"
)

func strPtr(s string) *string { return &s }

func createTestProject(t *testing.T, db *DB, userID int64, title string) *model.Project {
	t.Helper()
	p := &model.Project{Title: title, Status: model.StatusPending, UserID: userID}
	if err := db.Create(context.Background(), p); err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return p
}

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestCreate_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")

	p := &model.Project{
		Title:       "Tracker",
		Description: strPtr("full-stack app"),
		Status:      model.StatusInProgress,
		UserID:      owner.ID,
	}
	if err := db.Create(context.Background(), p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.ID == 0 {
		t.Fatal("Create() did not set ID")
	}

	got, err := db.GetByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "Tracker" || got.Status != model.StatusInProgress || got.UserID != owner.ID {
		t.Errorf("GetByID() = %+v, want title/status/owner preserved", got)
	}
	if got.Description == nil || *got.Description != "full-stack app" {
		t.Errorf("Description = %v, want %q", got.Description, "full-stack app")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not persisted")
	}
}

func TestCreate_NilDescriptionStaysNull(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "null@example.com")
	p := createTestProject(t, db, owner.ID, "no description")

	got, err := db.GetByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Description != nil {
		t.Errorf("Description = %q, want nil", *got.Description)
	}
}

func TestCreate_UnknownOwnerRejected(t *testing.T) {
	db := newTestDB(t)

	err := db.Create(context.Background(), &model.Project{Title: "orphan", Status: model.StatusPending, UserID: 424242})
	if err == nil {
		t.Fatal("Create() should fail the foreign key check for an unknown user")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), 12345)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestListByOwner_NewestFirstAndScoped(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	first := createTestProject(t, db, alice.ID, "first")
	second := createTestProject(t, db, alice.ID, "second")
	createTestProject(t, db, bob.ID, "bob's")

	got, err := db.ListByOwner(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != second.ID || got[1].ID != first.ID {
		t.Errorf("order = [%d %d], want [%d %d]", got[0].ID, got[1].ID, second.ID, first.ID)
	}
}

func TestListByOwner_EmptyIsNotNil(t *testing.T) {
	db := newTestDB(t)

	got, err := db.ListByOwner(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if got == nil {
		t.Error("ListByOwner() returned nil slice, want empty slice")
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUpdate_OnlySuppliedFields(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "upd@example.com")
	p := &model.Project{Title: "keep", Description: strPtr("keep too"), Status: model.StatusPending, UserID: owner.ID}
	if err := db.Create(context.Background(), p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	status := model.StatusCompleted
	got, err := db.Update(context.Background(), p.ID, model.ProjectPatch{Status: &status})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if got.Status != model.StatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusCompleted)
	}
	if got.Title != "keep" {
		t.Errorf("Title = %q, want %q", got.Title, "keep")
	}
	if got.Description == nil || *got.Description != "keep too" {
		t.Errorf("Description = %v, want %q", got.Description, "keep too")
	}
}

func TestUpdate_EmptyPatchReturnsCurrentRow(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "noop@example.com")
	p := createTestProject(t, db, owner.ID, "unchanged")

	got, err := db.Update(context.Background(), p.ID, model.ProjectPatch{})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Title != "unchanged" {
		t.Errorf("Title = %q, want %q", got.Title, "unchanged")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Update(context.Background(), 777, model.ProjectPatch{Title: strPtr("x")})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE / RESET TESTS
// =========================================================================

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "del@example.com")
	p := createTestProject(t, db, owner.ID, "doomed")

	if err := db.Delete(context.Background(), p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := db.GetByID(context.Background(), p.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}

	if err := db.Delete(context.Background(), p.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestReset(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "reset@example.com")
	createTestProject(t, db, owner.ID, "gone")

	if err := db.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if _, err := db.GetUserByID(context.Background(), owner.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("user survived Reset(): err = %v", err)
	}
	got, _ := db.ListByOwner(context.Background(), owner.ID)
	if len(got) != 0 {
		t.Errorf("projects survived Reset(): %d rows", len(got))
	}
}

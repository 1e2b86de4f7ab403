package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/pm-tracker/internal/apperror"
	"github.com/sakif/pm-tracker/internal/model"
	"github.com/sakif/pm-tracker/internal/repository"
)

var (
	_ repository.UserRepository    = (*fakeUserRepo)(nil)
	_ repository.ProjectRepository = (*fakeProjectRepo)(nil)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserRepo is an in-memory UserRepository. Set an *Err field to
// simulate a database failure on that call.
type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[int64]*model.User
	nextID  int64
	created int

	createErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[int64]*model.User), nextID: 1}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.byID {
		if u.Email == user.Email {
			return apperror.Conflict("User already exists")
		}
	}

	user.ID = f.nextID
	user.CreatedAt = time.Now().UTC()
	f.nextID++
	f.created++

	stored := *user
	f.byID[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, apperror.NotFound("User")
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("User")
	}
	found := *u
	return &found, nil
}

// fakeProjectRepo is an in-memory ProjectRepository with a monotonic clock so
// list ordering is deterministic.
type fakeProjectRepo struct {
	mu     sync.Mutex
	byID   map[int64]*model.Project
	nextID int64
	clock  time.Time

	updates int
	deletes int

	createErr error
	getErr    error
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{
		byID:   make(map[int64]*model.Project),
		nextID: 1,
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeProjectRepo) Create(ctx context.Context, p *model.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}
	f.clock = f.clock.Add(time.Second)
	p.ID = f.nextID
	p.CreatedAt = f.clock
	f.nextID++

	stored := *p
	f.byID[p.ID] = &stored
	return nil
}

func (f *fakeProjectRepo) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("Project")
	}
	found := *p
	return &found, nil
}

func (f *fakeProjectRepo) ListByOwner(ctx context.Context, userID int64) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]model.Project, 0)
	for _, p := range f.byID {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeProjectRepo) Update(ctx context.Context, id int64, patch model.ProjectPatch) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("Project")
	}
	f.updates++
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = patch.Description
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	updated := *p
	return &updated, nil
}

func (f *fakeProjectRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byID[id]; !ok {
		return apperror.NotFound("Project")
	}
	f.deletes++
	delete(f.byID, id)
	return nil
}

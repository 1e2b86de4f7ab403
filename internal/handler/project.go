package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/pm-tracker/internal/apperror"
	"github.com/sakif/pm-tracker/internal/auth"
	"github.com/sakif/pm-tracker/internal/model"
	"github.com/sakif/pm-tracker/internal/service"
)

// ProjectService is the part of service.ProjectService the handlers call.
type ProjectService interface {
	List(ctx context.Context, userID int64) ([]model.Project, error)
	Get(ctx context.Context, userID, id int64) (*model.Project, error)
	Create(ctx context.Context, userID int64, in service.CreateProjectInput) (*model.Project, error)
	Update(ctx context.Context, userID, id int64, patch model.ProjectPatch) (*model.Project, error)
	Delete(ctx context.Context, userID, id int64) error
}

// ProjectHandler serves /api/projects. Every route sits behind
// auth.RequireAuth, so the caller's id is always in the context.
//
// THE REQUEST FLOW:
//
//	chi router -> RequireAuth (token -> user id in ctx)
//	           -> ProjectHandler (parse {id} and JSON body)
//	           -> ProjectService (ownership + validation)
//	           -> writeJSON / writeError
//
// The handler never decides a status code from business rules itself.
// It hands every error to writeError, which maps the apperror sentinel:
//
//	ErrValidation -> 400    ErrNotFound -> 404
//	ErrUnauthorized -> 401  anything else -> 500 (logged, body hidden)
//
// RESPONSE SHAPES:
// Single projects are wrapped as {"project": ...} and lists as
// {"projects": [...]}, so clients read one stable key per endpoint.
type ProjectHandler struct {
	projects ProjectService
	logger   *slog.Logger
}

type projectResponse struct {
	Project *model.Project `json:"project"`
}

type projectsResponse struct {
	Projects []model.Project `json:"projects"`
}

func NewProjectHandler(projects ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

// HandleList: GET /api/projects -> 200 {"projects": [...]}
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	projects, err := h.projects.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, projectsResponse{Projects: projects})
}

// HandleGet: GET /api/projects/{id} -> 200 {"project": {...}}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, err := projectID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	project, err := h.projects.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, projectResponse{Project: project})
}

// HandleCreate: POST /api/projects {title, description?, status?} -> 201 {"project": {...}}
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var in service.CreateProjectInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	project, err := h.projects.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, projectResponse{Project: project})
}

// HandleUpdate: PUT /api/projects/{id} {title?, description?, status?} -> 200 {"project": {...}}
//
// A field that is absent or null is left unchanged.
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, err := projectID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var patch model.ProjectPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	project, err := h.projects.Update(r.Context(), userID, id, patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, projectResponse{Project: project})
}

// HandleDelete: DELETE /api/projects/{id} -> 200 {"success": true}
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, err := projectID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.projects.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ProjectHandler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Unauthorized"})
	}
	return userID, ok
}

// projectID parses {id}. An id that is not a positive integer cannot name
// any project, so it is reported as not found.
func projectID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound("Project")
	}
	return id, nil
}

package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/pm-tracker/internal/apperror"
	"github.com/sakif/pm-tracker/internal/auth"
	"github.com/sakif/pm-tracker/internal/handler"
	"github.com/sakif/pm-tracker/internal/model"
	"github.com/sakif/pm-tracker/internal/service"
)

type stubAuthService struct {
	gotRegister service.RegisterInput
	gotEmail    string
	gotPassword string
	gotGitHub   *auth.GitHubUser

	result *service.AuthResult
	user   *model.PublicUser
	err    error
}

func (s *stubAuthService) Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error) {
	s.gotRegister = in
	return s.result, s.err
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	s.gotEmail, s.gotPassword = email, password
	return s.result, s.err
}

func (s *stubAuthService) LoginWithGitHub(ctx context.Context, gh *auth.GitHubUser) (*service.AuthResult, error) {
	s.gotGitHub = gh
	return s.result, s.err
}

func (s *stubAuthService) CurrentUser(ctx context.Context, userID int64) (*model.PublicUser, error) {
	return s.user, s.err
}

type stubProvider struct {
	user *auth.GitHubUser
	err  error
}

func (p *stubProvider) AuthURL(state string) string {
	return "https://github.example/authorize?state=" + url.QueryEscape(state)
}

func (p *stubProvider) Exchange(ctx context.Context, code string) (*auth.GitHubUser, error) {
	return p.user, p.err
}

func okResult() *service.AuthResult {
	name := "Ada"
	return &service.AuthResult{Token: "tok", User: model.PublicUser{ID: 1, Email: "a@x.com", Name: &name}}
}

func authRouter(svc handler.AuthService, gh handler.OAuthProvider) http.Handler {
	h := handler.NewAuthHandler(svc, gh, discardLogger())
	r := chi.NewRouter()
	r.Post("/api/auth/register", h.HandleRegister)
	r.Post("/api/auth/login", h.HandleLogin)
	r.With(asUser(1)).Get("/api/auth/me", h.HandleMe)
	r.Get("/api/auth/github/login", h.HandleGitHubLogin)
	r.Get("/api/auth/github/callback", h.HandleGitHubCallback)
	return r
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("success returns token and user", func(t *testing.T) {
		svc := &stubAuthService{result: okResult()}
		rec := do(t, authRouter(svc, nil), http.MethodPost, "/api/auth/register",
			`{"name":"Ada","email":"a@x.com","password":"secret1"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "tok", body["token"])
		user := body["user"].(map[string]any)
		assert.Equal(t, "a@x.com", user["email"])
		assert.Equal(t, "Ada", user["name"])
		assert.NotContains(t, user, "password")

		assert.Equal(t, "a@x.com", svc.gotRegister.Email)
		assert.Equal(t, "secret1", svc.gotRegister.Password)
		require.NotNil(t, svc.gotRegister.Name)
		assert.Equal(t, "Ada", *svc.gotRegister.Name)
	})

	t.Run("conflict maps to 409", func(t *testing.T) {
		svc := &stubAuthService{err: apperror.Conflict("User already exists")}
		rec := do(t, authRouter(svc, nil), http.MethodPost, "/api/auth/register", `{"email":"a@x.com","password":"x"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"error":"conflict","message":"User already exists"}`, rec.Body.String())
	})

	t.Run("validation maps to 400", func(t *testing.T) {
		svc := &stubAuthService{err: apperror.ValidationFailed("email", "Email and password required")}
		rec := do(t, authRouter(svc, nil), http.MethodPost, "/api/auth/register", `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"validation_error","message":"Email and password required"}`, rec.Body.String())
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(t, authRouter(&stubAuthService{}, nil), http.MethodPost, "/api/auth/register", `{"email":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation_error", decode(t, rec)["error"])
	})

	t.Run("infrastructure failure hides detail", func(t *testing.T) {
		svc := &stubAuthService{err: errors.New("pq: password authentication failed for user \"pmtracker\"")}
		rec := do(t, authRouter(svc, nil), http.MethodPost, "/api/auth/register", `{"email":"a@x.com","password":"x"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"internal_error","message":"Server error"}`, rec.Body.String())
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("passes credentials through", func(t *testing.T) {
		svc := &stubAuthService{result: okResult()}
		rec := do(t, authRouter(svc, nil), http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"secret1"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "a@x.com", svc.gotEmail)
		assert.Equal(t, "secret1", svc.gotPassword)
	})

	t.Run("bad credentials map to 401", func(t *testing.T) {
		svc := &stubAuthService{err: apperror.Unauthorized("Invalid credentials")}
		rec := do(t, authRouter(svc, nil), http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"nope"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"unauthorized","message":"Invalid credentials"}`, rec.Body.String())
	})
}

func TestAuthHandler_Me(t *testing.T) {
	svc := &stubAuthService{user: &model.PublicUser{ID: 1, Email: "a@x.com"}}
	rec := do(t, authRouter(svc, nil), http.MethodGet, "/api/auth/me", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":{"id":1,"email":"a@x.com","name":null}}`, rec.Body.String())
}

func TestAuthHandler_GitHubDisabled(t *testing.T) {
	r := authRouter(&stubAuthService{}, nil)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/auth/github/login", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/auth/github/callback", "").Code)
}

func TestAuthHandler_GitHubFlow(t *testing.T) {
	gh := &stubProvider{user: &auth.GitHubUser{ID: 5, Login: "octo", Email: "octo@x.com"}}
	svc := &stubAuthService{result: okResult()}
	r := authRouter(svc, gh)

	login := do(t, r, http.MethodGet, "/api/auth/github/login", "")
	require.Equal(t, http.StatusTemporaryRedirect, login.Code)

	cookies := login.Result().Cookies()
	require.Len(t, cookies, 1)
	state := cookies[0].Value
	require.NotEmpty(t, state)
	assert.Contains(t, login.Header().Get("Location"), "state="+state)

	t.Run("state mismatch", func(t *testing.T) {
		req := newCallback("wrong", "code")
		req.AddCookie(cookies[0])
		rec := serve(r, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing cookie", func(t *testing.T) {
		rec := serve(r, newCallback(state, "code"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		req := newCallback(state, "code")
		req.AddCookie(cookies[0])
		rec := serve(r, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "tok", decode(t, rec)["token"])
		require.NotNil(t, svc.gotGitHub)
		assert.Equal(t, "octo@x.com", svc.gotGitHub.Email)
	})

	t.Run("exchange failure is 401", func(t *testing.T) {
		failing := authRouter(svc, &stubProvider{err: errors.New("bad code")})
		req := newCallback(state, "code")
		req.AddCookie(cookies[0])
		rec := serve(failing, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

package router

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/task-tracker/internal/access"
	"github.com/iliyamo/task-tracker/internal/config"
	"github.com/iliyamo/task-tracker/internal/handler"
	"github.com/iliyamo/task-tracker/internal/middleware"
	"github.com/iliyamo/task-tracker/internal/model"
	"github.com/iliyamo/task-tracker/internal/repository"
)

// stubValidator resolves a fixed set of token ids to subjects.
type stubValidator struct {
	subs map[string]access.Subject
}

func (s stubValidator) Validate(_ context.Context, id string) (access.Subject, error) {
	if sub, ok := s.subs[id]; ok {
		return sub, nil
	}
	return access.Subject{}, repository.ErrInvalidToken
}

type stubUsers struct{}

func (stubUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	return model.User{ID: 1, Username: username}, nil
}

type recordTokens struct {
	revoked []string
}

func (f *recordTokens) Store(context.Context, model.AuthToken) error { return nil }

func (f *recordTokens) Revoke(_ context.Context, id string, _ uint64) error {
	f.revoked = append(f.revoked, id)
	return nil
}

func (f *recordTokens) ListForUser(context.Context, uint64) ([]model.AuthToken, error) {
	return nil, nil
}

type emptyTaskStore struct{}

func (emptyTaskStore) Create(context.Context, *model.Task) error { return nil }

func (emptyTaskStore) GetByID(context.Context, uint64) (model.Task, error) {
	return model.Task{}, sql.ErrNoRows
}

func (emptyTaskStore) Update(context.Context, model.Task) error { return nil }
func (emptyTaskStore) Delete(context.Context, uint64) error     { return nil }

func (emptyTaskStore) List(context.Context, repository.TaskQuery) ([]repository.TaskRow, error) {
	return nil, nil
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func testValidator() stubValidator {
	return stubValidator{subs: map[string]access.Subject{
		"user-token":  {UserID: 5, Level: access.EverythingUser},
		"weak-token":  {UserID: 5, Level: access.ReadCreate},
		"admin-token": {UserID: 6, Level: access.EverythingAdmin},
	}}
}

func serve(e *echo.Echo, method, target, body, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRevokeRouteRequiresUserTierToken(t *testing.T) {
	tokens := &recordTokens{}
	h := &handler.TokenHandler{
		Cfg:    config.Config{TokenMaxDays: 120},
		Users:  stubUsers{},
		Tokens: tokens,
		Now:    func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	e := echo.New()
	RegisterTokens(e, h, testValidator())

	body := `{"username":"alice","token":"Token deadbeef"}`

	cases := []struct {
		name          string
		authorization string
		want          int
	}{
		{"no credential", "", http.StatusUnauthorized},
		{"unknown token", "Token bogus", http.StatusUnauthorized},
		{"tier below floor", "Token weak-token", http.StatusForbidden},
		{"user tier", "Token user-token", http.StatusNoContent},
		{"admin tier", "Token admin-token", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(e, http.MethodDelete, "/v1/token/revoke", body, tc.authorization)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tc.want, rec.Body)
			}
		})
	}
	// only the two sufficiently privileged calls reached the store
	if len(tokens.revoked) != 2 {
		t.Fatalf("revoked %d times, want 2: %v", len(tokens.revoked), tokens.revoked)
	}
}

func TestTokenListRouteRequiresUserTier(t *testing.T) {
	h := &handler.TokenHandler{
		Cfg:    config.Config{TokenMaxDays: 120},
		Users:  stubUsers{},
		Tokens: &recordTokens{},
		Now:    time.Now,
	}
	e := echo.New()
	RegisterTokens(e, h, testValidator())

	if rec := serve(e, http.MethodGet, "/v1/tokens", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list: status = %d, want 401", rec.Code)
	}
	if rec := serve(e, http.MethodGet, "/v1/tokens", "", "Token weak-token"); rec.Code != http.StatusForbidden {
		t.Fatalf("weak list: status = %d, want 403", rec.Code)
	}
	if rec := serve(e, http.MethodGet, "/v1/tokens", "", "Token user-token"); rec.Code != http.StatusOK {
		t.Fatalf("user list: status = %d, want 200", rec.Code)
	}
}

func TestTaskRoutesAuthenticateBeforeRateLimiting(t *testing.T) {
	h := &handler.TaskHandler{
		Tasks: emptyTaskStore{},
		Now:   time.Now,
	}

	var seen []access.Subject
	rate := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			seen = append(seen, middleware.CurrentSubject(c))
			return next(c)
		}
	}

	e := echo.New()
	RegisterTasks(e, h, testValidator(), rate, passthrough)

	if rec := serve(e, http.MethodGet, "/v1/tasks", "", "Token user-token"); rec.Code != http.StatusOK {
		t.Fatalf("authed list: status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	if len(seen) != 1 {
		t.Fatalf("limiter ran %d times, want 1", len(seen))
	}
	if seen[0].Anonymous || seen[0].UserID != 5 {
		t.Fatalf("limiter saw subject %+v, want the authenticated user", seen[0])
	}

	// A rejected credential never reaches the limiter.
	if rec := serve(e, http.MethodGet, "/v1/tasks", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list: status = %d, want 401", rec.Code)
	}
	if len(seen) != 1 {
		t.Fatalf("limiter ran for an unauthenticated request (%d runs)", len(seen))
	}

	// Anonymous single-task reads still pass through as the anonymous
	// subject.
	if rec := serve(e, http.MethodGet, "/v1/tasks/424242", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("anonymous get: status = %d, want 404", rec.Code)
	}
	if len(seen) != 2 || !seen[1].Anonymous {
		t.Fatalf("limiter should see the anonymous subject on open reads: %+v", seen)
	}
}

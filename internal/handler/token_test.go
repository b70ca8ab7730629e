package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/task-tracker/internal/access"
	"github.com/iliyamo/task-tracker/internal/config"
	"github.com/iliyamo/task-tracker/internal/model"
	"github.com/iliyamo/task-tracker/internal/utils"
)

type fakeUsers struct {
	byName map[string]model.User
}

func (f fakeUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	u, ok := f.byName[username]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

type fakeTokens struct {
	stored  []model.AuthToken
	revoked []string
	listed  []model.AuthToken
}

func (f *fakeTokens) Store(_ context.Context, t model.AuthToken) error {
	f.stored = append(f.stored, t)
	return nil
}

func (f *fakeTokens) Revoke(_ context.Context, id string, _ uint64) error {
	f.revoked = append(f.revoked, id)
	return nil
}

func (f *fakeTokens) ListForUser(_ context.Context, _ uint64) ([]model.AuthToken, error) {
	return f.listed, nil
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTokenHandler(t *testing.T) (*TokenHandler, *fakeTokens) {
	t.Helper()
	hash, err := utils.HashPassword("s3cret", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	users := fakeUsers{byName: map[string]model.User{
		"alice": {ID: 1, Username: "alice", PasswordHash: hash},
		"root":  {ID: 2, Username: "root", PasswordHash: hash, IsAdmin: true},
	}}
	tokens := &fakeTokens{}
	return &TokenHandler{
		Cfg:    config.Config{TokenMaxDays: 120},
		Users:  users,
		Tokens: tokens,
		Now:    func() time.Time { return testNow },
	}, tokens
}

func jsonRequest(method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func TestTokenCreateDefaultDuration(t *testing.T) {
	h, tokens := newTokenHandler(t)
	req, rec := jsonRequest(http.MethodPost, "/v1/token/create",
		`{"username":"alice","password":"s3cret","token_access_level":2}`)
	c := echo.New().NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body)
	}
	if len(tokens.stored) != 1 {
		t.Fatalf("stored %d tokens, want 1", len(tokens.stored))
	}
	tok := tokens.stored[0]
	if tok.UserID != 1 || tok.AccessLevel != access.ReadCreate {
		t.Fatalf("unexpected token: %+v", tok)
	}
	// default 30 days plus the one-hour grace
	want := testNow.Add(time.Hour + 30*24*time.Hour)
	if !tok.ValidUntil.Equal(want) {
		t.Fatalf("valid_until = %v, want %v", tok.ValidUntil, want)
	}
	if len(tok.ID) != 64 {
		t.Fatalf("token id length = %d, want 64 hex chars", len(tok.ID))
	}
}

func TestTokenCreateClampsDuration(t *testing.T) {
	h, tokens := newTokenHandler(t)
	req, rec := jsonRequest(http.MethodPost, "/v1/token/create",
		`{"username":"alice","password":"s3cret","token_access_level":0,"duration":500}`)
	c := echo.New().NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	want := testNow.Add(time.Hour + 120*24*time.Hour)
	if got := tokens.stored[0].ValidUntil; !got.Equal(want) {
		t.Fatalf("valid_until = %v, want clamp at 120 days (%v)", got, want)
	}
}

func TestTokenCreateNegativeDurationClampsToZero(t *testing.T) {
	h, tokens := newTokenHandler(t)
	req, rec := jsonRequest(http.MethodPost, "/v1/token/create",
		`{"username":"alice","password":"s3cret","token_access_level":0,"duration":-5}`)
	c := echo.New().NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	// zero days: only the one-hour grace remains, never a past expiry
	want := testNow.Add(time.Hour)
	if got := tokens.stored[0].ValidUntil; !got.Equal(want) {
		t.Fatalf("valid_until = %v, want %v", got, want)
	}
}

func TestTokenCreateAdminTierReservedForAdmins(t *testing.T) {
	h, tokens := newTokenHandler(t)

	req, rec := jsonRequest(http.MethodPost, "/v1/token/create",
		`{"username":"alice","password":"s3cret","token_access_level":4}`)
	if err := h.Create(echo.New().NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin requesting admin tier: status = %d, want 403", rec.Code)
	}
	if len(tokens.stored) != 0 {
		t.Fatal("token must not be stored on denial")
	}

	req, rec = jsonRequest(http.MethodPost, "/v1/token/create",
		`{"username":"root","password":"s3cret","token_access_level":4}`)
	if err := h.Create(echo.New().NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin requesting admin tier: status = %d, want 201", rec.Code)
	}
}

func TestTokenCreateBadCredentials(t *testing.T) {
	h, _ := newTokenHandler(t)
	for _, body := range []string{
		`{"username":"alice","password":"wrong"}`,
		`{"username":"nobody","password":"s3cret"}`,
	} {
		req, rec := jsonRequest(http.MethodPost, "/v1/token/create", body)
		if err := h.Create(echo.New().NewContext(req, rec)); err != nil {
			t.Fatal(err)
		}
		if rec.Code != http.StatusForbidden {
			t.Errorf("body %s: status = %d, want 403", body, rec.Code)
		}
	}
}

func TestTokenCreateOutOfRangeLevelDegradesToReadOnly(t *testing.T) {
	h, tokens := newTokenHandler(t)
	req, rec := jsonRequest(http.MethodPost, "/v1/token/create",
		`{"username":"alice","password":"s3cret","token_access_level":42}`)
	if err := h.Create(echo.New().NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if got := tokens.stored[0].AccessLevel; got != access.ReadOnly {
		t.Fatalf("level = %v, want READONLY for out-of-range request", got)
	}
}

func TestTokenRevoke(t *testing.T) {
	h, tokens := newTokenHandler(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing token field", `{"username":"alice"}`, http.StatusBadRequest},
		{"bare id without scheme", `{"username":"alice","token":"deadbeef"}`, http.StatusBadRequest},
		{"unknown user", `{"username":"nobody","token":"Token deadbeef"}`, http.StatusForbidden},
		{"ok", `{"username":"alice","token":"Token deadbeef"}`, http.StatusNoContent},
		{"repeat is idempotent", `{"username":"alice","token":"Token deadbeef"}`, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, rec := jsonRequest(http.MethodDelete, "/v1/token/revoke", tc.body)
			if err := h.Revoke(echo.New().NewContext(req, rec)); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tc.want, rec.Body)
			}
		})
	}
	if len(tokens.revoked) != 2 {
		t.Fatalf("revoked %d times, want 2", len(tokens.revoked))
	}
}

func TestTokenListAdminOverride(t *testing.T) {
	h, tokens := newTokenHandler(t)
	tokens.listed = []model.AuthToken{{ID: strings.Repeat("a", 64), UserID: 1, AccessLevel: access.ReadOnly, ValidUntil: testNow}}

	// non-admin asking for someone else's tokens
	req, rec := jsonRequest(http.MethodGet, "/v1/tokens?user=2", "")
	c := echo.New().NewContext(req, rec)
	c.Set("subject", access.Subject{UserID: 1, Level: access.EverythingUser})
	if err := h.List(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	// admin override succeeds
	req, rec = jsonRequest(http.MethodGet, "/v1/tokens?user=1", "")
	c = echo.New().NewContext(req, rec)
	c.Set("subject", access.Subject{UserID: 2, Level: access.EverythingAdmin})
	if err := h.List(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out []tokenResp
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].UserID != 1 {
		t.Fatalf("unexpected listing: %+v", out)
	}
}

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/task-tracker/internal/access"
	"github.com/iliyamo/task-tracker/internal/config"
	"github.com/iliyamo/task-tracker/internal/middleware"
	"github.com/iliyamo/task-tracker/internal/model"
	"github.com/iliyamo/task-tracker/internal/repository"
	"github.com/iliyamo/task-tracker/internal/utils"
)

// tokenUserStore is the slice of the user repository the token
// endpoints need.
type tokenUserStore interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// tokenStore is the slice of the token repository the token endpoints
// need.
type tokenStore interface {
	Store(ctx context.Context, t model.AuthToken) error
	Revoke(ctx context.Context, id string, userID uint64) error
	ListForUser(ctx context.Context, userID uint64) ([]model.AuthToken, error)
}

// TokenHandler bundles dependencies for the API-token endpoints. Now is
// the clock used for minting and lets tests pin the issue instant.
type TokenHandler struct {
	Cfg    config.Config
	Users  tokenUserStore
	Tokens tokenStore
	Now    func() time.Time
}

func NewTokenHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *TokenHandler {
	return &TokenHandler{Cfg: cfg, Users: u, Tokens: t, Now: func() time.Time { return time.Now().UTC() }}
}

// ----- DTOs -----

type createTokenReq struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	TokenAccessLevel int    `json:"token_access_level"`
	Duration         *int   `json:"duration"` // days; nil -> default 30
}

type revokeTokenReq struct {
	Username string `json:"username"`
	Token    string `json:"token"` // "Token <id>" as sent in the Authorization header
}

type tokenResp struct {
	ID          string `json:"id"`
	AccessLevel int    `json:"access_level"`
	ValidUntil  string `json:"valid_until"`
	UserID      uint64 `json:"user_id"`
}

func serializeToken(t model.AuthToken) tokenResp {
	return tokenResp{
		ID:          t.ID,
		AccessLevel: int(t.AccessLevel),
		ValidUntil:  t.ValidUntil.Format(time.RFC3339),
		UserID:      t.UserID,
	}
}

// Create mints a new API token against username/password credentials.
// The route allows anonymous access: the password is the credential
// here, not a previous token. The requested duration is capped and the
// EVERYTHING_ADMIN tier is reserved for admin accounts.
func (h *TokenHandler) Create(c echo.Context) error {
	var req createTokenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	level := access.LevelByID(req.TokenAccessLevel)
	duration := 30
	if req.Duration != nil {
		duration = *req.Duration
	}
	if duration > h.Cfg.TokenMaxDays {
		duration = h.Cfg.TokenMaxDays
	}
	if duration < 0 {
		// A negative duration would mint a token born expired.
		duration = 0
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		// Same response for unknown user and wrong password.
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}
	if level == access.EverythingAdmin && !u.IsAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	now := h.Now()
	id, err := utils.NewTokenID(u.Username, now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mint token failed"})
	}
	tok := model.AuthToken{
		ID:          id,
		UserID:      u.ID,
		AccessLevel: level,
		// One hour of grace on top of the requested days.
		ValidUntil: now.Add(time.Hour + time.Duration(duration)*24*time.Hour),
	}
	if err := h.Tokens.Store(ctx, tok); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save token failed"})
	}
	return c.JSON(http.StatusCreated, serializeToken(tok))
}

// Revoke deletes a named user's token. Requires the EVERYTHING_USER
// tier (enforced by route middleware). Revoking a token that is already
// gone still succeeds; the operation is idempotent.
func (h *TokenHandler) Revoke(c echo.Context) error {
	var req revokeTokenReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token in request body is missing"})
	}

	// The body carries the credential in header form: "Token <id>".
	parts := strings.Fields(req.Token)
	if len(parts) != 2 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad token format"})
	}
	id := parts[1]

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Tokens.Revoke(ctx, id, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// List returns the subject's own tokens. Admins may inspect another
// user's tokens with ?user=<id>.
func (h *TokenHandler) List(c echo.Context) error {
	sub := middleware.CurrentSubject(c)
	target := sub.UserID
	if raw := c.QueryParam("user"); raw != "" {
		if !sub.Admin() {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
		}
		target = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tokens, err := h.Tokens.ListForUser(ctx, target)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]tokenResp, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, serializeToken(t))
	}
	return c.JSON(http.StatusOK, out)
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/task-tracker/internal/access"
	"github.com/iliyamo/task-tracker/internal/model"
)

// TokenRepo persists and validates API auth tokens. Rows are immutable
// once issued; revocation deletes the row outright. Now is the clock
// used for expiry checks and is swappable in tests.
type TokenRepo struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewTokenRepo(db *sql.DB) *TokenRepo {
	return &TokenRepo{DB: db, Now: func() time.Time { return time.Now().UTC() }}
}

// Store inserts a freshly minted token row.
func (r *TokenRepo) Store(ctx context.Context, t model.AuthToken) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO auth_tokens (id, user_id, access_level, valid_until) VALUES (?,?,?,?)",
		t.ID, t.UserID, int(t.AccessLevel), t.ValidUntil)
	return err
}

// Validate resolves an opaque token id to an authenticated subject.
// Unknown and expired tokens both come back as ErrInvalidToken; the
// expiry comparison is strict, so a token whose valid_until equals the
// current instant is already unusable.
func (r *TokenRepo) Validate(ctx context.Context, id string) (access.Subject, error) {
	var (
		userID     uint64
		level      int
		validUntil time.Time
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, access_level, valid_until FROM auth_tokens WHERE id=? LIMIT 1",
		id).Scan(&userID, &level, &validUntil)
	if err == sql.ErrNoRows {
		return access.Subject{}, ErrInvalidToken
	}
	if err != nil {
		return access.Subject{}, err
	}
	if !Usable(validUntil, r.Now()) {
		return access.Subject{}, ErrInvalidToken
	}
	return access.Subject{UserID: userID, Level: access.LevelByID(level)}, nil
}

// Usable reports whether a token with the given expiry is still valid
// at instant now. Validity requires now < validUntil, never <=.
func Usable(validUntil, now time.Time) bool {
	return now.Before(validUntil)
}

// Revoke deletes a token owned by the given user. Deleting a token that
// does not exist is not an error; revocation is idempotent.
func (r *TokenRepo) Revoke(ctx context.Context, id string, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM auth_tokens WHERE id=? AND user_id=?", id, userID)
	return err
}

// ListForUser returns every token owned by a user, expired ones
// included so the owner can see what needs cleaning up.
func (r *TokenRepo) ListForUser(ctx context.Context, userID uint64) ([]model.AuthToken, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, access_level, valid_until FROM auth_tokens WHERE user_id=?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.AuthToken{}
	for rows.Next() {
		var (
			t     model.AuthToken
			level int
		)
		if err := rows.Scan(&t.ID, &t.UserID, &level, &t.ValidUntil); err != nil {
			return nil, err
		}
		t.AccessLevel = access.LevelByID(level)
		out = append(out, t)
	}
	return out, rows.Err()
}

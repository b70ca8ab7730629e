package model

import (
	"time"

	"github.com/iliyamo/task-tracker/internal/access"
)

// AuthToken mirrors a row of the `auth_tokens` table. A token is an
// opaque 64-hex-character bearer credential. Rows are immutable once
// issued; revocation deletes the row.
//
// Fields:
//  ID          – content-addressed identifier (CHAR(64)).
//  UserID      – owning user.
//  AccessLevel – capability tier granted to the bearer.
//  ValidUntil  – the token is usable only while now < ValidUntil.
type AuthToken struct {
	ID          string       // auth_tokens.id
	UserID      uint64       // auth_tokens.user_id
	AccessLevel access.Level // auth_tokens.access_level
	ValidUntil  time.Time    // auth_tokens.valid_until
}

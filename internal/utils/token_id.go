package utils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2s"
)

// NewTokenID mints an opaque API token identifier: the blake2s-256
// digest of username, issue instant and a random salt, hex encoded to
// exactly 64 characters. The id is content-addressed but not
// reversible; nothing about the user can be recovered from it.
func NewTokenID(username string, now time.Time) (string, error) {
	var salt [8]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return "", err
	}
	sum := blake2s.Sum256([]byte(fmt.Sprintf("%s-%s-%d",
		username, now.Format(time.RFC3339Nano), binary.BigEndian.Uint64(salt[:]))))
	return fmt.Sprintf("%x", sum), nil
}

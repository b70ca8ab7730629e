package repository

import (
	"testing"
	"time"
)

func TestUsable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if !Usable(now.Add(time.Second), now) {
		t.Error("token expiring in the future should be usable")
	}
	if Usable(now, now) {
		t.Error("token expiring exactly now must already be unusable")
	}
	if Usable(now.Add(-time.Nanosecond), now) {
		t.Error("expired token should be unusable")
	}
}

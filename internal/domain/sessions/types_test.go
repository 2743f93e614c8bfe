package sessions

import (
	"testing"
	"time"
)

func TestTokenHashRoundTrip(t *testing.T) {
	raw := "eyJhbGciOiJIUzI1NiJ9.a-very-long-signed-refresh-token-well-past-seventy-two-bytes-of-input"

	hash, err := HashToken(raw)
	if err != nil {
		t.Fatalf("HashToken: %v", err)
	}

	s := &Session{TokenHash: hash}
	if !s.Matches(raw) {
		t.Fatalf("expected presented token to match its own hash")
	}
	if s.Matches(raw + "x") {
		t.Fatalf("tampered token must not match")
	}
}

func TestUnattachedShellNeverMatches(t *testing.T) {
	s := &Session{}
	if s.Matches("anything") {
		t.Fatalf("a shell with no hash must never validate")
	}
}

func TestSessionStateHelpers(t *testing.T) {
	now := time.Now()

	s := &Session{ExpiresAt: now.Add(time.Hour)}
	if s.IsRevoked() {
		t.Fatalf("fresh session is not revoked")
	}
	if s.IsExpired(now) {
		t.Fatalf("future expiry is not expired")
	}

	revoked := now.Add(-time.Minute)
	s.RevokedAt = &revoked
	if !s.IsRevoked() {
		t.Fatalf("expected revoked")
	}

	s2 := &Session{ExpiresAt: now.Add(-time.Second)}
	if !s2.IsExpired(now) {
		t.Fatalf("past expiry must be expired")
	}
}

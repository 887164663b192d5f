package jwt

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	i, err := NewIssuer("chingy", "unit-test-session-secret")
	if err != nil {
		t.Fatalf("NewIssuer err: %v", err)
	}
	return i
}

func decodeSegment(t *testing.T, token string, idx int) map[string]any {
	t.Helper()
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("not a JWT: %q", token)
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[idx])
	if err != nil {
		t.Fatalf("segment decode err: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("segment unmarshal err: %v", err)
	}
	return m
}

func TestIssueProfile_Claims(t *testing.T) {
	t.Parallel()
	i := newTestIssuer(t)

	tok, err := i.IssueProfile("app.example.com", "acct-1", 90000001)
	if err != nil {
		t.Fatalf("IssueProfile err: %v", err)
	}
	payload := decodeSegment(t, tok, 1)
	if payload["iss"] != "chingy" {
		t.Fatalf("iss = %v", payload["iss"])
	}
	if payload["sub"] != "profile" {
		t.Fatalf("sub = %v", payload["sub"])
	}
	if payload["accountId"] != "acct-1" {
		t.Fatalf("accountId = %v", payload["accountId"])
	}
	if payload["mainId"] != float64(90000001) {
		t.Fatalf("mainId = %v", payload["mainId"])
	}
	if _, hasExp := payload["exp"]; hasExp {
		t.Fatal("session artifact must not carry exp")
	}
}

func TestIssueProfile_Deterministic(t *testing.T) {
	t.Parallel()
	i := newTestIssuer(t)
	a, err := i.IssueProfile("aud", "acct", 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	b, err := i.IssueProfile("aud", "acct", 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if a != b {
		t.Fatal("identical inputs should produce identical artifacts")
	}
}

func TestParseProfile_RoundTrip(t *testing.T) {
	t.Parallel()
	i := newTestIssuer(t)
	tok, err := i.IssueProfile("app.example.com", "acct-1", 90000001)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	claims, err := i.ParseProfile(tok)
	if err != nil {
		t.Fatalf("ParseProfile err: %v", err)
	}
	if claims.AccountID != "acct-1" || claims.MainID != 90000001 {
		t.Fatalf("claims = %+v", claims)
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != "app.example.com" {
		t.Fatalf("aud = %v", claims.Audience)
	}
}

func TestParseProfile_RejectsForgery(t *testing.T) {
	t.Parallel()
	i := newTestIssuer(t)
	other, err := NewIssuer("chingy", "another-secret")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	tok, err := other.IssueProfile("aud", "acct", 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, err := i.ParseProfile(tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if _, err := i.ParseProfile("garbage.token.here"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for garbage, got %v", err)
	}
}

func TestIssueCustom_ShortLived(t *testing.T) {
	t.Parallel()
	i := newTestIssuer(t)
	tok, err := i.IssueCustom("acct-1", 90000001, time.Hour)
	if err != nil {
		t.Fatalf("IssueCustom err: %v", err)
	}
	payload := decodeSegment(t, tok, 1)
	if payload["aud"] != "directory" {
		t.Fatalf("aud = %v", payload["aud"])
	}
	if payload["sub"] != "acct-1" {
		t.Fatalf("sub = %v", payload["sub"])
	}
	exp, ok := payload["exp"].(float64)
	if !ok {
		t.Fatal("custom credential must expire")
	}
	if time.Unix(int64(exp), 0).Before(time.Now()) {
		t.Fatal("exp already in the past")
	}
}

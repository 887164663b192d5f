package eve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func testSSO(t *testing.T, handler http.Handler) *SSO {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL,
		ClientProfile{ClientID: "login-id", ClientSecret: "login-secret", RedirectURL: "https://broker/v1/auth/login/callback"},
		ClientProfile{ClientID: "reg-id", ClientSecret: "reg-secret", RedirectURL: "https://broker/v1/auth/register/callback"},
	)
}

func TestAuthorizeURL(t *testing.T) {
	t.Parallel()
	s := New("", ClientProfile{ClientID: "cid", RedirectURL: "https://broker/cb"}, ClientProfile{})

	raw := s.AuthorizeURL(ProfileLogin, []string{"publicData", "esi-location.read_location.v1"}, "opaque-state")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if u.Host != "login.eveonline.com" || u.Path != "/oauth/authorize" {
		t.Fatalf("unexpected endpoint: %s", raw)
	}
	q := u.Query()
	if q.Get("response_type") != "code" || q.Get("client_id") != "cid" {
		t.Fatalf("bad query: %v", q)
	}
	if q.Get("scope") != "publicData esi-location.read_location.v1" {
		t.Fatalf("scope = %q", q.Get("scope"))
	}
	if q.Get("state") != "opaque-state" {
		t.Fatalf("state = %q", q.Get("state"))
	}
}

func TestExchangeCode(t *testing.T) {
	t.Parallel()
	s := testSSO(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/token" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		user, pass, _ := r.BasicAuth()
		if user != "reg-id" || pass != "reg-secret" {
			t.Errorf("basic auth = %s:%s", user, pass)
		}
		_ = r.ParseForm()
		if r.PostForm.Get("grant_type") != "authorization_code" || r.PostForm.Get("code") != "abc123" {
			t.Errorf("form = %v", r.PostForm)
		}
		_ = json.NewEncoder(w).Encode(Token{
			AccessToken: "at", TokenType: "Bearer", RefreshToken: "rt", ExpiresIn: 1200,
		})
	}))

	tk, err := s.ExchangeCode(context.Background(), ProfileRegister, "abc123")
	if err != nil {
		t.Fatalf("ExchangeCode err: %v", err)
	}
	if tk.AccessToken != "at" || tk.RefreshToken != "rt" || tk.ExpiresIn != 1200 {
		t.Fatalf("token = %+v", tk)
	}
}

func TestExchangeCode_ProviderError(t *testing.T) {
	t.Parallel()
	s := testSSO(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(Token{Error: "invalid_grant", ErrorDesc: "code expired"})
	}))
	if _, err := s.ExchangeCode(context.Background(), ProfileLogin, "stale"); err == nil {
		t.Fatal("expected error")
	} else if !strings.Contains(err.Error(), "invalid_grant") {
		t.Fatalf("err = %v", err)
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()
	s := testSSO(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/verify" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer at" {
			t.Errorf("authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(Identity{
			CharacterID:        90000001,
			CharacterName:      "Chingy Chonga",
			CharacterOwnerHash: "ownerhash",
			Scopes:             "publicData esi-location.read_location.v1",
		})
	}))

	id, err := s.Verify(context.Background(), "Bearer", "at")
	if err != nil {
		t.Fatalf("Verify err: %v", err)
	}
	if id.CharacterID != 90000001 || id.CharacterName != "Chingy Chonga" {
		t.Fatalf("identity = %+v", id)
	}
	if got := id.GrantedScopes(); len(got) != 2 || got[0] != "publicData" {
		t.Fatalf("scopes = %v", got)
	}
}

func TestRevoke(t *testing.T) {
	t.Parallel()
	var revoked string
	s := testSSO(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/revoke" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = r.ParseForm()
		revoked = r.PostForm.Get("token")
	}))

	if err := s.Revoke(context.Background(), ProfileRegister, "old-access-token"); err != nil {
		t.Fatalf("Revoke err: %v", err)
	}
	if revoked != "old-access-token" {
		t.Fatalf("revoked = %q", revoked)
	}
}

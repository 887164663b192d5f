// Package eve implements the outbound OAuth 2.0 client for the EVE Online SSO.
// The SSO has no discovery document; endpoints are fixed. Identity is obtained
// with a separate verification call after the code exchange.
package eve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	authorizePath = "/oauth/authorize"
	tokenPath     = "/oauth/token"
	verifyPath    = "/oauth/verify"
	revokePath    = "/oauth/revoke"
)

// ProfileKind selects which of the two fixed client registrations a call
// uses: the login client or the register client.
type ProfileKind string

const (
	ProfileLogin    ProfileKind = "login"
	ProfileRegister ProfileKind = "register"
)

// ClientProfile holds one SSO client registration.
type ClientProfile struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Token is the result of exchanging an authorization code.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Error        string `json:"error,omitempty"`
	ErrorDesc    string `json:"error_description,omitempty"`
}

// Identity is the SSO's verified assertion about the token holder.
type Identity struct {
	CharacterID        int64  `json:"CharacterID"`
	CharacterName      string `json:"CharacterName"`
	CharacterOwnerHash string `json:"CharacterOwnerHash"`
	Scopes             string `json:"Scopes"`
	TokenType          string `json:"TokenType"`
	ExpiresOn          string `json:"ExpiresOn"`
}

// GrantedScopes returns the assertion's scope set as a list.
func (id *Identity) GrantedScopes() []string {
	return strings.Fields(id.Scopes)
}

// SSO is the EVE SSO client, carrying both fixed client profiles.
type SSO struct {
	Login    ClientProfile
	Register ClientProfile

	baseURL string
	http    *http.Client
}

// New creates an SSO client. baseURL defaults to the production SSO host.
func New(baseURL string, login, register ClientProfile) *SSO {
	if baseURL == "" {
		baseURL = "https://login.eveonline.com"
	}
	return &SSO{
		Login:    login,
		Register: register,
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SSO) profile(kind ProfileKind) ClientProfile {
	if kind == ProfileRegister {
		return s.Register
	}
	return s.Login
}

// AuthorizeURL builds the provider redirect for one flow leg. state must
// already be the encrypted flow-state token.
func (s *SSO) AuthorizeURL(kind ProfileKind, scopes []string, state string) string {
	p := s.profile(kind)
	u, _ := url.Parse(s.baseURL + authorizePath)
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", p.ClientID)
	q.Set("redirect_uri", p.RedirectURL)
	q.Set("scope", strings.Join(scopes, " "))
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}

// ExchangeCode trades an authorization code for an access token.
func (s *SSO) ExchangeCode(ctx context.Context, kind ProfileKind, code string) (*Token, error) {
	p := s.profile(kind)
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(p.ClientID, p.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var tk Token
	if err := json.NewDecoder(resp.Body).Decode(&tk); err != nil {
		return nil, fmt.Errorf("eve: decode token response: %w", err)
	}
	if tk.Error != "" {
		return nil, fmt.Errorf("eve: token exchange: %s - %s", tk.Error, tk.ErrorDesc)
	}
	if tk.AccessToken == "" {
		return nil, fmt.Errorf("eve: no access_token in response (status %d)", resp.StatusCode)
	}
	return &tk, nil
}

// Verify introspects an access token and returns the verified identity.
func (s *SSO) Verify(ctx context.Context, tokenType, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+verifyPath, nil)
	if err != nil {
		return nil, err
	}
	if tokenType == "" {
		tokenType = "Bearer"
	}
	req.Header.Set("Authorization", tokenType+" "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eve: verify: status %d", resp.StatusCode)
	}
	var id Identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return nil, fmt.Errorf("eve: decode identity: %w", err)
	}
	if id.CharacterID == 0 {
		return nil, fmt.Errorf("eve: verify returned no character")
	}
	return &id, nil
}

// Revoke invalidates a previously issued token upstream. Used before a
// character's grant is overwritten by a re-authorization.
func (s *SSO) Revoke(ctx context.Context, kind ProfileKind, token string) error {
	p := s.profile(kind)
	form := url.Values{}
	form.Set("token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+revokePath, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(p.ClientID, p.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("eve: revoke: status %d", resp.StatusCode)
	}
	return nil
}

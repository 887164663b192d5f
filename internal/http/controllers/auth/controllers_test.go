package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justindh/ChingyWebApi/internal/directory/core"
	"github.com/justindh/ChingyWebApi/internal/directory/memory"
	"github.com/justindh/ChingyWebApi/internal/eve"
	"github.com/justindh/ChingyWebApi/internal/flowstate"
	"github.com/justindh/ChingyWebApi/internal/http/helpers"
	mw "github.com/justindh/ChingyWebApi/internal/http/middlewares"
	svc "github.com/justindh/ChingyWebApi/internal/http/services/auth"
	jwtx "github.com/justindh/ChingyWebApi/internal/jwt"
)

// stubSSO devuelve siempre la misma identidad/token.
type stubSSO struct {
	identity *eve.Identity
	token    *eve.Token
}

func (s *stubSSO) AuthorizeURL(_ eve.ProfileKind, _ []string, state string) string {
	return "https://sso.test/authorize?state=" + url.QueryEscape(state)
}

func (s *stubSSO) ExchangeCode(context.Context, eve.ProfileKind, string) (*eve.Token, error) {
	return s.token, nil
}

func (s *stubSSO) Verify(context.Context, string, string) (*eve.Identity, error) {
	return s.identity, nil
}

func (s *stubSSO) Revoke(context.Context, eve.ProfileKind, string) error { return nil }

type stack struct {
	ctrls  *Controllers
	codec  *flowstate.Codec
	issuer *jwtx.Issuer
	store  *memory.Store
}

func newStack(t *testing.T) *stack {
	t.Helper()
	codec, err := flowstate.NewCodec("controller-test-state-secret")
	require.NoError(t, err)
	issuer, err := jwtx.NewIssuer("chingy", "controller-test-session-secret")
	require.NoError(t, err)

	store := memory.New()
	service := svc.NewService(codec, issuer, &stubSSO{
		identity: &eve.Identity{
			CharacterID:        91000001,
			CharacterName:      "Prueba Uno",
			CharacterOwnerHash: "hash-1",
			Scopes:             "publicData esi-location.read_location.v1",
		},
		token: &eve.Token{AccessToken: "at", TokenType: "Bearer", RefreshToken: "rt", ExpiresIn: 1200},
	}, store, svc.Config{
		BaseURL:        "https://auth.example.com",
		ErrorRedirect:  "https://app.example.com/auth/error",
		CustomTokenTTL: time.Hour,
		Cookie:         svc.CookieSettings{Domain: "example.com", SameSite: "Lax", Secure: true},
	})
	return &stack{ctrls: NewControllers(service), codec: codec, issuer: issuer, store: store}
}

func errCode(t *testing.T, body []byte) string {
	t.Helper()
	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Code
}

func TestLoginStart_MissingRedirect(t *testing.T) {
	s := newStack(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/v1/auth/login?response_type=token", nil)

	s.ctrls.Login.Start(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", errCode(t, rec.Body.Bytes()))
}

func TestLoginStart_InvalidResponseType(t *testing.T) {
	s := newStack(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"http://example.com/v1/auth/login?redirect_to=https%3A%2F%2Fapp%2Fcb&response_type=jsonp", nil)

	s.ctrls.Login.Start(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", errCode(t, rec.Body.Bytes()))
}

func TestLoginStart_UnknownScope(t *testing.T) {
	s := newStack(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"http://example.com/v1/auth/login?redirect_to=https%3A%2F%2Fapp%2Fcb&response_type=token&scopes=esi-fake.scope.v9", nil)

	s.ctrls.Login.Start(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNKNOWN_SCOPE", errCode(t, rec.Body.Bytes()))
}

func TestLoginStart_RedirectsToProvider(t *testing.T) {
	s := newStack(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"http://example.com/v1/auth/login?redirect_to=https%3A%2F%2Fapp%2Fcb&response_type=token", nil)

	s.ctrls.Login.Start(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "sso.test", loc.Host)

	// la audiencia del state es el host que recibió el request
	st, err := s.codec.Decode(loc.Query().Get("state"))
	require.NoError(t, err)
	assert.Equal(t, "example.com", st.Aud)
	assert.Equal(t, flowstate.FlowLogin, st.Variant)
}

func TestLoginCallback_InvalidState(t *testing.T) {
	s := newStack(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"http://example.com/v1/auth/login/callback?code=abc&state=garbage", nil)

	s.ctrls.Login.Callback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_STATE", errCode(t, rec.Body.Bytes()))
}

func TestLoginCallback_ProviderError(t *testing.T) {
	s := newStack(t)
	token, err := s.codec.Encode(flowstate.FlowState{
		Variant: flowstate.FlowLogin, Mode: flowstate.ModeToken, RedirectTo: "https://app/cb",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"http://example.com/v1/auth/login/callback?error=access_denied&error_description=user+cancelled&state="+url.QueryEscape(token), nil)

	s.ctrls.Login.Callback(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "app.example.com", loc.Host)
	assert.Equal(t, "provider_error", loc.Query().Get("type"))
	assert.Equal(t, "access_denied", loc.Query().Get("error"))
	assert.Equal(t, "https://app/cb", loc.Query().Get("redirect_to"))
}

func TestRegisterCallback_PersistentCookie(t *testing.T) {
	s := newStack(t)
	token, err := s.codec.Encode(flowstate.FlowState{
		Aud: "example.com", Variant: flowstate.FlowRegister, Mode: flowstate.ModePersistent,
		Scopes:     []string{"publicData", "esi-location.read_location.v1"},
		RedirectTo: "https://app/cb",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"http://example.com/v1/auth/register/callback?code=abc&state="+url.QueryEscape(token), nil)

	s.ctrls.Register.Callback(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://app/cb", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, helpers.SessionCookieName, ck.Name)
	assert.Equal(t, int(helpers.PersistentCookieTTL.Seconds()), ck.MaxAge)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
}

func seedVerifyData(t *testing.T, s *stack, heldScopes string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.store.PutProfile(ctx, &core.ProfileRecord{
		ID: "acct-1", MainCharacterID: 91000001, DisplayName: "Prueba Uno",
	}))
	require.NoError(t, s.store.PutCharacter(ctx, &core.CharacterRecord{
		ID: 91000001, AccountID: "acct-1", Name: "Prueba Uno", OwnerHash: "hash-1",
		Grant: &core.SSOGrant{AccessToken: "at", Scope: heldScopes},
	}))
}

func verifyHandler(s *stack) http.Handler {
	return mw.Chain(http.HandlerFunc(s.ctrls.Verify.Verify), mw.RequireSession(s.issuer))
}

func TestVerify_RequiresSession(t *testing.T) {
	s := newStack(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/v1/auth/verify", nil)

	verifyHandler(s).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_MISSING", errCode(t, rec.Body.Bytes()))
}

func TestVerify_MissingProfileIsBadRequest(t *testing.T) {
	s := newStack(t)
	// sesión válida pero sin Profile en el directorio: 400, no 401
	bearer, err := s.issuer.IssueProfile("example.com", "acct-gone", 91000001)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/v1/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer "+bearer)

	verifyHandler(s).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", errCode(t, rec.Body.Bytes()))
}

func TestVerify_HappyPath(t *testing.T) {
	s := newStack(t)
	seedVerifyData(t, s, "publicData esi-location.read_location.v1")

	bearer, err := s.issuer.IssueProfile("example.com", "acct-1", 91000001)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/v1/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer "+bearer)

	verifyHandler(s).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		CharacterID int64  `json:"characterId"`
		Token       string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 91000001, resp.CharacterID)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestVerify_MissingScopesBlocks(t *testing.T) {
	s := newStack(t)
	seedVerifyData(t, s, "publicData")

	bearer, err := s.issuer.IssueProfile("example.com", "acct-1", 91000001)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"http://example.com/v1/auth/verify?scopes=publicData+esi-location.read_location.v1", nil)
	req.Header.Set("Authorization", "Bearer "+bearer)

	verifyHandler(s).ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp struct {
		Error    string `json:"error"`
		Redirect string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing_scopes", resp.Error)

	// el redirect trae un state re-cifrable cuyo déficit es exactamente {B}
	u, err := url.Parse(resp.Redirect)
	require.NoError(t, err)
	st, err := s.codec.Decode(u.Query().Get("state"))
	require.NoError(t, err)
	assert.Equal(t, []string{"esi-location.read_location.v1"}, st.Scopes)
}

func TestVerify_BadCharacterID(t *testing.T) {
	s := newStack(t)
	seedVerifyData(t, s, "publicData")

	bearer, err := s.issuer.IssueProfile("example.com", "acct-1", 91000001)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"http://example.com/v1/auth/verify?characterId=abc", nil)
	req.Header.Set("Authorization", "Bearer "+bearer)

	verifyHandler(s).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", errCode(t, rec.Body.Bytes()))
}

func TestLogout(t *testing.T) {
	s := newStack(t)

	t.Run("sin redirect", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "http://example.com/v1/auth/logout", nil)

		s.ctrls.Logout.Logout(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, helpers.SessionCookieName, cookies[0].Name)
		assert.Equal(t, -1, cookies[0].MaxAge)
		assert.Empty(t, cookies[0].Value)
	})

	t.Run("con redirect", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"http://example.com/v1/auth/logout?redirect_to=https%3A%2F%2Fapp%2Fbye", nil)

		s.ctrls.Logout.Logout(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://app/bye", rec.Header().Get("Location"))
	})
}

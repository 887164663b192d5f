package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const minimalYAML = `
server:
  base_url: https://auth.example.com
auth:
  session_secret: s3ss10n
  state_secret: st4t3
sso:
  login:
    client_id: login-id
    client_secret: login-secret
  register:
    client_id: reg-id
    client_secret: reg-secret
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	require.Equal(t, ":3000", c.Server.Addr)
	require.Equal(t, "chingy", c.Auth.Issuer)
	require.Equal(t, time.Hour, c.Auth.CustomTokenTTL)
	require.Equal(t, "Lax", c.Auth.Cookie.SameSite)
	require.Equal(t, "memory", c.Directory.Driver)
	require.Equal(t, "info", c.Log.Level)

	// redirect_uri derivados del base_url
	require.Equal(t, "https://auth.example.com/v1/auth/login/callback", c.SSO.Login.RedirectURL)
	require.Equal(t, "https://auth.example.com/v1/auth/register/callback", c.SSO.Register.RedirectURL)
}

func TestLoad_MissingSecretsFails(t *testing.T) {
	_, err := Load(writeConfig(t, `
sso:
  login: {client_id: a, client_secret: b}
  register: {client_id: c, client_secret: d}
`))
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("AUTH_SESSION_SECRET", "env-secret")
	t.Setenv("DIRECTORY_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	c, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	require.Equal(t, ":9999", c.Server.Addr)
	require.Equal(t, "env-secret", c.Auth.SessionSecret)
	require.Equal(t, "redis", c.Directory.Driver)
	require.Equal(t, "localhost:6379", c.Directory.Redis.Addr)
}

func TestLoad_ProdForcesSecureCookies(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	c, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	require.True(t, c.Auth.Cookie.Secure)
}

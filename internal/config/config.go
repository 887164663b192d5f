package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
		// BaseURL es la URL pública del broker; se usa para armar los
		// redirect_uri registrados ante el SSO y los redirects internos.
		BaseURL            string   `yaml:"base_url"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Auth struct {
		// Issuer es el claim iss de los artefactos de sesión.
		Issuer string `yaml:"issuer"`
		// SessionSecret firma los JWT de sesión (HS256).
		SessionSecret string `yaml:"session_secret"`
		// StateSecret cifra el estado de flujo que viaja por el parámetro state.
		StateSecret string `yaml:"state_secret"`
		// ErrorRedirect es la página de error de la SPA.
		ErrorRedirect string `yaml:"error_redirect"`
		// CustomTokenTTL es la vida del credencial corto que emite verify.
		CustomTokenTTL time.Duration `yaml:"custom_token_ttl"`
		Cookie         struct {
			Domain   string `yaml:"domain"`
			SameSite string `yaml:"samesite"`
			Secure   bool   `yaml:"secure"`
		} `yaml:"cookie"`
	} `yaml:"auth"`

	SSO struct {
		// BaseURL del proveedor; vacío usa producción.
		BaseURL string `yaml:"base_url"`
		Login   struct {
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
			RedirectURL  string `yaml:"redirect_url"`
		} `yaml:"login"`
		Register struct {
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
			RedirectURL  string `yaml:"redirect_url"`
		} `yaml:"register"`
	} `yaml:"sso"`

	Directory struct {
		Driver string `yaml:"driver"`
		Redis  struct {
			Addr string `yaml:"addr"`
			DB   int    `yaml:"db"`
		} `yaml:"redis"`
		Postgres struct {
			DSN      string `yaml:"dsn"`
			MaxConns int    `yaml:"max_conns"`
		} `yaml:"postgres"`
	} `yaml:"directory"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load lee el YAML (path vacío = sólo env), aplica defaults y overrides por
// variable de entorno, deriva los redirect_uri y valida los secretos.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "chingy"
	}
	if c.Auth.CustomTokenTTL == 0 {
		c.Auth.CustomTokenTTL = time.Hour
	}
	if c.Auth.Cookie.SameSite == "" {
		c.Auth.Cookie.SameSite = "Lax"
	}
	if c.Directory.Driver == "" {
		c.Directory.Driver = "memory"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	// Overrides por env + salvaguarda prod
	c.applyEnvOverrides()

	// Los redirect_uri registrados derivan del base_url si no vienen dados.
	if base := strings.TrimRight(c.Server.BaseURL, "/"); base != "" {
		if c.SSO.Login.RedirectURL == "" {
			c.SSO.Login.RedirectURL = base + "/v1/auth/login/callback"
		}
		if c.SSO.Register.RedirectURL == "" {
			c.SSO.Register.RedirectURL = base + "/v1/auth/register/callback"
		}
	}

	// Guardia dura: en prod las cookies de sesión siempre van con Secure.
	if strings.EqualFold(c.App.Env, "prod") {
		c.Auth.Cookie.Secure = true
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate exige los secretos sin los cuales el broker no puede operar.
// Se valida al cargar, una sola vez; ningún componente re-lee el entorno.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.SessionSecret) == "" {
		return errors.New("config: auth.session_secret is required")
	}
	if strings.TrimSpace(c.Auth.StateSecret) == "" {
		return errors.New("config: auth.state_secret is required")
	}
	if c.SSO.Login.ClientID == "" || c.SSO.Login.ClientSecret == "" {
		return errors.New("config: sso.login client credentials are required")
	}
	if c.SSO.Register.ClientID == "" || c.SSO.Register.ClientSecret == "" {
		return errors.New("config: sso.register client credentials are required")
	}
	return nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_BASE_URL"); ok {
		c.Server.BaseURL = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	// AUTH
	if v, ok := getEnvStr("AUTH_ISSUER"); ok {
		c.Auth.Issuer = v
	}
	if v, ok := getEnvStr("AUTH_SESSION_SECRET"); ok {
		c.Auth.SessionSecret = v
	}
	if v, ok := getEnvStr("AUTH_STATE_SECRET"); ok {
		c.Auth.StateSecret = v
	}
	if v, ok := getEnvStr("AUTH_ERROR_REDIRECT"); ok {
		c.Auth.ErrorRedirect = v
	}
	if v, ok := getEnvDur("AUTH_CUSTOM_TOKEN_TTL"); ok {
		c.Auth.CustomTokenTTL = v
	}
	if v, ok := getEnvStr("AUTH_COOKIE_DOMAIN"); ok {
		c.Auth.Cookie.Domain = v
	}
	if v, ok := getEnvStr("AUTH_COOKIE_SAMESITE"); ok {
		c.Auth.Cookie.SameSite = v
	}
	if v, ok := getEnvBool("AUTH_COOKIE_SECURE"); ok {
		c.Auth.Cookie.Secure = v
	}

	// SSO
	if v, ok := getEnvStr("SSO_BASE_URL"); ok {
		c.SSO.BaseURL = v
	}
	if v, ok := getEnvStr("SSO_LOGIN_CLIENT_ID"); ok {
		c.SSO.Login.ClientID = v
	}
	if v, ok := getEnvStr("SSO_LOGIN_CLIENT_SECRET"); ok {
		c.SSO.Login.ClientSecret = v
	}
	if v, ok := getEnvStr("SSO_LOGIN_REDIRECT_URL"); ok {
		c.SSO.Login.RedirectURL = v
	}
	if v, ok := getEnvStr("SSO_REGISTER_CLIENT_ID"); ok {
		c.SSO.Register.ClientID = v
	}
	if v, ok := getEnvStr("SSO_REGISTER_CLIENT_SECRET"); ok {
		c.SSO.Register.ClientSecret = v
	}
	if v, ok := getEnvStr("SSO_REGISTER_REDIRECT_URL"); ok {
		c.SSO.Register.RedirectURL = v
	}

	// DIRECTORY
	if v, ok := getEnvStr("DIRECTORY_DRIVER"); ok {
		c.Directory.Driver = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Directory.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Directory.Redis.DB = v
	}
	if v, ok := getEnvStr("POSTGRES_DSN"); ok {
		c.Directory.Postgres.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Directory.Postgres.MaxConns = v
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
}

// Package auth implements the flow orchestrator: the four entry flows
// (login, register, add-character, modify-scopes), their callback
// continuations, and the verify check for protected resources.
//
// The broker is stateless between legs: everything a callback needs viaja
// cifrado en el parámetro state del proveedor.
package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/justindh/ChingyWebApi/internal/directory/core"
	"github.com/justindh/ChingyWebApi/internal/eve"
	"github.com/justindh/ChingyWebApi/internal/flowstate"
	jwtx "github.com/justindh/ChingyWebApi/internal/jwt"
)

// Errores de negocio. El controller los mapea a AppErrors via errors.Is.
var (
	ErrRedirectRequired    = errors.New("auth: redirect_to is required")
	ErrInvalidResponseMode = errors.New("auth: invalid response_type")
	ErrAudienceMismatch    = errors.New("auth: artifact audience does not match request host")
	ErrProfileNotFound     = errors.New("auth: profile not found")
	ErrCharacterNotFound   = errors.New("auth: character not found")
	ErrNotOwner            = errors.New("auth: character does not belong to the account")
)

// SSOClient es la superficie del proveedor que consume el orquestador.
type SSOClient interface {
	AuthorizeURL(kind eve.ProfileKind, scopes []string, state string) string
	ExchangeCode(ctx context.Context, kind eve.ProfileKind, code string) (*eve.Token, error)
	Verify(ctx context.Context, tokenType, accessToken string) (*eve.Identity, error)
	Revoke(ctx context.Context, kind eve.ProfileKind, token string) error
}

// CookieSettings son los atributos fijos de la cookie de sesión.
type CookieSettings struct {
	Domain   string
	SameSite string
	Secure   bool
}

// Config agrupa lo que el orquestador necesita además de sus colaboradores.
type Config struct {
	// BaseURL es la URL pública del broker (para redirects de re-enganche).
	BaseURL string
	// ErrorRedirect es la página de error de la SPA.
	ErrorRedirect string
	// CustomTokenTTL es la vida del credencial corto del endpoint verify.
	CustomTokenTTL time.Duration
	Cookie         CookieSettings
}

// Service es el orquestador de flujos. Inmutable tras construcción.
type Service struct {
	codec  *flowstate.Codec
	issuer *jwtx.Issuer
	sso    SSOClient
	store  core.Store
	cfg    Config
}

func NewService(codec *flowstate.Codec, issuer *jwtx.Issuer, sso SSOClient, store core.Store, cfg Config) *Service {
	if cfg.CustomTokenTTL == 0 {
		cfg.CustomTokenTTL = time.Hour
	}
	return &Service{codec: codec, issuer: issuer, sso: sso, store: store, cfg: cfg}
}

// StartParams son los parámetros comunes de los endpoints de entrada.
type StartParams struct {
	// Audience es el host que pide la sesión (va al claim aud).
	Audience string
	// RedirectTo es el destino final del browser al terminar el flujo.
	RedirectTo string
	// ResponseMode es el modo de entrega pedido (none|token|persistent|session).
	ResponseMode string
	// Scopes es la lista cruda de scopes del query param (puede venir vacía).
	Scopes string
}

func (p StartParams) validate() error {
	if p.RedirectTo == "" {
		return ErrRedirectRequired
	}
	if !flowstate.ValidResponseMode(p.ResponseMode) {
		return ErrInvalidResponseMode
	}
	return nil
}

// Redirect es el terminal de un leg de browser: a dónde va y, si corresponde,
// qué cookie se setea antes de ir. Blocked queda vacío en el camino feliz y
// trae la razón (character_not_found, missing_scopes, provider_error) cuando
// el destino es la página de error de la SPA.
type Redirect struct {
	Location string
	Cookie   *http.Cookie
	Blocked  string
}

// ProviderFailure arma el redirect a la página de error cuando el proveedor
// vuelve con error= en lugar de code=. El state se decodifica best-effort
// para conservar el redirect_to original; si no se puede, va sin él.
func (s *Service) ProviderFailure(errCode, errDesc, stateToken string) Redirect {
	redirectTo := ""
	if st, err := s.codec.Decode(stateToken); err == nil {
		redirectTo = st.RedirectTo
	}
	extra := url.Values{"error": {errCode}}
	if errDesc != "" {
		extra.Set("error_description", errDesc)
	}
	return s.errorRedirect("provider_error", redirectTo, extra)
}

// errorRedirect arma el redirect a la página de error de la SPA.
func (s *Service) errorRedirect(typ, redirectTo string, extra url.Values) Redirect {
	q := url.Values{}
	q.Set("type", typ)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return Redirect{Location: s.cfg.ErrorRedirect + "?" + q.Encode(), Blocked: typ}
}

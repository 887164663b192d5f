package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/justindh/ChingyWebApi/internal/directory/core"
	"github.com/justindh/ChingyWebApi/internal/eve"
	"github.com/justindh/ChingyWebApi/internal/flowstate"
	"github.com/justindh/ChingyWebApi/internal/observability/logger"
	"github.com/justindh/ChingyWebApi/internal/validation"
)

// StartLogin valida los parámetros de entrada, cifra el estado del flujo y
// devuelve la URL de autorización del proveedor (perfil login).
func (s *Service) StartLogin(ctx context.Context, p StartParams) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	scopes, err := validation.RegisterScopes(p.Scopes)
	if err != nil {
		return "", err
	}

	st := flowstate.FlowState{
		Aud:        p.Audience,
		Variant:    flowstate.FlowLogin,
		Mode:       flowstate.ResponseMode(p.ResponseMode),
		Scopes:     scopes,
		RedirectTo: p.RedirectTo,
	}
	token, err := s.codec.Encode(st)
	if err != nil {
		return "", err
	}

	logger.From(ctx).Info("login flow started",
		logger.Flow(string(st.Variant)),
		logger.Mode(p.ResponseMode),
		logger.Audience(p.Audience),
	)
	return s.sso.AuthorizeURL(eve.ProfileLogin, scopes, token), nil
}

// HandleLoginCallback continúa el flujo de login con el code y el state que
// devuelve el proveedor.
//
// Ramas terminales:
//   - personaje desconocido -> redirect character_not_found con los scopes
//     originales (la SPA puede re-ofrecer registro)
//   - déficit de scopes     -> redirect missing_scopes con un state re-cifrado;
//     el déficit gana aunque el artefacto ya esté emitido (se descarta)
//   - camino feliz          -> entrega según el modo pedido
func (s *Service) HandleLoginCallback(ctx context.Context, code, stateToken string) (Redirect, error) {
	st, err := s.codec.Decode(stateToken)
	if err != nil {
		return Redirect{}, err
	}

	identity, _, err := s.exchangeAndVerify(ctx, eve.ProfileLogin, code)
	if err != nil {
		return Redirect{}, err
	}

	character, err := s.store.GetCharacter(ctx, identity.CharacterID)
	if errors.Is(err, core.ErrNotFound) {
		logger.From(ctx).Info("login callback: unknown character",
			logger.CharacterID(identity.CharacterID),
			logger.CharacterName(identity.CharacterName),
		)
		return s.errorRedirect("character_not_found", st.RedirectTo, url.Values{
			"scopes": {strings.Join(st.Scopes, " ")},
		}), nil
	}
	if err != nil {
		return Redirect{}, err
	}

	profile, err := s.store.GetProfile(ctx, character.AccountID)
	if err != nil {
		return Redirect{}, err
	}

	artifact, err := s.issuer.IssueProfile(st.Aud, profile.ID, profile.MainCharacterID)
	if err != nil {
		return Redirect{}, err
	}

	if deficit := validation.ComputeDeficit(st.Scopes, validation.SplitScopes(character.HeldScopes())); deficit != nil {
		// El artefacto ya emitido se descarta: sin los scopes pedidos la
		// sesión no sirve al caller.
		reauth := flowstate.FlowState{
			Aud:         st.Aud,
			Variant:     flowstate.FlowModifyScopes,
			Mode:        st.Mode,
			Scopes:      deficit,
			RedirectTo:  st.RedirectTo,
			AccountID:   character.AccountID,
			CharacterID: character.ID,
		}
		token, err := s.codec.Encode(reauth)
		if err != nil {
			return Redirect{}, err
		}
		logger.From(ctx).Info("login callback: scope deficit",
			logger.CharacterID(character.ID),
			logger.AccountID(character.AccountID),
			logger.Any("deficit", deficit),
		)
		return s.errorRedirect("missing_scopes", st.RedirectTo, url.Values{
			"state": {token},
		}), nil
	}

	logger.From(ctx).Info("login flow resolved",
		logger.AccountID(profile.ID),
		logger.CharacterID(identity.CharacterID),
		logger.Mode(string(st.Mode)),
	)
	return s.deliver(st, artifact), nil
}

// exchangeAndVerify hace el intercambio de code y la introspección contra el
// proveedor, devolviendo la aserción de identidad verificada y el token.
func (s *Service) exchangeAndVerify(ctx context.Context, kind eve.ProfileKind, code string) (*eve.Identity, *eve.Token, error) {
	tk, err := s.sso.ExchangeCode(ctx, kind, code)
	if err != nil {
		return nil, nil, err
	}
	id, err := s.sso.Verify(ctx, tk.TokenType, tk.AccessToken)
	if err != nil {
		return nil, nil, err
	}
	return id, tk, nil
}

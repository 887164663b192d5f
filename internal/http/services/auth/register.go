package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/justindh/ChingyWebApi/internal/directory/core"
	"github.com/justindh/ChingyWebApi/internal/eve"
	"github.com/justindh/ChingyWebApi/internal/flowstate"
	"github.com/justindh/ChingyWebApi/internal/observability/logger"
	"github.com/justindh/ChingyWebApi/internal/validation"
)

// StartRegister valida la entrada, cifra el estado y devuelve la URL de
// autorización del proveedor (perfil register).
func (s *Service) StartRegister(ctx context.Context, p StartParams) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	scopes, err := validation.RegisterScopes(p.Scopes)
	if err != nil {
		return "", err
	}

	st := flowstate.FlowState{
		Aud:        p.Audience,
		Variant:    flowstate.FlowRegister,
		Mode:       flowstate.ResponseMode(p.ResponseMode),
		Scopes:     scopes,
		RedirectTo: p.RedirectTo,
	}
	token, err := s.codec.Encode(st)
	if err != nil {
		return "", err
	}

	logger.From(ctx).Info("register flow started",
		logger.Flow(string(st.Variant)),
		logger.Mode(p.ResponseMode),
		logger.Audience(p.Audience),
	)
	return s.sso.AuthorizeURL(eve.ProfileRegister, scopes, token), nil
}

// StartAddCharacter arranca el flujo de vincular un personaje extra a una
// cuenta existente. Exige sesión vigente cuya audiencia coincida con el host
// y un Profile existente para esa cuenta. Nunca entrega sesión nueva
// (Mode=none): el caller ya tiene una.
func (s *Service) StartAddCharacter(ctx context.Context, accountID, artifactAud string, p StartParams) (string, error) {
	if p.RedirectTo == "" {
		return "", ErrRedirectRequired
	}
	if artifactAud != p.Audience {
		return "", ErrAudienceMismatch
	}
	ok, err := s.store.HasProfile(ctx, accountID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrProfileNotFound
	}
	scopes, err := validation.RegisterScopes(p.Scopes)
	if err != nil {
		return "", err
	}

	st := flowstate.FlowState{
		Aud:        p.Audience,
		Variant:    flowstate.FlowAddCharacter,
		Mode:       flowstate.ModeNone,
		Scopes:     scopes,
		RedirectTo: p.RedirectTo,
		AccountID:  accountID,
	}
	token, err := s.codec.Encode(st)
	if err != nil {
		return "", err
	}

	logger.From(ctx).Info("add-character flow started",
		logger.Flow(string(st.Variant)),
		logger.AccountID(accountID),
	)
	return s.sso.AuthorizeURL(eve.ProfileRegister, scopes, token), nil
}

// HandleRegisterCallback continúa los flujos register y addCharacter (ambos
// vuelven por el redirect_uri del cliente register).
//
// Ramas:
//   - personaje nuevo + register     -> crea Profile+Character+cuenta, sesión fresca
//   - personaje nuevo + addCharacter -> crea sólo el Character colgado del
//     AccountID del state, refresca la cuenta, redirect pelado
//   - personaje existente            -> revoca el grant anterior, lo pisa con
//     el nuevo y entrega sesión para la cuenta vinculada
func (s *Service) HandleRegisterCallback(ctx context.Context, code, stateToken string) (Redirect, error) {
	st, err := s.codec.Decode(stateToken)
	if err != nil {
		return Redirect{}, err
	}

	identity, token, err := s.exchangeAndVerify(ctx, eve.ProfileRegister, code)
	if err != nil {
		return Redirect{}, err
	}
	grant := &core.SSOGrant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(token.ExpiresIn) * time.Second).UTC(),
		Scope:        identity.Scopes,
	}

	character, err := s.store.GetCharacter(ctx, identity.CharacterID)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return s.linkNewCharacter(ctx, st, identity, grant)
	case err != nil:
		return Redirect{}, err
	default:
		return s.reauthorizeCharacter(ctx, st, identity, grant, character)
	}
}

// linkNewCharacter cubre las dos ramas de personaje desconocido. Las
// escrituras al directorio van en paralelo y sin rollback: si alguna falla,
// falla el flujo entero y el Profile queda marcado con ErrorFlag para que una
// lectura posterior sepa que el registro quedó a medias (el directorio es
// last-writer-wins).
func (s *Service) linkNewCharacter(ctx context.Context, st flowstate.FlowState, identity *eve.Identity, grant *core.SSOGrant) (Redirect, error) {
	accountID := st.AccountID
	freshProfile := st.Variant == flowstate.FlowRegister
	if freshProfile {
		accountID = uuid.NewString()
	}

	character := &core.CharacterRecord{
		ID:        identity.CharacterID,
		AccountID: accountID,
		Name:      identity.CharacterName,
		OwnerHash: identity.CharacterOwnerHash,
		Grant:     grant,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.store.PutCharacter(gctx, character) })
	g.Go(func() error {
		return s.store.UpsertAccount(gctx, &core.AccountRecord{ID: accountID, DisplayName: identity.CharacterName})
	})
	if freshProfile {
		g.Go(func() error {
			return s.store.PutProfile(gctx, &core.ProfileRecord{
				ID:              accountID,
				MainCharacterID: identity.CharacterID,
				DisplayName:     identity.CharacterName,
			})
		})
	}
	if err := g.Wait(); err != nil {
		if freshProfile {
			s.flagPartialProfile(ctx, accountID, identity)
		}
		return Redirect{}, err
	}

	logger.From(ctx).Info("character linked",
		logger.Flow(string(st.Variant)),
		logger.AccountID(accountID),
		logger.CharacterID(identity.CharacterID),
		logger.CharacterName(identity.CharacterName),
	)

	if !freshProfile {
		// addCharacter: el caller ya tiene sesión, redirect pelado.
		return Redirect{Location: st.RedirectTo}, nil
	}

	artifact, err := s.issuer.IssueProfile(st.Aud, accountID, identity.CharacterID)
	if err != nil {
		return Redirect{}, err
	}
	return s.deliver(st, artifact), nil
}

// flagPartialProfile pisa el Profile con ErrorFlag tras un fan-out fallido.
// Best effort: si esta escritura también falla, sólo queda el log.
func (s *Service) flagPartialProfile(ctx context.Context, accountID string, identity *eve.Identity) {
	flagged := &core.ProfileRecord{
		ID:              accountID,
		MainCharacterID: identity.CharacterID,
		DisplayName:     identity.CharacterName,
		ErrorFlag:       true,
	}
	if err := s.store.PutProfile(ctx, flagged); err != nil {
		logger.From(ctx).Warn("could not flag partially written profile",
			logger.AccountID(accountID),
			logger.Err(err),
		)
	}
}

// reauthorizeCharacter pisa el grant de un personaje ya vinculado. El grant
// anterior se revoca upstream antes de sobreescribir.
func (s *Service) reauthorizeCharacter(ctx context.Context, st flowstate.FlowState, identity *eve.Identity, grant *core.SSOGrant, character *core.CharacterRecord) (Redirect, error) {
	if character.Grant != nil && character.Grant.AccessToken != "" {
		if err := s.sso.Revoke(ctx, eve.ProfileRegister, character.Grant.AccessToken); err != nil {
			logger.From(ctx).Warn("revoke of previous grant failed",
				logger.CharacterID(character.ID),
				logger.Err(err),
			)
		}
	}

	accountID := st.AccountID
	if accountID == "" {
		accountID = character.AccountID
	}

	character.AccountID = accountID
	character.Name = identity.CharacterName
	character.OwnerHash = identity.CharacterOwnerHash
	character.Grant = grant
	if err := s.store.PutCharacter(ctx, character); err != nil {
		return Redirect{}, err
	}

	logger.From(ctx).Info("character re-authorized",
		logger.AccountID(accountID),
		logger.CharacterID(character.ID),
	)

	artifact, err := s.issuer.IssueProfile(st.Aud, accountID, identity.CharacterID)
	if err != nil {
		return Redirect{}, err
	}
	return s.deliver(st, artifact), nil
}

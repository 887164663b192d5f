// Package flowstate defines the transient record an auth flow smuggles through
// the SSO's opaque `state` parameter, and the codec that encrypts it.
//
// A FlowState only ever exists inside an encrypted token between two HTTP
// legs; it is never persisted. Integrity rests entirely on possession of the
// shared secret: the AES-GCM tag is the only authenticator.
package flowstate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/justindh/ChingyWebApi/internal/security/secretbox"
)

// Variant tags which flow a state token belongs to. Login is tagged
// explicitly; the empty tag is accepted on decode for tokens minted by older
// builds and is normalized to Login.
type Variant string

const (
	FlowLogin        Variant = "login"
	FlowRegister     Variant = "register"
	FlowAddCharacter Variant = "addCharacter"
	FlowModifyScopes Variant = "modifyScopes"
)

// ResponseMode selects how the finished session artifact reaches the client.
type ResponseMode string

const (
	ModeNone       ResponseMode = "none"
	ModeToken      ResponseMode = "token"
	ModePersistent ResponseMode = "persistent"
	ModeSession    ResponseMode = "session"
)

// ValidResponseMode reports whether s is one of the four delivery modes.
// Anything else is rejected at flow entry, before the provider round-trip.
func ValidResponseMode(s string) bool {
	switch ResponseMode(s) {
	case ModeNone, ModeToken, ModePersistent, ModeSession:
		return true
	}
	return false
}

// FlowState carries everything the callback leg needs to resume a flow.
//
// Fields by variant:
//   - login:        Aud, Mode, Scopes, RedirectTo
//   - register:     Aud, Mode, Scopes, RedirectTo
//   - addCharacter: Aud, Scopes, RedirectTo, AccountID (Mode is always none)
//   - modifyScopes: Aud, Mode, Scopes, RedirectTo, AccountID, CharacterID
type FlowState struct {
	Aud         string       `json:"aud"`
	Variant     Variant      `json:"flow"`
	Mode        ResponseMode `json:"response_type"`
	Scopes      []string     `json:"scopes"`
	RedirectTo  string       `json:"redirect"`
	AccountID   string       `json:"accountId,omitempty"`
	CharacterID int64        `json:"characterId,omitempty"`
}

// ErrDecode is returned for any token that cannot be turned back into a
// FlowState: bad encoding, wrong secret, tampered ciphertext, or a payload
// that is not well-formed JSON. Callers surface it as a 400.
var ErrDecode = errors.New("flowstate: invalid state token")

// Codec encrypts FlowStates into URL-safe opaque tokens and back.
// Pure transform, no side effects; safe for concurrent use.
type Codec struct {
	box *secretbox.Box
}

// NewCodec builds a codec on top of the process-wide state secret.
func NewCodec(secret string) (*Codec, error) {
	box, err := secretbox.NewFromSecret(secret, "flow-state")
	if err != nil {
		return nil, fmt.Errorf("flowstate: %w", err)
	}
	return &Codec{box: box}, nil
}

// Encode serializes and encrypts s into an opaque token.
func (c *Codec) Encode(s FlowState) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("flowstate: marshal: %w", err)
	}
	return c.box.Seal(raw)
}

// Decode inverts Encode. The empty legacy variant is normalized to FlowLogin.
func (c *Codec) Decode(token string) (FlowState, error) {
	var s FlowState
	raw, err := c.box.Open(token)
	if err != nil {
		return s, ErrDecode
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, ErrDecode
	}
	if s.Variant == "" {
		s.Variant = FlowLogin
	}
	return s, nil
}

// Package jwt mints and parses the broker's signed bearer artifacts.
package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// SubjectProfile is the fixed subject claim of every session artifact.
const SubjectProfile = "profile"

// ProfileClaims is the claim set of a session artifact. Validity is purely
// cryptographic: there is no exp claim and no revocation list. Rotation means
// changing the signing secret.
type ProfileClaims struct {
	AccountID string `json:"accountId"`
	MainID    int64  `json:"mainId"`
	jwtv5.RegisteredClaims
}

// Errors for token parsing.
var (
	ErrTokenInvalid = errors.New("jwt: invalid token")
	ErrWrongSubject = errors.New("jwt: unexpected subject")
)

// Issuer signs session artifacts with the process-wide secret (HMAC-SHA256).
// Immutable after construction; safe for concurrent use.
type Issuer struct {
	iss    string
	secret []byte
}

// NewIssuer builds an Issuer with a fixed issuer string and signing secret.
// The secret's lifecycle is the process lifetime; it is never re-read.
func NewIssuer(iss, secret string) (*Issuer, error) {
	if iss == "" {
		return nil, errors.New("jwt: empty issuer")
	}
	if secret == "" {
		return nil, errors.New("jwt: empty signing secret")
	}
	return &Issuer{iss: iss, secret: []byte(secret)}, nil
}

// Iss returns the configured issuer string.
func (i *Issuer) Iss() string { return i.iss }

// IssueProfile mints a session artifact asserting that accountID's session on
// audience is anchored to mainCharacterID. Deterministic for identical inputs
// and secret: the claim set carries no timestamps and HS256 is not randomized.
func (i *Issuer) IssueProfile(audience, accountID string, mainCharacterID int64) (string, error) {
	claims := ProfileClaims{
		AccountID: accountID,
		MainID:    mainCharacterID,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:   i.iss,
			Subject:  SubjectProfile,
			Audience: jwtv5.ClaimStrings{audience},
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return tk.SignedString(i.secret)
}

// ParseProfile validates a session artifact and returns its claims.
// Signature, signing method, issuer and subject are enforced here; audience
// checks stay with the caller because the expected audience is per-request.
func (i *Issuer) ParseProfile(token string) (*ProfileClaims, error) {
	var claims ProfileClaims
	tk, err := jwtv5.ParseWithClaims(token, &claims, i.keyfunc,
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithIssuer(i.iss),
	)
	if err != nil || !tk.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject != SubjectProfile {
		return nil, ErrWrongSubject
	}
	return &claims, nil
}

// IssueCustom mints the short-lived directory credential handed back by the
// verify endpoint. Unlike session artifacts these do expire.
func (i *Issuer) IssueCustom(accountID string, characterID int64, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwtv5.MapClaims{
		"iss":         i.iss,
		"sub":         accountID,
		"aud":         "directory",
		"characterId": characterID,
		"iat":         now.Unix(),
		"exp":         now.Add(ttl).Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return tk.SignedString(i.secret)
}

func (i *Issuer) keyfunc(t *jwtv5.Token) (any, error) {
	return i.secret, nil
}

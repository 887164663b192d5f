// Package core define el contrato contra el directorio de usuarios y
// perfiles. El broker no es dueño de estos datos: lee y escribe registros de
// personajes, perfiles y cuentas que otros servicios también consumen.
package core

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("directory: not found")
	ErrInvalid  = errors.New("directory: invalid record")
)

// SSOGrant es la autorización vigente de un personaje frente al proveedor.
// Se sobreescribe completa en cada re-autorización; no hay merge.
type SSOGrant struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Scope        string    `json:"scope"`
}

// CharacterRecord es un personaje conocido por el directorio.
type CharacterRecord struct {
	ID        int64     `json:"id"`
	AccountID string    `json:"accountId"`
	Name      string    `json:"name"`
	OwnerHash string    `json:"ownerHash"`
	Grant     *SSOGrant `json:"grant,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HeldScopes devuelve el scope string del grant vigente ("" si no hay grant).
func (c *CharacterRecord) HeldScopes() string {
	if c.Grant == nil {
		return ""
	}
	return c.Grant.Scope
}

// ProfileRecord es el perfil de una cuenta: qué personaje la ancla y si el
// registro quedó en estado inconsistente por una escritura parcial.
type ProfileRecord struct {
	ID              string    `json:"id"`
	MainCharacterID int64     `json:"mainCharacterId"`
	DisplayName     string    `json:"displayName"`
	ErrorFlag       bool      `json:"errorFlag,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// AccountRecord es la proyección mínima de cuenta que el broker mantiene.
type AccountRecord struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Store es el contrato de persistencia del directorio. Las escrituras son
// last-writer-wins por registro; no hay transacciones entre registros.
type Store interface {
	GetCharacter(ctx context.Context, id int64) (*CharacterRecord, error)
	PutCharacter(ctx context.Context, rec *CharacterRecord) error

	GetProfile(ctx context.Context, accountID string) (*ProfileRecord, error)
	PutProfile(ctx context.Context, rec *ProfileRecord) error
	HasProfile(ctx context.Context, accountID string) (bool, error)

	UpsertAccount(ctx context.Context, rec *AccountRecord) error

	Ping(ctx context.Context) error
	Close() error
}

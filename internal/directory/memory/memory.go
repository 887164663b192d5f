// Package memory implementa el directorio sobre un cache en memoria.
// Pensado para desarrollo y tests; nada sobrevive al proceso.
package memory

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"

	"github.com/justindh/ChingyWebApi/internal/directory/core"
)

type Store struct{ c *gocache.Cache }

func New() *Store {
	return &Store{c: gocache.New(gocache.NoExpiration, 0)}
}

func characterKey(id int64) string { return fmt.Sprintf("characters:%d", id) }
func profileKey(id string) string  { return "users:" + id }
func accountKey(id string) string  { return "accounts:" + id }

func (s *Store) GetCharacter(_ context.Context, id int64) (*core.CharacterRecord, error) {
	v, ok := s.c.Get(characterKey(id))
	if !ok {
		return nil, core.ErrNotFound
	}
	rec := v.(core.CharacterRecord)
	return &rec, nil
}

func (s *Store) PutCharacter(_ context.Context, rec *core.CharacterRecord) error {
	if rec == nil || rec.ID == 0 {
		return core.ErrInvalid
	}
	s.c.Set(characterKey(rec.ID), *rec, gocache.NoExpiration)
	return nil
}

func (s *Store) GetProfile(_ context.Context, accountID string) (*core.ProfileRecord, error) {
	v, ok := s.c.Get(profileKey(accountID))
	if !ok {
		return nil, core.ErrNotFound
	}
	rec := v.(core.ProfileRecord)
	return &rec, nil
}

func (s *Store) PutProfile(_ context.Context, rec *core.ProfileRecord) error {
	if rec == nil || rec.ID == "" {
		return core.ErrInvalid
	}
	s.c.Set(profileKey(rec.ID), *rec, gocache.NoExpiration)
	return nil
}

func (s *Store) HasProfile(_ context.Context, accountID string) (bool, error) {
	_, ok := s.c.Get(profileKey(accountID))
	return ok, nil
}

func (s *Store) UpsertAccount(_ context.Context, rec *core.AccountRecord) error {
	if rec == nil || rec.ID == "" {
		return core.ErrInvalid
	}
	s.c.Set(accountKey(rec.ID), *rec, gocache.NoExpiration)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

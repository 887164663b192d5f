// Package redis implementa el directorio sobre Redis, con registros JSON
// bajo claves characters:{id}, users:{id} y accounts:{id}.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	rdb "github.com/redis/go-redis/v9"

	"github.com/justindh/ChingyWebApi/internal/directory/core"
)

type Store struct{ c *rdb.Client }

func New(addr string, db int) *Store {
	return &Store{c: rdb.NewClient(&rdb.Options{Addr: addr, DB: db})}
}

func (s *Store) get(ctx context.Context, key string, out any) error {
	b, err := s.c.Get(ctx, key).Bytes()
	if errors.Is(err, rdb.Nil) {
		return core.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (s *Store) put(ctx context.Context, key string, rec any) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.c.Set(ctx, key, b, 0).Err()
}

func (s *Store) GetCharacter(ctx context.Context, id int64) (*core.CharacterRecord, error) {
	var rec core.CharacterRecord
	if err := s.get(ctx, fmt.Sprintf("characters:%d", id), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) PutCharacter(ctx context.Context, rec *core.CharacterRecord) error {
	if rec == nil || rec.ID == 0 {
		return core.ErrInvalid
	}
	return s.put(ctx, fmt.Sprintf("characters:%d", rec.ID), rec)
}

func (s *Store) GetProfile(ctx context.Context, accountID string) (*core.ProfileRecord, error) {
	var rec core.ProfileRecord
	if err := s.get(ctx, "users:"+accountID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) PutProfile(ctx context.Context, rec *core.ProfileRecord) error {
	if rec == nil || rec.ID == "" {
		return core.ErrInvalid
	}
	return s.put(ctx, "users:"+rec.ID, rec)
}

func (s *Store) HasProfile(ctx context.Context, accountID string) (bool, error) {
	n, err := s.c.Exists(ctx, "users:"+accountID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) UpsertAccount(ctx context.Context, rec *core.AccountRecord) error {
	if rec == nil || rec.ID == "" {
		return core.ErrInvalid
	}
	return s.put(ctx, "accounts:"+rec.ID, rec)
}

func (s *Store) Ping(ctx context.Context) error { return s.c.Ping(ctx).Err() }
func (s *Store) Close() error                   { return s.c.Close() }

// Package pg implementa el directorio sobre Postgres usando pgx. Los
// registros se guardan como jsonb en tablas clave-valor simples; el esquema
// vive en migrations/.
package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justindh/ChingyWebApi/internal/directory/core"
	migrations "github.com/justindh/ChingyWebApi/migrations/postgres"
)

type Store struct{ pool *pgxpool.Pool }

// New abre el pool y hace ping para fallar rápido si la DB no está.
func New(ctx context.Context, dsn string, maxConns int) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse config: %w", err)
	}
	if maxConns > 0 {
		pcfg.MaxConns = int32(maxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Pool expone el pool para el collector de métricas.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Migrate aplica el esquema embebido en orden lexical. Todo el esquema usa
// IF NOT EXISTS, así que re-aplicar es inocuo.
func (s *Store) Migrate(ctx context.Context) error {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return fmt.Errorf("pg: read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		sql, err := migrations.FS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("pg: read migration %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("pg: apply migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) GetCharacter(ctx context.Context, id int64) (*core.CharacterRecord, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM directory_characters WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec core.CharacterRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) PutCharacter(ctx context.Context, rec *core.CharacterRecord) error {
	if rec == nil || rec.ID == 0 {
		return core.ErrInvalid
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO directory_characters (id, doc, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		rec.ID, raw, time.Now().UTC())
	return err
}

func (s *Store) GetProfile(ctx context.Context, accountID string) (*core.ProfileRecord, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM directory_profiles WHERE account_id = $1`, accountID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec core.ProfileRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) PutProfile(ctx context.Context, rec *core.ProfileRecord) error {
	if rec == nil || rec.ID == "" {
		return core.ErrInvalid
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO directory_profiles (account_id, doc, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (account_id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		rec.ID, raw, time.Now().UTC())
	return err
}

func (s *Store) HasProfile(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM directory_profiles WHERE account_id = $1)`, accountID).Scan(&exists)
	return exists, err
}

func (s *Store) UpsertAccount(ctx context.Context, rec *core.AccountRecord) error {
	if rec == nil || rec.ID == "" {
		return core.ErrInvalid
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO directory_accounts (id, doc, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		rec.ID, raw, time.Now().UTC())
	return err
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Package directory selecciona e inicializa el backend del directorio.
package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/justindh/ChingyWebApi/internal/directory/core"
	"github.com/justindh/ChingyWebApi/internal/directory/memory"
	"github.com/justindh/ChingyWebApi/internal/directory/pg"
	"github.com/justindh/ChingyWebApi/internal/directory/redis"
)

// Config describe el backend a usar.
type Config struct {
	Driver   string
	Redis    RedisConfig
	Postgres PostgresConfig
}

type RedisConfig struct {
	Addr string
	DB   int
}

type PostgresConfig struct {
	DSN      string
	MaxConns int
}

// Open devuelve el core.Store según el driver configurado.
func Open(ctx context.Context, cfg Config) (core.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return memory.New(), nil
	case "redis":
		return redis.New(cfg.Redis.Addr, cfg.Redis.DB), nil
	case "postgres", "pg", "postgresql":
		store, err := pg.New(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, err
		}
		// Esquema idempotente; aplicarlo en cada arranque es barato.
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("directory: unsupported driver: %s", cfg.Driver)
	}
}

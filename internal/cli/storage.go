package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/miniapp-agency/portal/internal/config"
	"github.com/miniapp-agency/portal/session"
)

// openStorage returns the session backend named by cfg, the redis client
// behind it when there is one, and an optional close function.
func openStorage(ctx context.Context, cfg *config.Config) (session.Storage, *redis.Client, func() error, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return session.NewMemoryStorage(), nil, nil, nil

	case config.StorageRedis:
		opts, err := redis.ParseURL(cfg.Storage.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		rs := session.NewRedisStorage(client, cfg.Storage.RedisPrefix, cfg.Storage.RedisTTL)
		if _, err := rs.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, nil, fmt.Errorf("%w: %w", session.ErrStorageUnavailable, err)
		}
		return rs, client, client.Close, nil

	default:
		path, err := cfg.SessionPath()
		if err != nil {
			return nil, nil, nil, err
		}
		return session.NewFileStorage(path), nil, nil, nil
	}
}

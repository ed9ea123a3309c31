package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/esteira-backend/internal/clients/redis"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
	"github.com/yungbote/esteira-backend/internal/temporalx"
)

// Clients holds the optional external connections. Each is nil when its
// address is not configured.
type Clients struct {
	Redis     *goredis.Client
	ExpiryBus redis.ExpiryBus
	RunLock   *redis.RunLock
	Temporal  temporalsdkclient.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		bus, err := redis.NewExpiryBus(log, rdb, cfg.Redis.ExpiryChannel)
		if err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("init redis expiry bus: %w", err)
		}
		out.Redis = rdb
		out.ExpiryBus = bus
		out.RunLock = redis.NewRunLock(rdb, "", cfg.Redis.RunLockTTL)
	} else {
		log.Warn("REDIS_ADDR not set; near-expiry notices and cross-process run lock disabled")
	}

	tc, err := temporalx.NewClient(ctx, log, cfg.Temporal)
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init temporal: %w", err)
	}
	out.Temporal = tc
	return out, nil
}

func (c Clients) Close() {
	if c.Temporal != nil {
		c.Temporal.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

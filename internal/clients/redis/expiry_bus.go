package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/logger"
)

const DefaultExpiryChannel = "esteira.case_expiry"

// ExpiryBus fans near-expiry notices out over Redis pub/sub. It satisfies
// services.ExpiryNotifier.
type ExpiryBus interface {
	NotifyNearExpiry(ctx context.Context, notice types.ExpiryNotice) error
	StartForwarder(ctx context.Context, onMsg func(n types.ExpiryNotice)) error
}

type expiryBus struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
}

func NewExpiryBus(log *logger.Logger, rdb goredis.UniversalClient, channel string) (ExpiryBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultExpiryChannel
	}
	return &expiryBus{
		log:     log.With("service", "RedisExpiryBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *expiryBus) NotifyNearExpiry(ctx context.Context, notice types.ExpiryNotice) error {
	raw, err := json.Marshal(notice)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *expiryBus) StartForwarder(ctx context.Context, onMsg func(n types.ExpiryNotice)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var n types.ExpiryNotice
				if err := json.Unmarshal([]byte(m.Payload), &n); err != nil {
					b.log.Warn("bad expiry notice payload", "error", err)
					continue
				}
				onMsg(n)
			}
		}
	}()

	return nil
}

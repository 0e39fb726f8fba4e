// internal/pkg/wshub/redis_bus.go
package wshub

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"nexusmall/internal/pkg/logger"
)

type envelope struct {
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload"`
}

// RedisBus 通过 Redis pub/sub 把推送扇出到所有实例
type RedisBus struct {
	client  *goredis.Client
	channel string
}

func NewRedisBus(client *goredis.Client, channel string) *RedisBus {
	return &RedisBus{client: client, channel: channel}
}

func (b *RedisBus) Publish(ctx context.Context, key string, payload []byte) error {
	raw := payload
	if !json.Valid(raw) {
		quoted, _ := json.Marshal(string(payload))
		raw = quoted
	}
	body, err := json.Marshal(envelope{Key: key, Payload: raw})
	if err != nil {
		return errors.Wrap(err, "marshal push envelope")
	}
	return errors.Wrap(b.client.Publish(ctx, b.channel, body).Err(), "redis publish")
}

func (b *RedisBus) Subscribe(ctx context.Context, deliver func(key string, payload []byte)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return errors.Wrapf(err, "subscribe %s", b.channel)
	}
	logger.Ctx(ctx).Info().Str("channel", b.channel).Msg("✅ Subscribed to push channel")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Msg("drop malformed push envelope")
				continue
			}
			deliver(env.Key, env.Payload)
		}
	}
}

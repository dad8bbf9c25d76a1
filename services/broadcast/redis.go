package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/progress"
)

// Redis relays progress events between processes sharing a redis server.
// Events published anywhere (this process included) reach the local subscribers through the forwarder.
type Redis struct {
	rdb     *goredis.Client
	channel string
	local   *Memory
	logger  core.Logger
	stop    context.CancelFunc
}

var (
	_ Bus                = (*Redis)(nil)
	_ progress.Publisher = (*Redis)(nil)
)

func NewRedis(conf *core.Config, local *Memory, logger core.Logger) (*Redis, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        conf.Broadcast.RedisAddr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return &Redis{rdb: rdb, channel: conf.Broadcast.Channel, local: local, logger: logger}, nil
}

func (b *Redis) Publish(ctx context.Context, ev progress.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encoding event")
	}
	return errors.Wrap(b.rdb.Publish(ctx, b.channel, raw).Err(), "publishing event")
}

func (b *Redis) Subscribe() (<-chan progress.Event, func()) {
	return b.local.Subscribe()
}

// Bridge returns the bus progress events go through: redis when it is configured and
// its forwarder is running, the local bus otherwise. The forwarder runs until ctx is done or the bus is closed.
func Bridge(ctx context.Context, conf *core.Config, local *Memory, logger core.Logger) (Bus, *Redis) {
	if conf.Broadcast.RedisAddr == "" {
		return local, nil
	}
	rb, err := NewRedis(conf, local, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("redis broadcast unavailable, events stay in-process: %v", err), err)
		return local, nil
	}
	if err = rb.StartForwarder(ctx); err != nil {
		logger.Error(fmt.Sprintf("starting redis forwarder, events stay in-process: %v", err), err)
		_ = rb.Close()
		return local, nil
	}
	return rb, rb
}

// StartForwarder pipes the redis channel into the local bus until ctx is done or the bus is closed.
func (b *Redis) StartForwarder(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		_ = sub.Close()
		return errors.Wrap(err, "subscribing to redis")
	}
	b.stop = cancel

	go func() {
		defer func() { _ = sub.Close() }()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var ev progress.Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.logger.Warn("bad progress event on redis", err)
					continue
				}
				_ = b.local.Publish(ctx, ev)
			}
		}
	}()
	return nil
}

func (b *Redis) Close() error {
	if b.stop != nil {
		b.stop()
	}
	return b.rdb.Close()
}

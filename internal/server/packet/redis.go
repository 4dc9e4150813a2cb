package packet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/taxintake/intakeengine/internal/logging"
)

type redisPusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

type redisPopper interface {
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// RedisDispatcher pushes request ids onto a Redis list so that workers in
// other processes can pick them up.
type RedisDispatcher struct {
	client redisPusher
	queue  string
}

func NewRedisDispatcher(client *redis.Client, queue string) *RedisDispatcher {
	return &RedisDispatcher{client: client, queue: queue}
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, requestID string) error {
	if err := d.client.LPush(ctx, d.queue, requestID).Err(); err != nil {
		return fmt.Errorf("failed to push packet request: %w", err)
	}
	return nil
}

// RedisConsumer pops request ids and runs the handler for each, one at a
// time. Run one consumer per desired worker.
type RedisConsumer struct {
	client  redisPopper
	queue   string
	handler Handler
	log     logging.Logger
	wait    time.Duration
	backoff time.Duration
}

func NewRedisConsumer(client *redis.Client, queue string, h Handler, log logging.Logger) *RedisConsumer {
	return &RedisConsumer{
		client:  client,
		queue:   queue,
		handler: h,
		log:     log.With("module", "packet_consumer"),
		wait:    5 * time.Second,
		backoff: time.Second,
	}
}

// Run consumes until ctx is cancelled. A job already popped runs to the end
// even if ctx is cancelled meanwhile.
func (c *RedisConsumer) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		res, err := c.client.BRPop(ctx, c.wait, c.queue).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error(ctx, "packet queue pop failed", "queue", c.queue, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}
			continue
		}
		// BRPOP replies with [queue, value].
		if len(res) != 2 {
			c.log.Warn(ctx, "unexpected packet queue reply", "reply", res)
			continue
		}
		c.handle(context.WithoutCancel(ctx), res[1])
	}
}

func (c *RedisConsumer) handle(ctx context.Context, requestID string) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error(ctx, "packet handler panicked", "request_id", requestID, "panic", r)
		}
	}()
	c.handler(ctx, requestID)
}

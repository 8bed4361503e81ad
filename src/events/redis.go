package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultStream is the Redis stream run events are appended to.
const DefaultStream = "agentgpt.events"

// defaultMaxLen is the approximate stream length kept by XADD.
const defaultMaxLen = 10000

// RedisPublisher appends events to a Redis stream with XADD.
type RedisPublisher struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

// NewRedisPublisher returns a publisher writing to stream (DefaultStream when blank).
func NewRedisPublisher(rdb *redis.Client, stream string) *RedisPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{rdb: rdb, stream: stream, maxLen: defaultMaxLen}
}

// Stream returns the target stream name.
func (p *RedisPublisher) Stream() string { return p.stream }

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	_, err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: event.Values(),
	}).Result()
	if err != nil {
		return fmt.Errorf("events: xadd %s: %w", p.stream, err)
	}
	return nil
}

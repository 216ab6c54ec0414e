package ingest

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Redis channels consumed by the search-index collaborator.
const (
	ChannelJobsSynced = "EVENT_JOBS_SYNCED"
	ChannelReindexJob = "CMD_REINDEX_JOB"
)

// EventPublisher emits post-sync notifications. Publishing is best-effort:
// callers log and continue on failure.
type EventPublisher interface {
	Publish(ctx context.Context, channel, payload string) error
}

// RedisPublisher publishes over redis pub/sub.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher { return &RedisPublisher{rdb: rdb} }

func (p *RedisPublisher) Publish(ctx context.Context, channel, payload string) error {
	return p.rdb.Publish(ctx, channel, payload).Err()
}

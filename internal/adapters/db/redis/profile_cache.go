package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ProfileCache keeps channel aggregate counts warm for a short TTL.
// Subscription edges are read-only in this service, so a stale count is
// bounded by the TTL and never by a missed invalidation.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProfileCache(client *redis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{client: client, ttl: ttl}
}

type counts struct {
	Subscribers  int64 `json:"subscribers"`
	SubscribedTo int64 `json:"subscribedTo"`
}

func key(channelID uuid.UUID) string {
	return "profile:counts:" + channelID.String()
}

func (c *ProfileCache) GetCounts(ctx context.Context, channelID uuid.UUID) (int64, int64, bool) {
	raw, err := c.client.Get(ctx, key(channelID)).Bytes()
	if err != nil {
		// redis.Nil and transport errors both mean a plain cache miss.
		return 0, 0, false
	}
	var v counts
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, 0, false
	}
	return v.Subscribers, v.SubscribedTo, true
}

func (c *ProfileCache) SetCounts(ctx context.Context, channelID uuid.UUID, subscribers, subscribedTo int64) {
	raw, err := json.Marshal(counts{Subscribers: subscribers, SubscribedTo: subscribedTo})
	if err != nil {
		return
	}
	// Best effort: a failed write only costs the next reader a count query.
	c.client.Set(ctx, key(channelID), raw, c.ttl)
}

// Package cache provides an optional Redis-backed cache for conversation
// detail reads. When Redis is not configured the service runs without it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/vedran77/converse/internal/domain"
)

const detailTTL = 24 * time.Hour

type ConversationCache struct {
	client *redis.Client
}

// Connect returns nil when addr is empty or Redis is unreachable; callers
// treat a nil cache as "caching disabled" rather than failing startup.
func Connect(addr string) *ConversationCache {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: failed to connect to Redis at %s, caching disabled: %v", addr, err)
		return nil
	}

	return &ConversationCache{client: client}
}

func (c *ConversationCache) Close() error {
	return c.client.Close()
}

func (c *ConversationCache) GetDetail(ctx context.Context, ownerID, conversationID uuid.UUID) (*domain.Conversation, bool) {
	data, err := c.client.Get(ctx, detailKey(ownerID, conversationID)).Bytes()
	if err != nil {
		return nil, false
	}

	var conv domain.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, false
	}
	return &conv, true
}

func (c *ConversationCache) SetDetail(ctx context.Context, ownerID uuid.UUID, conv *domain.Conversation) {
	data, err := json.Marshal(conv)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, detailKey(ownerID, conv.ID), data, detailTTL).Err(); err != nil {
		log.Printf("Failed to cache conversation %s: %v", conv.ID, err)
	}
}

func (c *ConversationCache) Invalidate(ctx context.Context, ownerID, conversationID uuid.UUID) {
	if err := c.client.Del(ctx, detailKey(ownerID, conversationID)).Err(); err != nil {
		log.Printf("Failed to invalidate conversation %s: %v", conversationID, err)
	}
}

// The owner id is part of the key so a cached detail can never be served
// across users.
func detailKey(ownerID, conversationID uuid.UUID) string {
	return fmt.Sprintf("conv:%s:%s", ownerID, conversationID)
}

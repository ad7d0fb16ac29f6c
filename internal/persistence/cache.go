package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/converso/routing-service/internal/domain"
)

// ConversationCache keeps recently read conversations in Redis, keyed
// conversation:{workspace_id}:{conversation_id}. Writers must invalidate.
type ConversationCache struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewConversationCache builds the cache. A zero TTL disables caching.
func NewConversationCache(client *goredis.Client, ttl time.Duration) *ConversationCache {
	return &ConversationCache{client: client, ttl: ttl}
}

func conversationKey(workspaceID, conversationID string) string {
	return fmt.Sprintf("conversation:%s:%s", workspaceID, conversationID)
}

// Get returns the cached conversation or nil on miss. Errors are
// returned so callers can decide to fall through to the store.
func (c *ConversationCache) Get(ctx context.Context, workspaceID, conversationID string) (*domain.Conversation, error) {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return nil, nil
	}
	data, err := c.client.Get(ctx, conversationKey(workspaceID, conversationID)).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var conv domain.Conversation
	if err := json.Unmarshal([]byte(data), &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// Set stores the conversation with the configured TTL.
func (c *ConversationCache) Set(ctx context.Context, conv *domain.Conversation) error {
	if c == nil || c.client == nil || c.ttl <= 0 || conv == nil {
		return nil
	}
	data, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, conversationKey(conv.WorkspaceID, conv.ID), data, c.ttl).Err()
}

// Invalidate drops the cached entry after a write.
func (c *ConversationCache) Invalidate(ctx context.Context, workspaceID, conversationID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, conversationKey(workspaceID, conversationID)).Err()
}

package events

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBridge republishes every dispatched event onto a per-workspace
// Redis channel so sibling processes (inbox UIs, exporters) can follow
// along. Publishing is best-effort.
type RedisBridge struct {
	client *goredis.Client
	logger *zap.Logger
}

// NewRedisBridge builds the bridge.
func NewRedisBridge(client *goredis.Client, logger *zap.Logger) *RedisBridge {
	return &RedisBridge{client: client, logger: logger}
}

// RegisterAll subscribes the bridge to every event type.
func (b *RedisBridge) RegisterAll(dispatcher Dispatcher) {
	if b == nil || dispatcher == nil {
		return
	}
	for _, eventType := range []EventType{
		EventConversationAssigned,
		EventTakeoverStarted,
		EventTakeoverReleased,
		EventSlaBreached,
		EventRoutingMappingsUpdated,
	} {
		dispatcher.Subscribe(eventType, b.forward)
	}
}

func (b *RedisBridge) forward(ctx context.Context, event Event) error {
	if b.client == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		b.logger.Warn("marshal event for redis", zap.Error(err))
		return nil
	}
	channel := fmt.Sprintf("events:%s", event.WorkspaceID)
	if err := b.client.Publish(ctx, channel, body).Err(); err != nil {
		b.logger.Warn("publish event to redis", zap.String("channel", channel), zap.Error(err))
	}
	return nil
}

package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/converso/routing-service/internal/config"
	"github.com/converso/routing-service/internal/events"
)

// NotificationService surfaces routing and SLA events to operators.
// Actual delivery (email/WhatsApp) lives in an external channel service;
// this emits structured logs and forwards to the configured webhook stub.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSlaBreached, n.handleSlaBreached)
	n.dispatcher.Subscribe(events.EventTakeoverStarted, n.handleTakeoverStarted)
	n.dispatcher.Subscribe(events.EventTakeoverReleased, n.handleTakeoverReleased)
	n.dispatcher.Subscribe(events.EventConversationAssigned, n.handleConversationAssigned)
}

func (n *NotificationService) handleSlaBreached(ctx context.Context, event events.Event) error {
	n.logger.Info("SlaBreached", zap.String("conversation_id", event.ConversationID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTakeoverStarted(ctx context.Context, event events.Event) error {
	n.logger.Info("TakeoverStarted", zap.String("conversation_id", event.ConversationID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTakeoverReleased(ctx context.Context, event events.Event) error {
	n.logger.Info("TakeoverReleased", zap.String("conversation_id", event.ConversationID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleConversationAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("ConversationAssigned", zap.String("conversation_id", event.ConversationID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("conversation_id", event.ConversationID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("conversation_id", event.ConversationID),
		zap.String("event_type", string(event.Type)))
}

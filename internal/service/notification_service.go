package service

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/config"
	"github.com/spec-kit/catalog-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		logger: logger,
		cfg:    cfg,
	}
}

// EventTypes lists the events Handle reacts to.
func (n *NotificationService) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventProductCreated,
		events.EventProductUpdated,
		events.EventProductDeleted,
		events.EventUserRegistered,
		events.EventPasswordResetRequested,
	}
}

// Handle routes an event to its notification channels.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventProductCreated, events.EventProductUpdated, events.EventProductDeleted:
		n.logger.Info(string(event.Type),
			zap.String("product_id", event.SubjectID),
			zap.String("actor", event.Actor.UserID),
			zap.Any("payload", event.Payload))
		n.sendWebhookNotificationStub(ctx, event)
	case events.EventUserRegistered:
		n.logger.Info(string(event.Type), zap.String("user_id", event.SubjectID))
		n.sendEmailNotificationStub(ctx, event, "")
	case events.EventPasswordResetRequested:
		payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
		if !ok {
			return nil
		}
		n.logger.Info(string(event.Type), zap.String("user_id", event.SubjectID))
		n.sendEmailNotificationStub(ctx, event, n.ResetLink(payload.Token))
	}
	return nil
}

// ResetLink is the frontend URL that confirms a reset token.
func (n *NotificationService) ResetLink(token string) string {
	base := strings.TrimRight(n.cfg.ResetLinkURL, "/")
	if base == "" {
		return ""
	}
	return base + "/" + url.PathEscape(token)
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, link string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	fields := []zap.Field{
		zap.String("from", n.cfg.EmailFrom),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)),
	}
	if link != "" {
		fields = append(fields, zap.String("link", link))
	}
	n.logger.Debug("sendEmailNotificationStub", fields...)
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}

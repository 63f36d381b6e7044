package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/events"
)

// NotificationService forwards ticket lifecycle events to out-of-band
// channels (email/webhook stubs). It is an ordinary broadcaster
// subscriber, so a disconnect or slow consumer never affects mutations.
type NotificationService struct {
	broadcaster events.Broadcaster
	logger      *zap.Logger
	cfg         config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(broadcaster events.Broadcaster, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		broadcaster: broadcaster,
		logger:      logger,
		cfg:         cfg,
	}
}

// Run consumes ticket events until the context is cancelled.
func (n *NotificationService) Run(ctx context.Context) error {
	if n.broadcaster == nil {
		return nil
	}
	sub := n.broadcaster.Subscribe(events.TopicTickets)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-sub.C:
			if !ok {
				return nil
			}
			n.handle(ctx, event)
		}
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) {
	switch event.Type {
	case events.EventTicketCreated:
		n.logger.Info("TicketCreated",
			zap.String("ticket_id", event.Ticket.ID),
			zap.String("category", string(event.Ticket.Category)),
			zap.String("priority", string(event.Ticket.Priority)),
			zap.String("assigned_to", event.Ticket.AssignedTo))
		n.sendEmailNotificationStub(ctx, event)
		n.sendWebhookNotificationStub(ctx, event)
	case events.EventTicketUpdated:
		n.logger.Info("TicketUpdated",
			zap.String("ticket_id", event.Ticket.ID),
			zap.String("status", string(event.Ticket.Status)),
			zap.Int("rating", event.Ticket.Rating))
		n.sendWebhookNotificationStub(ctx, event)
	}
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("ticket_id", event.Ticket.ID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.Ticket.ID),
		zap.String("event_type", string(event.Type)))
}

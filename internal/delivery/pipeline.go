// Package delivery routes a freshly persisted message either to the
// recipient's open channels or to the offline push gateway.
package delivery

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/roomlink/messaging-platform/internal/model"
	"github.com/roomlink/messaging-platform/internal/push"
	"github.com/roomlink/messaging-platform/internal/registry"
	"github.com/roomlink/messaging-platform/internal/store"
	"github.com/roomlink/messaging-platform/pkg/logger"
	"github.com/roomlink/messaging-platform/pkg/metrics"
)

// PreviewRunes caps the content preview embedded in a push notification.
const PreviewRunes = 120

// Pipeline fans a message out live when the recipient is online and falls
// back to the push gateway otherwise. It is fire-and-forget from the
// sender's point of view: the message is already durable before Deliver
// runs, and nothing here can fail the send.
type Pipeline struct {
	registry     *registry.Registry
	gateway      push.Gateway
	participants store.ParticipantStore
	logger       *logger.Logger
}

// New creates a delivery pipeline.
func New(reg *registry.Registry, gateway push.Gateway, participants store.ParticipantStore, log *logger.Logger) *Pipeline {
	return &Pipeline{
		registry:     reg,
		gateway:      gateway,
		participants: participants,
		logger:       log,
	}
}

// Deliver routes the message to its recipient. Errors are logged and
// absorbed; the recipient can always fetch the message on next poll.
func (p *Pipeline) Deliver(ctx context.Context, msg *model.Message, recipientID uint64) {
	if p.registry.IsOnline(recipientID) {
		delivered := p.registry.Send(recipientID, model.NewMessageFrame(msg))
		if delivered > 0 {
			metrics.RecordDelivery(metrics.DeliveryLive)
			p.logger.Debug("message delivered live",
				zap.Uint64("message_id", msg.ID),
				zap.Uint64("recipient_id", recipientID),
				zap.Int("channels", delivered),
			)
			return
		}
		// The session closed between the online check and the write.
		// Deliberate fallback, not an error.
	}

	p.notifyOffline(ctx, msg, recipientID)
}

func (p *Pipeline) notifyOffline(ctx context.Context, msg *model.Message, recipientID uint64) {
	title := "New message"
	if sender, err := p.participants.GetParticipant(ctx, msg.SenderID); err == nil {
		title = sender.DisplayName
	}

	err := p.gateway.Notify(ctx, recipientID, title, preview(msg.Content), map[string]string{
		"conversation_id": strconv.FormatUint(msg.ConversationID, 10),
		"message_id":      strconv.FormatUint(msg.ID, 10),
	})
	if err != nil {
		// Never surfaces to the sender; the message is already stored.
		metrics.RecordDelivery(metrics.DeliveryPushFailed)
		p.logger.Warn("push notification failed",
			zap.Uint64("message_id", msg.ID),
			zap.Uint64("recipient_id", recipientID),
			zap.Error(err),
		)
		return
	}

	metrics.RecordDelivery(metrics.DeliveryPush)
	p.logger.Debug("message routed to push gateway",
		zap.Uint64("message_id", msg.ID),
		zap.Uint64("recipient_id", recipientID),
	)
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= PreviewRunes {
		return content
	}
	return string(runes[:PreviewRunes]) + "…"
}

// Package push defines the offline push gateway contract and its NATS
// JetStream implementation.
package push

import (
	"context"
	"encoding/json"
	"time"

	natsclient "github.com/roomlink/messaging-platform/internal/nats"
	"github.com/roomlink/messaging-platform/pkg/metrics"
)

// Gateway delivers a best-effort notification to a participant with no open
// channel. Implementations must not block indefinitely; failures are the
// caller's to absorb.
type Gateway interface {
	Notify(ctx context.Context, targetParticipantID uint64, title, body string, data map[string]string) error
}

// Notification is the payload handed to out-of-process push workers.
type Notification struct {
	TargetParticipantID uint64            `json:"target_participant_id"`
	Title               string            `json:"title"`
	Body                string            `json:"body"`
	Data                map[string]string `json:"data,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}

// NATSGateway publishes notifications onto the durable NOTIFICATIONS
// stream; APNs/FCM workers consume them from there.
type NATSGateway struct {
	stream *natsclient.StreamManager
}

// NewNATSGateway creates a gateway over an existing stream manager.
func NewNATSGateway(stream *natsclient.StreamManager) *NATSGateway {
	return &NATSGateway{stream: stream}
}

// Notify enqueues one notification for the target participant.
func (g *NATSGateway) Notify(ctx context.Context, targetParticipantID uint64, title, body string, data map[string]string) error {
	payload, err := json.Marshal(Notification{
		TargetParticipantID: targetParticipantID,
		Title:               title,
		Body:                body,
		Data:                data,
		CreatedAt:           time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if err := g.stream.Publish(ctx, natsclient.PushSubject(targetParticipantID), payload); err != nil {
		metrics.PushPublishTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.PushPublishTotal.WithLabelValues("ok").Inc()
	return nil
}

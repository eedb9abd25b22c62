package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/roomlink/messaging-platform/internal/delivery"
	"github.com/roomlink/messaging-platform/internal/model"
	"github.com/roomlink/messaging-platform/internal/store"
	"github.com/roomlink/messaging-platform/pkg/errors"
	"github.com/roomlink/messaging-platform/pkg/logger"
	"github.com/roomlink/messaging-platform/pkg/metrics"
)

// MessageService handles message operations: persistence first, delivery
// second, so a routing failure can never lose a message.
type MessageService struct {
	store    store.Store
	pipeline *delivery.Pipeline
	logger   *logger.Logger
}

// NewMessageService creates a new message service.
func NewMessageService(st store.Store, pipeline *delivery.Pipeline, log *logger.Logger) *MessageService {
	return &MessageService{
		store:    st,
		pipeline: pipeline,
		logger:   log,
	}
}

// Send validates, persists, and routes a message. Checks run in order:
// the conversation must exist, the sender must be a participant, the
// conversation must be Active, and the content must be non-empty. The
// returned message carries its persisted id and timestamp; delivery outcome
// never affects the result.
func (s *MessageService) Send(ctx context.Context, conversationID, senderID uint64, req *model.SendMessageRequest) (*model.Message, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, errors.ErrNotParticipant
	}
	if conv.Status == model.ConversationArchived {
		return nil, errors.ErrConversationArchived
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, errors.ErrEmptyContent
	}

	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        req.Content,
		Status:         model.MessageSent,
		SentAt:         time.Now().UTC(),
	}
	for _, a := range req.Attachments {
		msg.Attachments = append(msg.Attachments, model.Attachment{
			FileName:   a.FileName,
			MediaKind:  a.MediaKind,
			StorageKey: a.StorageKey,
			ByteSize:   a.ByteSize,
			UploadedAt: msg.SentAt,
		})
	}

	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	metrics.MessagesTotal.WithLabelValues(string(conv.Kind)).Inc()
	s.logger.Info("message sent",
		zap.Uint64("message_id", msg.ID),
		zap.Uint64("conversation_id", conversationID),
		zap.Uint64("sender_id", senderID),
	)

	s.pipeline.Deliver(ctx, msg, conv.OtherParticipant(senderID))

	return msg, nil
}

// ListAndMarkRead returns one page of the conversation's messages, newest
// first, and acknowledges them: every unread message on the page addressed
// to the requester flips to Read as a side effect of the fetch.
func (s *MessageService) ListAndMarkRead(ctx context.Context, conversationID, requesterID uint64, page store.Page) (*model.ListMessagesResponse, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(requesterID) {
		return nil, errors.ErrNotParticipant
	}

	messages, hasMore, err := s.store.ListMessages(ctx, conversationID, page)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var unreadIDs []uint64
	for i := range messages {
		m := &messages[i]
		if m.SenderID != requesterID && m.Status == model.MessageSent && m.ReadAt == nil {
			unreadIDs = append(unreadIDs, m.ID)
			m.Status = model.MessageRead
			readAt := now
			m.ReadAt = &readAt
		}
	}
	if len(unreadIDs) > 0 {
		if err := s.store.MarkMessagesRead(ctx, unreadIDs, now); err != nil {
			return nil, err
		}
	}

	return &model.ListMessagesResponse{
		Messages: messages,
		HasMore:  hasMore,
	}, nil
}

// MarkRead explicitly acknowledges a single message. Only the recipient may
// acknowledge; repeated calls are no-ops and the original read time sticks.
func (s *MessageService) MarkRead(ctx context.Context, messageID, requesterID uint64) (*model.Message, error) {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	conv, err := s.store.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(requesterID) {
		return nil, errors.ErrNotParticipant
	}
	if msg.SenderID == requesterID {
		return nil, errors.ErrNotRecipient
	}

	if msg.ReadAt != nil {
		return msg, nil
	}

	return s.store.MarkMessageRead(ctx, messageID, time.Now().UTC())
}

// UnreadCount returns how many messages across the participant's Active
// conversations still await acknowledgment.
func (s *MessageService) UnreadCount(ctx context.Context, participantID uint64) (*model.UnreadCountResponse, error) {
	count, err := s.store.UnreadCount(ctx, participantID)
	if err != nil {
		return nil, err
	}
	return &model.UnreadCountResponse{UnreadCount: count}, nil
}

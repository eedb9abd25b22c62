package store

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/roomlink/messaging-platform/internal/model"
	"github.com/roomlink/messaging-platform/pkg/errors"
)

// CreateMessage persists a message and touches the owning conversation's
// last-activity marker in the same transaction. Attachments ride along via
// the association.
func (s *GormStore) CreateMessage(ctx context.Context, m *model.Message) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).
			Where("id = ?", m.ConversationID).
			Update("last_message_at", m.SentAt).Error
	})
	if err != nil {
		return errors.ErrStoreFailure(err)
	}
	return nil
}

// GetMessage fetches one message with its attachments.
func (s *GormStore) GetMessage(ctx context.Context, id uint64) (*model.Message, error) {
	var m model.Message
	err := s.db.WithContext(ctx).Preload("Attachments").First(&m, id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrMessageNotFound
		}
		return nil, errors.ErrStoreFailure(err)
	}
	return &m, nil
}

// ListMessages returns a conversation's non-deleted messages newest-first.
// The autoincrement id breaks timestamp ties so the order matches send
// order exactly.
func (s *GormStore) ListMessages(ctx context.Context, conversationID uint64, page Page) ([]model.Message, bool, error) {
	page = page.Normalize()

	var messages []model.Message
	err := s.db.WithContext(ctx).
		Preload("Attachments").
		Where("conversation_id = ? AND status <> ?", conversationID, model.MessageDeleted).
		Order("sent_at DESC, id DESC").
		Limit(page.Limit + 1).
		Offset(page.Offset).
		Find(&messages).Error
	if err != nil {
		return nil, false, errors.ErrStoreFailure(err)
	}

	hasMore := len(messages) > page.Limit
	if hasMore {
		messages = messages[:page.Limit]
	}
	return messages, hasMore, nil
}

// MarkMessagesRead acknowledges a batch of messages. Only rows still
// unread change; read_at is set exactly once.
func (s *GormStore) MarkMessagesRead(ctx context.Context, ids []uint64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("id IN ? AND read_at IS NULL AND status = ?", ids, model.MessageSent).
		Updates(map[string]interface{}{
			"status":  model.MessageRead,
			"read_at": at,
		}).Error
	if err != nil {
		return errors.ErrStoreFailure(err)
	}
	return nil
}

// MarkMessageRead acknowledges a single message and returns the updated
// row. A message that is already read comes back unchanged.
func (s *GormStore) MarkMessageRead(ctx context.Context, id uint64, at time.Time) (*model.Message, error) {
	m, err := s.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.ReadAt != nil {
		return m, nil
	}

	err = s.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ? AND read_at IS NULL", id).
		Updates(map[string]interface{}{
			"status":  model.MessageRead,
			"read_at": at,
		}).Error
	if err != nil {
		return nil, errors.ErrStoreFailure(err)
	}
	return s.GetMessage(ctx, id)
}

// UnreadCount counts Sent-status messages addressed to the participant
// across all of their Active conversations.
func (s *GormStore) UnreadCount(ctx context.Context, participantID uint64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("conversations.status = ?", model.ConversationActive).
		Where("conversations.participant_low = ? OR conversations.participant_high = ?", participantID, participantID).
		Where("messages.sender_id <> ? AND messages.status = ?", participantID, model.MessageSent).
		Count(&count).Error
	if err != nil {
		return 0, errors.ErrStoreFailure(err)
	}
	return count, nil
}

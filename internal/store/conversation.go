package store

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/roomlink/messaging-platform/internal/model"
	"github.com/roomlink/messaging-platform/pkg/errors"
)

// GetConversation fetches one conversation by id.
func (s *GormStore) GetConversation(ctx context.Context, id uint64) (*model.Conversation, error) {
	var c model.Conversation
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrConversationNotFound
		}
		return nil, errors.ErrStoreFailure(err)
	}
	return &c, nil
}

// FindConversationByPair looks up the conversation for an unordered
// participant pair. The pair is normalized so one indexed equality query
// suffices.
func (s *GormStore) FindConversationByPair(ctx context.Context, a, b uint64) (*model.Conversation, error) {
	low, high := model.NormalizePair(a, b)

	var c model.Conversation
	err := s.db.WithContext(ctx).
		Where("participant_low = ? AND participant_high = ?", low, high).
		First(&c).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrConversationNotFound
		}
		return nil, errors.ErrStoreFailure(err)
	}
	return &c, nil
}

// CreateConversation inserts a new conversation. The composite unique index
// on the normalized pair rejects a concurrent duplicate; callers fall back
// to FindConversationByPair on failure.
func (s *GormStore) CreateConversation(ctx context.Context, c *model.Conversation) error {
	c.ParticipantLow, c.ParticipantHigh = model.NormalizePair(c.ParticipantLow, c.ParticipantHigh)
	if c.Status == "" {
		c.Status = model.ConversationActive
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return errors.ErrStoreFailure(err)
	}
	return nil
}

// ListConversations returns the participant's Active conversations ordered
// by last activity (conversations that never had a message sort last), each
// annotated with the latest non-deleted message, the unread count, and the
// other participant.
func (s *GormStore) ListConversations(ctx context.Context, participantID uint64, page Page) ([]model.ConversationSummary, bool, error) {
	page = page.Normalize()

	var convs []model.Conversation
	err := s.db.WithContext(ctx).
		Where("status = ?", model.ConversationActive).
		Where("participant_low = ? OR participant_high = ?", participantID, participantID).
		Order("last_message_at IS NULL, last_message_at DESC, id DESC").
		Limit(page.Limit + 1).
		Offset(page.Offset).
		Find(&convs).Error
	if err != nil {
		return nil, false, errors.ErrStoreFailure(err)
	}

	hasMore := len(convs) > page.Limit
	if hasMore {
		convs = convs[:page.Limit]
	}

	summaries := make([]model.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		other, err := s.GetParticipant(ctx, conv.OtherParticipant(participantID))
		if err != nil {
			return nil, false, err
		}

		summary := model.ConversationSummary{
			Conversation:     conv,
			OtherParticipant: *other,
		}

		var last model.Message
		err = s.db.WithContext(ctx).
			Where("conversation_id = ? AND status <> ?", conv.ID, model.MessageDeleted).
			Order("sent_at DESC, id DESC").
			First(&last).Error
		switch {
		case err == nil:
			summary.LastMessage = &last
		case !stderrors.Is(err, gorm.ErrRecordNotFound):
			return nil, false, errors.ErrStoreFailure(err)
		}

		err = s.db.WithContext(ctx).Model(&model.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND status = ?", conv.ID, participantID, model.MessageSent).
			Count(&summary.UnreadCount).Error
		if err != nil {
			return nil, false, errors.ErrStoreFailure(err)
		}

		summaries = append(summaries, summary)
	}

	return summaries, hasMore, nil
}

// ArchiveConversation transitions a conversation to Archived. Terminal for
// writes; reads keep working.
func (s *GormStore) ArchiveConversation(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", id).
		Update("status", model.ConversationArchived)
	if res.Error != nil {
		return errors.ErrStoreFailure(res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.ErrConversationNotFound
	}
	return nil
}

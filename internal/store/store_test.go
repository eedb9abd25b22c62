package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/roomlink/messaging-platform/internal/model"
	"github.com/roomlink/messaging-platform/pkg/errors"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	st, err := NewGormStore(db)
	require.NoError(t, err)
	return st
}

func seedParticipant(t *testing.T, st *GormStore, id uint64, role model.Role, customerID *uint64) {
	t.Helper()
	require.NoError(t, st.db.Create(&model.Participant{
		ID:          id,
		DisplayName: "participant",
		Role:        role,
		CustomerID:  customerID,
	}).Error)
}

func seedConversation(t *testing.T, st *GormStore, a, b uint64) *model.Conversation {
	t.Helper()
	conv := &model.Conversation{Kind: model.KindEmployee}
	conv.ParticipantLow, conv.ParticipantHigh = model.NormalizePair(a, b)
	require.NoError(t, st.CreateConversation(context.Background(), conv))
	return conv
}

func TestFindConversationByPairIsOrderInsensitive(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	conv := seedConversation(t, st, 7, 3)

	found, err := st.FindConversationByPair(ctx, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, found.ID)

	found, err = st.FindConversationByPair(ctx, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, found.ID)

	_, err = st.FindConversationByPair(ctx, 3, 8)
	assert.ErrorIs(t, err, errors.ErrConversationNotFound)
}

func TestCreateConversationRejectsDuplicatePair(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedConversation(t, st, 1, 2)

	dup := &model.Conversation{Kind: model.KindEmployee, ParticipantLow: 2, ParticipantHigh: 1}
	err := st.CreateConversation(ctx, dup)
	assert.Error(t, err)
}

func TestCreateMessageTouchesConversation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	conv := seedConversation(t, st, 1, 2)
	require.Nil(t, conv.LastMessageAt)

	sentAt := time.Now().UTC().Truncate(time.Second)
	msg := &model.Message{
		ConversationID: conv.ID,
		SenderID:       1,
		Content:        "hello",
		Status:         model.MessageSent,
		SentAt:         sentAt,
	}
	require.NoError(t, st.CreateMessage(ctx, msg))
	assert.NotZero(t, msg.ID)

	updated, err := st.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.LastMessageAt)
	assert.WithinDuration(t, sentAt, *updated.LastMessageAt, time.Second)
}

func TestListMessagesNewestFirstWithIDTiebreak(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	conv := seedConversation(t, st, 1, 2)

	// Identical timestamps; creation order must still win.
	at := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, st.CreateMessage(ctx, &model.Message{
			ConversationID: conv.ID,
			SenderID:       1,
			Content:        "m",
			Status:         model.MessageSent,
			SentAt:         at,
		}))
	}

	messages, hasMore, err := st.ListMessages(ctx, conv.ID, Page{Limit: 2})
	require.NoError(t, err)
	assert.True(t, hasMore)
	require.Len(t, messages, 2)
	assert.Greater(t, messages[0].ID, messages[1].ID)
}

func TestListMessagesExcludesDeleted(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	conv := seedConversation(t, st, 1, 2)
	require.NoError(t, st.CreateMessage(ctx, &model.Message{
		ConversationID: conv.ID, SenderID: 1, Content: "kept",
		Status: model.MessageSent, SentAt: time.Now().UTC(),
	}))
	require.NoError(t, st.CreateMessage(ctx, &model.Message{
		ConversationID: conv.ID, SenderID: 1, Content: "gone",
		Status: model.MessageDeleted, SentAt: time.Now().UTC(),
	}))

	messages, _, err := st.ListMessages(ctx, conv.ID, Page{})
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "kept", messages[0].Content)
}

func TestMarkMessageReadIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	conv := seedConversation(t, st, 1, 2)
	msg := &model.Message{
		ConversationID: conv.ID, SenderID: 1, Content: "hi",
		Status: model.MessageSent, SentAt: time.Now().UTC(),
	}
	require.NoError(t, st.CreateMessage(ctx, msg))

	first := time.Now().UTC().Truncate(time.Second)
	read, err := st.MarkMessageRead(ctx, msg.ID, first)
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)
	assert.Equal(t, model.MessageRead, read.Status)

	// Second acknowledgment must not move the timestamp.
	again, err := st.MarkMessageRead(ctx, msg.ID, first.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, again.ReadAt)
	assert.WithinDuration(t, *read.ReadAt, *again.ReadAt, time.Second)
}

func TestUnreadCount(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	conv := seedConversation(t, st, 1, 2)
	for i := 0; i < 3; i++ {
		require.NoError(t, st.CreateMessage(ctx, &model.Message{
			ConversationID: conv.ID, SenderID: 1, Content: "hi",
			Status: model.MessageSent, SentAt: time.Now().UTC(),
		}))
	}
	// Own messages never count against the sender.
	require.NoError(t, st.CreateMessage(ctx, &model.Message{
		ConversationID: conv.ID, SenderID: 2, Content: "reply",
		Status: model.MessageSent, SentAt: time.Now().UTC(),
	}))

	count, err := st.UnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = st.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUnreadCountSkipsArchivedConversations(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	conv := seedConversation(t, st, 1, 2)
	require.NoError(t, st.CreateMessage(ctx, &model.Message{
		ConversationID: conv.ID, SenderID: 1, Content: "hi",
		Status: model.MessageSent, SentAt: time.Now().UTC(),
	}))
	require.NoError(t, st.ArchiveConversation(ctx, conv.ID))

	count, err := st.UnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestArchiveConversation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	conv := seedConversation(t, st, 1, 2)
	require.NoError(t, st.ArchiveConversation(ctx, conv.ID))

	archived, err := st.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConversationArchived, archived.Status)

	assert.ErrorIs(t, st.ArchiveConversation(ctx, 9999), errors.ErrConversationNotFound)
}

func TestListConversationsOrdersByActivity(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedParticipant(t, st, 1, model.RoleStaff, nil)
	seedParticipant(t, st, 2, model.RoleStaff, nil)
	seedParticipant(t, st, 3, model.RoleStaff, nil)

	older := seedConversation(t, st, 1, 2)
	newer := seedConversation(t, st, 1, 3)

	base := time.Now().UTC()
	require.NoError(t, st.CreateMessage(ctx, &model.Message{
		ConversationID: older.ID, SenderID: 2, Content: "first",
		Status: model.MessageSent, SentAt: base.Add(-time.Hour),
	}))
	require.NoError(t, st.CreateMessage(ctx, &model.Message{
		ConversationID: newer.ID, SenderID: 3, Content: "second",
		Status: model.MessageSent, SentAt: base,
	}))

	summaries, hasMore, err := st.ListConversations(ctx, 1, Page{})
	require.NoError(t, err)
	assert.False(t, hasMore)
	require.Len(t, summaries, 2)

	assert.Equal(t, newer.ID, summaries[0].Conversation.ID)
	assert.Equal(t, uint64(3), summaries[0].OtherParticipant.ID)
	require.NotNil(t, summaries[0].LastMessage)
	assert.Equal(t, "second", summaries[0].LastMessage.Content)
	assert.Equal(t, int64(1), summaries[0].UnreadCount)

	assert.Equal(t, older.ID, summaries[1].Conversation.ID)
}

func TestListConversationsExcludesArchived(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedParticipant(t, st, 1, model.RoleStaff, nil)
	seedParticipant(t, st, 2, model.RoleStaff, nil)

	conv := seedConversation(t, st, 1, 2)
	require.NoError(t, st.ArchiveConversation(ctx, conv.ID))

	summaries, _, err := st.ListConversations(ctx, 1, Page{})
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

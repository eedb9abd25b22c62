// Package store defines the persistence contract for the messaging core
// and its gorm-backed implementation.
package store

import (
	"context"
	"time"

	"github.com/roomlink/messaging-platform/internal/model"
)

// Page bounds a listing query.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps a page to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ParticipantStore reads authenticated identities.
type ParticipantStore interface {
	GetParticipant(ctx context.Context, id uint64) (*model.Participant, error)
	GetParticipantByCustomer(ctx context.Context, customerID uint64) (*model.Participant, error)
}

// ConversationStore persists conversations and enforces the unordered-pair
// uniqueness invariant.
type ConversationStore interface {
	GetConversation(ctx context.Context, id uint64) (*model.Conversation, error)
	FindConversationByPair(ctx context.Context, a, b uint64) (*model.Conversation, error)
	CreateConversation(ctx context.Context, c *model.Conversation) error
	ListConversations(ctx context.Context, participantID uint64, page Page) ([]model.ConversationSummary, bool, error)
	ArchiveConversation(ctx context.Context, id uint64) error
}

// MessageStore persists messages. CreateMessage and the conversation's
// last-activity touch are a single transaction.
type MessageStore interface {
	CreateMessage(ctx context.Context, m *model.Message) error
	GetMessage(ctx context.Context, id uint64) (*model.Message, error)
	ListMessages(ctx context.Context, conversationID uint64, page Page) ([]model.Message, bool, error)
	MarkMessagesRead(ctx context.Context, ids []uint64, at time.Time) error
	MarkMessageRead(ctx context.Context, id uint64, at time.Time) (*model.Message, error)
	UnreadCount(ctx context.Context, participantID uint64) (int64, error)
}

// Store is the full persistence contract.
type Store interface {
	ParticipantStore
	ConversationStore
	MessageStore

	Ping(ctx context.Context) error
}

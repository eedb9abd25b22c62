// Package service provides business logic for the messaging platform.
package service

import (
	"context"
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/roomlink/messaging-platform/internal/model"
	"github.com/roomlink/messaging-platform/internal/store"
	"github.com/roomlink/messaging-platform/pkg/errors"
	"github.com/roomlink/messaging-platform/pkg/logger"
	"github.com/roomlink/messaging-platform/pkg/metrics"
)

// ConversationService handles conversation operations.
type ConversationService struct {
	store  store.Store
	logger *logger.Logger
}

// NewConversationService creates a new conversation service.
func NewConversationService(st store.Store, log *logger.Logger) *ConversationService {
	return &ConversationService{
		store:  st,
		logger: log,
	}
}

// GetOrCreateClientAdmin opens (or returns) the conversation between a
// customer account and an administrator. The requester must be the
// customer's own identity or hold administrative capability. Creation is
// idempotent: a second attempt for the same pair, in either order, returns
// the existing conversation.
func (s *ConversationService) GetOrCreateClientAdmin(ctx context.Context, customerID, adminID, requesterID uint64) (*model.Conversation, error) {
	customer, err := s.store.GetParticipantByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	admin, err := s.store.GetParticipant(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if !admin.IsAdmin() {
		return nil, errors.ErrNotAdmin
	}

	if requesterID != customer.ID {
		requester, err := s.store.GetParticipant(ctx, requesterID)
		if err != nil || !requester.IsAdmin() {
			return nil, errors.ErrNotAuthorized
		}
	}

	if customer.ID == admin.ID {
		return nil, errors.ErrSelfConversation
	}

	conv := &model.Conversation{
		Kind:       model.KindClientAdmin,
		CustomerID: &customerID,
	}
	conv.ParticipantLow, conv.ParticipantHigh = model.NormalizePair(customer.ID, admin.ID)

	return s.getOrCreate(ctx, conv)
}

// GetOrCreateEmployee opens (or returns) the conversation between two staff
// members. The requester must be one of the two.
func (s *ConversationService) GetOrCreateEmployee(ctx context.Context, staffAID, staffBID, requesterID uint64) (*model.Conversation, error) {
	if requesterID != staffAID && requesterID != staffBID {
		return nil, errors.ErrNotAuthorized
	}
	if staffAID == staffBID {
		return nil, errors.ErrSelfConversation
	}

	for _, id := range []uint64{staffAID, staffBID} {
		p, err := s.store.GetParticipant(ctx, id)
		if err != nil {
			return nil, err
		}
		if p.Role == model.RoleGuest {
			return nil, errors.ErrNotStaff
		}
	}

	conv := &model.Conversation{
		Kind:     model.KindEmployee,
		StaffAID: &staffAID,
		StaffBID: &staffBID,
	}
	conv.ParticipantLow, conv.ParticipantHigh = model.NormalizePair(staffAID, staffBID)

	return s.getOrCreate(ctx, conv)
}

// getOrCreate performs the symmetric-pair lookup and creates the
// conversation only if none exists. A lost creation race resolves to the
// winner's row.
func (s *ConversationService) getOrCreate(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	existing, err := s.store.FindConversationByPair(ctx, conv.ParticipantLow, conv.ParticipantHigh)
	if err == nil {
		return existing, nil
	}
	if !stderrors.Is(err, errors.ErrConversationNotFound) {
		return nil, err
	}

	if err := s.store.CreateConversation(ctx, conv); err != nil {
		// Concurrent creation for the same pair trips the unique index;
		// the conversation exists now either way.
		if existing, findErr := s.store.FindConversationByPair(ctx, conv.ParticipantLow, conv.ParticipantHigh); findErr == nil {
			return existing, nil
		}
		return nil, err
	}

	metrics.ConversationsTotal.WithLabelValues(string(conv.Kind)).Inc()
	s.logger.Info("conversation created",
		zap.Uint64("conversation_id", conv.ID),
		zap.String("kind", string(conv.Kind)),
	)
	return conv, nil
}

// Get fetches a conversation the requester participates in.
func (s *ConversationService) Get(ctx context.Context, conversationID, requesterID uint64) (*model.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(requesterID) {
		return nil, errors.ErrNotParticipant
	}
	return conv, nil
}

// ListForParticipant returns the participant's Active conversations,
// most-recently-active first.
func (s *ConversationService) ListForParticipant(ctx context.Context, participantID uint64, page store.Page) (*model.ListConversationsResponse, error) {
	summaries, hasMore, err := s.store.ListConversations(ctx, participantID, page)
	if err != nil {
		return nil, err
	}
	return &model.ListConversationsResponse{
		Conversations: summaries,
		HasMore:       hasMore,
	}, nil
}

// Archive transitions a conversation to Archived. Archived conversations
// reject new sends but remain readable.
func (s *ConversationService) Archive(ctx context.Context, conversationID, requesterID uint64) error {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(requesterID) {
		return errors.ErrNotParticipant
	}

	if err := s.store.ArchiveConversation(ctx, conversationID); err != nil {
		return err
	}

	s.logger.Info("conversation archived",
		zap.Uint64("conversation_id", conversationID),
		zap.Uint64("requester_id", requesterID),
	)
	return nil
}

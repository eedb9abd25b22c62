// Package model defines data structures for the messaging platform.
package model

import (
	"time"
)

// Kind represents the flavor of a two-party conversation. Fixed at
// creation, never changes.
type Kind string

const (
	KindClientAdmin Kind = "client_admin"
	KindEmployee    Kind = "employee_employee"
)

// ConversationStatus represents the lifecycle state of a conversation.
type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "active"
	ConversationArchived ConversationStatus = "archived"
)

// Conversation is a two-party thread. The participant pair is stored
// normalized (low id first) so the unordered-pair uniqueness invariant is
// enforceable with a single composite index.
type Conversation struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind Kind   `gorm:"size:24;not null" json:"kind"`

	ParticipantLow  uint64 `gorm:"uniqueIndex:idx_conversation_pair;not null" json:"participant_low"`
	ParticipantHigh uint64 `gorm:"uniqueIndex:idx_conversation_pair;not null" json:"participant_high"`

	// Domain linkage, resolved at creation only.
	CustomerID *uint64 `json:"customer_id,omitempty"`
	StaffAID   *uint64 `json:"staff_a_id,omitempty"`
	StaffBID   *uint64 `json:"staff_b_id,omitempty"`

	Status        ConversationStatus `gorm:"size:16;index;not null;default:'active'" json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	LastMessageAt *time.Time         `gorm:"index" json:"last_message_at,omitempty"`
}

// HasParticipant reports whether the given participant is one of the two
// endpoints of the conversation.
func (c *Conversation) HasParticipant(id uint64) bool {
	return c.ParticipantLow == id || c.ParticipantHigh == id
}

// OtherParticipant returns the endpoint that is not the given participant.
// Callers must check HasParticipant first.
func (c *Conversation) OtherParticipant(id uint64) uint64 {
	if c.ParticipantLow == id {
		return c.ParticipantHigh
	}
	return c.ParticipantLow
}

// NormalizePair orders a participant pair as (low, high).
func NormalizePair(a, b uint64) (uint64, uint64) {
	if a > b {
		return b, a
	}
	return a, b
}

// ConversationSummary is one row of a participant's conversation list.
type ConversationSummary struct {
	Conversation     Conversation `json:"conversation"`
	OtherParticipant Participant  `json:"other_participant"`
	LastMessage      *Message     `json:"last_message,omitempty"`
	UnreadCount      int64        `json:"unread_count"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
	HasMore       bool                  `json:"has_more"`
}

// CreateClientAdminRequest is the request to open (or fetch) a conversation
// between a customer and an administrator.
type CreateClientAdminRequest struct {
	CustomerID uint64 `json:"customer_id"`
	AdminID    uint64 `json:"admin_id"`
}

// CreateEmployeeRequest is the request to open (or fetch) a conversation
// between two staff members.
type CreateEmployeeRequest struct {
	StaffAID uint64 `json:"staff_a_id"`
	StaffBID uint64 `json:"staff_b_id"`
}

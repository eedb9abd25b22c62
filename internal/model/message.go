package model

import (
	"time"
)

// MessageStatus represents the delivery/read state of a message.
type MessageStatus string

const (
	MessageSent    MessageStatus = "sent"
	MessageRead    MessageStatus = "read"
	MessageDeleted MessageStatus = "deleted"
)

// Message is a single entry in a conversation. The autoincrement id doubles
// as the creation-order tiebreak when timestamps collide.
type Message struct {
	ID             uint64        `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64        `gorm:"index;not null" json:"conversation_id"`
	SenderID       uint64        `gorm:"index;not null" json:"sender_id"`
	Content        string        `gorm:"type:text;not null" json:"content"`
	Status         MessageStatus `gorm:"size:16;index;not null;default:'sent'" json:"status"`
	SentAt         time.Time     `gorm:"index;not null" json:"sent_at"`
	ReadAt         *time.Time    `json:"read_at,omitempty"`
	Attachments    []Attachment  `gorm:"foreignKey:MessageID" json:"attachments,omitempty"`
}

// Attachment is append-only metadata for a file attached to a message.
type Attachment struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID  uint64    `gorm:"index;not null" json:"message_id"`
	FileName   string    `gorm:"size:255;not null" json:"file_name"`
	MediaKind  string    `gorm:"size:32;not null" json:"media_kind"`
	StorageKey string    `gorm:"size:512;not null" json:"storage_key"`
	ByteSize   int64     `gorm:"not null" json:"byte_size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// SendMessageRequest is the request to send a new message.
type SendMessageRequest struct {
	Content     string              `json:"content"`
	Attachments []AttachmentRequest `json:"attachments,omitempty"`
}

// AttachmentRequest carries attachment metadata on a send.
type AttachmentRequest struct {
	FileName   string `json:"file_name"`
	MediaKind  string `json:"media_kind"`
	StorageKey string `json:"storage_key"`
	ByteSize   int64  `json:"byte_size"`
}

// ListMessagesResponse is the response for listing messages in a
// conversation.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}

// UnreadCountResponse reports a participant's total unread messages.
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

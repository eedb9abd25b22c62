package model

import "encoding/json"

// FrameType identifies a websocket frame.
type FrameType string

const (
	FrameSendMessage FrameType = "send_message"
	FrameMessageSent FrameType = "message_sent"
	FrameNewMessage  FrameType = "new_message"
	FramePing        FrameType = "ping"
	FramePong        FrameType = "pong"
	FrameError       FrameType = "error"
)

// InboundFrame is a client-to-server websocket frame.
type InboundFrame struct {
	Type           FrameType `json:"type"`
	ConversationID uint64    `json:"conversation_id,omitempty"`
	Content        string    `json:"content,omitempty"`
}

// OutboundFrame is a server-to-client websocket frame.
type OutboundFrame struct {
	Type           FrameType `json:"type"`
	ConversationID uint64    `json:"conversation_id,omitempty"`
	Message        *Message  `json:"message,omitempty"`
}

// ErrorFrame builds a protocol error frame. The connection stays open.
func ErrorFrame(msg string) []byte {
	b, _ := json.Marshal(map[string]string{
		"type":    string(FrameError),
		"message": msg,
	})
	return b
}

// PongFrame is the reply to an inbound ping.
func PongFrame() []byte {
	b, _ := json.Marshal(map[string]string{"type": string(FramePong)})
	return b
}

// MessageSentFrame confirms a send back to the sender's channel.
func MessageSentFrame(m *Message) []byte {
	b, _ := json.Marshal(OutboundFrame{Type: FrameMessageSent, Message: m})
	return b
}

// NewMessageFrame is the live-delivery payload fanned out to the recipient.
func NewMessageFrame(m *Message) []byte {
	b, _ := json.Marshal(OutboundFrame{
		Type:           FrameNewMessage,
		ConversationID: m.ConversationID,
		Message:        m,
	})
	return b
}

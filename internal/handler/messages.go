package handler

import (
	"encoding/json"
	"net/http"

	"github.com/roomlink/messaging-platform/internal/middleware"
	"github.com/roomlink/messaging-platform/internal/model"
	"github.com/roomlink/messaging-platform/internal/service"
	"github.com/roomlink/messaging-platform/pkg/errors"
	"github.com/roomlink/messaging-platform/pkg/logger"
)

// MessageHandler exposes message endpoints.
type MessageHandler struct {
	messages *service.MessageService
	logger   *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(messages *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		logger:   log,
	}
}

// Send handles POST /api/v1/conversations/{id}/messages. The HTTP path and
// the websocket send frame converge on the same service call.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	conversationID, err := parseID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, errors.InvalidArg("invalid request body"))
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, h.logger, err)
		return
	}

	senderID := middleware.GetParticipantID(r.Context())
	msg, err := h.messages.Send(r.Context(), conversationID, senderID, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// List handles GET /api/v1/conversations/{id}/messages. Fetching a page
// acknowledges the requester's unread messages on it.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	conversationID, err := parseID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	requesterID := middleware.GetParticipantID(r.Context())
	resp, err := h.messages.ListAndMarkRead(r.Context(), conversationID, requesterID, parsePage(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// MarkRead handles POST /api/v1/messages/{id}/read.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	messageID, err := parseID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	requesterID := middleware.GetParticipantID(r.Context())
	msg, err := h.messages.MarkRead(r.Context(), messageID, requesterID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// UnreadCount handles GET /api/v1/messages/unread-count.
func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.GetParticipantID(r.Context())
	resp, err := h.messages.UnreadCount(r.Context(), requesterID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

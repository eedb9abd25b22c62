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

// ConversationHandler exposes conversation endpoints.
type ConversationHandler struct {
	conversations *service.ConversationService
	logger        *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(conversations *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		logger:        log,
	}
}

// CreateClientAdmin handles POST /api/v1/conversations/client-admin.
// Idempotent: reopening an existing pair returns the same conversation.
func (h *ConversationHandler) CreateClientAdmin(w http.ResponseWriter, r *http.Request) {
	var req model.CreateClientAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, errors.InvalidArg("invalid request body"))
		return
	}
	if req.CustomerID == 0 || req.AdminID == 0 {
		writeError(w, h.logger, errors.InvalidArg("customer_id and admin_id are required"))
		return
	}

	requesterID := middleware.GetParticipantID(r.Context())
	conv, err := h.conversations.GetOrCreateClientAdmin(r.Context(), req.CustomerID, req.AdminID, requesterID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// CreateEmployee handles POST /api/v1/conversations/employee.
func (h *ConversationHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, errors.InvalidArg("invalid request body"))
		return
	}
	if req.StaffAID == 0 || req.StaffBID == 0 {
		writeError(w, h.logger, errors.InvalidArg("staff_a_id and staff_b_id are required"))
		return
	}

	requesterID := middleware.GetParticipantID(r.Context())
	conv, err := h.conversations.GetOrCreateEmployee(r.Context(), req.StaffAID, req.StaffBID, requesterID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// List handles GET /api/v1/conversations.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.GetParticipantID(r.Context())
	resp, err := h.conversations.ListForParticipant(r.Context(), requesterID, parsePage(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/conversations/{id}.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	requesterID := middleware.GetParticipantID(r.Context())
	conv, err := h.conversations.Get(r.Context(), id, requesterID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// Archive handles POST /api/v1/conversations/{id}/archive.
func (h *ConversationHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	requesterID := middleware.GetParticipantID(r.Context())
	if err := h.conversations.Archive(r.Context(), id, requesterID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "archived"})
}

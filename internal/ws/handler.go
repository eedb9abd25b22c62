package ws

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/roomlink/messaging-platform/internal/auth"
	"github.com/roomlink/messaging-platform/internal/config"
	"github.com/roomlink/messaging-platform/internal/model"
	"github.com/roomlink/messaging-platform/internal/registry"
	"github.com/roomlink/messaging-platform/internal/service"
	"github.com/roomlink/messaging-platform/pkg/errors"
	"github.com/roomlink/messaging-platform/pkg/logger"
)

const maxFrameBytes = 128 * 1024

// Handler upgrades connections, authenticates them, and runs the frame
// loop for the lifetime of each session.
type Handler struct {
	upgrader websocket.Upgrader
	verifier auth.Verifier
	registry *registry.Registry
	messages *service.MessageService
	cfg      *config.Config
	logger   *logger.Logger
}

// NewHandler creates the websocket handler.
func NewHandler(verifier auth.Verifier, reg *registry.Registry, messages *service.MessageService, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		verifier: verifier,
		registry: reg,
		messages: messages,
		cfg:      cfg,
		logger:   log,
	}
}

// Serve handles GET /ws?participant_id=<id>&token=<jwt>. The handshake
// fails closed: any mismatch between the token identity and the claimed
// participant terminates the connection with a policy-violation close.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	claimedID, err := strconv.ParseUint(r.URL.Query().Get("participant_id"), 10, 64)
	if err != nil {
		h.reject(conn, "invalid participant_id")
		return
	}

	identity, err := h.verifier.Verify(r.URL.Query().Get("token"))
	if err != nil || identity.ParticipantID != claimedID {
		h.reject(conn, "authentication failed")
		return
	}

	session := NewSession(conn, h.cfg.WSSendBuffer, h.cfg.WSWriteTimeout, h.cfg.WSPingInterval)
	h.registry.Register(claimedID, session)
	go session.writePump()

	log := h.logger.With(zap.Uint64("participant_id", claimedID))
	log.Info("websocket connected")

	// Unregister runs on every exit path; a second call from a racing
	// writer eviction is a no-op.
	defer func() {
		h.registry.Unregister(claimedID, session)
		_ = session.Close()
		log.Info("websocket disconnected")
	}()

	h.readLoop(r, session, claimedID)
}

// readLoop consumes inbound frames until the connection drops. Malformed
// or unknown frames get an error frame back and the connection stays open.
func (h *Handler) readLoop(r *http.Request, session *Session, participantID uint64) {
	conn := session.conn
	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.WSPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.WSPongTimeout))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.WSPongTimeout))

		var frame model.InboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			h.sendError(session, "malformed frame")
			continue
		}

		switch frame.Type {
		case model.FrameSendMessage:
			h.handleSend(r, session, participantID, &frame)
		case model.FramePing:
			_ = session.Write(model.PongFrame(), h.cfg.WSWriteTimeout)
		default:
			h.sendError(session, "unknown frame type")
		}
	}
}

// handleSend runs a send through the message service. The sender gets a
// confirmation frame; the recipient side is the delivery pipeline's job.
func (h *Handler) handleSend(r *http.Request, session *Session, participantID uint64, frame *model.InboundFrame) {
	msg, err := h.messages.Send(r.Context(), frame.ConversationID, participantID, &model.SendMessageRequest{
		Content: frame.Content,
	})
	if err != nil {
		h.sendError(session, errorMessage(err))
		return
	}
	_ = session.Write(model.MessageSentFrame(msg), h.cfg.WSWriteTimeout)
}

func (h *Handler) sendError(session *Session, msg string) {
	_ = session.Write(model.ErrorFrame(msg), h.cfg.WSWriteTimeout)
}

// reject closes a freshly upgraded connection with a policy-violation
// close frame, before any registration happens.
func (h *Handler) reject(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(h.cfg.WSWriteTimeout)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), deadline)
	_ = conn.Close()
}

// errorMessage maps a service error onto a client-safe string.
func errorMessage(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Code != errors.CodeInternal && appErr.Code != errors.CodeUnknown {
		return appErr.Message
	}
	return "internal error"
}

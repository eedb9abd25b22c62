package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/roomlink/messaging-platform/internal/auth"
	"github.com/roomlink/messaging-platform/internal/delivery"
	"github.com/roomlink/messaging-platform/internal/middleware"
	"github.com/roomlink/messaging-platform/internal/model"
	"github.com/roomlink/messaging-platform/internal/registry"
	"github.com/roomlink/messaging-platform/internal/service"
	"github.com/roomlink/messaging-platform/internal/store"
	"github.com/roomlink/messaging-platform/pkg/logger"
)

const testSecret = "handler-test-secret"

type noopGateway struct{}

func (noopGateway) Notify(context.Context, uint64, string, string, map[string]string) error {
	return nil
}

type apiEnv struct {
	router chi.Router
	store  *store.GormStore
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	st, err := store.NewGormStore(db)
	require.NoError(t, err)

	for _, p := range []model.Participant{
		{ID: 1, DisplayName: "Ava Client", Role: model.RoleGuest, CustomerID: ptr(100)},
		{ID: 2, DisplayName: "Front Desk", Role: model.RoleAdmin},
		{ID: 3, DisplayName: "Housekeeping", Role: model.RoleStaff},
		{ID: 4, DisplayName: "Maintenance", Role: model.RoleStaff},
	} {
		require.NoError(t, db.Create(&p).Error)
	}

	log := logger.NewNop()
	reg := registry.New(time.Second, log)
	pipeline := delivery.New(reg, noopGateway{}, st, log)
	conversationSvc := service.NewConversationService(st, log)
	messageSvc := service.NewMessageService(st, pipeline, log)

	conversationHandler := NewConversationHandler(conversationSvc, log)
	messageHandler := NewMessageHandler(messageSvc, log)
	verifier := auth.NewJWTVerifier(testSecret)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(verifier))

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/client-admin", conversationHandler.CreateClientAdmin)
			r.Post("/employee", conversationHandler.CreateEmployee)
			r.Get("/", conversationHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Post("/archive", conversationHandler.Archive)
				r.Get("/messages", messageHandler.List)
				r.Post("/messages", messageHandler.Send)
			})
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/unread-count", messageHandler.UnreadCount)
			r.Post("/{id}/read", messageHandler.MarkRead)
		})
	})

	return &apiEnv{router: r, store: st}
}

func ptr(v uint64) *uint64 { return &v }

func token(t *testing.T, participantID uint64, role model.Role) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(participantID, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: string(role),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (e *apiEnv) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestAuthRequired(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/conversations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateClientAdminConversation(t *testing.T) {
	env := newAPIEnv(t)
	bearer := token(t, 1, model.RoleGuest)

	body := model.CreateClientAdminRequest{CustomerID: 100, AdminID: 2}
	rec := env.do(t, http.MethodPost, "/api/v1/conversations/client-admin", bearer, body)
	require.Equal(t, http.StatusOK, rec.Code)

	first := decode[model.Conversation](t, rec)
	assert.Equal(t, model.KindClientAdmin, first.Kind)

	// Reopening returns the same conversation.
	rec = env.do(t, http.MethodPost, "/api/v1/conversations/client-admin", bearer, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.ID, decode[model.Conversation](t, rec).ID)
}

func TestCreateClientAdminForbiddenForOutsider(t *testing.T) {
	env := newAPIEnv(t)

	body := model.CreateClientAdminRequest{CustomerID: 100, AdminID: 2}
	rec := env.do(t, http.MethodPost, "/api/v1/conversations/client-admin", token(t, 3, model.RoleStaff), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSendAndListMessages(t *testing.T) {
	env := newAPIEnv(t)
	staffA := token(t, 3, model.RoleStaff)
	staffB := token(t, 4, model.RoleStaff)

	rec := env.do(t, http.MethodPost, "/api/v1/conversations/employee", staffA,
		model.CreateEmployeeRequest{StaffAID: 3, StaffBID: 4})
	require.Equal(t, http.StatusOK, rec.Code)
	conv := decode[model.Conversation](t, rec)
	convPath := "/api/v1/conversations/" + strconv.FormatUint(conv.ID, 10)

	rec = env.do(t, http.MethodPost, convPath+"/messages", staffA,
		model.SendMessageRequest{Content: "room 204 needs towels"})
	require.Equal(t, http.StatusCreated, rec.Code)
	msg := decode[model.Message](t, rec)
	assert.Equal(t, uint64(3), msg.SenderID)

	rec = env.do(t, http.MethodGet, "/api/v1/messages/unread-count", staffB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[model.UnreadCountResponse](t, rec).UnreadCount)

	// Fetching the page acknowledges it.
	rec = env.do(t, http.MethodGet, convPath+"/messages", staffB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[model.ListMessagesResponse](t, rec)
	require.Len(t, list.Messages, 1)
	assert.Equal(t, model.MessageRead, list.Messages[0].Status)

	rec = env.do(t, http.MethodGet, "/api/v1/messages/unread-count", staffB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[model.UnreadCountResponse](t, rec).UnreadCount)
}

func TestErrorStatusMapping(t *testing.T) {
	env := newAPIEnv(t)
	staffA := token(t, 3, model.RoleStaff)
	admin := token(t, 2, model.RoleAdmin)

	rec := env.do(t, http.MethodPost, "/api/v1/conversations/employee", staffA,
		model.CreateEmployeeRequest{StaffAID: 3, StaffBID: 4})
	require.Equal(t, http.StatusOK, rec.Code)
	conv := decode[model.Conversation](t, rec)
	convPath := "/api/v1/conversations/" + strconv.FormatUint(conv.ID, 10)

	// Outsider cannot read the thread.
	rec = env.do(t, http.MethodGet, convPath+"/messages", admin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Missing conversation maps to 404.
	rec = env.do(t, http.MethodGet, "/api/v1/conversations/99999", staffA, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Empty content maps to 400.
	rec = env.do(t, http.MethodPost, convPath+"/messages", staffA,
		model.SendMessageRequest{Content: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Archived conversation rejects sends with 409.
	rec = env.do(t, http.MethodPost, convPath+"/archive", staffA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, convPath+"/messages", staffA,
		model.SendMessageRequest{Content: "too late"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMarkReadEndpoint(t *testing.T) {
	env := newAPIEnv(t)
	staffA := token(t, 3, model.RoleStaff)
	staffB := token(t, 4, model.RoleStaff)

	rec := env.do(t, http.MethodPost, "/api/v1/conversations/employee", staffA,
		model.CreateEmployeeRequest{StaffAID: 3, StaffBID: 4})
	require.Equal(t, http.StatusOK, rec.Code)
	conv := decode[model.Conversation](t, rec)

	rec = env.do(t, http.MethodPost, "/api/v1/conversations/"+strconv.FormatUint(conv.ID, 10)+"/messages",
		staffA, model.SendMessageRequest{Content: "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)
	msg := decode[model.Message](t, rec)
	msgPath := "/api/v1/messages/" + strconv.FormatUint(msg.ID, 10) + "/read"

	// The sender cannot acknowledge their own message.
	rec = env.do(t, http.MethodPost, msgPath, staffA, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, msgPath, staffB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	read := decode[model.Message](t, rec)
	assert.Equal(t, model.MessageRead, read.Status)
	assert.NotNil(t, read.ReadAt)
}

func TestListConversations(t *testing.T) {
	env := newAPIEnv(t)
	staffA := token(t, 3, model.RoleStaff)

	rec := env.do(t, http.MethodPost, "/api/v1/conversations/employee", staffA,
		model.CreateEmployeeRequest{StaffAID: 3, StaffBID: 4})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/conversations", staffA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[model.ListConversationsResponse](t, rec)
	require.Len(t, list.Conversations, 1)
	assert.Equal(t, uint64(4), list.Conversations[0].OtherParticipant.ID)
}

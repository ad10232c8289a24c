package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lawchat/backend/models"
	"lawchat/backend/presence"
	"lawchat/backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const requestTimeout = 5 * time.Second

var validate = validator.New()

// ConversationService 是聊天相關路由需要的操作
type ConversationService interface {
	FindOrCreateDirectChat(ctx context.Context, requester, other models.ParticipantRef) (*models.Chat, error)
	ListChats(ctx context.Context, requester models.ParticipantRef) ([]models.Chat, error)
	CreateGroupChat(ctx context.Context, requester models.ParticipantRef, name string, members []models.ParticipantRef) (*models.Chat, error)
	RenameGroup(ctx context.Context, requester models.ParticipantRef, chatID primitive.ObjectID, name string) (*models.Chat, error)
	AddMember(ctx context.Context, requester models.ParticipantRef, chatID primitive.ObjectID, member models.ParticipantRef) (*models.Chat, error)
	RemoveMember(ctx context.Context, requester models.ParticipantRef, chatID primitive.ObjectID, member models.ParticipantRef) (*models.Chat, error)
	GetChat(ctx context.Context, chatID primitive.ObjectID, requester models.ParticipantRef) (*models.Chat, error)
}

// MessageService 是訊息路由需要的操作
type MessageService interface {
	SendMessage(ctx context.Context, sender models.ParticipantRef, chatID primitive.ObjectID, content string) (*models.Message, error)
	AllMessages(ctx context.Context, requester models.ParticipantRef, chatID primitive.ObjectID) ([]models.Message, error)
	MarkRead(ctx context.Context, requester models.ParticipantRef, messageID primitive.ObjectID) (*models.Message, error)
}

// CredentialStore 是註冊與登入使用的帳號資料
type CredentialStore interface {
	FindCredentials(ctx context.Context, kind models.Kind, email string) (*models.Credentials, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// Handler 持有所有 HTTP 路由的依賴
type Handler struct {
	chats       ConversationService
	messages    MessageService
	credentials CredentialStore
	presence    presence.Tracker
	jwtSecret   string
	tokenTTL    time.Duration
	log         *logrus.Logger
}

// NewHandler 建立 Handler
func NewHandler(chats ConversationService, messages MessageService, credentials CredentialStore, tracker presence.Tracker, jwtSecret string, tokenTTL time.Duration, logger *logrus.Logger) *Handler {
	return &Handler{
		chats:       chats,
		messages:    messages,
		credentials: credentials,
		presence:    tracker,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		log:         logger,
	}
}

// sendJSONError 統一發送 JSON 格式錯誤響應
func (h *Handler) sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	h.writeJSON(w, statusCode, models.ErrorResponse{Message: message})
}

// writeError 把服務層的錯誤分類轉成 HTTP 狀態碼
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	entry := h.log.WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path, "status": status})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
		if status == http.StatusInternalServerError {
			h.sendJSONError(w, "Internal server error", status)
			return
		}
	} else {
		entry.Debug("Request rejected")
	}
	h.sendJSONError(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.WithError(err).Warn("Failed to write response")
	}
}

// decodeBody 解析並驗證 JSON 請求
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request payload", models.ErrInvalidArgument)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidArgument, err)
	}
	return nil
}

// requester 取出 JWT 中介軟體放進 context 的參與者
func (h *Handler) requester(w http.ResponseWriter, r *http.Request) (models.ParticipantRef, bool) {
	ref, err := utils.GetParticipantFromContext(r.Context())
	if err != nil {
		h.sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return models.ParticipantRef{}, false
	}
	return ref, true
}

func parseObjectID(hex, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid %s %q", models.ErrInvalidArgument, field, hex)
	}
	return id, nil
}

// participantFrom 建立參與者參照，沒有指定類型時視為一般使用者
func participantFrom(hex string, kind models.Kind) (models.ParticipantRef, error) {
	if kind == "" {
		kind = models.KindUser
	}
	return models.NewParticipantRef(hex, kind)
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lawchat/backend/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageService 處理訊息的寫入、讀取與已讀回條
type MessageService struct {
	chats    ChatStore
	messages MessageStore
	resolver resolver
	log      *logrus.Logger
	now      func() time.Time
}

// NewMessageService 建立 MessageService
func NewMessageService(chats ChatStore, messages MessageStore, principals PrincipalStore, logger *logrus.Logger) *MessageService {
	return &MessageService{
		chats:    chats,
		messages: messages,
		resolver: resolver{messages: messages, principals: principals, log: logger},
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SendMessage 寫入訊息後推進聊天的最新訊息指標。
// 兩步之間沒有交易，指標更新失敗只記錄，訊息仍然算送出。
func (s *MessageService) SendMessage(ctx context.Context, sender models.ParticipantRef, chatID primitive.ObjectID, content string) (*models.Message, error) {
	if err := sender.Validate(); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content is required", models.ErrInvalidArgument)
	}

	chat, err := s.chats.FindChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(sender) {
		return nil, fmt.Errorf("%w: not a member of chat %s", models.ErrForbidden, chatID.Hex())
	}

	now := s.now()
	msg := &models.Message{
		Sender:      sender.ID,
		SenderModel: sender.Kind,
		Content:     content,
		Chat:        chat.ID,
		ReadBy:      []models.ParticipantRef{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.messages.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	if err := s.chats.SetLatestMessage(ctx, chat.ID, msg.ID, now); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"chat_id":    chat.ID.Hex(),
			"message_id": msg.ID.Hex(),
		}).Warn("Failed to advance latest message pointer")
	}

	messages := []models.Message{*msg}
	if err := s.resolver.resolveSenders(ctx, messages); err != nil {
		s.log.WithError(err).Warn("Failed to resolve message sender")
		return msg, nil
	}
	return &messages[0], nil
}

// AllMessages 回傳聊天中的所有訊息，由舊到新
func (s *MessageService) AllMessages(ctx context.Context, requester models.ParticipantRef, chatID primitive.ObjectID) ([]models.Message, error) {
	chat, err := s.chats.FindChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(requester) {
		return nil, fmt.Errorf("%w: not a member of chat %s", models.ErrForbidden, chatID.Hex())
	}

	messages, err := s.messages.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.resolveSenders(ctx, messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead 把 requester 加入訊息的已讀名單，重複呼叫沒有副作用
func (s *MessageService) MarkRead(ctx context.Context, requester models.ParticipantRef, messageID primitive.ObjectID) (*models.Message, error) {
	if err := requester.Validate(); err != nil {
		return nil, err
	}
	msg, err := s.messages.FindMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	chat, err := s.chats.FindChatByID(ctx, msg.Chat)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(requester) {
		return nil, fmt.Errorf("%w: not a member of chat %s", models.ErrForbidden, chat.ID.Hex())
	}
	if msg.IsReadBy(requester) {
		return msg, nil
	}
	return s.messages.AddReader(ctx, messageID, requester)
}

// GetMessage 依 ID 讀取訊息，不做權限檢查
func (s *MessageService) GetMessage(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	return s.messages.FindMessageByID(ctx, id)
}

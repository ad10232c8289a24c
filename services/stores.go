package services

//go:generate mockgen -source=stores.go -destination=../mocks/mock_stores.go -package=mocks

import (
	"context"
	"time"

	"lawchat/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatStore 是聊天文件的持久層。每個方法對單一文件是原子的。
type ChatStore interface {
	// InsertChat 寫入新聊天並設定 chat.ID；一對一聊天重複時回傳 models.ErrConflict
	InsertChat(ctx context.Context, chat *models.Chat) error
	FindChatByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error)
	FindDirectChat(ctx context.Context, directKey string) (*models.Chat, error)
	ListChatsFor(ctx context.Context, ref models.ParticipantRef) ([]models.Chat, error)
	// ReplaceChat 只在資料庫中的 version 等於 expectedVersion 時覆寫，否則回傳 models.ErrConflict
	ReplaceChat(ctx context.Context, chat *models.Chat, expectedVersion int64) error
	SetLatestMessage(ctx context.Context, chatID, messageID primitive.ObjectID, at time.Time) error
}

// MessageStore 是訊息文件的持久層
type MessageStore interface {
	InsertMessage(ctx context.Context, msg *models.Message) error
	FindMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	FindMessagesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Message, error)
	ListMessages(ctx context.Context, chatID primitive.ObjectID) ([]models.Message, error)
	// AddReader 冪等地把 ref 加入 readBy 並回傳更新後的訊息
	AddReader(ctx context.Context, id primitive.ObjectID, ref models.ParticipantRef) (*models.Message, error)
}

// PrincipalStore 依 Kind 把 ParticipantRef 解析成使用者或律師的公開資料。
// 找不到的參考不會出現在結果中。
type PrincipalStore interface {
	Resolve(ctx context.Context, refs []models.ParticipantRef) (map[models.ParticipantRef]models.Profile, error)
}

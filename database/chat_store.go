package database

import (
	"context"
	"fmt"
	"time"

	"lawchat/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChatStore 以 chats 集合實作聊天持久層
type ChatStore struct {
	coll *mongo.Collection
}

// NewChatStore 建立 ChatStore
func NewChatStore(d *DB) *ChatStore {
	return &ChatStore{coll: d.Collection(chatsCollection)}
}

// InsertChat 將新的聊天插入到 MongoDB
func (s *ChatStore) InsertChat(ctx context.Context, chat *models.Chat) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	result, err := s.coll.InsertOne(ctx, chat)
	if err != nil {
		return translateError(err)
	}
	chat.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// FindChatByID 依 ID 查詢聊天
func (s *ChatStore) FindChatByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// FindDirectChat 依去重鍵查詢一對一聊天
func (s *ChatStore) FindDirectChat(ctx context.Context, directKey string) (*models.Chat, error) {
	return s.findOne(ctx, bson.M{"directKey": directKey, "isGroupChat": false})
}

func (s *ChatStore) findOne(ctx context.Context, filter bson.M) (*models.Chat, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var chat models.Chat
	if err := s.coll.FindOne(ctx, filter).Decode(&chat); err != nil {
		return nil, translateError(err)
	}
	return &chat, nil
}

// ListChatsFor 獲取參與者所在的所有聊天，最近活動的排前面
func (s *ChatStore) ListChatsFor(ctx context.Context, ref models.ParticipantRef) ([]models.Chat, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"users": bson.M{"$elemMatch": bson.M{
		"participantId":    ref.ID,
		"participantModel": ref.Kind,
	}}}
	findOptions := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})

	cursor, err := s.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, translateError(err)
	}
	defer cursor.Close(ctx)

	chats := []models.Chat{}
	if err = cursor.All(ctx, &chats); err != nil {
		return nil, translateError(err)
	}
	return chats, nil
}

// ReplaceChat 以 version 做比較後交換，整份文件一次覆寫
func (s *ChatStore) ReplaceChat(ctx context.Context, chat *models.Chat, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	result, err := s.coll.ReplaceOne(ctx, bson.M{"_id": chat.ID, "version": expectedVersion}, chat)
	if err != nil {
		return translateError(err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: chat %s changed concurrently", models.ErrConflict, chat.ID.Hex())
	}
	return nil
}

// SetLatestMessage 更新聊天的最新訊息指標與 updatedAt
func (s *ChatStore) SetLatestMessage(ctx context.Context, chatID, messageID primitive.ObjectID, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"latestMessage": messageID, "updatedAt": at},
		"$inc": bson.M{"version": 1},
	}
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": chatID}, update)
	if err != nil {
		return translateError(err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: chat %s", models.ErrNotFound, chatID.Hex())
	}
	return nil
}

package database

import (
	"context"

	"lawchat/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageStore 以 messages 集合實作訊息持久層
type MessageStore struct {
	coll *mongo.Collection
}

// NewMessageStore 建立 MessageStore
func NewMessageStore(d *DB) *MessageStore {
	return &MessageStore{coll: d.Collection(messagesCollection)}
}

// InsertMessage 將新的聊天訊息插入到 MongoDB
func (s *MessageStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if msg.ReadBy == nil {
		msg.ReadBy = []models.ParticipantRef{}
	}
	result, err := s.coll.InsertOne(ctx, msg)
	if err != nil {
		return translateError(err)
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// FindMessageByID 依 ID 查詢訊息
func (s *MessageStore) FindMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var msg models.Message
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&msg); err != nil {
		return nil, translateError(err)
	}
	return &msg, nil
}

// FindMessagesByIDs 一次查詢多則訊息，用來解析聊天列表的最新訊息
func (s *MessageStore) FindMessagesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Message, error) {
	if len(ids) == 0 {
		return []models.Message{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ListMessages 獲取指定聊天的所有訊息，由舊到新
func (s *MessageStore) ListMessages(ctx context.Context, chatID primitive.ObjectID) ([]models.Message, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, bson.M{"chat": chatID}, findOptions)
}

func (s *MessageStore) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := s.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, translateError(err)
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, translateError(err)
	}
	return messages, nil
}

// AddReader 以 $addToSet 冪等地加入已讀者
func (s *MessageStore) AddReader(ctx context.Context, id primitive.ObjectID, ref models.ParticipantRef) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := bson.M{"$addToSet": bson.M{"readBy": ref}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var msg models.Message
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&msg); err != nil {
		return nil, translateError(err)
	}
	return &msg, nil
}

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lawchat/backend/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	chatsCollection    = "chats"
	messagesCollection = "messages"
	usersCollection    = "users"
	lawyersCollection  = "lawyers"

	// 單次資料庫操作的最長時間
	opTimeout = 5 * time.Second
)

// DB 持有 MongoDB 連線與資料庫
type DB struct {
	Client *mongo.Client
	db     *mongo.Database
	log    *logrus.Logger
}

// ConnectMongoDB 建立並初始化 MongoDB 連線
func ConnectMongoDB(ctx context.Context, uri, name string, logger *logrus.Logger) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	logger.Info("Connected to MongoDB successfully!")
	return &DB{Client: client, db: client.Database(name), log: logger}, nil
}

// EnsureIndexes 建立聊天、訊息與使用者集合需要的索引
func (d *DB) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		chatsCollection: {
			{
				// 同一對參與者只能有一個一對一聊天
				Keys: bson.D{{Key: "directKey", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"directKey": bson.M{"$exists": true}}),
			},
			{Keys: bson.D{{Key: "users.participantId", Value: 1}, {Key: "users.participantModel", Value: 1}}},
			{Keys: bson.D{{Key: "updatedAt", Value: -1}}},
		},
		messagesCollection: {
			{Keys: bson.D{{Key: "chat", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		lawyersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}},
		},
	}

	for name, idx := range indexes {
		if _, err := d.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes for %s: %w", name, err)
		}
	}
	d.log.Info("MongoDB indexes ensured.")
	return nil
}

// Collection 獲取指定資料庫的集合
func (d *DB) Collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// DisconnectMongoDB 關閉 MongoDB 連線
func (d *DB) DisconnectMongoDB() {
	if d == nil || d.Client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Client.Disconnect(ctx); err != nil {
		d.log.WithError(err).Error("Error disconnecting from MongoDB")
	} else {
		d.log.Info("Disconnected from MongoDB.")
	}
}

// translateError 把驅動程式的錯誤轉成 models 的錯誤分類
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: %w", models.ErrNotFound, err)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %w", models.ErrConflict, err)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, mongo.ErrClientDisconnected):
		return fmt.Errorf("%w: %w", models.ErrTransient, err)
	default:
		return err
	}
}

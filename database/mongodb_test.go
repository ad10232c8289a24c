package database

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"lawchat/backend/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// startMongo 啟動一個 MongoDB 容器；沒有 Docker 或使用 -short 時略過
func startMongo(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Skipf("MongoDB container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	db, err := ConnectMongoDB(ctx, uri, "lawchat_test", logger)
	require.NoError(t, err)
	t.Cleanup(db.DisconnectMongoDB)
	require.NoError(t, db.EnsureIndexes(ctx))
	return db
}

func TestTranslateError(t *testing.T) {
	req := require.New(t)
	req.Nil(translateError(nil))
	req.True(errors.Is(translateError(mongo.ErrNoDocuments), models.ErrNotFound))
	req.True(errors.Is(translateError(context.DeadlineExceeded), models.ErrTransient))
	req.True(errors.Is(translateError(mongo.ErrClientDisconnected), models.ErrTransient))

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	req.True(errors.Is(translateError(dup), models.ErrConflict))

	other := errors.New("boom")
	req.Equal(other, translateError(other))
}

func TestMongoStores(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()
	chats := NewChatStore(db)
	messages := NewMessageStore(db)
	principals := NewPrincipalStore(db)

	user := &models.User{Name: "Amy", Email: "amy@example.com", Password: "hash"}
	require.NoError(t, principals.CreateUser(ctx, user))
	lawyerID := primitive.NewObjectID()
	_, err := db.Collection(lawyersCollection).InsertOne(ctx, bson.M{
		"_id": lawyerID, "name": "Lee", "email": "lee@law.example", "password": "hash",
	})
	require.NoError(t, err)

	u := models.ParticipantRef{ID: user.ID, Kind: models.KindUser}
	l := models.ParticipantRef{ID: lawyerID, Kind: models.KindLawyer}

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		err := principals.CreateUser(ctx, &models.User{Name: "Amy2", Email: "amy@example.com", Password: "x"})
		require.True(t, errors.Is(err, models.ErrConflict))
	})

	t.Run("resolve dispatches on kind", func(t *testing.T) {
		req := require.New(t)
		ghost := models.ParticipantRef{ID: user.ID, Kind: models.KindLawyer}
		profiles, err := principals.Resolve(ctx, []models.ParticipantRef{u, l, ghost})
		req.NoError(err)
		req.Len(profiles, 2)
		req.Equal("Amy", profiles[u].Name)
		req.Equal(models.KindLawyer, profiles[l].Kind)
		_, ok := profiles[ghost]
		req.False(ok)

		creds, err := principals.FindCredentials(ctx, models.KindLawyer, "lee@law.example")
		req.NoError(err)
		req.Equal("hash", creds.Password)
	})

	var direct models.Chat
	t.Run("direct key is unique under concurrent inserts", func(t *testing.T) {
		req := require.New(t)
		key := models.DirectKey(u, l)
		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = chats.InsertChat(ctx, &models.Chat{
					ChatName: "sender", Users: []models.ParticipantRef{u, l}, DirectKey: key, Version: 1,
					CreatedAt: time.Now(), UpdatedAt: time.Now(),
				})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				req.True(errors.Is(err, models.ErrConflict), err.Error())
			}
		}
		req.Equal(1, succeeded)

		found, err := chats.FindDirectChat(ctx, key)
		req.NoError(err)
		direct = *found
		list, err := chats.ListChatsFor(ctx, l)
		req.NoError(err)
		req.Len(list, 1)
	})

	t.Run("replace is compare and swap on version", func(t *testing.T) {
		req := require.New(t)
		admin := user.ID
		group := &models.Chat{
			ChatName: "Case", IsGroupChat: true, Users: []models.ParticipantRef{u, l},
			GroupAdmin: &admin, Version: 1, CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}
		req.NoError(chats.InsertChat(ctx, group))

		group.ChatName = "Renamed"
		group.Version = 2
		req.NoError(chats.ReplaceChat(ctx, group, 1))

		group.ChatName = "Stale"
		group.Version = 2
		err := chats.ReplaceChat(ctx, group, 1)
		req.True(errors.Is(err, models.ErrConflict))

		got, err := chats.FindChatByID(ctx, group.ID)
		req.NoError(err)
		req.Equal("Renamed", got.ChatName)
		req.Equal(int64(2), got.Version)
	})

	t.Run("messages and read receipts", func(t *testing.T) {
		req := require.New(t)
		base := time.Now().UTC().Truncate(time.Millisecond)
		first := &models.Message{Sender: u.ID, SenderModel: u.Kind, Content: "one", Chat: direct.ID, CreatedAt: base, UpdatedAt: base}
		second := &models.Message{Sender: l.ID, SenderModel: l.Kind, Content: "two", Chat: direct.ID, CreatedAt: base.Add(time.Second), UpdatedAt: base.Add(time.Second)}
		req.NoError(messages.InsertMessage(ctx, second))
		req.NoError(messages.InsertMessage(ctx, first))

		list, err := messages.ListMessages(ctx, direct.ID)
		req.NoError(err)
		req.Len(list, 2)
		req.Equal("one", list[0].Content)
		req.Equal("two", list[1].Content)

		for i := 0; i < 2; i++ {
			msg, err := messages.AddReader(ctx, second.ID, u)
			req.NoError(err)
			req.Equal([]models.ParticipantRef{u}, msg.ReadBy)
		}

		_, err = messages.AddReader(ctx, primitive.NewObjectID(), u)
		req.True(errors.Is(err, models.ErrNotFound))

		req.NoError(chats.SetLatestMessage(ctx, direct.ID, second.ID, base.Add(time.Second)))
		got, err := chats.FindChatByID(ctx, direct.ID)
		req.NoError(err)
		req.Equal(second.ID, *got.LatestMessage)
		req.Equal(direct.Version+1, got.Version)

		byID, err := messages.FindMessagesByIDs(ctx, []primitive.ObjectID{second.ID, primitive.NewObjectID()})
		req.NoError(err)
		req.Len(byID, 1)
	})
}

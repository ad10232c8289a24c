package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"lawchat/backend/models"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// memStore 以記憶體模擬三個持久層，行為與 MongoDB 實作一致 (唯一鍵、version 比較交換)
type memStore struct {
	mu         sync.Mutex
	chats      map[primitive.ObjectID]models.Chat
	messages   map[primitive.ObjectID]models.Message
	principals map[models.ParticipantRef]models.Profile
	inserts    int
}

func newMemStore() *memStore {
	return &memStore{
		chats:      make(map[primitive.ObjectID]models.Chat),
		messages:   make(map[primitive.ObjectID]models.Message),
		principals: make(map[models.ParticipantRef]models.Profile),
	}
}

func (s *memStore) addPrincipal(kind models.Kind, name string) models.ParticipantRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := models.ParticipantRef{ID: primitive.NewObjectID(), Kind: kind}
	s.principals[ref] = models.Profile{ID: ref.ID, Kind: kind, Name: name, Email: name + "@example.com"}
	return ref
}

func cloneChat(c models.Chat) models.Chat {
	c.Users = append([]models.ParticipantRef(nil), c.Users...)
	return c
}

func (s *memStore) InsertChat(_ context.Context, chat *models.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chat.DirectKey != "" {
		for _, c := range s.chats {
			if c.DirectKey == chat.DirectKey {
				return fmt.Errorf("%w: duplicate direct key", models.ErrConflict)
			}
		}
	}
	chat.ID = primitive.NewObjectID()
	s.chats[chat.ID] = cloneChat(*chat)
	s.inserts++
	return nil
}

func (s *memStore) FindChatByID(_ context.Context, id primitive.ObjectID) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, fmt.Errorf("%w: chat", models.ErrNotFound)
	}
	c = cloneChat(c)
	return &c, nil
}

func (s *memStore) FindDirectChat(_ context.Context, key string) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.DirectKey == key && !c.IsGroupChat {
			c = cloneChat(c)
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: chat", models.ErrNotFound)
}

func (s *memStore) ListChatsFor(_ context.Context, ref models.ParticipantRef) ([]models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Chat{}
	for _, c := range s.chats {
		if lo.Contains(c.Users, ref) {
			out = append(out, cloneChat(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *memStore) ReplaceChat(_ context.Context, chat *models.Chat, expected int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[chat.ID]
	if !ok || c.Version != expected {
		return fmt.Errorf("%w: version", models.ErrConflict)
	}
	stored := cloneChat(*chat)
	stored.Members, stored.Latest, stored.Admin = nil, nil, nil
	s.chats[chat.ID] = stored
	return nil
}

func (s *memStore) SetLatestMessage(_ context.Context, chatID, messageID primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[chatID]
	if !ok {
		return fmt.Errorf("%w: chat", models.ErrNotFound)
	}
	c.LatestMessage = &messageID
	c.UpdatedAt = at
	c.Version++
	s.chats[chatID] = c
	return nil
}

func (s *memStore) InsertMessage(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	s.messages[msg.ID] = *msg
	return nil
}

func (s *memStore) FindMessageByID(_ context.Context, id primitive.ObjectID) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("%w: message", models.ErrNotFound)
	}
	return &m, nil
}

func (s *memStore) FindMessagesByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Message{}
	for _, id := range ids {
		if m, ok := s.messages[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) ListMessages(_ context.Context, chatID primitive.ObjectID) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Message{}
	for _, m := range s.messages {
		if m.Chat == chatID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) AddReader(_ context.Context, id primitive.ObjectID, ref models.ParticipantRef) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("%w: message", models.ErrNotFound)
	}
	if !lo.Contains(m.ReadBy, ref) {
		m.ReadBy = append(m.ReadBy, ref)
	}
	s.messages[id] = m
	return &m, nil
}

func (s *memStore) Resolve(_ context.Context, refs []models.ParticipantRef) (map[models.ParticipantRef]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[models.ParticipantRef]models.Profile)
	for _, r := range refs {
		if p, ok := s.principals[r]; ok {
			out[r] = p
		}
	}
	return out, nil
}

// tickingClock 每次呼叫前進一秒，讓 updatedAt 排序穩定
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

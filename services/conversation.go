package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lawchat/backend/models"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// 建立群組時除了建立者之外至少需要的成員數
	minGroupMembers = 1
	// 群組變更遇到並行寫入時的最多嘗試次數
	maxMutationAttempts = 3
	directChatName      = "sender"
)

// ConversationService 處理一對一與群組聊天的建立、查詢與成員變更
type ConversationService struct {
	chats     ChatStore
	resolver  resolver
	log       *logrus.Logger
	adminOnly bool
	now       func() time.Time
}

// NewConversationService 建立 ConversationService。
// adminOnly 為 true 時，只有群組管理員能改名、加人與移除其他成員。
func NewConversationService(chats ChatStore, messages MessageStore, principals PrincipalStore, logger *logrus.Logger, adminOnly bool) *ConversationService {
	return &ConversationService{
		chats:     chats,
		resolver:  resolver{messages: messages, principals: principals, log: logger},
		log:       logger,
		adminOnly: adminOnly,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// FindOrCreateDirectChat 回傳 requester 與 other 之間唯一的一對一聊天，不存在則建立
func (s *ConversationService) FindOrCreateDirectChat(ctx context.Context, requester, other models.ParticipantRef) (*models.Chat, error) {
	if err := requester.Validate(); err != nil {
		return nil, err
	}
	if err := other.Validate(); err != nil {
		return nil, err
	}
	if requester == other {
		return nil, fmt.Errorf("%w: cannot open a chat with yourself", models.ErrInvalidArgument)
	}

	key := models.DirectKey(requester, other)
	chat, err := s.chats.FindDirectChat(ctx, key)
	if err == nil {
		return chat, s.resolver.hydrateChat(ctx, chat)
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	profiles, err := s.resolver.principals.Resolve(ctx, []models.ParticipantRef{other})
	if err != nil {
		return nil, err
	}
	if _, ok := profiles[other]; !ok {
		return nil, fmt.Errorf("%w: %s %s", models.ErrNotFound, other.Kind, other.ID.Hex())
	}

	now := s.now()
	chat = &models.Chat{
		ChatName:    directChatName,
		IsGroupChat: false,
		Users:       []models.ParticipantRef{requester, other},
		DirectKey:   key,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := chat.Validate(); err != nil {
		return nil, err
	}

	err = s.chats.InsertChat(ctx, chat)
	if errors.Is(err, models.ErrConflict) {
		// 另一個請求先建立了同一對的聊天，改回傳那一個
		s.log.WithField("direct_key", key).Debug("Direct chat created concurrently, returning existing")
		chat, err = s.chats.FindDirectChat(ctx, key)
	}
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"chat_id":   chat.ID.Hex(),
		"requester": requester.Key(),
		"other":     other.Key(),
	}).Info("Direct chat ready")
	return chat, s.resolver.hydrateChat(ctx, chat)
}

// ListChats 回傳 requester 參與的所有聊天，最近有活動的排前面
func (s *ConversationService) ListChats(ctx context.Context, requester models.ParticipantRef) ([]models.Chat, error) {
	if err := requester.Validate(); err != nil {
		return nil, err
	}
	chats, err := s.chats.ListChatsFor(ctx, requester)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.hydrateChats(ctx, chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// CreateGroupChat 建立群組聊天，requester 一定會成為成員與管理員
func (s *ConversationService) CreateGroupChat(ctx context.Context, requester models.ParticipantRef, name string, members []models.ParticipantRef) (*models.Chat, error) {
	if err := requester.Validate(); err != nil {
		return nil, err
	}
	if requester.Kind != models.KindUser {
		return nil, fmt.Errorf("%w: only users can administer a group", models.ErrForbidden)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", models.ErrInvalidArgument)
	}
	for _, m := range members {
		if err := m.Validate(); err != nil {
			return nil, err
		}
	}

	users := lo.Uniq(members)
	if len(users) < minGroupMembers {
		return nil, fmt.Errorf("%w: at least %d member is required to form a group chat", models.ErrInvalidArgument, minGroupMembers)
	}
	if !lo.Contains(users, requester) {
		users = append(users, requester)
	}

	now := s.now()
	adminID := requester.ID
	chat := &models.Chat{
		ChatName:    name,
		IsGroupChat: true,
		Users:       users,
		GroupAdmin:  &adminID,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := chat.Validate(); err != nil {
		return nil, err
	}
	if err := s.chats.InsertChat(ctx, chat); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"chat_id": chat.ID.Hex(),
		"admin":   requester.Key(),
		"members": len(chat.Users),
	}).Info("Group chat created")
	return chat, s.resolver.hydrateChat(ctx, chat)
}

// RenameGroup 更改群組名稱
func (s *ConversationService) RenameGroup(ctx context.Context, requester models.ParticipantRef, chatID primitive.ObjectID, newName string) (*models.Chat, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, fmt.Errorf("%w: group name is required", models.ErrInvalidArgument)
	}
	return s.mutateGroup(ctx, requester, chatID, func(chat *models.Chat) (bool, error) {
		if err := s.authorizeGroupEdit(chat, requester, false); err != nil {
			return false, err
		}
		if chat.ChatName == newName {
			return false, nil
		}
		chat.ChatName = newName
		return true, nil
	})
}

// AddMember 將成員加入群組；已是成員時不做任何變更
func (s *ConversationService) AddMember(ctx context.Context, requester models.ParticipantRef, chatID primitive.ObjectID, member models.ParticipantRef) (*models.Chat, error) {
	if err := member.Validate(); err != nil {
		return nil, err
	}
	return s.mutateGroup(ctx, requester, chatID, func(chat *models.Chat) (bool, error) {
		if err := s.authorizeGroupEdit(chat, requester, false); err != nil {
			return false, err
		}
		if chat.HasParticipant(member) {
			return false, nil
		}
		chat.Users = append(chat.Users, member)
		return true, nil
	})
}

// RemoveMember 將成員移出群組。移除管理員時由最早加入的其他使用者接任；
// 沒有可接任的使用者或成員會少於兩人時拒絕。
func (s *ConversationService) RemoveMember(ctx context.Context, requester models.ParticipantRef, chatID primitive.ObjectID, member models.ParticipantRef) (*models.Chat, error) {
	if err := member.Validate(); err != nil {
		return nil, err
	}
	return s.mutateGroup(ctx, requester, chatID, func(chat *models.Chat) (bool, error) {
		if err := s.authorizeGroupEdit(chat, requester, member == requester); err != nil {
			return false, err
		}
		if !chat.HasParticipant(member) {
			return false, nil
		}
		chat.Users = lo.Without(chat.Users, member)

		if admin, ok := chat.AdminRef(); ok && admin == member {
			next, found := lo.Find(chat.Users, func(u models.ParticipantRef) bool { return u.Kind == models.KindUser })
			if !found {
				return false, fmt.Errorf("%w: no user left to take over as group admin", models.ErrInvalidArgument)
			}
			chat.GroupAdmin = &next.ID
		}
		return true, nil
	})
}

// GetChat 回傳聊天內容，只有成員可以讀取
func (s *ConversationService) GetChat(ctx context.Context, chatID primitive.ObjectID, requester models.ParticipantRef) (*models.Chat, error) {
	chat, err := s.chats.FindChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(requester) {
		return nil, fmt.Errorf("%w: not a member of chat %s", models.ErrForbidden, chatID.Hex())
	}
	return chat, s.resolver.hydrateChat(ctx, chat)
}

// ChatMembers 回傳聊天目前的成員，不檢查呼叫者是否仍是成員。
// 給即時層廣播已寫入的訊息使用，發送者可能在發送後已離開聊天。
func (s *ConversationService) ChatMembers(ctx context.Context, chatID primitive.ObjectID) ([]models.ParticipantRef, error) {
	chat, err := s.chats.FindChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return chat.Users, nil
}

func (s *ConversationService) authorizeGroupEdit(chat *models.Chat, requester models.ParticipantRef, leaving bool) error {
	if !chat.IsGroupChat {
		return fmt.Errorf("%w: chat %s is not a group chat", models.ErrInvalidArgument, chat.ID.Hex())
	}
	if !s.adminOnly || leaving {
		return nil
	}
	if admin, ok := chat.AdminRef(); !ok || admin != requester {
		return fmt.Errorf("%w: only the group admin can do this", models.ErrForbidden)
	}
	return nil
}

// mutateGroup 讀取、修改、檢查不變量後以 version 比較交換寫回。
// apply 回傳 false 表示沒有變更，直接回傳目前的聊天。
func (s *ConversationService) mutateGroup(ctx context.Context, requester models.ParticipantRef, chatID primitive.ObjectID, apply func(*models.Chat) (bool, error)) (*models.Chat, error) {
	for attempt := 1; ; attempt++ {
		chat, err := s.chats.FindChatByID(ctx, chatID)
		if err != nil {
			return nil, err
		}
		if !chat.HasParticipant(requester) {
			return nil, fmt.Errorf("%w: not a member of chat %s", models.ErrForbidden, chatID.Hex())
		}

		expected := chat.Version
		changed, err := apply(chat)
		if err != nil {
			return nil, err
		}
		if !changed {
			return chat, s.resolver.hydrateChat(ctx, chat)
		}
		if err := chat.Validate(); err != nil {
			return nil, err
		}

		chat.Version = expected + 1
		chat.UpdatedAt = s.now()
		err = s.chats.ReplaceChat(ctx, chat, expected)
		if errors.Is(err, models.ErrConflict) && attempt < maxMutationAttempts {
			s.log.WithFields(logrus.Fields{"chat_id": chatID.Hex(), "attempt": attempt}).
				Debug("Chat changed concurrently, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		return chat, s.resolver.hydrateChat(ctx, chat)
	}
}

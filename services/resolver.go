package services

import (
	"context"

	"lawchat/backend/models"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// resolver 填入聊天與訊息的解析欄位 (成員、最新訊息、管理員、發送者)
type resolver struct {
	messages   MessageStore
	principals PrincipalStore
	log        *logrus.Logger
}

// hydrateChats 以一次訊息查詢加一次主體解析處理整批聊天。
// 最新訊息指標過期或參與者已不存在時略過該欄位，不視為錯誤。
func (r resolver) hydrateChats(ctx context.Context, chats []models.Chat) error {
	if len(chats) == 0 {
		return nil
	}

	latestIDs := lo.FilterMap(chats, func(c models.Chat, _ int) (primitive.ObjectID, bool) {
		if c.LatestMessage == nil {
			return primitive.NilObjectID, false
		}
		return *c.LatestMessage, true
	})
	latest, err := r.messages.FindMessagesByIDs(ctx, latestIDs)
	if err != nil {
		return err
	}
	latestByID := lo.KeyBy(latest, func(m models.Message) primitive.ObjectID { return m.ID })

	var refs []models.ParticipantRef
	for _, c := range chats {
		refs = append(refs, c.Users...)
		if admin, ok := c.AdminRef(); ok {
			refs = append(refs, admin)
		}
	}
	for _, m := range latest {
		refs = append(refs, m.SenderRef())
	}
	profiles, err := r.principals.Resolve(ctx, refs)
	if err != nil {
		return err
	}

	for i := range chats {
		c := &chats[i]
		c.Members = make([]models.Profile, 0, len(c.Users))
		for _, u := range c.Users {
			if p, ok := profiles[u]; ok {
				c.Members = append(c.Members, p)
			} else {
				r.log.WithFields(logrus.Fields{"chat_id": c.ID.Hex(), "participant": u.Key()}).
					Debug("Participant could not be resolved")
			}
		}
		if admin, ok := c.AdminRef(); ok {
			if p, ok := profiles[admin]; ok {
				c.Admin = &p
			}
		}
		c.Latest = nil
		if c.LatestMessage != nil {
			if m, ok := latestByID[*c.LatestMessage]; ok && m.Chat == c.ID {
				if p, ok := profiles[m.SenderRef()]; ok {
					m.SenderProfile = &p
				}
				c.Latest = &m
			}
		}
	}
	return nil
}

func (r resolver) hydrateChat(ctx context.Context, chat *models.Chat) error {
	chats := []models.Chat{*chat}
	if err := r.hydrateChats(ctx, chats); err != nil {
		return err
	}
	*chat = chats[0]
	return nil
}

// resolveSenders 填入每則訊息的發送者資料
func (r resolver) resolveSenders(ctx context.Context, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	refs := lo.Map(messages, func(m models.Message, _ int) models.ParticipantRef { return m.SenderRef() })
	profiles, err := r.principals.Resolve(ctx, refs)
	if err != nil {
		return err
	}
	for i := range messages {
		if p, ok := profiles[messages[i].SenderRef()]; ok {
			messages[i].SenderProfile = &p
		}
	}
	return nil
}

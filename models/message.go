package models

import (
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message 代表一則已持久化的聊天訊息
type Message struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	// Sender 與 SenderModel 分開存，SenderModel 與 Sender.Kind 必須一致
	Sender      primitive.ObjectID `bson:"sender" json:"sender"`
	SenderModel Kind               `bson:"senderModel" json:"senderModel"`
	Content     string             `bson:"content" json:"content"`
	Chat        primitive.ObjectID `bson:"chat" json:"chat"`
	ReadBy      []ParticipantRef   `bson:"readBy" json:"readBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`

	SenderProfile *Profile `bson:"-" json:"senderProfile,omitempty"`
}

// SenderRef 回傳發送者的 ParticipantRef
func (m *Message) SenderRef() ParticipantRef {
	return ParticipantRef{ID: m.Sender, Kind: m.SenderModel}
}

// IsReadBy 回報 ref 是否已讀
func (m *Message) IsReadBy(ref ParticipantRef) bool {
	return lo.Contains(m.ReadBy, ref)
}

package websocket

import (
	"lawchat/backend/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Broadcaster 把入站事件轉送給目前在線的其他連線。
//
// 傳遞是盡力而為：沒有確認、沒有重試、沒有排隊。收件人沒有在線的連線時事件直接丟棄，
// 需要一致性的客戶端應自行重新讀取聊天列表。訊息在廣播前必須已經寫入資料庫。
type Broadcaster struct {
	hub *Hub
	log *logrus.Logger
}

// NewBroadcaster 建立 Broadcaster
func NewBroadcaster(hub *Hub, logger *logrus.Logger) *Broadcaster {
	return &Broadcaster{hub: hub, log: logger}
}

// Typing 通知聊天房間內的其他連線有人正在輸入
func (b *Broadcaster) Typing(from *Client, chatID primitive.ObjectID) int {
	return b.relay(from, EventTyping, chatID)
}

// StopTyping 通知聊天房間內的其他連線輸入已停止
func (b *Broadcaster) StopTyping(from *Client, chatID primitive.ObjectID) int {
	return b.relay(from, EventStopTyping, chatID)
}

func (b *Broadcaster) relay(from *Client, name string, chatID primitive.ObjectID) int {
	payload, err := encodeEvent(name, chatID.Hex())
	if err != nil {
		b.log.WithError(err).Error("Failed to encode relay event")
		return 0
	}
	return b.hub.Emit(ChatRoom(chatID), payload, from)
}

// NewMessage 把已持久化的訊息送到每位成員的個人房間，發送者除外。
// 無法辨識的成員項目記錄後略過，不影響其他成員。回傳放入佇列的連線數。
func (b *Broadcaster) NewMessage(msg *models.Message, membership []models.ParticipantRef) int {
	payload, err := encodeEvent(EventMessageReceived, msg)
	if err != nil {
		b.log.WithError(err).Error("Failed to encode message event")
		return 0
	}

	sender := msg.SenderRef()
	delivered := 0
	for _, member := range membership {
		if err := member.Validate(); err != nil {
			b.log.WithError(err).WithField("message_id", msg.ID.Hex()).Warn("Skipping unresolvable chat member")
			continue
		}
		if member == sender {
			continue
		}
		delivered += b.hub.Emit(PersonalRoom(member), payload, nil)
	}

	b.log.WithFields(logrus.Fields{
		"message_id": msg.ID.Hex(),
		"chat_id":    msg.Chat.Hex(),
		"delivered":  delivered,
	}).Debug("Message broadcast")
	return delivered
}

package websocket

import (
	"encoding/json"
	"fmt"

	"lawchat/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 入站與出站事件名稱
const (
	EventSetup      = "setup"
	EventJoinChat   = "join chat"
	EventTyping     = "typing"
	EventStopTyping = "stop typing"
	EventNewMessage = "new message"

	EventConnected       = "connected"
	EventMessageReceived = "message received"
	EventError           = "error"
)

// Event 是 WebSocket 上傳送的 JSON 信封
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// encodeEvent 把事件名稱與資料編碼成要送出的 JSON
func encodeEvent(name string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Event: name, Data: raw})
}

// chatIDFromData 解析以字串傳來的聊天 ID
func chatIDFromData(data json.RawMessage) (primitive.ObjectID, error) {
	var hex string
	if err := json.Unmarshal(data, &hex); err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: chat id must be a string", models.ErrInvalidArgument)
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid chat id %q", models.ErrInvalidArgument, hex)
	}
	return id, nil
}

// ChatRoom 回傳聊天房間的名稱
func ChatRoom(chatID primitive.ObjectID) string {
	return "chat:" + chatID.Hex()
}

// PersonalRoom 回傳參與者個人房間的名稱，該參與者的所有連線都在裡面
func PersonalRoom(ref models.ParticipantRef) string {
	return ref.Key()
}

package websocket

import (
	"encoding/json"
	"time"

	"lawchat/backend/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// 將訊息寫入到遠端對等點的最長時間
	writeWait = 10 * time.Second

	// 允許從遠端對等點讀取下一個 pong 訊息的最長時間。
	pongWait = 60 * time.Second

	// 發送 ping 訊息給遠端對等點的週期。
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

// Client 代表一個 WebSocket 客戶端
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn // WebSocket 連線物件，透過它來讀寫訊息
	send chan []byte     // 用於發送訊息的緩衝通道
	// auth 是升級連線時 token 驗證出的身分，setup 只能綁定這個身分
	auth models.ParticipantRef
	log  *logrus.Entry

	// 以下欄位由 hub.mu 保護
	bound *models.ParticipantRef
	rooms map[string]struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, auth models.ParticipantRef, buffer int) *Client {
	id := uuid.NewString()
	return &Client{
		ID:    id,
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, buffer),
		auth:  auth,
		log:   hub.log.WithFields(logrus.Fields{"conn_id": id, "auth": auth.Key()}),
		rooms: make(map[string]struct{}),
	}
}

// 讀取用戶傳來的事件，交給 handle 處理
func (c *Client) readPump(handle func(*Client, Event)) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, p, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("Client disconnected gracefully.")
			} else {
				c.log.WithError(err).Debug("Error reading message")
			}
			break
		}

		var evt Event
		if err := json.Unmarshal(p, &evt); err != nil {
			c.log.WithError(err).Debug("Error unmarshalling event")
			continue
		}
		handle(c, evt)
	}
}

// 接收 Hub 廣播來的事件，丟給前端
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 如果這個 channel 被關閉了（ok == false），就送出 CloseMessage
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.WithError(err).Debug("Error writing message")
				return
			}

		// 接收定時器以保持連線活躍並檢測客戶端是否仍在線。
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.hub.RefreshPresence(c)
		}
	}
}

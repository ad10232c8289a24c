package websocket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lawchat/backend/models"
	"lawchat/backend/presence"

	"github.com/sirupsen/logrus"
)

// Hub 維護所有活躍的 WebSocket 客戶端、它們綁定的參與者，以及房間成員。
// 廣播只取讀鎖，綁定、加入與離線取寫鎖。
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	rooms    map[string]map[*Client]struct{} // 按房間名稱索引的客戶端
	presence presence.Tracker
	log      *logrus.Logger
}

// NewHub 創建並返回一個新的 Hub 實例
func NewHub(tracker presence.Tracker, logger *logrus.Logger) *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		rooms:    make(map[string]map[*Client]struct{}),
		presence: tracker,
		log:      logger,
	}
}

// Register 登記一條尚未綁定的連線
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	h.log.WithField("conn_id", c.ID).Debug("Client registered")
}

// Setup 把連線綁定到參與者並加入其個人房間。
// 同一身分重複 setup 回傳 (false, nil)；綁定後改成其他身分回傳 models.ErrForbidden。
func (h *Hub) Setup(c *Client, ref models.ParticipantRef) (bool, error) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return false, fmt.Errorf("%w: connection %s is closed", models.ErrNotFound, c.ID)
	}
	if c.bound != nil {
		bound := *c.bound
		h.mu.Unlock()
		if bound == ref {
			return false, nil
		}
		return false, fmt.Errorf("%w: connection already bound to %s", models.ErrForbidden, bound)
	}
	c.bound = &ref
	h.joinLocked(c, PersonalRoom(ref))
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"conn_id": c.ID, "participant": ref.Key()}).Info("Client set up")
	h.markPresence(ref, true)
	return true, nil
}

// Join 把已綁定的連線加入房間。呼叫端要先確認成員資格，Hub 不再檢查。
func (h *Hub) Join(c *Client, room string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return fmt.Errorf("%w: connection %s is closed", models.ErrNotFound, c.ID)
	}
	if c.bound == nil {
		return fmt.Errorf("%w: connection is not set up", models.ErrForbidden)
	}
	if h.joinLocked(c, room) {
		h.log.WithFields(logrus.Fields{"conn_id": c.ID, "room": room}).Debug("Client joined room")
	}
	return nil
}

func (h *Hub) joinLocked(c *Client, room string) bool {
	if _, ok := c.rooms[room]; ok {
		return false
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	return true
}

// InRoom 回報連線是否已在房間中
func (h *Hub) InRoom(c *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}

// Participant 回傳連線綁定的參與者
func (h *Hub) Participant(c *Client) (models.ParticipantRef, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c.bound == nil {
		return models.ParticipantRef{}, false
	}
	return *c.bound, true
}

// Unregister 釋放連線的所有房間與綁定並關閉其發送通道。重複呼叫沒有作用。
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	for room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room) // 如果房間沒有客戶端了，就刪除房間
			}
		}
	}
	c.rooms = make(map[string]struct{})
	delete(h.clients, c)
	close(c.send)
	bound := c.bound
	h.mu.Unlock()

	h.log.WithField("conn_id", c.ID).Debug("Client unregistered")
	if bound != nil {
		h.markPresence(*bound, false)
	}
}

// Emit 把 payload 送給房間內除了 except 之外的所有連線，回傳成功放入佇列的數量。
// 不等待也不重試；發送佇列已滿的連線會被斷開。
func (h *Hub) Emit(room string, payload []byte, except *Client) int {
	var slow []*Client
	delivered := 0

	h.mu.RLock()
	for c := range h.rooms[room] {
		if c == except {
			continue
		}
		select {
		case c.send <- payload:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.WithFields(logrus.Fields{"conn_id": c.ID, "room": room}).Warn("Client channel is full, unregistering client")
		h.Unregister(c)
	}
	return delivered
}

// Send 直接送給單一連線；連線已關閉時不做任何事
func (h *Hub) Send(c *Client, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// RoomSize 回傳房間目前的連線數
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Shutdown 關閉所有連線，伺服器停止時呼叫
func (h *Hub) Shutdown() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.Unregister(c)
	}
	h.log.WithField("clients", len(clients)).Info("Hub shut down")
}

// RefreshPresence 延長已綁定連線的上線狀態，由 writePump 在每次 ping 後呼叫
func (h *Hub) RefreshPresence(c *Client) {
	h.mu.RLock()
	_, open := h.clients[c]
	bound := c.bound
	h.mu.RUnlock()
	if !open || bound == nil {
		return
	}
	ref := *bound

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.presence.Refresh(ctx, ref); err != nil {
		h.log.WithError(err).WithField("participant", ref.Key()).Warn("Failed to refresh presence")
	}
}

func (h *Hub) markPresence(ref models.ParticipantRef, online bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var err error
	if online {
		err = h.presence.Online(ctx, ref)
	} else {
		err = h.presence.Offline(ctx, ref)
	}
	if err != nil {
		h.log.WithError(err).WithField("participant", ref.Key()).Warn("Failed to update presence")
	}
}

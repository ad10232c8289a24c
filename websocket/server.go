package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lawchat/backend/middleware"
	"lawchat/backend/models"
	"lawchat/backend/utils"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const eventTimeout = 5 * time.Second

// ChatAccess 驗證參與者可以存取聊天，並提供廣播用的成員名單
type ChatAccess interface {
	GetChat(ctx context.Context, chatID primitive.ObjectID, requester models.ParticipantRef) (*models.Chat, error)
	ChatMembers(ctx context.Context, chatID primitive.ObjectID) ([]models.ParticipantRef, error)
}

// MessageSource 讀取已經寫入的訊息
type MessageSource interface {
	GetMessage(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
}

// Server 負責升級 WebSocket 連線並分派入站事件
type Server struct {
	hub         *Hub
	broadcaster *Broadcaster
	chats       ChatAccess
	messages    MessageSource
	jwtSecret   string
	sendBuffer  int
	upgrader    websocket.Upgrader
	log         *logrus.Logger
}

// NewServer 建立 Server。allowedOrigins 為空時只接受沒有 Origin 標頭的連線。
func NewServer(hub *Hub, broadcaster *Broadcaster, chats ChatAccess, messages MessageSource, jwtSecret string, sendBuffer int, logger *logrus.Logger, allowedOrigins []string) *Server {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Server{
		hub:         hub,
		broadcaster: broadcaster,
		chats:       chats,
		messages:    messages,
		jwtSecret:   jwtSecret,
		sendBuffer:  sendBuffer,
		log:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || lo.Contains(allowedOrigins, origin)
			},
		},
	}
}

// ServeWs 處理 WebSocket 連線請求。token 可以放在 query 或 Authorization 標頭。
func (s *Server) ServeWs(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = middleware.BearerToken(r)
	}
	if token == "" {
		http.Error(w, "Authorization token required", http.StatusUnauthorized)
		return
	}
	auth, err := utils.GetParticipantFromToken(token, s.jwtSecret)
	if err != nil {
		s.log.WithError(err).Debug("Rejected websocket token")
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("Failed to upgrade connection")
		return
	}

	client := newClient(s.hub, conn, auth, s.sendBuffer)
	s.hub.Register(client)

	go client.writePump()
	go client.readPump(s.handleEvent)
}

func (s *Server) handleEvent(c *Client, evt Event) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	var err error
	switch evt.Event {
	case EventSetup:
		err = s.onSetup(c, evt.Data)
	case EventJoinChat:
		err = s.onJoinChat(ctx, c, evt.Data)
	case EventTyping, EventStopTyping:
		err = s.onTyping(c, evt.Event, evt.Data)
	case EventNewMessage:
		err = s.onNewMessage(ctx, c, evt.Data)
	default:
		err = fmt.Errorf("%w: unknown event %q", models.ErrInvalidArgument, evt.Event)
	}

	if err != nil {
		c.log.WithError(err).WithField("event", evt.Event).Debug("Event rejected")
		s.sendError(c, err)
	}
}

func (s *Server) onSetup(c *Client, data json.RawMessage) error {
	ref := c.auth
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &ref); err != nil {
			return fmt.Errorf("%w: malformed participant", models.ErrInvalidArgument)
		}
		if ref.Kind == "" {
			ref.Kind = models.KindUser
		}
		if err := ref.Validate(); err != nil {
			return err
		}
	}
	if ref != c.auth {
		return fmt.Errorf("%w: setup identity does not match token", models.ErrForbidden)
	}

	if _, err := s.hub.Setup(c, ref); err != nil {
		return err
	}
	ack, err := encodeEvent(EventConnected, ref)
	if err != nil {
		return err
	}
	s.hub.Send(c, ack)
	return nil
}

func (s *Server) onJoinChat(ctx context.Context, c *Client, data json.RawMessage) error {
	ref, ok := s.hub.Participant(c)
	if !ok {
		return fmt.Errorf("%w: connection is not set up", models.ErrForbidden)
	}
	chatID, err := chatIDFromData(data)
	if err != nil {
		return err
	}
	if _, err := s.chats.GetChat(ctx, chatID, ref); err != nil {
		return err
	}
	return s.hub.Join(c, ChatRoom(chatID))
}

func (s *Server) onTyping(c *Client, name string, data json.RawMessage) error {
	if _, ok := s.hub.Participant(c); !ok {
		return fmt.Errorf("%w: connection is not set up", models.ErrForbidden)
	}
	chatID, err := chatIDFromData(data)
	if err != nil {
		return err
	}
	if !s.hub.InRoom(c, ChatRoom(chatID)) {
		return fmt.Errorf("%w: join the chat before typing", models.ErrForbidden)
	}
	if name == EventTyping {
		s.broadcaster.Typing(c, chatID)
	} else {
		s.broadcaster.StopTyping(c, chatID)
	}
	return nil
}

func (s *Server) onNewMessage(ctx context.Context, c *Client, data json.RawMessage) error {
	ref, ok := s.hub.Participant(c)
	if !ok {
		return fmt.Errorf("%w: connection is not set up", models.ErrForbidden)
	}
	var body struct {
		ID primitive.ObjectID `json:"_id"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.ID.IsZero() {
		return fmt.Errorf("%w: message id is required", models.ErrInvalidArgument)
	}

	msg, err := s.messages.GetMessage(ctx, body.ID)
	if err != nil {
		return err
	}
	if msg.SenderRef() != ref {
		return fmt.Errorf("%w: only the sender may announce a message", models.ErrForbidden)
	}
	// 訊息寫入時已確認過發送者是成員，之後被移出也照樣通知其他人
	members, err := s.chats.ChatMembers(ctx, msg.Chat)
	if err != nil {
		return err
	}
	s.broadcaster.NewMessage(msg, members)
	return nil
}

func (s *Server) sendError(c *Client, err error) {
	message := "internal error"
	for _, known := range []error{models.ErrInvalidArgument, models.ErrNotFound, models.ErrForbidden, models.ErrConflict, models.ErrTransient} {
		if errors.Is(err, known) {
			message = err.Error()
			break
		}
	}
	payload, encErr := encodeEvent(EventError, models.ErrorResponse{Message: message})
	if encErr != nil {
		return
	}
	s.hub.Send(c, payload)
}

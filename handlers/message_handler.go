package handlers

import (
	"context"
	"net/http"

	"lawchat/backend/models"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// SendMessageRequest 發送訊息的請求
type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
	ChatID  string `json:"chatId" validate:"required"`
}

// SendMessage 寫入一則訊息。即時通知由客戶端之後透過 WebSocket 的 new message 事件觸發。
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sender, ok := h.requester(w, r)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	chatID, err := parseObjectID(req.ChatID, "chatId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	msg, err := h.messages.SendMessage(ctx, sender, chatID, req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.WithFields(logrus.Fields{"message_id": msg.ID.Hex(), "chat_id": chatID.Hex()}).Debug("Message stored")
	h.writeJSON(w, http.StatusOK, msg)
}

// AllMessages 依時間順序列出聊天中的訊息
func (h *Handler) AllMessages(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	chatID, err := parseObjectID(mux.Vars(r)["chatId"], "chatId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	messages, err := h.messages.AllMessages(ctx, requester, chatID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	h.writeJSON(w, http.StatusOK, messages)
}

// MarkRead 把訊息標記為已讀，重複呼叫結果相同
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	messageID, err := parseObjectID(mux.Vars(r)["messageId"], "messageId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	msg, err := h.messages.MarkRead(ctx, requester, messageID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, msg)
}

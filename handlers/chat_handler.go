package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"lawchat/backend/models"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessChatRequest 開啟一對一聊天的請求，participantModel 省略時為 User
type AccessChatRequest struct {
	UserID           string      `json:"userId" validate:"required"`
	ParticipantModel models.Kind `json:"participantModel" validate:"omitempty,oneof=User Lawyer"`
}

// CreateGroupRequest 建立群組的請求；users 可以是陣列或 JSON 字串
type CreateGroupRequest struct {
	Name  string          `json:"name" validate:"required"`
	Users json.RawMessage `json:"users" validate:"required"`
}

// RenameGroupRequest 群組改名的請求
type RenameGroupRequest struct {
	ChatID   string `json:"chatId" validate:"required"`
	ChatName string `json:"chatName" validate:"required"`
}

// GroupMemberRequest 新增或移除群組成員的請求
type GroupMemberRequest struct {
	ChatID           string      `json:"chatId" validate:"required"`
	UserID           string      `json:"userId" validate:"required"`
	ParticipantModel models.Kind `json:"participantModel" validate:"omitempty,oneof=User Lawyer"`
}

// PresenceEntry 是聊天成員的上線狀態
type PresenceEntry struct {
	models.ParticipantRef
	Online bool `json:"online"`
}

// AccessChat 取得或建立與另一位參與者的一對一聊天
func (h *Handler) AccessChat(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	var req AccessChatRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	other, err := participantFrom(req.UserID, req.ParticipantModel)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	chat, err := h.chats.FindOrCreateDirectChat(ctx, requester, other)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, chat)
}

// FetchChats 列出目前參與者的所有聊天
func (h *Handler) FetchChats(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	chats, err := h.chats.ListChats(ctx, requester)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	h.writeJSON(w, http.StatusOK, chats)
}

// CreateGroupChat 建立群組，建立者成為管理員
func (h *Handler) CreateGroupChat(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	var req CreateGroupRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	members, err := parseMembers(req.Users)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	chat, err := h.chats.CreateGroupChat(ctx, requester, req.Name, members)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, chat)
}

// parseMembers 接受 [{participantId, participantModel}] 或是同樣內容的 JSON 字串
func parseMembers(raw json.RawMessage) ([]models.ParticipantRef, error) {
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}
	var entries []struct {
		ParticipantID    string      `json:"participantId"`
		ParticipantModel models.Kind `json:"participantModel"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: invalid users format", models.ErrInvalidArgument)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: at least one other member is required", models.ErrInvalidArgument)
	}

	members := make([]models.ParticipantRef, 0, len(entries))
	for _, e := range entries {
		if e.ParticipantModel == "" {
			return nil, fmt.Errorf("%w: each user needs a participantModel", models.ErrInvalidArgument)
		}
		ref, err := models.NewParticipantRef(e.ParticipantID, e.ParticipantModel)
		if err != nil {
			return nil, err
		}
		members = append(members, ref)
	}
	return members, nil
}

// RenameGroup 修改群組名稱
func (h *Handler) RenameGroup(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	var req RenameGroupRequest
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

	chat, err := h.chats.RenameGroup(ctx, requester, chatID, req.ChatName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, chat)
}

// AddToGroup 把參與者加入群組
func (h *Handler) AddToGroup(w http.ResponseWriter, r *http.Request) {
	h.changeMembership(w, r, h.chats.AddMember)
}

// RemoveFromGroup 把參與者移出群組，成員也可以用它離開群組
func (h *Handler) RemoveFromGroup(w http.ResponseWriter, r *http.Request) {
	h.changeMembership(w, r, h.chats.RemoveMember)
}

type membershipChange func(ctx context.Context, requester models.ParticipantRef, chatID primitive.ObjectID, member models.ParticipantRef) (*models.Chat, error)

func (h *Handler) changeMembership(w http.ResponseWriter, r *http.Request, change membershipChange) {
	requester, ok := h.requester(w, r)
	if !ok {
		return
	}
	var req GroupMemberRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	chatID, err := parseObjectID(req.ChatID, "chatId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	member, err := participantFrom(req.UserID, req.ParticipantModel)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	chat, err := change(ctx, requester, chatID, member)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, chat)
}

// GetChat 取得單一聊天，只有成員可以讀取
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
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

	chat, err := h.chats.GetChat(ctx, chatID, requester)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, chat)
}

// ChatPresence 回報聊天成員中誰目前在線
func (h *Handler) ChatPresence(w http.ResponseWriter, r *http.Request) {
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

	chat, err := h.chats.GetChat(ctx, chatID, requester)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	online, err := h.presence.OnlineSet(ctx, chat.Users)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: presence lookup: %v", models.ErrTransient, err))
		return
	}

	entries := make([]PresenceEntry, 0, len(chat.Users))
	for _, u := range chat.Users {
		entries = append(entries, PresenceEntry{ParticipantRef: u, Online: online[u]})
	}
	h.writeJSON(w, http.StatusOK, entries)
}

package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes 註冊所有 API 路由；protect 是驗證 JWT 的中介軟體
func (h *Handler) RegisterRoutes(router *mux.Router, protect mux.MiddlewareFunc) {
	// 健康檢查路由
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "Backend is running!")
	}).Methods(http.MethodGet)

	// 註冊與登入 API 路由
	router.HandleFunc("/api/user", h.RegisterUser).Methods(http.MethodPost)
	router.HandleFunc("/api/user/login", h.LoginUser).Methods(http.MethodPost)

	chat := router.PathPrefix("/api/chat").Subrouter()
	chat.Use(protect)
	chat.HandleFunc("", h.AccessChat).Methods(http.MethodPost)
	chat.HandleFunc("", h.FetchChats).Methods(http.MethodGet)
	chat.HandleFunc("/group", h.CreateGroupChat).Methods(http.MethodPost)
	chat.HandleFunc("/rename", h.RenameGroup).Methods(http.MethodPut)
	chat.HandleFunc("/groupadd", h.AddToGroup).Methods(http.MethodPut)
	chat.HandleFunc("/groupremove", h.RemoveFromGroup).Methods(http.MethodPut)
	chat.HandleFunc("/{chatId}", h.GetChat).Methods(http.MethodGet)
	chat.HandleFunc("/{chatId}/presence", h.ChatPresence).Methods(http.MethodGet)

	message := router.PathPrefix("/api/message").Subrouter()
	message.Use(protect)
	message.HandleFunc("", h.SendMessage).Methods(http.MethodPost)
	message.HandleFunc("/{chatId}", h.AllMessages).Methods(http.MethodGet)
	message.HandleFunc("/{messageId}/read", h.MarkRead).Methods(http.MethodPut)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"lawchat/backend/models"
	"lawchat/backend/utils"

	"golang.org/x/crypto/bcrypt" // 用於密碼哈希
)

// AuthResponse 是註冊與登入成功後回傳的資料
type AuthResponse struct {
	ID               string      `json:"_id"`
	Name             string      `json:"name"`
	Email            string      `json:"email"`
	Pic              string      `json:"pic,omitempty"`
	ParticipantModel models.Kind `json:"participantModel"`
	Token            string      `json:"token"`
}

// RegisterUser 處理使用者註冊請求
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	// 哈希密碼
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.WithError(err).Error("Error hashing password")
		h.sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Pic:      req.Pic,
		Password: string(hashedPassword),
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	// email 的唯一索引負責擋下重複註冊
	if err := h.credentials.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			h.sendJSONError(w, "Email already registered", http.StatusConflict)
			return
		}
		h.writeError(w, r, err)
		return
	}

	ref := models.ParticipantRef{ID: user.ID, Kind: models.KindUser}
	h.log.WithField("participant", ref.Key()).Info("User registered successfully")
	h.respondWithToken(w, http.StatusCreated, ref, user.Name, user.Email, user.Pic)
}

// LoginUser 處理使用者或律師的登入請求
func (h *Handler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	kind := req.Kind
	if kind == "" {
		kind = models.KindUser
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	creds, err := h.credentials.FindCredentials(ctx, kind, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.sendJSONError(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		h.writeError(w, r, err)
		return
	}

	// 比較哈希後的密碼
	if err := bcrypt.CompareHashAndPassword([]byte(creds.Password), []byte(req.Password)); err != nil {
		h.sendJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	ref := models.ParticipantRef{ID: creds.ID, Kind: kind}
	h.log.WithField("participant", ref.Key()).Info("Logged in successfully")
	h.respondWithToken(w, http.StatusOK, ref, creds.Name, creds.Email, creds.Pic)
}

func (h *Handler) respondWithToken(w http.ResponseWriter, status int, ref models.ParticipantRef, name, email, pic string) {
	token, err := utils.GenerateJWT(ref, name, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.log.WithError(err).Error("Error generating token")
		h.sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, status, AuthResponse{
		ID:               ref.ID.Hex(),
		Name:             name,
		Email:            email,
		Pic:              pic,
		ParticipantModel: ref.Kind,
		Token:            token,
	})
}

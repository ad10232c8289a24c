package utils

import (
	"context"
	"errors"
	"time"

	"lawchat/backend/models"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParticipantKey 是儲存在 context 中的參與者的鍵
type contextKey string

const ParticipantKey contextKey = "participant"

// WithParticipant 把已驗證的參與者放進 context
func WithParticipant(ctx context.Context, ref models.ParticipantRef) context.Context {
	return context.WithValue(ctx, ParticipantKey, ref)
}

// GetParticipantFromContext 從 context 中提取參與者
func GetParticipantFromContext(ctx context.Context) (models.ParticipantRef, error) {
	ref, ok := ctx.Value(ParticipantKey).(models.ParticipantRef)
	if !ok {
		return models.ParticipantRef{}, errors.New("participant not found in context")
	}
	return ref, nil
}

// GetParticipantFromToken 從 JWT token 中提取參與者 (userId + kind)
func GetParticipantFromToken(tokenString string, jwtSecret string) (models.ParticipantRef, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return models.ParticipantRef{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.ParticipantRef{}, errors.New("invalid token claims")
	}

	userIDStr, ok := claims["userId"].(string)
	if !ok {
		return models.ParticipantRef{}, errors.New("user ID not found in token claims")
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		return models.ParticipantRef{}, errors.New("invalid user ID format in token")
	}

	// 舊的 token 沒有 kind，視為一般使用者
	kind := models.KindUser
	if k, ok := claims["kind"].(string); ok && k != "" {
		kind = models.Kind(k)
	}
	ref := models.ParticipantRef{ID: userID, Kind: kind}
	if err := ref.Validate(); err != nil {
		return models.ParticipantRef{}, err
	}
	return ref, nil
}

// GenerateJWT 為參與者生成 JWT Token
func GenerateJWT(ref models.ParticipantRef, name string, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId": ref.ID.Hex(), // 將 ObjectID 轉換為 Hex 字串儲存
		"kind":   string(ref.Kind),
		"name":   name,
		"exp":    time.Now().Add(ttl).Unix(),
		"iat":    time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.New("failed to sign token")
	}
	return tokenString, nil
}

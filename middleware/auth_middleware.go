package middleware

import (
	"net/http"
	"strings"

	"lawchat/backend/utils"

	"github.com/sirupsen/logrus"
)

// JWTMiddleware 驗證 JWT Token 並將參與者放入 context
func JWTMiddleware(jwtSecret string, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := BearerToken(r)
			if !ok {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			ref, err := utils.GetParticipantFromToken(tokenString, jwtSecret)
			if err != nil {
				logger.WithError(err).Debug("Invalid JWT token")
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.WithParticipant(r.Context(), ref)))
		})
	}
}

// BearerToken 從 Authorization: Bearer <token> 取出 token
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

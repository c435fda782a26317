package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/loopmarket/media-service/api/common"
)

const (
	ContextUploaderIDKey = "uploader_id"
	ContextUsernameKey   = "username"

	// MinJWTSecretLen HS256 签名密钥最小长度
	MinJWTSecretLen = 32
)

// ValidateJWTSecret 校验签名密钥强度
// 空密钥会让任何人都能伪造令牌，启动时必须拒绝
func ValidateJWTSecret(secret string) error {
	if len(secret) < MinJWTSecretLen {
		return fmt.Errorf("jwt secret must be at least %d characters, got %d", MinJWTSecretLen, len(secret))
	}
	return nil
}

// JWTAuth 校验主站签发的访问令牌
//
// 用户体系在主站服务，本服务只验签并取出 uploader_id，
// 双方共享 HS256 签名密钥。
func JWTAuth(secret string) gin.HandlerFunc {
	secretBytes := []byte(secret)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.RespondError(c, http.StatusUnauthorized, "No Authorization request header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.RespondError(c, http.StatusBadRequest, "Authorization field format error")
			c.Abort()
			return
		}

		if err := handleJwtAuth(c, parts[1], secretBytes); err != nil {
			common.RespondError(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}

		c.Next()
	}
}

func handleJwtAuth(c *gin.Context, token string, secret []byte) error {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return errors.New("invalid or expired token")
	}

	uploaderIDValue, ok := claims["user_id"]
	if !ok {
		return errors.New("user_id not found in token claims")
	}
	uploaderID, ok := uploaderIDValue.(float64)
	if !ok {
		return errors.New("user_id in token is not a valid number")
	}

	username, _ := claims["username"].(string)

	c.Set(ContextUploaderIDKey, uint(uploaderID))
	c.Set(ContextUsernameKey, username)

	return nil
}

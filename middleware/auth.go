package middleware

import (
	"consultant-agent-backend/config"
	"consultant-agent-backend/model"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const grantContextKey = "grant"

// Grant 请求方的授权信息，由JWT claims解出
type Grant struct {
	Email       string   `json:"email"`
	TenantID    string   `json:"tenant_id"`
	AccessLevel int      `json:"access_level"`
	Tags        []string `json:"tags"`
}

func (g Grant) Policy() model.AccessPolicy {
	return model.AccessPolicy{
		Level: g.AccessLevel,
		Tags:  g.Tags,
	}
}

type Claims struct {
	Grant
	jwt.RegisteredClaims
}

func GenerateToken(grant Grant, ttl time.Duration) (string, error) {
	claims := Claims{
		Grant: grant,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	secretKey := []byte(config.Cfg.JWT.SecretKey)
	return token.SignedString(secretKey)
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			slog.Info("Authorization header required")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			slog.Info("Invalid authorization format")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		tokenString := parts[1]
		claims := &Claims{}

		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(config.Cfg.JWT.SecretKey), nil
		})

		if err != nil || !token.Valid {
			slog.Info("Invalid token", "err", err, "user_email", claims.Email)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(grantContextKey, claims.Grant)
		c.Next()
	}
}

// GetGrant 从请求上下文取出授权信息
func GetGrant(c *gin.Context) Grant {
	grant, _ := c.Get(grantContextKey)
	g, _ := grant.(Grant)
	return g
}

package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"emmie-backend/config"
	"emmie-backend/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

var (
	ErrMissingAuthHeader = errors.New("authorization header required")
	ErrInvalidAuthFormat = errors.New("invalid authorization format")
	ErrInvalidToken      = errors.New("invalid token")
)

// Claims 携带用户邮箱与所属组织，下游按 org_id 做数据隔离
type Claims struct {
	Email string `json:"email"`
	OrgID string `json:"org_id"`
	jwt.RegisteredClaims
}

func tokenTTL() time.Duration {
	if config.Cfg.JWT.TTLHours > 0 {
		return time.Duration(config.Cfg.JWT.TTLHours) * time.Hour
	}
	return defaultTokenTTL
}

func GenerateToken(email string) (string, error) {
	claims := Claims{
		Email: email,
		OrgID: config.Cfg.Org.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL())),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	secretKey := []byte(config.Cfg.JWT.SecretKey)
	return token.SignedString(secretKey)
}

// ParseToken 校验签名算法与有效期，返回令牌中的声明
func ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.Cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			slog.Info(ErrMissingAuthHeader.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Response{
				Msg: ErrMissingAuthHeader.Error(),
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			slog.Info(ErrInvalidAuthFormat.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Response{
				Msg: ErrInvalidAuthFormat.Error(),
			})
			return
		}

		claims, err := ParseToken(parts[1])
		if err != nil {
			slog.Info(ErrInvalidToken.Error(), "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Response{
				Msg: ErrInvalidToken.Error(),
			})
			return
		}

		c.Set("email", claims.Email)
		c.Set("org_id", claims.OrgID)
		c.Next()
	}
}

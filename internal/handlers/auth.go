package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"creator-payments/pkg/common"
)

const ownerIDKey = "owner_id"

// Claims is the payload of tokens issued by the identity service.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

func parseToken(secret, header string) (string, error) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.New("missing bearer token")
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.UserID == "" {
		return "", errors.New("invalid token")
	}
	return claims.UserID, nil
}

// RequireOwner rejects requests without a valid bearer token and stores the
// authenticated user id on the context.
func RequireOwner(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("Unauthorized: No token provided"))
			return
		}
		userID, err := parseToken(secret, header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("Unauthorized: Invalid or expired token"))
			return
		}
		c.Set(ownerIDKey, userID)
		c.Next()
	}
}

// OptionalOwner authenticates the request when a token is present but never rejects it.
func OptionalOwner(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, err := parseToken(secret, c.GetHeader("Authorization")); err == nil {
			c.Set(ownerIDKey, userID)
		}
		c.Next()
	}
}

func ownerID(c *gin.Context) string {
	return c.GetString(ownerIDKey)
}

package server

import (
	"errors"
	"net/http"
	"strings"

	"bidvista/services/auction/helpers"
	"bidvista/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the cookie the identity provider sets after login.
const SessionCookie = "session"

var errNoToken = errors.New("missing session token")

// AuthMiddleware verifies the HS256 session token minted by the
// external identity provider and stores the caller's user ID in the
// request context. Requests without a valid token get 401.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, err, "unauthorized")
			c.Abort()
			return
		}

		userID, err := verifyToken(token, secret)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, err, "unauthorized")
			c.Abort()
			return
		}

		c.Set(helpers.UserIDKey, userID)
		c.Next()
	}
}

// extractToken reads the session cookie, falling back to a bearer header.
func extractToken(c *gin.Context) (string, error) {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie, nil
	}
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok && after != "" {
		return after, nil
	}
	return "", errNoToken
}

func verifyToken(token, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.Subject, nil
}

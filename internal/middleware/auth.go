// Package middleware holds gin.HandlerFunc cross-cutting concerns:
// CORS (cors.go) and the two auth guards below. PlayerAuth generalizes
// the teacher's OTP/JWT verification in handlers/auth.go's
// AuthMiddleware — parse a credential off the request, validate it,
// stash an identity in the gin context — replacing the phone+JWT
// credential with an EIP-191 address+signature one checked through
// internal/auth.Verify. AdminAuth keeps the teacher's constant-time
// secret comparison (handlers/auth.go's subtle.ConstantTimeCompare
// over an OTP hash) but compares against a single shared operator
// secret instead of a per-admin OTP, since spec's admin surface has no
// multi-operator account model.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dorkfun/matchserver/internal/auth"
	"github.com/dorkfun/matchserver/internal/config"
)

const (
	headerPlayerAddress = "X-Player-Address"
	headerSignature     = "X-Player-Signature"
	headerTimestamp     = "X-Player-Timestamp"

	ctxPlayerID = "playerId"
)

// PlayerAuth validates the EIP-191 personal-sign credential carried on
// X-Player-Address/X-Player-Signature/X-Player-Timestamp and sets
// "playerId" in the gin context on success.
func PlayerAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID := c.GetHeader(headerPlayerAddress)
		sig := c.GetHeader(headerSignature)
		tsHeader := c.GetHeader(headerTimestamp)

		if playerID == "" || sig == "" || tsHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth_missing_signature"})
			return
		}
		ts, err := strconv.ParseInt(tsHeader, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth_bad_address"})
			return
		}
		if err := auth.Verify(playerID, sig, ts, time.Now()); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth_invalid_signature"})
			return
		}

		c.Set(ctxPlayerID, strings.ToLower(playerID))
		c.Next()
	}
}

// PlayerID reads the identity PlayerAuth attached to the request.
func PlayerID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxPlayerID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// AdminAuth validates a bearer secret against cfg.AdminSecret.
func AdminAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing admin token"})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.AdminSecret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin token"})
			return
		}
		c.Next()
	}
}

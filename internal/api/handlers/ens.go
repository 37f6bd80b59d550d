package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dorkfun/matchserver/internal/ens"
)

const maxENSBatch = 50

// ResolveENS implements "POST /api/ens/resolve": batch name resolution
// (at most 50 addresses per request).
func ResolveENS(resolver ens.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Addresses []string `json:"addresses"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "addresses required"})
			return
		}
		if len(req.Addresses) > maxENSBatch {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at most 50 addresses per request"})
			return
		}
		names := resolver.ResolveBatch(c.Request.Context(), req.Addresses)
		c.JSON(http.StatusOK, gin.H{"names": names})
	}
}

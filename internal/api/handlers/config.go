package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MinimumStake implements "GET /api/config/minimum-stake": the
// Escrow contract's configured minimum, read through the same
// stakeMinimum closure the Match Service validates joinQueue calls
// against, so the Edge API and the matchmaking gate can never disagree.
func MinimumStake(stakeMinimum func(ctx context.Context, gameID string) (string, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameID := c.Query("gameId")
		if stakeMinimum == nil {
			c.JSON(http.StatusOK, gin.H{"minimumStake": "0"})
			return
		}
		min, err := stakeMinimum(c.Request.Context(), gameID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"minimumStake": min})
	}
}

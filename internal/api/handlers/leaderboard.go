package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dorkfun/matchserver/internal/store"
)

// Leaderboard implements "GET /api/leaderboard" and "GET
// /api/leaderboard/:gameId": paginated per-game Elo rankings.
func Leaderboard(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if st == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "leaderboard unavailable"})
			return
		}
		gameID := c.Param("gameId")
		if gameID == "" {
			gameID = c.Query("gameId")
		}
		limit := parseIntDefault(c.Query("limit"), 50, 1, 200)
		offset := parseIntDefault(c.Query("offset"), 0, 0, 1<<30)

		rows, err := st.Leaderboard(c.Request.Context(), gameID, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"leaderboard": rows, "gameId": gameID, "limit": limit, "offset": offset})
	}
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dorkfun/matchserver/internal/matchservice"
	"github.com/dorkfun/matchserver/internal/store"
)

// ListLiveMatches returns every in-memory match ("GET /api/matches").
func ListLiveMatches(matches *matchservice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"matches": matches.ListLive()})
	}
}

// GetMatch returns one match's detail, live if still in memory,
// falling back to the persisted archive otherwise ("GET
// /api/matches/:id").
func GetMatch(matches *matchservice.Service, st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID := c.Param("id")

		if m, ok := matches.Get(matchID); ok {
			c.JSON(http.StatusOK, m.Summary())
			return
		}

		if st == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "match_not_found"})
			return
		}
		row, err := st.GetMatch(c.Request.Context(), matchID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "match_not_found"})
			return
		}
		c.JSON(http.StatusOK, row)
	}
}

// ArchiveMatches lists completed matches, newest first ("GET
// /api/archive?gameId&limit&offset").
func ArchiveMatches(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if st == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive unavailable"})
			return
		}
		gameID := c.Query("gameId")
		limit := parseIntDefault(c.Query("limit"), 20, 1, 100)
		offset := parseIntDefault(c.Query("offset"), 0, 0, 1<<30)

		rows, err := st.Archive(c.Request.Context(), gameID, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"matches": rows, "limit": limit, "offset": offset})
	}
}

func parseIntDefault(raw string, def, min, max int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

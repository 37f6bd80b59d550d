package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dorkfun/matchserver/internal/gamemodule"
)

// ListGames returns the registered game catalog ("GET /api/games").
func ListGames(registry *gamemodule.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"games": registry.List()})
	}
}

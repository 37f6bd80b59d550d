package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dorkfun/matchserver/internal/matchmaking"
)

// QueueSnapshot implements "GET /api/queues": per-(gameId,stake) queue
// depth, for a lobby screen's "N players waiting" readout.
func QueueSnapshot(queue *matchmaking.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"queues": queue.Snapshot()})
	}
}

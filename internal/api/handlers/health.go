package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dorkfun/matchserver/internal/matchservice"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck reports liveness and the emergency kill-switch flag
// (spec's "GET /health/check — liveness + emergency flag").
func HealthCheck(matches *matchservice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   "dork.fun-matchserver",
			"version":   version,
			"uptime":    time.Since(startTime).String(),
			"emergency": matches.EmergencyActive(),
		})
	}
}

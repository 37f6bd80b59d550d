package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dorkfun/matchserver/internal/matchservice"
)

// AdminEmergencyDrawAll implements "POST /api/admin/emergency-draw-all"
// *admin*: the kill switch. Every live match is drawn, settled as a
// no-fault draw, and new match creation is blocked until resume.
func AdminEmergencyDrawAll(matches *matchservice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		n := matches.EmergencyDrawAll(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"drawn": n})
	}
}

// AdminEmergencyResume implements "POST /api/admin/emergency-resume".
func AdminEmergencyResume(matches *matchservice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		matches.ResumeFromEmergency()
		c.JSON(http.StatusOK, gin.H{"resumed": true})
	}
}

// AdminEmergencyStatus implements "GET /api/admin/emergency-status".
func AdminEmergencyStatus(matches *matchservice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"emergency": matches.EmergencyActive()})
	}
}

package api

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/dorkfun/matchserver/internal/api/handlers"
	"github.com/dorkfun/matchserver/internal/config"
	"github.com/dorkfun/matchserver/internal/ens"
	"github.com/dorkfun/matchserver/internal/gamemodule"
	"github.com/dorkfun/matchserver/internal/matchmaking"
	"github.com/dorkfun/matchserver/internal/matchservice"
	"github.com/dorkfun/matchserver/internal/middleware"
	"github.com/dorkfun/matchserver/internal/store"
	"github.com/dorkfun/matchserver/internal/ws"
)

// StakeMinimumFunc reads the Escrow contract's minimum stake for a
// gameId. Both the Match Service's joinQueue validation and the
// Edge API's /api/config/minimum-stake endpoint call through this same
// closure so they can never disagree.
type StakeMinimumFunc func(ctx context.Context, gameID string) (string, error)

// SetupRoutes configures the full Edge API surface of spec §6 plus the
// WebSocket upgrade paths of spec §4.5, generalizing the teacher's
// SetupRoutes (same gin.Engine, same v1 := router.Group(...) shape).
func SetupRoutes(router *gin.Engine, cfg *config.Config, matches *matchservice.Service, registry *gamemodule.Registry, queue *matchmaking.Queue, st *store.Store, wsServer *ws.Server, tokens *ws.Tokens, resolver ens.Resolver, stakeMinimum StakeMinimumFunc) {
	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] Aggressive no-cache headers enabled for all routes")
	}

	router.Use(middleware.CORSMiddleware(cfg))

	router.GET("/health/check", handlers.HealthCheck(matches))

	router.GET("/ws/game/:matchId", func(c *gin.Context) {
		wsServer.HandleGame(c.Writer, c.Request, c.Param("matchId"))
	})
	router.GET("/ws/spectate/:matchId", func(c *gin.Context) {
		wsServer.HandleSpectate(c.Writer, c.Request, c.Param("matchId"))
	})

	v1 := router.Group("/api")
	{
		v1.GET("/health", handlers.HealthCheck(matches))
		v1.GET("/games", handlers.ListGames(registry))

		v1.GET("/matches", handlers.ListLiveMatches(matches))
		v1.GET("/matches/:id", handlers.GetMatch(matches, st))
		v1.GET("/archive", handlers.ArchiveMatches(st))

		v1.POST("/ens/resolve", handlers.ResolveENS(resolver))

		v1.POST("/matchmaking/join", middleware.PlayerAuth(cfg), handlers.JoinQueue(matches, tokens))
		v1.POST("/matchmaking/leave", handlers.LeaveQueue(matches))
		v1.GET("/queues", handlers.QueueSnapshot(queue))

		v1.POST("/matches/private", middleware.PlayerAuth(cfg), handlers.CreatePrivateMatch(matches))
		v1.POST("/matches/accept", middleware.PlayerAuth(cfg), handlers.AcceptPrivateMatch(matches, tokens))
		v1.POST("/matches/active", middleware.PlayerAuth(cfg), handlers.CheckActiveMatch(matches, tokens))

		v1.GET("/leaderboard", handlers.Leaderboard(st))
		v1.GET("/leaderboard/:gameId", handlers.Leaderboard(st))

		v1.GET("/config/minimum-stake", handlers.MinimumStake(stakeMinimum))

		admin := v1.Group("/admin", middleware.AdminAuth(cfg))
		{
			admin.POST("/emergency-draw-all", handlers.AdminEmergencyDrawAll(matches))
			admin.POST("/emergency-resume", handlers.AdminEmergencyResume(matches))
			admin.GET("/emergency-status", handlers.AdminEmergencyStatus(matches))
		}
	}
}

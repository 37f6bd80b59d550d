package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dorkfun/matchserver/internal/apperr"
	"github.com/dorkfun/matchserver/internal/matchservice"
	"github.com/dorkfun/matchserver/internal/middleware"
	"github.com/dorkfun/matchserver/internal/ws"
)

// JoinQueue implements "POST /api/matchmaking/join" *auth*: pair the
// caller against the (gameId, stake) queue, or enqueue them.
func JoinQueue(matches *matchservice.Service, tokens *ws.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, ok := middleware.PlayerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "auth_missing_signature"})
			return
		}
		var req struct {
			GameID string `json:"gameId"`
			Stake  string `json:"stake"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "gameId and stake required"})
			return
		}

		result, err := matches.JoinQueue(c.Request.Context(), playerID, req.GameID, req.Stake)
		if err != nil {
			respondAppErr(c, err)
			return
		}

		if !result.Matched {
			c.JSON(http.StatusOK, gin.H{"queued": true, "ticket": result.Ticket})
			return
		}

		resp := gin.H{"matched": true, "matchId": result.MatchID, "opponent": result.Opponent}
		if tokens != nil {
			resp["wsToken"] = tokens.Issue(result.MatchID, playerID)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// LeaveQueue implements "POST /api/matchmaking/leave".
func LeaveQueue(matches *matchservice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			GameID string `json:"gameId"`
			Stake  string `json:"stake"`
			Ticket string `json:"ticket"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "gameId, stake, and ticket required"})
			return
		}
		ok := matches.LeaveQueue(req.GameID, req.Stake, req.Ticket)
		c.JSON(http.StatusOK, gin.H{"left": ok})
	}
}

// CreatePrivateMatch implements "POST /api/matches/private" *auth*.
func CreatePrivateMatch(matches *matchservice.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, ok := middleware.PlayerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "auth_missing_signature"})
			return
		}
		var req struct {
			GameID string `json:"gameId"`
			Stake  string `json:"stake"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "gameId and stake required"})
			return
		}
		code, err := matches.CreatePrivateMatch(req.GameID, req.Stake, playerID)
		if err != nil {
			respondAppErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"inviteCode": code})
	}
}

// AcceptPrivateMatch implements "POST /api/matches/accept" *auth*.
func AcceptPrivateMatch(matches *matchservice.Service, tokens *ws.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, ok := middleware.PlayerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "auth_missing_signature"})
			return
		}
		var req struct {
			InviteCode string `json:"inviteCode"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "inviteCode required"})
			return
		}
		matchID, err := matches.AcceptPrivateMatch(c.Request.Context(), req.InviteCode, playerID)
		if err != nil {
			respondAppErr(c, err)
			return
		}
		resp := gin.H{"matchId": matchID}
		if tokens != nil {
			resp["wsToken"] = tokens.Issue(matchID, playerID)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// CheckActiveMatch implements "POST /api/matches/active" *auth*: the
// reconnection-discovery endpoint a client polls after a dropped
// socket to learn whether it still has a live match to rejoin.
func CheckActiveMatch(matches *matchservice.Service, tokens *ws.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, ok := middleware.PlayerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "auth_missing_signature"})
			return
		}
		entry, ok := matches.CheckActiveMatch(c.Request.Context(), playerID)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"active": false})
			return
		}
		resp := gin.H{"active": true, "matchId": entry.MatchID, "gameId": entry.GameID, "stake": entry.Stake}
		if tokens != nil {
			resp["wsToken"] = tokens.Issue(entry.MatchID, playerID)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// respondAppErr maps a tagged apperr.Error to its HTTP status, or 500
// for anything else.
func respondAppErr(c *gin.Context, err error) {
	if ae, ok := apperr.As(err); ok {
		c.JSON(apperr.HTTPStatus(ae.Tag), gin.H{"error": string(ae.Tag), "message": ae.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
}

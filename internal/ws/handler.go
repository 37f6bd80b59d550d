package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/dorkfun/matchserver/internal/apperr"
	"github.com/dorkfun/matchserver/internal/auth"
	"github.com/dorkfun/matchserver/internal/gamemodule"
	"github.com/dorkfun/matchserver/internal/matchservice"
	"github.com/dorkfun/matchserver/internal/room"
	"github.com/dorkfun/matchserver/internal/transcript"
)

// HelloGrace is the window a client has to send HELLO after opening
// the transport before the server gives up on the socket (spec §4.5:
// "within a short grace window (≈10 s)").
const HelloGrace = 10 * time.Second

// SyncInterval is how often a connected client is expected to send a
// SYNC_REQUEST; purely documentary here, the server only reacts to
// whatever arrives.
const SyncInterval = 8 * time.Second

type helloPayload struct {
	Token     string `json:"token"`
	PlayerID  string `json:"playerId"`
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
}

type syncRequestPayload struct {
	ClientIsMyTurn bool `json:"clientIsMyTurn"`
}

type syncResponsePayload struct {
	YourTurn bool `json:"yourTurn"`
}

type actionCommitPayload struct {
	Action json.RawMessage `json:"action"`
}

type chatPayload struct {
	Text string `json:"text"`
}

// Server wires the transport to the Match Service, the room registry,
// WS Token issuance, and signed-HELLO auth. One Server is shared across
// every /ws/game and /ws/spectate upgrade.
type Server struct {
	matches *matchservice.Service
	rooms   *room.Manager
	tokens  *Tokens
	chats   *chatLogs
}

func NewServer(matches *matchservice.Service, rooms *room.Manager, tokens *Tokens) *Server {
	return &Server{matches: matches, rooms: rooms, tokens: tokens, chats: newChatLogs()}
}

// HandleGame upgrades a player connection to /ws/game/{matchId}.
func (s *Server) HandleGame(w http.ResponseWriter, r *http.Request, matchID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}
	sess := newSession(conn)
	go sess.writePump()
	s.runPlayerSession(sess, matchID)
}

// HandleSpectate upgrades a read-only connection to /ws/spectate/{matchId}.
func (s *Server) HandleSpectate(w http.ResponseWriter, r *http.Request, matchID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}
	sess := newSession(conn)
	go sess.writePump()
	s.runSpectatorSession(sess, matchID)
}

func (s *Server) runPlayerSession(sess *session, matchID string) {
	defer sess.close()

	playerID, ok := s.awaitHello(sess, matchID, false)
	if !ok {
		return
	}
	defer s.rooms.Leave(matchID, playerID, sess)

	s.sendGameState(sess, matchID, playerID)
	s.sendFrame(sess, TypeChatHistory, matchID, map[string]interface{}{"messages": s.chats.history(matchID)}, 0)

	conn := sess.conn
	conn.SetReadLimit(65536)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}
		s.dispatchPlayerFrame(sess, matchID, playerID, f)
	}
}

func (s *Server) runSpectatorSession(sess *session, matchID string) {
	defer sess.close()

	if _, ok := s.matches.Get(matchID); !ok {
		s.sendError(sess, matchID, apperr.MatchNotFound, "no such match")
		return
	}
	spectatorID := s.tokens.Issue(matchID, "spectator")
	s.rooms.JoinSpectator(matchID, spectatorID, sess)
	defer s.rooms.LeaveSpectator(matchID, spectatorID)

	s.sendSpectateState(sess, matchID)

	conn := sess.conn
	conn.SetReadLimit(65536)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		// Spectators are read-only past SPECTATE_JOIN (spec §4.5 step 3).
	}
}

// awaitHello blocks for the first inbound frame, enforcing HelloGrace,
// and validates it as either a first-attach (token) or reattach
// (signed) HELLO. On success it registers the session in the room and
// returns the authenticated playerID.
func (s *Server) awaitHello(sess *session, matchID string, _ bool) (string, bool) {
	sess.conn.SetReadDeadline(time.Now().Add(HelloGrace))
	_, raw, err := sess.conn.ReadMessage()
	if err != nil {
		return "", false
	}
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil || f.Type != TypeHello {
		s.sendError(sess, matchID, apperr.TransportHelloTimeout, "expected HELLO")
		return "", false
	}
	var hello helloPayload
	if err := json.Unmarshal(f.Payload, &hello); err != nil {
		s.sendError(sess, matchID, apperr.TransportInvalidToken, "malformed HELLO payload")
		return "", false
	}

	if hello.Token != "" {
		if !s.tokens.Consume(hello.Token, matchID, hello.PlayerID) {
			s.sendError(sess, matchID, apperr.TransportInvalidToken, "invalid or expired token")
			return "", false
		}
	} else {
		if err := auth.Verify(hello.PlayerID, hello.Signature, hello.Timestamp, time.Now()); err != nil {
			s.sendError(sess, matchID, apperr.TransportInvalidToken, "reattach signature invalid")
			return "", false
		}
	}

	m, ok := s.matches.Get(matchID)
	if !ok {
		s.sendError(sess, matchID, apperr.MatchNotFound, "no such match")
		return "", false
	}
	isPlayer := false
	for _, p := range m.Players {
		if p == hello.PlayerID {
			isPlayer = true
			break
		}
	}
	if !isPlayer {
		s.sendError(sess, matchID, apperr.TransportInvalidToken, "not a participant in this match")
		return "", false
	}

	// Reconnect-replaces-old-socket: Join silently takes over the slot.
	// The old session is not closed here; the room just stops addressing it.
	s.rooms.Join(matchID, hello.PlayerID, sess)
	return hello.PlayerID, true
}

func (s *Server) dispatchPlayerFrame(sess *session, matchID, playerID string, f Frame) {
	ctx := context.Background()
	switch f.Type {
	case TypeActionCommit:
		var p actionCommitPayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			s.sendError(sess, matchID, apperr.MatchInvalidAction, "malformed action payload")
			return
		}
		entry, err := s.matches.ApplyAction(ctx, matchID, playerID, p.Action, nowMs())
		if err != nil {
			s.sendAppErr(sess, matchID, err)
			return
		}
		s.broadcastStepResult(matchID, entry)

	case TypeSyncRequest:
		var p syncRequestPayload
		json.Unmarshal(f.Payload, &p)
		s.handleSync(sess, matchID, playerID)

	case TypeChat:
		var p chatPayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return
		}
		msg := ChatMessage{PlayerID: playerID, Text: p.Text, Timestamp: nowMs()}
		s.chats.append(matchID, msg)
		s.rooms.Broadcast(matchID, Frame{Type: TypeChat, MatchID: matchID, Payload: marshalPayload(msg), Timestamp: nowMs()})

	case TypeForfeit:
		if err := s.matches.Forfeit(ctx, matchID, playerID); err != nil {
			s.sendAppErr(sess, matchID, err)
		}

	default:
		s.sendError(sess, matchID, apperr.MatchInvalidAction, "unrecognized frame type")
	}
}

func (s *Server) handleSync(sess *session, matchID, playerID string) {
	m, ok := s.matches.Get(matchID)
	if !ok {
		s.sendError(sess, matchID, apperr.MatchNotFound, "no such match")
		return
	}
	yourTurn := false
	if m.Orchestrator != nil {
		obs := m.Orchestrator.ObservationFor(playerID)
		var parsed map[string]interface{}
		if json.Unmarshal(obs, &parsed) == nil {
			if ct, ok := parsed["currentTurn"].(string); ok {
				yourTurn = ct == playerID
			}
		}
	}
	s.sendFrame(sess, TypeSyncResponse, matchID, syncResponsePayload{YourTurn: yourTurn}, 0)
	s.sendGameState(sess, matchID, playerID)
}

func (s *Server) broadcastStepResult(matchID string, entry transcript.Entry) {
	m, ok := s.matches.Get(matchID)
	if !ok {
		return
	}
	for _, p := range m.Players {
		obs := m.Orchestrator.ObservationFor(p)
		frame := Frame{
			Type:      TypeStepResult,
			MatchID:   matchID,
			Payload:   marshalPayload(map[string]interface{}{"observation": json.RawMessage(obs), "action": entry.Action}),
			Sequence:  entry.Sequence,
			PrevHash:  entry.PrevHash.Hex(),
			Timestamp: nowMs(),
		}
		s.rooms.SendToPlayer(matchID, p, frame)
	}

	if m.Orchestrator.IsTerminal() {
		s.broadcastGameOver(matchID, m.Orchestrator.Outcome(), entry.Sequence, entry.PrevHash.Hex())
	}
}

// broadcastGameOver sends the single, well-formed GAME_OVER frame for
// a match's end, whether the caller has a specific terminal
// transcript.Entry at hand (broadcastStepResult) or not (the Match
// Service's MatchOver notification for forfeit/emergency/stale
// timeout, where sequence/prevHash are read off the transcript's
// current head instead).
func (s *Server) broadcastGameOver(matchID string, outcome gamemodule.Outcome, sequence int, prevHash string) {
	s.rooms.Broadcast(matchID, Frame{
		Type:      TypeGameOver,
		MatchID:   matchID,
		Payload:   marshalPayload(outcome),
		Sequence:  sequence,
		PrevHash:  prevHash,
		Timestamp: nowMs(),
	})
	s.chats.drop(matchID)
}

func (s *Server) sendGameState(sess *session, matchID, playerID string) {
	m, ok := s.matches.Get(matchID)
	if !ok {
		s.sendError(sess, matchID, apperr.MatchNotFound, "no such match")
		return
	}
	var obs json.RawMessage
	if m.Orchestrator != nil {
		obs = json.RawMessage(m.Orchestrator.ObservationFor(playerID))
	}
	s.sendFrame(sess, TypeGameState, matchID, map[string]interface{}{"observation": obs, "status": m.Status}, 0)
}

func (s *Server) sendSpectateState(sess *session, matchID string) {
	m, ok := s.matches.Get(matchID)
	if !ok {
		return
	}
	var obs json.RawMessage
	if m.Orchestrator != nil && len(m.Players) > 0 {
		obs = json.RawMessage(m.Orchestrator.ObservationFor(m.Players[0]))
	}
	s.sendFrame(sess, TypeSpectateState, matchID, map[string]interface{}{"observation": obs, "status": m.Status}, 0)
}

func (s *Server) sendFrame(sess *session, typ, matchID string, payload interface{}, sequence int) {
	sess.Send(marshalPayload(Frame{
		Type:      typ,
		MatchID:   matchID,
		Payload:   marshalPayload(payload),
		Sequence:  sequence,
		Timestamp: nowMs(),
	}))
}

func (s *Server) sendError(sess *session, matchID string, tag apperr.Tag, message string) {
	s.sendFrame(sess, TypeError, matchID, map[string]string{"code": string(tag), "message": message}, 0)
}

func (s *Server) sendAppErr(sess *session, matchID string, err error) {
	if e, ok := apperr.As(err); ok {
		s.sendError(sess, matchID, e.Tag, e.Message)
		return
	}
	s.sendError(sess, matchID, apperr.Internal, err.Error())
}

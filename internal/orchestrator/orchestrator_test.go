package orchestrator

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dorkfun/matchserver/internal/gamemodule"
	"github.com/dorkfun/matchserver/internal/gamemodule/tictactoe"
)

func newTicTacToeMatch(t *testing.T) *Orchestrator {
	t.Helper()
	o, err := New("match-1", tictactoe.New(), []string{"alice", "bob"}, "seed", gamemodule.InitConfig{GameID: "tictactoe"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func cellAction(cell int) gamemodule.Action {
	b, _ := json.Marshal(map[string]int{"cell": cell})
	return b
}

func TestSubmitActionRejectsOutOfTurnPlayer(t *testing.T) {
	o := newTicTacToeMatch(t)
	_, err := o.SubmitAction("bob", cellAction(0), 1)
	if !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
}

func TestSubmitActionRejectsInvalidCellWithoutMutatingState(t *testing.T) {
	o := newTicTacToeMatch(t)
	before := o.State
	_, err := o.SubmitAction("alice", cellAction(99), 1)
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	if string(o.State) != string(before) {
		t.Error("a rejected action must not mutate the match state")
	}
}

func TestSubmitActionAppendsTranscriptEntryOnSuccess(t *testing.T) {
	o := newTicTacToeMatch(t)
	entry, err := o.SubmitAction("alice", cellAction(0), 1000)
	if err != nil {
		t.Fatalf("SubmitAction: %v", err)
	}
	if entry.Sequence != 0 {
		t.Errorf("expected sequence 0, got %d", entry.Sequence)
	}
	if len(o.Transcript.Entries) != 1 {
		t.Fatalf("expected 1 transcript entry, got %d", len(o.Transcript.Entries))
	}
}

func TestSubmitActionRejectsAfterGameOver(t *testing.T) {
	o := newTicTacToeMatch(t)
	// alice: 0, bob: 3, alice: 1, bob: 4, alice: 2 -> alice wins top row
	moves := []struct {
		player string
		cell   int
	}{
		{"alice", 0}, {"bob", 3}, {"alice", 1}, {"bob", 4}, {"alice", 2},
	}
	for _, mv := range moves {
		if _, err := o.SubmitAction(mv.player, cellAction(mv.cell), 1); err != nil {
			t.Fatalf("SubmitAction(%s, %d): %v", mv.player, mv.cell, err)
		}
	}
	if !o.IsTerminal() {
		t.Fatal("expected match to be terminal after three in a row")
	}
	outcome := o.Outcome()
	if outcome.Winner != "alice" {
		t.Errorf("expected alice to win, got winner=%q", outcome.Winner)
	}

	_, err := o.SubmitAction("bob", cellAction(5), 1)
	if !errors.Is(err, ErrAlreadyOver) {
		t.Fatalf("expected ErrAlreadyOver, got %v", err)
	}
}

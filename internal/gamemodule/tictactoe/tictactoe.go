// Package tictactoe implements the reference 2-player game module
// used in the worked example of spec §8 scenario 1.
package tictactoe

import (
	"encoding/json"
	"fmt"

	"github.com/dorkfun/matchserver/internal/gamemodule"
)

const GameID = "tictactoe"

type cellState struct {
	Board       [9]string `json:"board"`
	Players     []string  `json:"players"`
	CurrentTurn string    `json:"currentTurn"`
	Winner      string    `json:"winner,omitempty"`
	Draw        bool      `json:"draw,omitempty"`
	WinLine     []int     `json:"winLine,omitempty"`
}

type action struct {
	Cell int `json:"cell"`
}

// Module implements gamemodule.Module for tic-tac-toe.
type Module struct{}

// New builds a tictactoe module.
func New() *Module { return &Module{} }

func (Module) Metadata() gamemodule.Metadata {
	return gamemodule.Metadata{
		GameID:      GameID,
		DisplayName: "Tic-Tac-Toe",
		Description: "Classic 3x3 grid, three in a row wins.",
		MinPlayers:  2,
		MaxPlayers:  2,
	}
}

func (Module) Init(_ gamemodule.InitConfig, players []string, _ string) (gamemodule.State, error) {
	if len(players) != 2 {
		return nil, fmt.Errorf("tictactoe: requires exactly 2 players, got %d", len(players))
	}
	st := cellState{
		Board:       [9]string{},
		Players:     players,
		CurrentTurn: players[0],
	}
	return encode(st)
}

func (m Module) ValidateAction(state gamemodule.State, playerID string, act gamemodule.Action) bool {
	st, err := decodeState(state)
	if err != nil {
		return false
	}
	if m.IsTerminal(state) {
		return false
	}
	if st.CurrentTurn != playerID {
		return false
	}
	a, err := decodeAction(act)
	if err != nil {
		return false
	}
	if a.Cell < 0 || a.Cell > 8 {
		return false
	}
	return st.Board[a.Cell] == ""
}

func (m Module) ApplyAction(state gamemodule.State, playerID string, act gamemodule.Action, _ *gamemodule.Rand) (gamemodule.State, error) {
	if !m.ValidateAction(state, playerID, act) {
		return nil, fmt.Errorf("tictactoe: invariant breach: apply called on invalid action")
	}
	st, err := decodeState(state)
	if err != nil {
		return nil, err
	}
	a, err := decodeAction(act)
	if err != nil {
		return nil, err
	}

	mark := "X"
	if playerID == st.Players[1] {
		mark = "O"
	}
	st.Board[a.Cell] = mark

	if line, ok := winningLine(st.Board, mark); ok {
		st.Winner = playerID
		st.WinLine = line
	} else if boardFull(st.Board) {
		st.Draw = true
	} else {
		st.CurrentTurn = opponent(st.Players, playerID)
	}

	return encode(st)
}

func (Module) IsTerminal(state gamemodule.State) bool {
	st, err := decodeState(state)
	if err != nil {
		return false
	}
	return st.Winner != "" || st.Draw
}

func (m Module) GetOutcome(state gamemodule.State) gamemodule.Outcome {
	st, err := decodeState(state)
	if err != nil {
		return gamemodule.Outcome{}
	}
	if st.Draw {
		return gamemodule.Outcome{Draw: true, Reason: "draw"}
	}
	if st.Winner != "" {
		return gamemodule.Outcome{Winner: st.Winner, Reason: "three_in_a_row"}
	}
	return gamemodule.Outcome{}
}

func (Module) GetObservation(state gamemodule.State, _ string) gamemodule.Observation {
	// Tic-tac-toe has no private information; every player sees the
	// full board.
	return gamemodule.Observation(state)
}

func (m Module) GetLegalActions(state gamemodule.State, playerID string) []gamemodule.Action {
	st, err := decodeState(state)
	if err != nil || m.IsTerminal(state) || st.CurrentTurn != playerID {
		return nil
	}
	var actions []gamemodule.Action
	for i, cell := range st.Board {
		if cell == "" {
			b, _ := json.Marshal(action{Cell: i})
			actions = append(actions, gamemodule.Action(b))
		}
	}
	return actions
}

func opponent(players []string, me string) string {
	if players[0] == me {
		return players[1]
	}
	return players[0]
}

func boardFull(board [9]string) bool {
	for _, c := range board {
		if c == "" {
			return false
		}
	}
	return true
}

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

func winningLine(board [9]string, mark string) ([]int, bool) {
	for _, l := range lines {
		if board[l[0]] == mark && board[l[1]] == mark && board[l[2]] == mark {
			return []int{l[0], l[1], l[2]}, true
		}
	}
	return nil, false
}

func encode(st cellState) (gamemodule.State, error) {
	b, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	return gamemodule.State(b), nil
}

func decodeState(state gamemodule.State) (cellState, error) {
	var st cellState
	if err := json.Unmarshal(state, &st); err != nil {
		return cellState{}, err
	}
	return st, nil
}

func decodeAction(act gamemodule.Action) (action, error) {
	var a action
	if err := json.Unmarshal(act, &a); err != nil {
		return action{}, err
	}
	return a, nil
}

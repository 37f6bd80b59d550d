// Package connectfour implements a small 2-player module used in the
// staked deposit-timeout worked example of spec §8 scenario 2.
package connectfour

import (
	"encoding/json"
	"fmt"

	"github.com/dorkfun/matchserver/internal/gamemodule"
)

const GameID = "connectfour"

const (
	cols = 7
	rows = 6
)

type boardState struct {
	// Grid[col] holds the stack of marks dropped in that column,
	// bottom to top.
	Grid        [cols][]string `json:"grid"`
	Players     []string       `json:"players"`
	CurrentTurn string         `json:"currentTurn"`
	Winner      string         `json:"winner,omitempty"`
	Draw        bool           `json:"draw,omitempty"`
}

type action struct {
	Column int `json:"column"`
}

// Module implements gamemodule.Module for Connect Four.
type Module struct{}

func New() *Module { return &Module{} }

func (Module) Metadata() gamemodule.Metadata {
	return gamemodule.Metadata{
		GameID:      GameID,
		DisplayName: "Connect Four",
		Description: "Drop discs, connect four in a row to win.",
		MinPlayers:  2,
		MaxPlayers:  2,
	}
}

func (Module) Init(_ gamemodule.InitConfig, players []string, _ string) (gamemodule.State, error) {
	if len(players) != 2 {
		return nil, fmt.Errorf("connectfour: requires exactly 2 players, got %d", len(players))
	}
	st := boardState{
		Players:     players,
		CurrentTurn: players[0],
	}
	return encode(st)
}

func (m Module) ValidateAction(state gamemodule.State, playerID string, act gamemodule.Action) bool {
	st, err := decodeState(state)
	if err != nil || m.IsTerminal(state) || st.CurrentTurn != playerID {
		return false
	}
	a, err := decodeAction(act)
	if err != nil {
		return false
	}
	if a.Column < 0 || a.Column >= cols {
		return false
	}
	return len(st.Grid[a.Column]) < rows
}

func (m Module) ApplyAction(state gamemodule.State, playerID string, act gamemodule.Action, _ *gamemodule.Rand) (gamemodule.State, error) {
	if !m.ValidateAction(state, playerID, act) {
		return nil, fmt.Errorf("connectfour: invariant breach: apply called on invalid action")
	}
	st, err := decodeState(state)
	if err != nil {
		return nil, err
	}
	a, _ := decodeAction(act)

	mark := "R"
	if playerID == st.Players[1] {
		mark = "Y"
	}
	st.Grid[a.Column] = append(st.Grid[a.Column], mark)

	if connectsFour(st.Grid, a.Column, len(st.Grid[a.Column])-1, mark) {
		st.Winner = playerID
	} else if boardFull(st.Grid) {
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
		return gamemodule.Outcome{Draw: true, Reason: "board_full"}
	}
	if st.Winner != "" {
		return gamemodule.Outcome{Winner: st.Winner, Reason: "connect_four"}
	}
	return gamemodule.Outcome{}
}

func (Module) GetObservation(state gamemodule.State, _ string) gamemodule.Observation {
	return gamemodule.Observation(state)
}

func (m Module) GetLegalActions(state gamemodule.State, playerID string) []gamemodule.Action {
	st, err := decodeState(state)
	if err != nil || m.IsTerminal(state) || st.CurrentTurn != playerID {
		return nil
	}
	var actions []gamemodule.Action
	for c := 0; c < cols; c++ {
		if len(st.Grid[c]) < rows {
			b, _ := json.Marshal(action{Column: c})
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

func boardFull(grid [cols][]string) bool {
	for c := 0; c < cols; c++ {
		if len(grid[c]) < rows {
			return false
		}
	}
	return true
}

func at(grid [cols][]string, col, row int) string {
	if col < 0 || col >= cols || row < 0 || row >= len(grid[col]) {
		return ""
	}
	return grid[col][row]
}

func connectsFour(grid [cols][]string, col, row int, mark string) bool {
	dirs := [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}
	for _, d := range dirs {
		count := 1
		count += countDir(grid, col, row, d[0], d[1], mark)
		count += countDir(grid, col, row, -d[0], -d[1], mark)
		if count >= 4 {
			return true
		}
	}
	return false
}

func countDir(grid [cols][]string, col, row, dc, dr int, mark string) int {
	n := 0
	c, r := col+dc, row+dr
	for at(grid, c, r) == mark {
		n++
		c += dc
		r += dr
	}
	return n
}

func encode(st boardState) (gamemodule.State, error) {
	b, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	return gamemodule.State(b), nil
}

func decodeState(state gamemodule.State) (boardState, error) {
	var st boardState
	if err := json.Unmarshal(state, &st); err != nil {
		return boardState{}, err
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

// Package matatu is a pure, deterministic reimplementation of the
// Ugandan Matatu card-shedding game module, built on a card/suit/rank
// model. Every operation here returns a new state rather than mutating
// one in place, as the Game-Module contract requires.
package matatu

import (
	"encoding/json"
	"fmt"

	"github.com/dorkfun/matchserver/internal/gamemodule"
)

const GameID = "matatu"

type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

type Rank string

const (
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
	Ace   Rank = "A"
)

var allSuits = []Suit{Hearts, Diamonds, Clubs, Spades}
var allRanks = []Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

// Card is a single playing card.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

func (c Card) pointValue() int {
	switch c.Rank {
	case Two:
		return 20
	case Ace:
		return 15
	case King:
		return 13
	case Queen:
		return 12
	case Jack:
		return 11
	case Ten:
		return 10
	case Nine:
		return 9
	case Eight:
		return 8
	case Seven:
		return 7
	case Six:
		return 6
	case Five:
		return 5
	case Four:
		return 4
	case Three:
		return 3
	default:
		return 0
	}
}

// canPlayOn mirrors classic Ugandan Matatu matching: Ace is wild,
// otherwise a card must match suit (as currently declared) or rank.
func (c Card) canPlayOn(top Card, currentSuit Suit) bool {
	if c.Rank == Ace {
		return true
	}
	return c.Suit == currentSuit || c.Rank == top.Rank
}

type hand struct {
	PlayerID string `json:"playerId"`
	Cards    []Card `json:"cards"`
}

type state struct {
	Players      []string `json:"players"`
	Hands        []hand   `json:"hands"`
	Deck         []Card   `json:"deck"`
	Discard      []Card   `json:"discard"`
	CurrentSuit  Suit     `json:"currentSuit"`
	CurrentTurn  string   `json:"currentTurn"`
	PendingDraws int      `json:"pendingDraws"` // stacked penalty from 2s
	Winner       string   `json:"winner,omitempty"`
	Draw         bool     `json:"draw,omitempty"`
}

type action struct {
	Type          string `json:"type"` // "play" | "draw"
	Card          *Card  `json:"card,omitempty"`
	DeclaredSuit  Suit   `json:"declaredSuit,omitempty"`
}

// Module implements gamemodule.Module for matatu.
type Module struct{}

func New() *Module { return &Module{} }

func (Module) Metadata() gamemodule.Metadata {
	return gamemodule.Metadata{
		GameID:      GameID,
		DisplayName: "Matatu",
		Description: "Ugandan shedding card game: match suit or rank, shed your hand first.",
		MinPlayers:  2,
		MaxPlayers:  2,
	}
}

func (Module) Init(_ gamemodule.InitConfig, players []string, seed string) (gamemodule.State, error) {
	if len(players) != 2 {
		return nil, fmt.Errorf("matatu: requires exactly 2 players, got %d", len(players))
	}

	deck := make([]Card, 0, 52)
	for _, s := range allSuits {
		for _, r := range allRanks {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	rng := gamemodule.NewRand(seedToInt64(seed))
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	hands := make([]hand, 2)
	for i, p := range players {
		hands[i] = hand{PlayerID: p, Cards: append([]Card(nil), deck[:7]...)}
		deck = deck[7:]
	}

	top := deck[0]
	deck = deck[1:]

	st := state{
		Players:     players,
		Hands:       hands,
		Deck:        deck,
		Discard:     []Card{top},
		CurrentSuit: top.Suit,
		CurrentTurn: players[0],
	}
	return encode(st)
}

func (m Module) ValidateAction(s gamemodule.State, playerID string, act gamemodule.Action) bool {
	st, err := decodeState(s)
	if err != nil || m.IsTerminal(s) || st.CurrentTurn != playerID {
		return false
	}
	a, err := decodeAction(act)
	if err != nil {
		return false
	}
	h := findHand(st, playerID)
	if h == nil {
		return false
	}
	switch a.Type {
	case "draw":
		return true
	case "play":
		if a.Card == nil || !handContains(*h, *a.Card) {
			return false
		}
		top := st.Discard[len(st.Discard)-1]
		if st.PendingDraws > 0 && a.Card.Rank != Two {
			return false // must answer a stacked 2 with another 2 or draw
		}
		if !a.Card.canPlayOn(top, st.CurrentSuit) {
			return false
		}
		if a.Card.Rank == Ace && a.DeclaredSuit == "" {
			return false
		}
		return true
	default:
		return false
	}
}

func (m Module) ApplyAction(s gamemodule.State, playerID string, act gamemodule.Action, rng *gamemodule.Rand) (gamemodule.State, error) {
	if !m.ValidateAction(s, playerID, act) {
		return nil, fmt.Errorf("matatu: invariant breach: apply called on invalid action")
	}
	st, err := decodeState(s)
	if err != nil {
		return nil, err
	}
	a, _ := decodeAction(act)
	st = cloneState(st)

	hIdx := handIndex(st, playerID)

	switch a.Type {
	case "draw":
		n := 1
		if st.PendingDraws > 0 {
			n = st.PendingDraws
			st.PendingDraws = 0
		}
		st = drawCards(st, hIdx, n, rng)
		st.CurrentTurn = opponent(st.Players, playerID)

	case "play":
		st.Hands[hIdx].Cards = removeCard(st.Hands[hIdx].Cards, *a.Card)
		st.Discard = append(st.Discard, *a.Card)
		if a.Card.Rank == Ace {
			st.CurrentSuit = a.DeclaredSuit
		} else {
			st.CurrentSuit = a.Card.Suit
		}
		if a.Card.Rank == Two {
			st.PendingDraws += 2
		}

		if len(st.Hands[hIdx].Cards) == 0 {
			st.Winner = playerID
			break
		}
		st.CurrentTurn = opponent(st.Players, playerID)
	}

	return encode(st)
}

func (Module) IsTerminal(s gamemodule.State) bool {
	st, err := decodeState(s)
	if err != nil {
		return false
	}
	return st.Winner != "" || st.Draw
}

func (m Module) GetOutcome(s gamemodule.State) gamemodule.Outcome {
	st, err := decodeState(s)
	if err != nil {
		return gamemodule.Outcome{}
	}
	if st.Draw {
		return gamemodule.Outcome{Draw: true, Reason: "equal_points"}
	}
	if st.Winner != "" {
		scores := map[string]float64{}
		for _, h := range st.Hands {
			total := 0
			for _, c := range h.Cards {
				total += c.pointValue()
			}
			scores[h.PlayerID] = float64(total)
		}
		return gamemodule.Outcome{Winner: st.Winner, Reason: "shed_hand", Scores: scores}
	}
	return gamemodule.Outcome{}
}

func (Module) GetObservation(s gamemodule.State, playerID string) gamemodule.Observation {
	st, err := decodeState(s)
	if err != nil {
		return gamemodule.Observation(s)
	}
	type publicHand struct {
		PlayerID string `json:"playerId"`
		Count    int    `json:"count"`
		Cards    []Card `json:"cards,omitempty"`
	}
	out := struct {
		Players      []string     `json:"players"`
		Hands        []publicHand `json:"hands"`
		DeckCount    int          `json:"deckCount"`
		TopCard      Card         `json:"topCard"`
		CurrentSuit  Suit         `json:"currentSuit"`
		CurrentTurn  string       `json:"currentTurn"`
		PendingDraws int          `json:"pendingDraws"`
		Winner       string       `json:"winner,omitempty"`
		Draw         bool         `json:"draw,omitempty"`
	}{
		Players:      st.Players,
		DeckCount:    len(st.Deck),
		TopCard:      st.Discard[len(st.Discard)-1],
		CurrentSuit:  st.CurrentSuit,
		CurrentTurn:  st.CurrentTurn,
		PendingDraws: st.PendingDraws,
		Winner:       st.Winner,
		Draw:         st.Draw,
	}
	for _, h := range st.Hands {
		ph := publicHand{PlayerID: h.PlayerID, Count: len(h.Cards)}
		if h.PlayerID == playerID {
			ph.Cards = h.Cards
		}
		out.Hands = append(out.Hands, ph)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return gamemodule.Observation(s)
	}
	return gamemodule.Observation(b)
}

func (m Module) GetLegalActions(s gamemodule.State, playerID string) []gamemodule.Action {
	st, err := decodeState(s)
	if err != nil || m.IsTerminal(s) || st.CurrentTurn != playerID {
		return nil
	}
	h := findHand(st, playerID)
	if h == nil {
		return nil
	}
	top := st.Discard[len(st.Discard)-1]
	var actions []gamemodule.Action
	for _, c := range h.Cards {
		if st.PendingDraws > 0 && c.Rank != Two {
			continue
		}
		if !c.canPlayOn(top, st.CurrentSuit) {
			continue
		}
		if c.Rank == Ace {
			for _, declared := range allSuits {
				b, _ := json.Marshal(action{Type: "play", Card: &c, DeclaredSuit: declared})
				actions = append(actions, gamemodule.Action(b))
			}
			continue
		}
		cc := c
		b, _ := json.Marshal(action{Type: "play", Card: &cc})
		actions = append(actions, gamemodule.Action(b))
	}
	b, _ := json.Marshal(action{Type: "draw"})
	actions = append(actions, gamemodule.Action(b))
	return actions
}

func opponent(players []string, me string) string {
	if players[0] == me {
		return players[1]
	}
	return players[0]
}

func findHand(st state, playerID string) *hand {
	for i := range st.Hands {
		if st.Hands[i].PlayerID == playerID {
			return &st.Hands[i]
		}
	}
	return nil
}

func handIndex(st state, playerID string) int {
	for i := range st.Hands {
		if st.Hands[i].PlayerID == playerID {
			return i
		}
	}
	return -1
}

func handContains(h hand, c Card) bool {
	for _, hc := range h.Cards {
		if hc == c {
			return true
		}
	}
	return false
}

func removeCard(cards []Card, c Card) []Card {
	out := make([]Card, 0, len(cards))
	removed := false
	for _, hc := range cards {
		if !removed && hc == c {
			removed = true
			continue
		}
		out = append(out, hc)
	}
	return out
}

// drawCards pulls n cards for player hIdx, reshuffling the discard
// pile (minus its top card) back into the deck if it runs dry.
func drawCards(st state, hIdx, n int, rng *gamemodule.Rand) state {
	for i := 0; i < n; i++ {
		if len(st.Deck) == 0 {
			if len(st.Discard) <= 1 {
				break // nothing left to reshuffle; stop drawing
			}
			top := st.Discard[len(st.Discard)-1]
			reshuffled := append([]Card(nil), st.Discard[:len(st.Discard)-1]...)
			if rng != nil {
				rng.Shuffle(len(reshuffled), func(a, b int) { reshuffled[a], reshuffled[b] = reshuffled[b], reshuffled[a] })
			}
			st.Deck = reshuffled
			st.Discard = []Card{top}
		}
		card := st.Deck[len(st.Deck)-1]
		st.Deck = st.Deck[:len(st.Deck)-1]
		st.Hands[hIdx].Cards = append(st.Hands[hIdx].Cards, card)
	}
	return st
}

func cloneState(st state) state {
	out := st
	out.Players = append([]string(nil), st.Players...)
	out.Hands = make([]hand, len(st.Hands))
	for i, h := range st.Hands {
		out.Hands[i] = hand{PlayerID: h.PlayerID, Cards: append([]Card(nil), h.Cards...)}
	}
	out.Deck = append([]Card(nil), st.Deck...)
	out.Discard = append([]Card(nil), st.Discard...)
	return out
}

func seedToInt64(seed string) int64 {
	var h uint64 = 14695981039346656037 // FNV offset basis
	for _, b := range []byte(seed) {
		h ^= uint64(b)
		h *= 1099511628211
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

func encode(st state) (gamemodule.State, error) {
	b, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	return gamemodule.State(b), nil
}

func decodeState(s gamemodule.State) (state, error) {
	var st state
	if err := json.Unmarshal(s, &st); err != nil {
		return state{}, err
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

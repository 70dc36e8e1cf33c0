package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Stack type markers for the accumulating draw penalty.
const (
	StackNone     = ""
	StackDrawTwo  = "D2"
	StackDrawFour = "D4"
)

// GameState is the authoritative replicated state of one room. The
// JSON form doubles as the broadcast payload and the persisted
// snapshot; every member's local copy is a projection of this.
type GameState struct {
	Room         string            `json:"room"`
	GameOver     bool              `json:"gameOver"`
	Winner       string            `json:"winner"`
	Turn         string            `json:"turn"`
	Direction    int               `json:"direction"`
	Players      []string          `json:"players"`
	PlayerDecks  map[string][]Card `json:"playerDecks"`
	CurrentColor Color             `json:"currentColor"`
	CurrentRank  int               `json:"currentNumber"`
	PlayedPile   []Card            `json:"playedCardsPile"`
	DrawPile     []Card            `json:"drawCardPile"`
	StackPenalty int               `json:"stackPenalty"`
	StackType    string            `json:"stackType"`
	LastActivity time.Time         `json:"lastActivity"`
}

// UnmarshalJSON decodes a state payload, accepting currentNumber as
// either a JSON number or the string form some clients send ("5", "_",
// "skip", "D2", "W", "D4W"). Absent fields keep their current values,
// which is what the merge path relies on.
func (g *GameState) UnmarshalJSON(data []byte) error {
	type alias GameState
	aux := struct {
		CurrentRank json.RawMessage `json:"currentNumber"`
		*alias
	}{alias: (*alias)(g)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.CurrentRank) == 0 {
		return nil
	}
	var n int
	if err := json.Unmarshal(aux.CurrentRank, &n); err == nil {
		g.CurrentRank = n
		return nil
	}
	var s string
	if err := json.Unmarshal(aux.CurrentRank, &s); err != nil {
		return err
	}
	rank, err := rankFromWire(s)
	if err != nil {
		return err
	}
	g.CurrentRank = rank
	return nil
}

func rankFromWire(s string) (int, error) {
	switch s {
	case "_":
		return RankReverse, nil
	case "skip":
		return RankSkip, nil
	case "D2":
		return RankDrawTwo, nil
	case "W":
		return RankWild, nil
	case "D4W":
		return RankWildDrawFour, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unrecognized currentNumber %q", s)
	}
	return n, nil
}

// Clone deep-copies the state so broadcasts and write-behind
// persistence can run off a stable snapshot while the live session
// keeps mutating.
func (g *GameState) Clone() GameState {
	out := *g
	out.Players = append([]string(nil), g.Players...)
	out.PlayedPile = append([]Card(nil), g.PlayedPile...)
	out.DrawPile = append([]Card(nil), g.DrawPile...)
	if g.PlayerDecks != nil {
		out.PlayerDecks = make(map[string][]Card, len(g.PlayerDecks))
		for name, hand := range g.PlayerDecks {
			out.PlayerDecks[name] = append([]Card(nil), hand...)
		}
	}
	return out
}

// InLobby reports the pre-game state: no game has been started (or the
// room was just created). gameOver=true with an empty winner.
func (g *GameState) InLobby() bool {
	return g.GameOver && g.Winner == ""
}

// Restorable reports whether a persisted snapshot is worth replaying to
// a reconnecting client: a genuine in-progress game with real data, not
// an accidental empty shell.
func (g *GameState) Restorable() bool {
	return !g.GameOver && len(g.Players) > 0 && len(g.PlayedPile) > 0
}

// Session wraps the room state with its serialization lock and the
// per-turn bookkeeping that never leaves the server. All mutations to
// one room go through Mu; separate rooms proceed in parallel.
type Session struct {
	Mu    sync.Mutex
	State GameState

	// HasDrawn marks that the turn holder already drew this turn and
	// must now either play the drawn card or pass.
	HasDrawn  bool
	DrawnCard Card

	// UnoCalled holds the players who announced UNO since the last
	// completed transition.
	UnoCalled map[string]bool
}

// NewSession returns a lobby-state session for the given room code.
func NewSession(room string) *Session {
	return &Session{
		State: GameState{
			Room:      room,
			GameOver:  true,
			Direction: 1,
		},
		UnoCalled: make(map[string]bool),
	}
}

// ResetTurnFlags clears the per-turn bookkeeping. Callers invoke it
// after every completed transition, holding Mu.
func (s *Session) ResetTurnFlags() {
	s.HasDrawn = false
	s.DrawnCard = Card{}
	s.UnoCalled = make(map[string]bool)
}

// Package engine is the authoritative turn-order and card-legality
// state machine. Every function mutates a session in place and expects
// the caller to hold the session mutex; a returned error means the
// session was left untouched.
package engine

import (
	"errors"
	"math/rand"
	"time"

	"unoserver/models"
	"unoserver/uno/deck"
)

// Rejection reasons. IllegalMove and StackViolation are reported back
// to the acting client; the rest are authoritative re-checks of things
// a well-behaved client never sends, and stay server-side no-ops.
var (
	ErrNotYourTurn         = errors.New("not your turn")
	ErrNotHost             = errors.New("only the host may do that")
	ErrInsufficientPlayers = errors.New("need at least 2 players")
	ErrWrongPhase          = errors.New("not valid in this game phase")
	ErrIllegalMove         = errors.New("card matches neither color nor number")
	ErrStackViolation      = errors.New("active stack restricts playable cards")
	ErrCardNotHeld         = errors.New("card is not in your hand")
	ErrColorRequired       = errors.New("wild card needs a chosen color")
	ErrAlreadyDrawn        = errors.New("already drew a card this turn")
	ErrMustDrawFirst       = errors.New("pass is only valid after drawing")
	ErrNoPenalty           = errors.New("no stacked penalty to take")
	ErrDeckExhausted       = errors.New("draw pile is exhausted")
)

// HandSize is dealt to every player at game start.
const HandSize = 7

// StartGame deals a fresh game from the Lobby state. Host only, at
// least two players; the room membership at this moment fixes the turn
// order.
func StartGame(s *models.Session, requester *models.Client, players []string, randGen *rand.Rand) error {
	if !s.State.InLobby() {
		return ErrWrongPhase
	}
	return dealNewGame(s, requester, players, randGen)
}

// RestartGame is the same dealing procedure, callable once a game has
// Finished, reusing the current room membership.
func RestartGame(s *models.Session, requester *models.Client, players []string, randGen *rand.Rand) error {
	if !s.State.GameOver || s.State.Winner == "" {
		return ErrWrongPhase
	}
	return dealNewGame(s, requester, players, randGen)
}

func dealNewGame(s *models.Session, requester *models.Client, players []string, randGen *rand.Rand) error {
	if !requester.IsHost {
		return ErrNotHost
	}
	if len(players) < 2 {
		return ErrInsufficientPlayers
	}

	pack := deck.NewPack()
	deck.Shuffle(pack, randGen)

	decks := make(map[string][]models.Card, len(players))
	for _, name := range players {
		hand := make([]models.Card, HandSize)
		copy(hand, pack[:HandSize])
		pack = pack[HandSize:]
		decks[name] = hand
	}

	// The starting discard is never an action card: resample a random
	// index until a number card comes up.
	var start models.Card
	for {
		i := randGen.Intn(len(pack))
		if !pack[i].IsAction() {
			start = pack[i]
			pack = append(pack[:i], pack[i+1:]...)
			break
		}
	}

	s.State.GameOver = false
	s.State.Winner = ""
	s.State.Turn = players[0]
	s.State.Direction = 1
	s.State.Players = append([]string(nil), players...)
	s.State.PlayerDecks = decks
	s.State.CurrentColor = start.Color
	s.State.CurrentRank = start.Rank
	s.State.PlayedPile = []models.Card{start}
	s.State.DrawPile = pack
	s.State.StackPenalty = 0
	s.State.StackType = models.StackNone
	s.State.LastActivity = time.Now()
	s.ResetTurnFlags()
	return nil
}

// PlayCard applies one card play by the turn holder. Wild and
// WildDrawFour carry the out-of-band color choice in chosenColor.
func PlayCard(s *models.Session, player string, card models.Card, chosenColor models.Color, randGen *rand.Rand) error {
	st := &s.State
	if st.GameOver {
		return ErrWrongPhase
	}
	if player != st.Turn {
		return ErrNotYourTurn
	}

	hand := st.PlayerDecks[player]
	cardIndex := -1
	for i, c := range hand {
		if c == card {
			cardIndex = i
			break
		}
	}
	if cardIndex == -1 {
		return ErrCardNotHeld
	}

	// After drawing, the only playable card is the drawn one.
	if s.HasDrawn && card != s.DrawnCard {
		return ErrIllegalMove
	}

	if !deck.CanPlay(card, st.CurrentColor, st.CurrentRank) {
		return ErrIllegalMove
	}

	if st.StackPenalty > 0 {
		switch st.StackType {
		case models.StackDrawFour:
			if card.Kind != models.KindWildDrawFour {
				return ErrStackViolation
			}
		case models.StackDrawTwo:
			if card.Kind != models.KindDrawTwo && card.Kind != models.KindWildDrawFour {
				return ErrStackViolation
			}
		}
	}

	if card.IsWildKind() {
		switch chosenColor {
		case models.ColorRed, models.ColorGreen, models.ColorBlue, models.ColorYellow:
		default:
			return ErrColorRequired
		}
	}

	// Forgotten UNO: playing down to one card without announcing costs
	// two penalty cards, drawn silently before the play is finalized.
	if len(hand) == 2 && !s.UnoCalled[player] {
		st.DrawPile, st.PlayedPile = deck.EnsureDrawable(st.DrawPile, st.PlayedPile, 2, randGen)
		for i := 0; i < 2 && len(st.DrawPile) > 0; i++ {
			hand = append(hand, st.DrawPile[len(st.DrawPile)-1])
			st.DrawPile = st.DrawPile[:len(st.DrawPile)-1]
		}
	}

	hand = append(hand[:cardIndex], hand[cardIndex+1:]...)
	st.PlayerDecks[player] = hand
	st.PlayedPile = append(st.PlayedPile, card)

	won := len(hand) == 0
	if won {
		st.GameOver = true
		st.Winner = player
	}

	switch card.Kind {
	case models.KindWild:
		st.CurrentColor = chosenColor
		st.CurrentRank = models.RankWild
		advanceTurn(st, won, 0)
	case models.KindWildDrawFour:
		st.CurrentColor = chosenColor
		st.CurrentRank = models.RankWildDrawFour
		st.StackPenalty += 4
		st.StackType = models.StackDrawFour
		advanceTurn(st, won, 0)
	case models.KindSkip:
		st.CurrentColor = card.Color
		st.CurrentRank = models.RankSkip
		advanceTurn(st, won, 1)
	case models.KindReverse:
		st.CurrentColor = card.Color
		st.CurrentRank = models.RankReverse
		st.Direction = -st.Direction
		// In a 2-player game a Reverse keeps the turn, acting as a Skip.
		if len(st.Players) > 2 {
			advanceTurn(st, won, 0)
		}
	case models.KindDrawTwo:
		st.CurrentColor = card.Color
		st.CurrentRank = models.RankDrawTwo
		st.StackPenalty += 2
		st.StackType = models.StackDrawTwo
		advanceTurn(st, won, 0)
	default:
		st.CurrentColor = card.Color
		st.CurrentRank = card.Rank
		advanceTurn(st, won, 0)
	}

	st.LastActivity = time.Now()
	s.ResetTurnFlags()
	return nil
}

// DrawCard draws one card for the turn holder without advancing the
// turn: the player may then play the drawn card or pass. With both
// piles exhausted the draw is a no-op and ErrDeckExhausted is reported
// to the caller only.
func DrawCard(s *models.Session, player string, randGen *rand.Rand) (models.Card, error) {
	st := &s.State
	if st.GameOver {
		return models.Card{}, ErrWrongPhase
	}
	if player != st.Turn {
		return models.Card{}, ErrNotYourTurn
	}
	if s.HasDrawn {
		return models.Card{}, ErrAlreadyDrawn
	}

	st.DrawPile, st.PlayedPile = deck.EnsureDrawable(st.DrawPile, st.PlayedPile, 1, randGen)
	if len(st.DrawPile) == 0 {
		return models.Card{}, ErrDeckExhausted
	}

	drawn := st.DrawPile[len(st.DrawPile)-1]
	st.DrawPile = st.DrawPile[:len(st.DrawPile)-1]
	st.PlayerDecks[player] = append(st.PlayerDecks[player], drawn)
	s.HasDrawn = true
	s.DrawnCard = drawn
	st.LastActivity = time.Now()
	return drawn, nil
}

// PassTurn forfeits the turn after an unplayable draw. Passing also
// clears any active stack: the passer gave up the chance to extend or
// break it.
func PassTurn(s *models.Session, player string) error {
	st := &s.State
	if st.GameOver {
		return ErrWrongPhase
	}
	if player != st.Turn {
		return ErrNotYourTurn
	}
	if !s.HasDrawn {
		return ErrMustDrawFirst
	}

	st.StackPenalty = 0
	st.StackType = models.StackNone
	advanceTurn(st, false, 0)
	st.LastActivity = time.Now()
	s.ResetTurnFlags()
	return nil
}

// TakeStackedPenalty accepts the accumulated stack: the turn holder
// draws the whole penalty (short only when both piles run dry), the
// stack resets and the turn advances. Returns how many cards were
// actually drawn.
func TakeStackedPenalty(s *models.Session, player string, randGen *rand.Rand) (int, error) {
	st := &s.State
	if st.GameOver {
		return 0, ErrWrongPhase
	}
	if player != st.Turn {
		return 0, ErrNotYourTurn
	}
	if st.StackPenalty == 0 {
		return 0, ErrNoPenalty
	}

	st.DrawPile, st.PlayedPile = deck.EnsureDrawable(st.DrawPile, st.PlayedPile, st.StackPenalty, randGen)
	drawn := 0
	hand := st.PlayerDecks[player]
	for i := 0; i < st.StackPenalty && len(st.DrawPile) > 0; i++ {
		hand = append(hand, st.DrawPile[len(st.DrawPile)-1])
		st.DrawPile = st.DrawPile[:len(st.DrawPile)-1]
		drawn++
	}
	st.PlayerDecks[player] = hand

	st.StackPenalty = 0
	st.StackType = models.StackNone
	advanceTurn(st, false, 0)
	st.LastActivity = time.Now()
	s.ResetTurnFlags()
	return drawn, nil
}

// AnnounceUno marks the player as having said UNO; the mark lasts until
// the next completed transition.
func AnnounceUno(s *models.Session, player string) {
	s.UnoCalled[player] = true
}

// advanceTurn moves the turn marker skip+1 steps in the current
// direction, wrapping around the ordered player list. When the play
// just won the game the turn freezes at its pre-move value.
func advanceTurn(st *models.GameState, frozen bool, skip int) {
	if frozen {
		return
	}
	st.Turn = NextPlayer(st.Turn, st.Direction, st.Players, skip)
}

// NextPlayer computes the next turn holder: index + direction*(1+skip),
// modulo the player count and normalized to stay non-negative.
func NextPlayer(current string, direction int, players []string, skip int) string {
	n := len(players)
	if n == 0 {
		return ""
	}
	idx := -1
	for i, p := range players {
		if p == current {
			idx = i
			break
		}
	}
	if idx == -1 {
		return players[0]
	}
	return players[((idx+direction*(1+skip))%n+n)%n]
}

// Package deck holds the card pack, shuffling and the legality
// predicates the turn engine consults.
package deck

import (
	"math/rand"

	"unoserver/models"
)

// PackSize is the full UNO pack: per color one 0, two each of 1-9,
// Skip, Reverse and DrawTwo, plus four Wild and four WildDrawFour.
const PackSize = 108

// NewPack builds the unshuffled 108-card pack.
func NewPack() []models.Card {
	pack := make([]models.Card, 0, PackSize)
	for _, color := range models.Colors {
		pack = append(pack, models.Card{Kind: models.KindNumber, Color: color, Rank: 0})
		for rank := 1; rank <= 9; rank++ {
			for i := 0; i < 2; i++ {
				pack = append(pack, models.Card{Kind: models.KindNumber, Color: color, Rank: rank})
			}
		}
		for i := 0; i < 2; i++ {
			pack = append(pack,
				models.Card{Kind: models.KindSkip, Color: color},
				models.Card{Kind: models.KindReverse, Color: color},
				models.Card{Kind: models.KindDrawTwo, Color: color},
			)
		}
	}
	for i := 0; i < 4; i++ {
		pack = append(pack,
			models.Card{Kind: models.KindWild},
			models.Card{Kind: models.KindWildDrawFour},
		)
	}
	return pack
}

// Shuffle permutes cards in place with Fisher-Yates.
func Shuffle(cards []models.Card, randGen *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := randGen.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// CanPlay reports whether card may be placed on a pile showing
// currentColor/currentRank. Wild cards always may; otherwise the card
// must match by color or by rank (action cards match by their rank
// sentinel, so two Skips of different colors match).
func CanPlay(card models.Card, currentColor models.Color, currentRank int) bool {
	if card.IsWildKind() {
		return true
	}
	return card.Color == currentColor || card.EffectiveRank() == currentRank
}

// EnsureDrawable tops up the draw pile from the played pile when fewer
// than needed cards remain: everything except the top played card is
// reshuffled into a fresh draw pile, the top card stays as the played
// pile base. With one or zero played cards there is nothing to recycle
// and the piles are returned unchanged; callers must then cope with a
// short or empty draw.
func EnsureDrawable(drawPile, playedPile []models.Card, needed int, randGen *rand.Rand) ([]models.Card, []models.Card) {
	if len(drawPile) >= needed || len(playedPile) <= 1 {
		return drawPile, playedPile
	}
	top := playedPile[len(playedPile)-1]
	recycled := make([]models.Card, 0, len(playedPile)-1+len(drawPile))
	recycled = append(recycled, playedPile[:len(playedPile)-1]...)
	recycled = append(recycled, drawPile...)
	Shuffle(recycled, randGen)
	return recycled, []models.Card{top}
}

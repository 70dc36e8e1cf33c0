package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Color is one of the four card colors. Wild cards carry ColorNone
// until the player picks a color for them.
type Color string

const (
	ColorNone   Color = ""
	ColorRed    Color = "R"
	ColorGreen  Color = "G"
	ColorBlue   Color = "B"
	ColorYellow Color = "Y"
)

// Colors lists the four deck colors in pack order.
var Colors = []Color{ColorRed, ColorGreen, ColorBlue, ColorYellow}

// Kind tags the card variant.
type Kind int

const (
	KindNumber Kind = iota
	KindSkip
	KindReverse
	KindDrawTwo
	KindWild
	KindWildDrawFour
)

// Rank sentinels for action cards. Number cards use their face value
// 0-9; action cards compare by these sentinels so that, for example,
// two Skip cards of different colors still match each other.
const (
	RankReverse      = 200
	RankDrawTwo      = 252
	RankWild         = 300
	RankSkip         = 404
	RankWildDrawFour = 600
)

// Card is a single card face. Immutable once dealt; duplicates of the
// same face exist in the pack, equality is positional within a pile.
type Card struct {
	Kind  Kind
	Color Color // ColorNone for Wild / WildDrawFour
	Rank  int   // 0-9 for number cards, unused otherwise
}

// EffectiveRank returns the comparison key used for rank matching.
func (c Card) EffectiveRank() int {
	switch c.Kind {
	case KindSkip:
		return RankSkip
	case KindReverse:
		return RankReverse
	case KindDrawTwo:
		return RankDrawTwo
	case KindWild:
		return RankWild
	case KindWildDrawFour:
		return RankWildDrawFour
	default:
		return c.Rank
	}
}

// IsWildKind reports whether the card is colorless (Wild or WildDrawFour).
func (c Card) IsWildKind() bool {
	return c.Kind == KindWild || c.Kind == KindWildDrawFour
}

// IsAction reports whether the card is unsuitable as a starting discard.
func (c Card) IsAction() bool {
	return c.Kind != KindNumber
}

// String renders the compact wire token, e.g. "7G", "skipR", "_B",
// "D2Y", "W", "D4W".
func (c Card) String() string {
	switch c.Kind {
	case KindNumber:
		return strconv.Itoa(c.Rank) + string(c.Color)
	case KindSkip:
		return "skip" + string(c.Color)
	case KindReverse:
		return "_" + string(c.Color)
	case KindDrawTwo:
		return "D2" + string(c.Color)
	case KindWild:
		return "W"
	case KindWildDrawFour:
		return "D4W"
	}
	return ""
}

// ParseCard decodes a compact wire token back into a Card.
func ParseCard(token string) (Card, error) {
	switch token {
	case "W":
		return Card{Kind: KindWild}, nil
	case "D4W":
		return Card{Kind: KindWildDrawFour}, nil
	}
	if len(token) < 2 {
		return Card{}, fmt.Errorf("malformed card token %q", token)
	}
	color := Color(token[len(token)-1:])
	switch color {
	case ColorRed, ColorGreen, ColorBlue, ColorYellow:
	default:
		return Card{}, fmt.Errorf("unknown card color in token %q", token)
	}
	body := token[:len(token)-1]
	switch {
	case body == "_":
		return Card{Kind: KindReverse, Color: color}, nil
	case body == "D2":
		return Card{Kind: KindDrawTwo, Color: color}, nil
	case strings.EqualFold(body, "skip"):
		return Card{Kind: KindSkip, Color: color}, nil
	default:
		rank, err := strconv.Atoi(body)
		if err != nil || rank < 0 || rank > 9 {
			return Card{}, fmt.Errorf("malformed card token %q", token)
		}
		return Card{Kind: KindNumber, Color: color, Rank: rank}, nil
	}
}

// MarshalJSON encodes the card as its compact token so piles and hands
// serialize as plain string arrays on the wire and in the store.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		return err
	}
	card, err := ParseCard(token)
	if err != nil {
		return err
	}
	*c = card
	return nil
}

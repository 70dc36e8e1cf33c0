package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGameStateCurrentNumberDecoding(t *testing.T) {
	tests := []struct {
		payload string
		want    int
	}{
		{`{"currentNumber":7}`, 7},
		{`{"currentNumber":404}`, RankSkip},
		{`{"currentNumber":"5"}`, 5},
		{`{"currentNumber":"_"}`, RankReverse},
		{`{"currentNumber":"skip"}`, RankSkip},
		{`{"currentNumber":"D2"}`, RankDrawTwo},
		{`{"currentNumber":"D4W"}`, RankWildDrawFour},
	}
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			var state GameState
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &state))
			require.Equal(t, tt.want, state.CurrentRank)
		})
	}

	var state GameState
	require.Error(t, json.Unmarshal([]byte(`{"currentNumber":"bogus"}`), &state))

	// An absent field keeps the existing value on a merge.
	state.CurrentRank = 9
	require.NoError(t, json.Unmarshal([]byte(`{"turn":"Bob"}`), &state))
	require.Equal(t, 9, state.CurrentRank)
	require.Equal(t, "Bob", state.Turn)
}

func TestRestorable(t *testing.T) {
	state := GameState{
		GameOver:   false,
		Players:    []string{"a", "b"},
		PlayedPile: []Card{{Kind: KindNumber, Color: ColorRed, Rank: 5}},
	}
	require.True(t, state.Restorable())

	lobby := GameState{GameOver: true}
	require.True(t, lobby.InLobby())
	require.False(t, lobby.Restorable())

	noPlays := state
	noPlays.PlayedPile = nil
	require.False(t, noPlays.Restorable(), "empty shell without played cards must not restore")

	finished := state
	finished.GameOver = true
	finished.Winner = "a"
	require.False(t, finished.Restorable(), "finished games are not resumable")
}

func TestCloneIsIndependent(t *testing.T) {
	state := GameState{
		Players:     []string{"a", "b"},
		PlayerDecks: map[string][]Card{"a": {{Kind: KindWild}}},
		DrawPile:    []Card{{Kind: KindNumber, Color: ColorBlue, Rank: 1}},
		PlayedPile:  []Card{{Kind: KindNumber, Color: ColorRed, Rank: 2}},
	}
	clone := state.Clone()

	state.Players[0] = "mutated"
	state.PlayerDecks["a"][0] = Card{Kind: KindNumber, Color: ColorGreen, Rank: 9}
	state.DrawPile[0] = Card{Kind: KindSkip, Color: ColorRed}

	require.Equal(t, "a", clone.Players[0])
	require.Equal(t, Card{Kind: KindWild}, clone.PlayerDecks["a"][0])
	require.Equal(t, Card{Kind: KindNumber, Color: ColorBlue, Rank: 1}, clone.DrawPile[0])
}

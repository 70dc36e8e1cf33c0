package actions

import (
	"context"
	"errors"
	"math/rand"

	"unoserver/models"
	"unoserver/uno/broadcast"
	"unoserver/uno/engine"

	"go.uber.org/zap"
)

func playerNames(members []*models.Client) []string {
	names := make([]string, len(members))
	for i, c := range members {
		names[i] = c.Name
	}
	return names
}

// rejectTransition routes an engine rejection: move errors go back to
// the acting client, authoritative re-checks of client-disabled actions
// stay silent server-side no-ops.
func rejectTransition(client *models.Client, err error, deps *Deps) {
	switch {
	case errors.Is(err, engine.ErrIllegalMove),
		errors.Is(err, engine.ErrStackViolation),
		errors.Is(err, engine.ErrCardNotHeld),
		errors.Is(err, engine.ErrColorRequired),
		errors.Is(err, engine.ErrAlreadyDrawn),
		errors.Is(err, engine.ErrMustDrawFirst),
		errors.Is(err, engine.ErrNoPenalty),
		errors.Is(err, engine.ErrDeckExhausted):
		broadcast.SendError(client, err.Error(), deps.Logger)
	default:
		deps.Logger.Info("Transition rejected",
			zap.String("conn", client.ID),
			zap.String("room", client.Room),
			zap.Error(err),
		)
	}
}

// persistAfter runs the durability side channel once the broadcast is
// out: finished games are archived and dropped, everything else is
// upserted with a fresh TTL.
func persistAfter(state models.GameState, deps *Deps) {
	go func() {
		ctx := context.Background()
		if state.GameOver && state.Winner != "" {
			deps.Store.ArchiveResult(ctx, state)
		} else {
			deps.Store.Upsert(ctx, state)
		}
	}()
}

func handleStartGame(client *models.Client, deps *Deps, randGen *rand.Rand) {
	members := deps.Registry.ListRoom(client.Room)
	s := deps.Sessions.Get(client.Room)

	s.Mu.Lock()
	if err := engine.StartGame(s, client, playerNames(members), randGen); err != nil {
		s.Mu.Unlock()
		rejectTransition(client, err, deps)
		return
	}
	state := s.State.Clone()
	broadcast.InitGameState(members, state, deps.Logger)
	s.Mu.Unlock()

	deps.Logger.Info("Game started", zap.String("room", client.Room), zap.Int("players", len(members)))
	persistAfter(state, deps)
}

func handleRestartGame(client *models.Client, deps *Deps, randGen *rand.Rand) {
	members := deps.Registry.ListRoom(client.Room)
	s := deps.Sessions.Get(client.Room)

	s.Mu.Lock()
	if err := engine.RestartGame(s, client, playerNames(members), randGen); err != nil {
		s.Mu.Unlock()
		rejectTransition(client, err, deps)
		return
	}
	state := s.State.Clone()
	broadcast.InitGameState(members, state, deps.Logger)
	s.Mu.Unlock()

	deps.Logger.Info("Game restarted", zap.String("room", client.Room), zap.Int("players", len(members)))
	persistAfter(state, deps)
}

func handlePlayCard(client *models.Client, msg map[string]interface{}, deps *Deps, randGen *rand.Rand) {
	token, _ := msg["card"].(string)
	card, err := models.ParseCard(token)
	if err != nil {
		broadcast.SendError(client, "Unrecognized card", deps.Logger)
		return
	}
	chosen, _ := msg["chosenColor"].(string)

	s := deps.Sessions.Lookup(client.Room)
	if s == nil {
		return
	}
	members := deps.Registry.ListRoom(client.Room)

	s.Mu.Lock()
	if err := engine.PlayCard(s, client.Name, card, models.Color(chosen), randGen); err != nil {
		s.Mu.Unlock()
		rejectTransition(client, err, deps)
		return
	}
	state := s.State.Clone()
	broadcast.UpdateGameState(members, state, deps.Logger)
	s.Mu.Unlock()

	if state.GameOver {
		deps.Logger.Info("Game finished", zap.String("room", client.Room), zap.String("winner", state.Winner))
	}
	persistAfter(state, deps)
}

func handleDrawCard(client *models.Client, deps *Deps, randGen *rand.Rand) {
	s := deps.Sessions.Lookup(client.Room)
	if s == nil {
		return
	}
	members := deps.Registry.ListRoom(client.Room)

	s.Mu.Lock()
	if _, err := engine.DrawCard(s, client.Name, randGen); err != nil {
		s.Mu.Unlock()
		rejectTransition(client, err, deps)
		return
	}
	state := s.State.Clone()
	broadcast.UpdateGameState(members, state, deps.Logger)
	s.Mu.Unlock()

	persistAfter(state, deps)
}

func handlePassTurn(client *models.Client, deps *Deps) {
	s := deps.Sessions.Lookup(client.Room)
	if s == nil {
		return
	}
	members := deps.Registry.ListRoom(client.Room)

	s.Mu.Lock()
	if err := engine.PassTurn(s, client.Name); err != nil {
		s.Mu.Unlock()
		rejectTransition(client, err, deps)
		return
	}
	state := s.State.Clone()
	broadcast.UpdateGameState(members, state, deps.Logger)
	s.Mu.Unlock()

	persistAfter(state, deps)
}

func handleTakeStackedPenalty(client *models.Client, deps *Deps, randGen *rand.Rand) {
	s := deps.Sessions.Lookup(client.Room)
	if s == nil {
		return
	}
	members := deps.Registry.ListRoom(client.Room)

	s.Mu.Lock()
	drawn, err := engine.TakeStackedPenalty(s, client.Name, randGen)
	if err != nil {
		s.Mu.Unlock()
		rejectTransition(client, err, deps)
		return
	}
	state := s.State.Clone()
	broadcast.UpdateGameState(members, state, deps.Logger)
	s.Mu.Unlock()

	deps.Logger.Info("Stacked penalty taken",
		zap.String("room", client.Room),
		zap.String("player", client.Name),
		zap.Int("cards", drawn),
	)
	persistAfter(state, deps)
}

func handleUnoAnnouncement(client *models.Client, deps *Deps) {
	if s := deps.Sessions.Lookup(client.Room); s != nil {
		s.Mu.Lock()
		engine.AnnounceUno(s, client.Name)
		s.Mu.Unlock()
	}
	members := deps.Registry.ListRoom(client.Room)
	broadcast.Event(members, map[string]interface{}{
		"type": "unoAnnouncement",
		"name": client.Name,
	}, deps.Logger)
}

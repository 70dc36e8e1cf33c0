package actions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"unoserver/models"
	"unoserver/uno/engine"
	"unoserver/uno/registry"
	"unoserver/uno/store"
	"unoserver/uno/voice"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDeps(t *testing.T) *Deps {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return &Deps{
		Registry: registry.New(),
		Sessions: engine.NewManager(),
		Store:    store.New(rdb, nil, time.Hour, zap.NewNop()),
		Voice:    voice.NewRelay(),
		Logger:   zap.NewNop(),
	}
}

// newConnPair dials a real websocket through httptest and returns both
// ends: the server side goes into a models.Client, the client side
// reads what the handlers send.
func newConnPair(t *testing.T) (serverSide, clientSide *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientSide, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientSide.Close() })

	serverSide = <-serverConns
	t.Cleanup(func() { serverSide.Close() })
	return serverSide, clientSide
}

func joinedClient(t *testing.T, deps *Deps, room, name string) (*models.Client, *websocket.Conn) {
	t.Helper()
	serverSide, clientSide := newConnPair(t)
	c := &models.Client{Conn: serverSide, ID: "conn-" + name}
	require.NoError(t, deps.Registry.Join(c, room, name))
	return c, clientSide
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestUpdateGameStateMergesPresentFields(t *testing.T) {
	deps := newTestDeps(t)
	alice, aliceConn := joinedClient(t, deps, "ABCD", "Alice")

	s := deps.Sessions.Get("ABCD")
	s.Mu.Lock()
	s.State.GameOver = false
	s.State.Players = []string{"Alice", "Bob"}
	s.State.Turn = "Alice"
	s.State.CurrentColor = models.ColorRed
	s.State.CurrentRank = 5
	s.State.PlayedPile = []models.Card{{Kind: models.KindNumber, Color: models.ColorRed, Rank: 5}}
	s.Mu.Unlock()

	handleClientUpdateState(alice, map[string]interface{}{
		"type":         "updateGameState",
		"turn":         "Bob",
		"currentColor": "B",
	}, deps)

	s.Mu.Lock()
	st := s.State.Clone()
	s.Mu.Unlock()
	require.Equal(t, "Bob", st.Turn)
	require.Equal(t, models.ColorBlue, st.CurrentColor)
	require.Equal(t, 5, st.CurrentRank, "absent fields keep their values")
	require.Equal(t, []string{"Alice", "Bob"}, st.Players)
	require.Len(t, st.PlayedPile, 1)

	event := readEvent(t, aliceConn)
	require.Equal(t, "updateGameState", event["type"])
	require.Equal(t, "Bob", event["turn"])

	require.Eventually(t, func() bool {
		return deps.Store.FetchActive(context.Background(), "ABCD") != nil
	}, 2*time.Second, 10*time.Millisecond, "merged state reaches the store")
}

func TestInitGameStateReplacesWholeState(t *testing.T) {
	deps := newTestDeps(t)
	alice, aliceConn := joinedClient(t, deps, "ABCD", "Alice")

	s := deps.Sessions.Get("ABCD")
	s.Mu.Lock()
	s.State.Winner = "Carol"
	s.State.StackPenalty = 4
	s.State.StackType = models.StackDrawTwo
	s.Mu.Unlock()

	handleClientInitState(alice, map[string]interface{}{
		"type":            "initGameState",
		"players":         []interface{}{"Alice", "Bob"},
		"turn":            "Alice",
		"playedCardsPile": []interface{}{"5R"},
	}, deps)

	s.Mu.Lock()
	st := s.State.Clone()
	s.Mu.Unlock()
	require.Empty(t, st.Winner, "init starts from a clean state")
	require.Zero(t, st.StackPenalty)
	require.Equal(t, models.StackNone, st.StackType)
	require.Equal(t, "Alice", st.Turn)
	require.Equal(t, "ABCD", st.Room)
	require.Equal(t, []models.Card{{Kind: models.KindNumber, Color: models.ColorRed, Rank: 5}}, st.PlayedPile)

	event := readEvent(t, aliceConn)
	require.Equal(t, "initGameState", event["type"])
}

func TestJoinReplaysLiveSessionState(t *testing.T) {
	deps := newTestDeps(t)
	joinedClient(t, deps, "ABCD", "Alice")

	s := deps.Sessions.Get("ABCD")
	s.Mu.Lock()
	s.State.GameOver = false
	s.State.Players = []string{"Alice"}
	s.State.Turn = "Alice"
	s.State.CurrentColor = models.ColorRed
	s.State.CurrentRank = 5
	s.State.PlayedPile = []models.Card{{Kind: models.KindNumber, Color: models.ColorRed, Rank: 5}}
	s.Mu.Unlock()

	bobServer, bobConn := newConnPair(t)
	bob := &models.Client{Conn: bobServer, ID: "conn-Bob"}
	handleJoin(context.Background(), bob, map[string]interface{}{
		"type": "join", "room": "ABCD", "name": "Bob",
	}, deps)

	require.Equal(t, "roomData", readEvent(t, bobConn)["type"])
	current := readEvent(t, bobConn)
	require.Equal(t, "currentUserData", current["type"])
	require.Equal(t, "Bob", current["name"])
	require.Equal(t, false, current["isHost"])

	restored := readEvent(t, bobConn)
	require.Equal(t, "initGameState", restored["type"])
	require.Equal(t, "Alice", restored["turn"])
}

func TestJoinRehydratesFromSnapshotAfterRestart(t *testing.T) {
	deps := newTestDeps(t)
	joinedClient(t, deps, "ABCD", "Alice")

	// A snapshot exists but no live session does, as after a restart.
	snapshot := models.GameState{
		Room:         "ABCD",
		Turn:         "Alice",
		Direction:    1,
		Players:      []string{"Alice", "Bob"},
		CurrentColor: models.ColorRed,
		CurrentRank:  5,
		PlayedPile:   []models.Card{{Kind: models.KindNumber, Color: models.ColorRed, Rank: 5}},
		LastActivity: time.Now(),
	}
	deps.Store.Upsert(context.Background(), snapshot)

	bobServer, bobConn := newConnPair(t)
	bob := &models.Client{Conn: bobServer, ID: "conn-Bob"}
	handleJoin(context.Background(), bob, map[string]interface{}{
		"type": "join", "room": "ABCD", "name": "Bob",
	}, deps)

	require.Equal(t, "roomData", readEvent(t, bobConn)["type"])
	require.Equal(t, "currentUserData", readEvent(t, bobConn)["type"])
	restored := readEvent(t, bobConn)
	require.Equal(t, "initGameState", restored["type"])
	require.Equal(t, "Alice", restored["turn"])

	s := deps.Sessions.Lookup("ABCD")
	require.NotNil(t, s, "the in-memory session was rehydrated")
	s.Mu.Lock()
	st := s.State.Clone()
	s.Mu.Unlock()
	require.Equal(t, "Alice", st.Turn)
	require.True(t, st.Restorable())
}

func TestVoiceRelayRetargetsToOnePeer(t *testing.T) {
	deps := newTestDeps(t)
	alice, _ := joinedClient(t, deps, "ABCD", "Alice")
	bob, bobConn := joinedClient(t, deps, "ABCD", "Bob")
	cara, caraConn := joinedClient(t, deps, "WXYZ", "Cara")

	handleVoiceRelay(alice, "voiceOffer", map[string]interface{}{
		"targetId": bob.ID,
		"payload":  map[string]interface{}{"sdp": "offer-sdp"},
	}, deps)

	relayed := readEvent(t, bobConn)
	require.Equal(t, "voiceOffer", relayed["type"])
	require.Equal(t, alice.ID, relayed["peerId"])
	require.Equal(t, map[string]interface{}{"sdp": "offer-sdp"}, relayed["payload"])

	// A target outside the sender's room is dropped silently.
	handleVoiceRelay(alice, "voiceAnswer", map[string]interface{}{
		"targetId": cara.ID,
		"payload":  map[string]interface{}{"sdp": "answer-sdp"},
	}, deps)
	caraConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var msg map[string]interface{}
	require.Error(t, caraConn.ReadJSON(&msg), "cross-room relay must not arrive")
}

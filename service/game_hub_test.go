package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/beka-birhanu/profesores-api/board"
	"github.com/beka-birhanu/profesores-api/dice"
	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/beka-birhanu/profesores-api/game"
	"github.com/beka-birhanu/profesores-api/infrastruture/repo/memory"
	"github.com/beka-birhanu/profesores-api/service/i"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string)    {}
func (nopLogger) Warning(string) {}
func (nopLogger) Error(string)   {}

// delivery is one event as seen by the wire: To is a group name or a connection id.
type delivery struct {
	To      string
	Event   string
	Payload any
}

type wire struct {
	log []delivery
	mu  sync.Mutex
}

func (w *wire) record(to, event string, payload any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.log = append(w.log, delivery{To: to, Event: event, Payload: payload})
}

func (w *wire) events(to string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for _, d := range w.log {
		if d.To == to {
			out = append(out, d.Event)
		}
	}
	return out
}

func (w *wire) all() []delivery {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]delivery(nil), w.log...)
}

func (w *wire) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.log = nil
}

type fakeCaller struct {
	id     string
	userID uuid.UUID
	w      *wire
}

func (c *fakeCaller) ConnID() string    { return c.id }
func (c *fakeCaller) UserID() uuid.UUID { return c.userID }
func (c *fakeCaller) Send(event string, payload any) error {
	c.w.record(c.id, event, payload)
	return nil
}

type fakeTransport struct {
	w      *wire
	groups map[string]map[string]i.Caller
	mu     sync.Mutex
}

func (t *fakeTransport) Join(group string, c i.Caller) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.groups[group] == nil {
		t.groups[group] = map[string]i.Caller{}
	}
	t.groups[group][c.ConnID()] = c
}

func (t *fakeTransport) Leave(group string, c i.Caller) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.groups[group], c.ConnID())
}

func (t *fakeTransport) Broadcast(group, event string, payload any) {
	t.w.record(group, event, payload)
}

func (t *fakeTransport) BroadcastOthers(group string, sender i.Caller, event string, payload any) {
	t.w.record(group+"/others", event, payload)
}

type hubFixture struct {
	hub    *GameHub
	rooms  *Rooms
	store  *memory.Store
	wire   *wire
	users  []uuid.UUID
	gameID uuid.UUID
}

func newHubFixture(t *testing.T, seats int, die dice.Die) *hubFixture {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	gen, err := board.NewGenerator(board.DefaultCatalog())
	require.NoError(t, err)
	locker := game.NewKeyedLocker()
	engine, err := game.NewEngine(&game.Config{
		Games:  store.Games(),
		Rooms:  store.Rooms(),
		Boards: gen,
		Die:    die,
		Locker: locker,
		Logger: nopLogger{},
	})
	require.NoError(t, err)

	w := &wire{}
	hub, err := NewGameHub(engine, &fakeTransport{w: w, groups: map[string]map[string]i.Caller{}}, nopLogger{})
	require.NoError(t, err)

	rooms, err := NewRoomService(&RoomsConfig{
		Rooms:   store.Rooms(),
		Players: store.Players(),
		Users:   store.Users(),
		Engine:  engine,
		Locker:  locker,
		Logger:  nopLogger{},
	})
	require.NoError(t, err)

	f := &hubFixture{hub: hub, rooms: rooms, store: store, wire: w}
	for n := range seats {
		u := &dmn.User{ID: uuid.New(), Username: fmt.Sprintf("user%d", n)}
		require.NoError(t, store.Users().Save(u))
		f.users = append(f.users, u.ID)
	}

	if seats > 0 {
		room, err := rooms.Create(ctx, f.users[0], "aula 101", 4)
		require.NoError(t, err)
		for _, u := range f.users[1:] {
			_, err := rooms.Join(ctx, room.ID, u)
			require.NoError(t, err)
		}
		if seats >= 2 {
			state, err := rooms.StartGame(ctx, room.ID, f.users[0])
			require.NoError(t, err)
			f.gameID = state.GameID
		}
	}
	return f
}

func (f *hubFixture) caller(n int) *fakeCaller {
	return &fakeCaller{id: fmt.Sprintf("conn-%d", n), userID: f.users[n], w: f.wire}
}

func (f *hubFixture) place(t *testing.T, userID uuid.UUID, position int) {
	t.Helper()
	ctx := context.Background()
	g, err := f.store.Games().ByID(ctx, f.gameID)
	require.NoError(t, err)
	g.PlayerByUser(userID).Position = position
	require.NoError(t, f.store.Games().Save(ctx, g))
}

func TestHubMoveWithQuiz(t *testing.T) {
	ctx := context.Background()
	f := newHubFixture(t, 2, dice.NewSequence(3))
	f.place(t, f.users[0], 20)
	c := f.caller(0)
	group := GroupName(f.gameID)

	res, err := f.hub.Move(ctx, c, f.gameID, c.userID)
	require.NoError(t, err)
	assert.True(t, res.Outcome.RequiresQuizAnswer())

	log := f.wire.all()
	require.Len(t, log, 3)
	assert.Equal(t, delivery{To: c.id, Event: EvtReceiveQuizQuestion, Payload: res.Outcome.Quiz}, log[0])
	assert.Equal(t, []string{EvtMoveCompleted, EvtGameStateUpdate}, f.wire.events(group))

	mc, ok := log[1].Payload.(MoveCompleted)
	require.True(t, ok)
	assert.Equal(t, c.userID, mc.UserID)

	raw, err := json.Marshal(mc)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "5x-3=12", "group never sees the quiz")

	f.wire.reset()
	res, err = f.hub.AnswerQuiz(ctx, c, f.gameID, c.userID, "C")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Outcome.FinalPosition)
	assert.Equal(t, []string{EvtMoveCompleted, EvtGameStateUpdate}, f.wire.events(group))
	assert.Empty(t, f.wire.events(c.id))
}

func TestHubWinOrdering(t *testing.T) {
	ctx := context.Background()
	f := newHubFixture(t, 2, dice.NewSequence(6))
	f.place(t, f.users[0], 94)

	res, err := f.hub.Move(ctx, nil, f.gameID, f.users[0])
	require.NoError(t, err)
	assert.True(t, res.Finished())

	group := GroupName(f.gameID)
	assert.Equal(t, []string{EvtMoveCompleted, EvtGameStateUpdate, EvtGameFinished}, f.wire.events(group))

	log := f.wire.all()
	finished, ok := log[len(log)-1].Payload.(GameFinished)
	require.True(t, ok)
	require.NotNil(t, finished.WinnerID)
	assert.Equal(t, f.users[0], *finished.WinnerID)
	assert.Equal(t, "user0", finished.WinnerName)
}

func TestHubErrorsGoToCallerOnly(t *testing.T) {
	ctx := context.Background()
	f := newHubFixture(t, 2, dice.NewSequence())
	c := f.caller(1)

	_, err := f.hub.Move(ctx, c, f.gameID, c.userID)
	assert.ErrorIs(t, err, dmn.ErrNotPlayersTurn)

	log := f.wire.all()
	require.Len(t, log, 1)
	assert.Equal(t, delivery{To: c.id, Event: EvtMoveError, Payload: dmn.ErrNotPlayersTurn.Message}, log[0])

	f.wire.reset()
	_, err = f.hub.Surrender(ctx, c, uuid.New(), c.userID)
	assert.ErrorIs(t, err, dmn.ErrGameNotFound)
	assert.Equal(t, []string{EvtSurrenderError}, f.wire.events(c.id))
	assert.Len(t, f.wire.all(), 1)
}

func TestHubSurrender(t *testing.T) {
	ctx := context.Background()
	f := newHubFixture(t, 3, dice.NewSequence())
	group := GroupName(f.gameID)

	_, err := f.hub.Surrender(ctx, f.caller(0), f.gameID, f.users[0])
	require.NoError(t, err)
	assert.Equal(t, []string{EvtPlayerSurrendered, EvtGameStateUpdate}, f.wire.events(group))

	f.wire.reset()
	res, err := f.hub.Surrender(ctx, f.caller(1), f.gameID, f.users[1])
	require.NoError(t, err)
	assert.True(t, res.Finished())
	assert.Equal(t, []string{EvtPlayerSurrendered, EvtGameStateUpdate, EvtGameFinished}, f.wire.events(group))

	log := f.wire.all()
	finished := log[len(log)-1].Payload.(GameFinished)
	assert.Equal(t, surrenderFinishMessage, finished.Message)
	assert.Equal(t, f.users[2], *finished.WinnerID)
}

func TestHubHandle(t *testing.T) {
	ctx := context.Background()
	f := newHubFixture(t, 2, dice.NewSequence(3))
	c := f.caller(0)
	group := GroupName(f.gameID)
	body := func(v any) json.RawMessage {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		return raw
	}

	t.Run("join sends state to caller and notifies others", func(t *testing.T) {
		f.wire.reset()
		f.hub.Handle(ctx, c, MsgJoinGameGroup, body(Request{GameID: f.gameID}))
		assert.Equal(t, []string{EvtPlayerJoined}, f.wire.events(group+"/others"))
		assert.Equal(t, []string{EvtGameStateUpdate}, f.wire.events(c.id))
	})

	t.Run("request quiz without one pending", func(t *testing.T) {
		f.wire.reset()
		f.hub.Handle(ctx, c, MsgRequestQuizQuestion, body(Request{GameID: f.gameID}))
		log := f.wire.all()
		require.Len(t, log, 1)
		assert.Equal(t, EvtError, log[0].Event)
		assert.Equal(t, dmn.ErrNoPendingQuiz.Message, log[0].Payload)
	})

	t.Run("move then answer through messages", func(t *testing.T) {
		f.place(t, f.users[0], 20)
		f.wire.reset()
		f.hub.Handle(ctx, c, MsgSendMove, body(Request{GameID: f.gameID}))
		assert.Equal(t, []string{EvtReceiveQuizQuestion}, f.wire.events(c.id))

		f.wire.reset()
		f.hub.Handle(ctx, c, MsgRequestQuizQuestion, body(Request{GameID: f.gameID}))
		assert.Equal(t, []string{EvtReceiveQuizQuestion}, f.wire.events(c.id))

		f.wire.reset()
		f.hub.Handle(ctx, c, MsgSendQuizAnswer, body(Request{GameID: f.gameID, Option: "B"}))
		assert.Equal(t, []string{EvtMoveCompleted, EvtGameStateUpdate}, f.wire.events(group))
	})

	t.Run("leave notifies others", func(t *testing.T) {
		f.wire.reset()
		f.hub.Handle(ctx, c, MsgLeaveGameGroup, body(Request{GameID: f.gameID}))
		assert.Equal(t, []string{EvtPlayerLeft}, f.wire.events(group+"/others"))
	})

	t.Run("bad requests", func(t *testing.T) {
		f.wire.reset()
		f.hub.Handle(ctx, c, MsgSendMove, json.RawMessage(`{"gameId":`))
		f.hub.Handle(ctx, c, MsgSendMove, body(Request{}))
		f.hub.Handle(ctx, c, "Dance", body(Request{GameID: f.gameID}))
		anon := &fakeCaller{id: "anon", w: f.wire}
		f.hub.Handle(ctx, anon, MsgSendMove, body(Request{GameID: f.gameID}))

		assert.Equal(t, []string{EvtError, EvtError, EvtError}, f.wire.events(c.id))
		assert.Equal(t, []string{EvtError}, f.wire.events("anon"))
		assert.Empty(t, f.wire.events(group))
	})
}

package gameapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/beka-birhanu/profesores-api/api"
	apii "github.com/beka-birhanu/profesores-api/api/i"
	"github.com/beka-birhanu/profesores-api/api/identity"
	"github.com/beka-birhanu/profesores-api/board"
	"github.com/beka-birhanu/profesores-api/dice"
	"github.com/beka-birhanu/profesores-api/game"
	"github.com/beka-birhanu/profesores-api/infrastruture/repo/memory"
	"github.com/beka-birhanu/profesores-api/infrastruture/token"
	"github.com/beka-birhanu/profesores-api/service"
	"github.com/beka-birhanu/profesores-api/ws"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const password = "correct-horse-battery-staple"

type nopLogger struct{}

func (nopLogger) Info(string)    {}
func (nopLogger) Warning(string) {}
func (nopLogger) Error(string)   {}

type apiFixture struct {
	handler *gin.Engine
	locker  *game.KeyedLocker
}

func newAPIFixture(t *testing.T, die dice.Die) *apiFixture {
	t.Helper()
	return newAPIFixtureWithTimeout(t, die, 0)
}

func newAPIFixtureWithTimeout(t *testing.T, die dice.Die, timeout time.Duration) *apiFixture {
	t.Helper()

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

	wsHub, err := ws.NewHub(&ws.Config{Logger: nopLogger{}, PingInterval: time.Hour})
	require.NoError(t, err)
	gameHub, err := service.NewGameHub(engine, wsHub, nopLogger{})
	require.NoError(t, err)
	wsHub.SetClientRequestHandler(gameHub.Handle)
	wsHub.SetDisconnectHandler(gameHub.Disconnected)

	rooms, err := service.NewRoomService(&service.RoomsConfig{
		Rooms:   store.Rooms(),
		Players: store.Players(),
		Users:   store.Users(),
		Engine:  engine,
		Locker:  locker,
		Logger:  nopLogger{},
	})
	require.NoError(t, err)

	auth, err := service.NewAuthService(store.Users(), token.NewJwtService("test-secret", "profesores"))
	require.NoError(t, err)

	roomController, err := NewRoomController(rooms, timeout)
	require.NoError(t, err)
	gameController, err := NewGameController(gameHub, engine, timeout)
	require.NoError(t, err)
	hubController, err := NewHubController(wsHub)
	require.NoError(t, err)
	accountController, err := identity.NewAccountController(auth)
	require.NoError(t, err)

	router := api.NewRouter(api.Config{
		BaseURL: "/api",
		Mode:    gin.TestMode,
		Controllers: []apii.Controller{
			accountController,
			roomController,
			gameController,
			hubController,
		},
		AuthorizationMiddleware: identity.Authoriz(auth),
	})
	return &apiFixture{handler: router.Handler(), locker: locker}
}

func (f *apiFixture) do(t *testing.T, method, path, tok string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func (f *apiFixture) signUp(t *testing.T, username string) string {
	t.Helper()
	code, _ := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusCreated, code)
	code, body := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, code)
	return body["token"].(string)
}

// startGame opens a room for alice, seats bob and starts the game.
func (f *apiFixture) startGame(t *testing.T, alice, bob string) string {
	t.Helper()
	code, room := f.do(t, http.MethodPost, "/api/v1/rooms", alice, map[string]any{"name": "aula 12"})
	require.Equal(t, http.StatusCreated, code)
	roomID := room["id"].(string)

	code, _ = f.do(t, http.MethodPost, "/api/v1/rooms/"+roomID+"/join", bob, nil)
	require.Equal(t, http.StatusOK, code)

	code, state := f.do(t, http.MethodPost, "/api/v1/rooms/"+roomID+"/game", alice, nil)
	require.Equal(t, http.StatusCreated, code)
	return state["gameId"].(string)
}

func TestGameOverHTTP(t *testing.T) {
	f := newAPIFixture(t, dice.NewSequence(3))
	alice := f.signUp(t, "alice")
	bob := f.signUp(t, "bob")

	t.Run("health", func(t *testing.T) {
		code, body := f.do(t, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("protected routes need a token", func(t *testing.T) {
		code, body := f.do(t, http.MethodPost, "/api/v1/rooms", "", map[string]any{"name": "x"})
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "user not authenticated", body["error"])

		code, _ = f.do(t, http.MethodPost, "/api/v1/rooms", "garbage", map[string]any{"name": "x"})
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("bad credentials", func(t *testing.T) {
		code, _ := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, code)

		code, _ = f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "alice", "password": password})
		assert.Equal(t, http.StatusConflict, code)
	})

	gameID := f.startGame(t, alice, bob)

	t.Run("state", func(t *testing.T) {
		code, state := f.do(t, http.MethodGet, "/api/v1/games/"+gameID, alice, nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "InProgress", state["status"])
		assert.Equal(t, "WaitingForDice", state["currentTurnPhase"])
		assert.Len(t, state["players"], 2)
	})

	t.Run("move", func(t *testing.T) {
		code, body := f.do(t, http.MethodPost, "/api/v1/games/"+gameID+"/move", alice, nil)
		require.Equal(t, http.StatusOK, code)
		result := body["moveResult"].(map[string]any)
		assert.EqualValues(t, 3, result["diceValue"])
		assert.EqualValues(t, 3, result["finalPosition"])

		code, body = f.do(t, http.MethodPost, "/api/v1/games/"+gameID+"/move", alice, nil)
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "not your turn", body["error"])
	})

	t.Run("quiz without a pending question", func(t *testing.T) {
		code, _ := f.do(t, http.MethodGet, "/api/v1/games/"+gameID+"/quiz", bob, nil)
		assert.Equal(t, http.StatusConflict, code)

		code, _ = f.do(t, http.MethodPost, "/api/v1/games/"+gameID+"/quiz", bob, map[string]string{"option": "A"})
		assert.Equal(t, http.StatusConflict, code)

		code, _ = f.do(t, http.MethodPost, "/api/v1/games/"+gameID+"/quiz", bob, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("unknown and malformed ids", func(t *testing.T) {
		code, _ := f.do(t, http.MethodGet, "/api/v1/games/6ba7b810-9dad-11d1-80b4-00c04fd430c8", alice, nil)
		assert.Equal(t, http.StatusNotFound, code)

		code, _ = f.do(t, http.MethodGet, "/api/v1/games/not-an-id", alice, nil)
		assert.Equal(t, http.StatusBadRequest, code)

		code, _ = f.do(t, http.MethodGet, "/api/v1/rooms/6ba7b810-9dad-11d1-80b4-00c04fd430c8", alice, nil)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("surrender ends a two player game", func(t *testing.T) {
		code, body := f.do(t, http.MethodPost, "/api/v1/games/"+gameID+"/surrender", bob, nil)
		require.Equal(t, http.StatusOK, code)
		state := body["gameState"].(map[string]any)
		assert.Equal(t, "Finished", state["status"])
		assert.Equal(t, "alice", state["winnerName"])

		code, _ = f.do(t, http.MethodPost, "/api/v1/games/"+gameID+"/move", alice, nil)
		assert.Equal(t, http.StatusConflict, code)
	})
}

func TestBusyGameTimesOut(t *testing.T) {
	f := newAPIFixtureWithTimeout(t, dice.NewSequence(2), 50*time.Millisecond)
	alice := f.signUp(t, "alice")
	bob := f.signUp(t, "bob")
	gameID := f.startGame(t, alice, bob)

	unlock, err := f.locker.Lock(context.Background(), uuid.MustParse(gameID))
	require.NoError(t, err)

	start := time.Now()
	code, body := f.do(t, http.MethodPost, "/api/v1/games/"+gameID+"/move", alice, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "game is busy, try again", body["error"])
	assert.Less(t, time.Since(start), 5*time.Second)

	code, _ = f.do(t, http.MethodGet, "/api/v1/games/"+gameID, alice, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	unlock()
	code, body = f.do(t, http.MethodPost, "/api/v1/games/"+gameID+"/move", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["moveResult"].(map[string]any)["diceValue"])
}

func TestGameOverHub(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	f := newAPIFixture(t, dice.NewSequence(6))
	alice := f.signUp(t, "alice")
	bob := f.signUp(t, "bob")
	gameID := f.startGame(t, alice, bob)

	srv := httptest.NewServer(f.handler)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/hubs/game?access_token="

	t.Run("rejects anonymous connections", func(t *testing.T) {
		_, resp, err := websocket.Dial(ctx, url, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	a, _, err := websocket.Dial(ctx, url+alice, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(websocket.StatusNormalClosure, "") })

	read := func(t *testing.T) ws.Envelope {
		t.Helper()
		var env ws.Envelope
		require.NoError(t, wsjson.Read(ctx, a, &env))
		return env
	}

	request, err := json.Marshal(service.Request{GameID: uuid.MustParse(gameID)})
	require.NoError(t, err)

	t.Run("join receives the state", func(t *testing.T) {
		require.NoError(t, wsjson.Write(ctx, a, ws.Envelope{T: service.MsgJoinGameGroup, M: request}))
		env := read(t)
		assert.Equal(t, service.EvtGameStateUpdate, env.T)
	})

	t.Run("moves over REST reach the group", func(t *testing.T) {
		code, _ := f.do(t, http.MethodPost, "/api/v1/games/"+gameID+"/move", alice, nil)
		require.Equal(t, http.StatusOK, code)

		env := read(t)
		require.Equal(t, service.EvtMoveCompleted, env.T)
		var done struct {
			MoveResult map[string]any `json:"moveResult"`
		}
		require.NoError(t, json.Unmarshal(env.M, &done))
		// 0 + 6 lands on a shortcut to 14.
		assert.EqualValues(t, 14, done.MoveResult["finalPosition"])

		assert.Equal(t, service.EvtGameStateUpdate, read(t).T)
	})

	t.Run("errors go back to the sender", func(t *testing.T) {
		require.NoError(t, wsjson.Write(ctx, a, ws.Envelope{T: service.MsgSendMove, M: request}))
		env := read(t)
		assert.Equal(t, service.EvtMoveError, env.T)
		var msg string
		require.NoError(t, json.Unmarshal(env.M, &msg))
		assert.Equal(t, "not your turn", msg)
	})
}

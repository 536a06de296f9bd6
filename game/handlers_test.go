package game

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func setupWebsocketServer(t *testing.T) (*httptest.Server, *Hub, *Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	quizzes := &MockQuizGetter{}
	quizzes.On("GetQuizById", mock.Anything, "quiz-id").Return(arithmeticQuiz(), nil)
	recorder := &MockSessionRecorder{}
	recorder.On("RecordSessionCreated", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	recorder.On("RecordPlayerJoined", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	tickerGen := NewTickerGen()

	hub := NewHub()
	registry := NewRegistry(NewRandomCodeGenerator(), 0)
	svc := NewService(registry, hub, quizzes, recorder, &tickerGen, ServiceOptions{})
	handler := NewGameHandler(hub, svc, ClientLimits{Rate: rate.Inf, Burst: 1})

	r := gin.New()
	r.GET("/ws", handler.ConnectHandler)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, hub, registry
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) recordedMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	var msg recordedMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestConnectHandler(t *testing.T) {
	t.Parallel()
	server, hub, registry := setupWebsocketServer(t)

	host := dial(t, server)
	require.NoError(t, host.WriteMessage(websocket.TextMessage, []byte(`{"event":"create_game","data":{"quizId":"quiz-id"}}`)))
	created := readEvent(t, host)
	require.Equal(t, EVENT_GAME_CREATED, created.Event)
	var payload GameCreatedPayload
	require.NoError(t, json.Unmarshal(created.Data, &payload))
	assert.Regexp(t, roomCodePattern, payload.RoomCode)

	player := dial(t, server)
	join := `{"event":"join_game","data":{"roomCode":"` + payload.RoomCode + `","name":"Ann"}}`
	require.NoError(t, player.WriteMessage(websocket.TextMessage, []byte(join)))
	assert.Equal(t, EVENT_GAME_JOINED, readEvent(t, player).Event)
	assert.Equal(t, EVENT_PLAYER_JOINED, readEvent(t, player).Event)
	assert.Equal(t, EVENT_PLAYER_JOINED, readEvent(t, host).Event)

	player.Close()
	left := readEvent(t, host)
	assert.Equal(t, EVENT_PLAYER_LEFT, left.Event)

	room, err := registry.FindRoom(payload.RoomCode)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return len(room.Players()) == 0 && hub.Members(payload.RoomCode) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestConnectHandler_GarbageFrame(t *testing.T) {
	t.Parallel()
	server, _, _ := setupWebsocketServer(t)

	conn := dial(t, server)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	msg := readEvent(t, conn)
	assert.Equal(t, EVENT_ERROR, msg.Event)
	assert.JSONEq(t, `{"message":"invalid-payload"}`, string(msg.Data))
}

package game

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = time.Minute
	maxMsgSize = 4096
)

type gorillaWebSocketWrapper struct {
	socket *websocket.Conn
}

func NewGorillaWebSocketWrapper(conn *websocket.Conn) *gorillaWebSocketWrapper {
	conn.SetReadLimit(maxMsgSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &gorillaWebSocketWrapper{conn}
}

func (ws *gorillaWebSocketWrapper) Write(data []byte) error {
	ws.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.socket.WriteMessage(websocket.TextMessage, data)
}

func (ws *gorillaWebSocketWrapper) Ping() error {
	return ws.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (ws *gorillaWebSocketWrapper) Read() ([]byte, error) {
	_, p, err := ws.socket.ReadMessage()
	return p, err
}

func (ws *gorillaWebSocketWrapper) Close() {
	ws.socket.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	ws.socket.Close()
}

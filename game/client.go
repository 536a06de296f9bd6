package game

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var ErrSendBufferFull = errors.New("send-buffer-full")

const clientOutboxSize = 256

// Client is one websocket connection. Its id is the participant id used by
// rooms and the hub.
type Client struct {
	id          string
	ctx         context.Context
	cancelCtx   context.CancelFunc
	outbox      chan []byte
	pingChan    chan struct{}
	rateLimiter *rate.Limiter
	handler     MessageHandler
}

func NewClient(handler MessageHandler, limit rate.Limit, burst int) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:          uuid.NewString(),
		ctx:         ctx,
		cancelCtx:   cancel,
		outbox:      make(chan []byte, clientOutboxSize),
		pingChan:    make(chan struct{}, 1),
		rateLimiter: rate.NewLimiter(limit, burst),
		handler:     handler,
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send never blocks. A slow client loses messages instead of stalling a room.
func (c *Client) Send(data []byte) error {
	select {
	case <-c.ctx.Done():
		return context.Canceled
	default:
	}
	select {
	case c.outbox <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Client) Ping() {
	select {
	case c.pingChan <- struct{}{}:
	default:
	}
}

func (c *Client) CancelAndRelease() {
	c.cancelCtx()
}

// ReadPump decodes inbound frames in arrival order and hands them to the
// handler. When the socket fails it disconnects the participant exactly once.
func (c *Client) ReadPump(socket WebsocketConnection) {
	defer func() {
		c.cancelCtx()
		socket.Close()
		c.handler.Disconnect(context.Background(), c.id)
	}()

	for {
		data, err := socket.Read()
		if err != nil {
			return
		}
		if c.ctx.Err() != nil {
			return
		}
		if !c.rateLimiter.Allow() {
			slog.Debug("Rate limited client message", "participant", c.id)
			continue
		}

		msg := ClientMessage{}
		if err := json.Unmarshal(data, &msg); err != nil || msg.Event == "" {
			c.sendError(ErrInvalidPayload)
			continue
		}
		c.handler.HandleMessage(c.ctx, c.id, msg)
	}
}

func (c *Client) WritePump(socket WebsocketConnection) {
	defer socket.Close()
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.outbox:
			if err := socket.Write(data); err != nil {
				c.cancelCtx()
				return
			}
		case <-c.pingChan:
			if err := socket.Ping(); err != nil {
				c.cancelCtx()
				return
			}
		}
	}
}

func (c *Client) sendError(err error) {
	msg := MakeMessageError(err)
	data, merr := json.Marshal(msg)
	if merr != nil {
		slog.Error("Failed to marshal server message", "event", msg.Event, "error", merr)
		return
	}
	if serr := c.Send(data); serr != nil {
		slog.Warn("Dropping message", "participant", c.id, "event", msg.Event, "error", serr)
	}
}

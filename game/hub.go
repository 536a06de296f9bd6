package game

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Hub tracks connected peers and which room broadcast group each one is in.
// A participant belongs to at most one room at a time.
type Hub struct {
	locker     sync.RWMutex
	peers      map[string]Peer
	rooms      map[string]map[string]struct{}
	membership map[string]string
}

func NewHub() *Hub {
	return &Hub{
		peers:      make(map[string]Peer),
		rooms:      make(map[string]map[string]struct{}),
		membership: make(map[string]string),
	}
}

func (h *Hub) Register(p Peer) {
	h.locker.Lock()
	defer h.locker.Unlock()
	h.peers[p.ID()] = p
}

func (h *Hub) Unregister(participantID string) {
	h.locker.Lock()
	defer h.locker.Unlock()
	h.leaveLocked(participantID)
	delete(h.peers, participantID)
}

// EnterRoom moves the participant into a room's broadcast group and returns
// the other room it was listening to, if any.
func (h *Hub) EnterRoom(participantID, roomCode string) (string, bool) {
	h.locker.Lock()
	defer h.locker.Unlock()
	if _, ok := h.peers[participantID]; !ok {
		return "", false
	}
	previous, moved := h.membership[participantID]
	moved = moved && previous != roomCode
	h.leaveLocked(participantID)
	members, ok := h.rooms[roomCode]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[roomCode] = members
	}
	members[participantID] = struct{}{}
	h.membership[participantID] = roomCode
	if !moved {
		return "", false
	}
	return previous, true
}

// LeaveRoom removes the participant from its broadcast group and returns
// the code it left.
func (h *Hub) LeaveRoom(participantID string) (string, bool) {
	h.locker.Lock()
	defer h.locker.Unlock()
	code, ok := h.membership[participantID]
	h.leaveLocked(participantID)
	return code, ok
}

func (h *Hub) leaveLocked(participantID string) {
	code, ok := h.membership[participantID]
	if !ok {
		return
	}
	delete(h.membership, participantID)
	members := h.rooms[code]
	delete(members, participantID)
	if len(members) == 0 {
		delete(h.rooms, code)
	}
}

func (h *Hub) Members(roomCode string) int {
	h.locker.RLock()
	defer h.locker.RUnlock()
	return len(h.rooms[roomCode])
}

// RoomOf returns the room code a participant currently listens to.
func (h *Hub) RoomOf(participantID string) (string, bool) {
	h.locker.RLock()
	defer h.locker.RUnlock()
	code, ok := h.membership[participantID]
	return code, ok
}

func (h *Hub) SendTo(participantID string, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal server message", "event", msg.Event, "error", err)
		return
	}
	h.locker.RLock()
	p, ok := h.peers[participantID]
	h.locker.RUnlock()
	if !ok {
		return
	}
	if err := p.Send(data); err != nil {
		slog.Warn("Dropping message", "participant", participantID, "event", msg.Event, "error", err)
	}
}

func (h *Hub) Broadcast(roomCode string, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal server message", "event", msg.Event, "error", err)
		return
	}
	h.locker.RLock()
	targets := make([]Peer, 0, len(h.rooms[roomCode]))
	for id := range h.rooms[roomCode] {
		targets = append(targets, h.peers[id])
	}
	h.locker.RUnlock()

	for _, p := range targets {
		if err := p.Send(data); err != nil {
			slog.Warn("Dropping message", "participant", p.ID(), "room", roomCode, "event", msg.Event, "error", err)
		}
	}
}

func (h *Hub) PingPeers() {
	h.locker.RLock()
	targets := make([]Peer, 0, len(h.peers))
	for _, p := range h.peers {
		targets = append(targets, p)
	}
	h.locker.RUnlock()
	for _, p := range targets {
		p.Ping()
	}
}

// PingActor pings every peer on each tick until ctx is done.
func (h *Hub) PingActor(ctx context.Context, tickerCreator PeriodicTickerChannelCreator, interval time.Duration) {
	ticker := tickerCreator.Create(interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker:
			h.PingPeers()
		}
	}
}

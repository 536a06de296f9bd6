package game

import (
	"sync"

	"github.com/tak-uukti/orion-quiz-app/domain"
)

const DefaultMaxCodeAttempts = 64

// Registry maps active room codes to rooms. It is owned by the composition
// root and handed to the service, one per process.
type Registry struct {
	locker      sync.RWMutex
	rooms       map[string]*Room
	codeGen     CodeGenerator
	maxAttempts int
}

func NewRegistry(codeGen CodeGenerator, maxAttempts int) *Registry {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxCodeAttempts
	}
	return &Registry{
		rooms:       make(map[string]*Room),
		codeGen:     codeGen,
		maxAttempts: maxAttempts,
	}
}

func (reg *Registry) AllocateRoom(quiz domain.Quiz) (*Room, error) {
	reg.locker.Lock()
	defer reg.locker.Unlock()

	for range reg.maxAttempts {
		code := reg.codeGen.Generate()
		if _, taken := reg.rooms[code]; taken {
			continue
		}
		room := NewRoom(code, quiz)
		reg.rooms[code] = room
		return room, nil
	}
	return nil, ErrCapacityExhausted
}

func (reg *Registry) FindRoom(code string) (*Room, error) {
	reg.locker.RLock()
	defer reg.locker.RUnlock()
	room, ok := reg.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// FindRoomByParticipant scans every active room's players. Hosts are not
// players, so they never resolve to a room here.
func (reg *Registry) FindRoomByParticipant(participantID string) (*Room, error) {
	reg.locker.RLock()
	defer reg.locker.RUnlock()
	for _, room := range reg.rooms {
		if room.HasPlayer(participantID) {
			return room, nil
		}
	}
	return nil, ErrRoomNotFound
}

func (reg *Registry) RemoveRoom(code string) {
	reg.locker.Lock()
	defer reg.locker.Unlock()
	delete(reg.rooms, code)
}

func (reg *Registry) Len() int {
	reg.locker.RLock()
	defer reg.locker.RUnlock()
	return len(reg.rooms)
}

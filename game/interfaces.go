package game

import (
	"context"
	"time"

	"github.com/tak-uukti/orion-quiz-app/domain"
)

type WebsocketConnection interface {
	Close()
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

type CodeGenerator interface {
	Generate() string
}

type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

type TimerCreator interface {
	After(duration time.Duration) <-chan time.Time
}

type QuizGetter interface {
	GetQuizById(ctx context.Context, id string) (domain.Quiz, error)
}

// SessionRecorder is the write side of the storage collaborator. The service
// treats every call as fire-and-observe.
type SessionRecorder interface {
	RecordSessionCreated(ctx context.Context, roomCode string, quiz domain.Quiz) error
	RecordPlayerJoined(ctx context.Context, roomCode, playerID, name string) error
	RecordAnswer(ctx context.Context, roomCode string, response domain.Response) error
	RecordQuestionStartedAt(ctx context.Context, roomCode string, questionIndex int, startedAt time.Time) error
	RecordStatus(ctx context.Context, roomCode string, status string) error
}

// Broadcaster is the transport seen by the service.
type Broadcaster interface {
	SendTo(participantID string, msg ServerMessage)
	Broadcast(roomCode string, msg ServerMessage)
	EnterRoom(participantID, roomCode string) (string, bool)
	LeaveRoom(participantID string) (string, bool)
	Members(roomCode string) int
}

type MessageHandler interface {
	HandleMessage(ctx context.Context, participantID string, msg ClientMessage)
	Disconnect(ctx context.Context, participantID string)
}

// Peer is a connected participant as seen by the hub.
type Peer interface {
	ID() string
	Send(data []byte) error
	Ping()
}

package game

import "errors"

var (
	ErrRoomNotFound      = errors.New("room-not-found")
	ErrCapacityExhausted = errors.New("room-codes-exhausted")
)

// Room state machine rejections. None of them mutate the room.
var (
	ErrAlreadyJoined        = errors.New("already-joined")
	ErrNameTaken            = errors.New("name-taken")
	ErrInvalidName          = errors.New("invalid-name")
	ErrGameFinished         = errors.New("game-finished")
	ErrGameAlreadyStarted   = errors.New("game-already-started")
	ErrGameNotStarted       = errors.New("game-not-started")
	ErrNotAcceptingAnswers  = errors.New("not-accepting-answers")
	ErrAlreadyAnswered      = errors.New("already-answered")
	ErrPlayerNotInRoom      = errors.New("player-not-in-room")
	ErrInvalidOption        = errors.New("invalid-option")
	ErrNoActiveQuestion     = errors.New("no-active-question")
	ErrCountdownInterrupted = errors.New("countdown-interrupted")
)

var (
	ErrUnknownEvent   = errors.New("unknown-event")
	ErrInvalidPayload = errors.New("invalid-payload")
	ErrUnknown        = errors.New("unknown-error")
)

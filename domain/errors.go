package domain

import "errors"

var (
	ErrUnexpectedDatabase = errors.New("database-error")
	ErrQuizNotFound       = errors.New("quiz-not-found")
	ErrSessionNotFound    = errors.New("session-not-found")
)

package game

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tak-uukti/orion-quiz-app/domain"
)

const (
	DefaultCountdownDuration = 3 * time.Second
	DefaultPersistTimeout    = 2 * time.Second
)

var ErrEmptyQuiz = errors.New("quiz-has-no-questions")

// publicErrors are forwarded to participants verbatim, anything else
// becomes ErrUnknown.
var publicErrors = []error{
	ErrRoomNotFound, ErrCapacityExhausted, domain.ErrQuizNotFound, ErrEmptyQuiz,
	ErrAlreadyJoined, ErrNameTaken, ErrInvalidName, ErrGameFinished,
	ErrGameAlreadyStarted, ErrGameNotStarted, ErrNotAcceptingAnswers,
	ErrPlayerNotInRoom, ErrInvalidOption, ErrNoActiveQuestion,
	ErrUnknownEvent, ErrInvalidPayload,
}

type ServiceOptions struct {
	CountdownDuration time.Duration
	PersistTimeout    time.Duration
}

// Service turns participant actions into room operations and broadcasts
// their outcome. Storage is only ever told about what already happened.
type Service struct {
	registry  *Registry
	hub       Broadcaster
	quizzes   QuizGetter
	recorder  SessionRecorder
	timers    TimerCreator
	countdown time.Duration
	timeout   time.Duration
	now       func() time.Time
	pending   sync.WaitGroup
}

func NewService(registry *Registry, hub Broadcaster, quizzes QuizGetter, recorder SessionRecorder, timers TimerCreator, opts ServiceOptions) *Service {
	if opts.CountdownDuration <= 0 {
		opts.CountdownDuration = DefaultCountdownDuration
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = DefaultPersistTimeout
	}
	return &Service{
		registry:  registry,
		hub:       hub,
		quizzes:   quizzes,
		recorder:  recorder,
		timers:    timers,
		countdown: opts.CountdownDuration,
		timeout:   opts.PersistTimeout,
		now:       time.Now,
	}
}

// Wait blocks until every scheduled countdown has fired.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) HandleMessage(ctx context.Context, participantID string, msg ClientMessage) {
	var err error
	switch msg.Event {
	case EVENT_CREATE_GAME:
		err = s.handleCreateGame(ctx, participantID, msg.Data)
	case EVENT_HOST_JOIN:
		err = s.handleHostJoin(participantID, msg.Data)
	case EVENT_JOIN_GAME:
		err = s.handleJoinGame(participantID, msg.Data)
	case EVENT_START_GAME:
		err = s.handleStartGame(msg.Data)
	case EVENT_SUBMIT_ANSWER:
		err = s.handleSubmitAnswer(participantID, msg.Data)
	case EVENT_SHOW_RESULTS:
		err = s.handleShowResults(msg.Data)
	case EVENT_NEXT_QUESTION:
		err = s.handleNextQuestion(msg.Data)
	default:
		err = ErrUnknownEvent
	}
	if err != nil {
		s.replyError(participantID, msg.Event, err)
	}
}

func (s *Service) Disconnect(ctx context.Context, participantID string) {
	touched := make([]string, 0, 2)
	if code, ok := s.hub.LeaveRoom(participantID); ok {
		touched = append(touched, code)
	}

	room, err := s.registry.FindRoomByParticipant(participantID)
	if err == nil {
		room.RemovePlayer(participantID)
		code := room.Code()
		s.hub.Broadcast(code, MakeMessagePlayerLeft(participantID))
		slog.Info("Player left", "room", code, "participant", participantID)
		touched = append(touched, code)
	}

	for _, code := range touched {
		s.reapIfAbandoned(code)
	}
}

// ensureNotPlayingElsewhere keeps a player's broadcast group on the room it plays in.
func (s *Service) ensureNotPlayingElsewhere(participantID string, target *Room) error {
	current, err := s.registry.FindRoomByParticipant(participantID)
	if err != nil || current == target {
		return nil
	}
	return ErrAlreadyJoined
}

func (s *Service) handleCreateGame(ctx context.Context, participantID string, data json.RawMessage) error {
	payload, err := decode[CreateGamePayload](data)
	if err != nil || payload.QuizId == "" {
		return ErrInvalidPayload
	}
	if err := s.ensureNotPlayingElsewhere(participantID, nil); err != nil {
		return err
	}

	quiz, err := s.quizzes.GetQuizById(ctx, payload.QuizId)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			return domain.ErrQuizNotFound
		}
		slog.Error("Failed to fetch quiz", "quiz", payload.QuizId, "error", err)
		return ErrUnknown
	}
	if len(quiz.Questions) == 0 {
		return ErrEmptyQuiz
	}

	room, err := s.registry.AllocateRoom(quiz)
	if err != nil {
		return err
	}
	code := room.Code()

	// recorded first so that player rows always find their session
	s.persist("session-created", code, func(ctx context.Context) error {
		return s.recorder.RecordSessionCreated(ctx, code, quiz)
	})

	s.enterRoom(participantID, code)
	s.hub.SendTo(participantID, MakeMessageGameCreated(code))
	slog.Info("Game created", "room", code, "quiz", quiz.Id, "host", participantID)
	return nil
}

func (s *Service) handleHostJoin(participantID string, data json.RawMessage) error {
	payload, err := decode[RoomPayload](data)
	if err != nil {
		return ErrInvalidPayload
	}
	room, err := s.registry.FindRoom(payload.RoomCode)
	if err != nil {
		return err
	}
	if err := s.ensureNotPlayingElsewhere(participantID, room); err != nil {
		return err
	}
	s.enterRoom(participantID, room.Code())
	s.hub.SendTo(participantID, MakeMessageGameState(room.Status()))
	slog.Info("Host joined", "room", room.Code(), "participant", participantID)
	return nil
}

func (s *Service) handleJoinGame(participantID string, data json.RawMessage) error {
	payload, err := decode[JoinGamePayload](data)
	if err != nil {
		return ErrInvalidPayload
	}
	room, err := s.registry.FindRoom(payload.RoomCode)
	if err != nil {
		return err
	}
	if err := s.ensureNotPlayingElsewhere(participantID, room); err != nil {
		return err
	}
	if err := room.AddPlayer(participantID, payload.Name); err != nil {
		return err
	}
	code := room.Code()

	s.enterRoom(participantID, code)
	s.hub.SendTo(participantID, MakeMessageGameJoined(code, payload.Name))
	s.hub.Broadcast(code, MakeMessagePlayerJoined(participantID, payload.Name))
	s.persist("player-joined", code, func(ctx context.Context) error {
		return s.recorder.RecordPlayerJoined(ctx, code, participantID, payload.Name)
	})
	slog.Info("Player joined", "room", code, "participant", participantID, "name", payload.Name)
	return nil
}

func (s *Service) handleStartGame(data json.RawMessage) error {
	payload, err := decode[RoomPayload](data)
	if err != nil {
		return ErrInvalidPayload
	}
	room, err := s.registry.FindRoom(payload.RoomCode)
	if err != nil {
		return err
	}
	if err := room.BeginCountdown(); err != nil {
		return err
	}
	code := room.Code()

	s.hub.Broadcast(code, MakeMessageGameState(STATUS_COUNTDOWN))
	s.persist("status", code, func(ctx context.Context) error {
		return s.recorder.RecordStatus(ctx, code, string(STATUS_COUNTDOWN))
	})
	slog.Info("Countdown started", "room", code, "duration", s.countdown)

	// The countdown is the only suspension point; anything may happen to
	// the room meanwhile, EndCountdown re-checks atomically.
	timer := s.timers.After(s.countdown)
	s.pending.Go(func() {
		<-timer
		s.finishCountdown(room)
	})
	return nil
}

func (s *Service) finishCountdown(room *Room) {
	q, ok, err := room.EndCountdown()
	if err != nil {
		slog.Debug("Countdown no longer applies", "room", room.Code(), "status", room.Status())
		return
	}
	if !ok {
		s.announceGameOver(room)
		return
	}
	s.announceQuestion(room, q)
}

func (s *Service) handleSubmitAnswer(participantID string, data json.RawMessage) error {
	payload, err := decode[SubmitAnswerPayload](data)
	if err != nil || payload.OptionIndex == nil {
		return ErrInvalidPayload
	}
	room, err := s.registry.FindRoom(payload.RoomCode)
	if err != nil {
		return err
	}
	outcome, err := room.SubmitAnswer(participantID, *payload.OptionIndex)
	if err != nil {
		return err
	}

	code := room.Code()
	s.hub.SendTo(participantID, MakeMessageAnswerReceived())
	response := domain.Response{
		PlayerID:      participantID,
		QuestionIndex: outcome.QuestionIndex,
		AnswerIndex:   *payload.OptionIndex,
		IsCorrect:     outcome.IsCorrect,
		ScoreAwarded:  outcome.ScoreAwarded,
		AnsweredAt:    s.now(),
	}
	s.persist("answer", code, func(ctx context.Context) error {
		return s.recorder.RecordAnswer(ctx, code, response)
	})
	slog.Debug("Answer recorded", "room", code, "participant", participantID,
		"question", outcome.QuestionIndex, "correct", outcome.IsCorrect)
	return nil
}

func (s *Service) handleShowResults(data json.RawMessage) error {
	payload, err := decode[RoomPayload](data)
	if err != nil {
		return ErrInvalidPayload
	}
	room, err := s.registry.FindRoom(payload.RoomCode)
	if err != nil {
		return err
	}
	result, err := room.EnterResultsPhase()
	if err != nil {
		return err
	}
	s.hub.Broadcast(room.Code(), MakeMessageQuestionResult(result))
	return nil
}

func (s *Service) handleNextQuestion(data json.RawMessage) error {
	payload, err := decode[RoomPayload](data)
	if err != nil {
		return ErrInvalidPayload
	}
	room, err := s.registry.FindRoom(payload.RoomCode)
	if err != nil {
		return err
	}
	q, ok, err := room.NextQuestion()
	if err != nil {
		return err
	}
	if !ok {
		s.announceGameOver(room)
		return nil
	}
	s.announceQuestion(room, q)
	return nil
}

func (s *Service) announceQuestion(room *Room, q ActiveQuestion) {
	code := room.Code()
	s.hub.Broadcast(code, MakeMessageNewQuestion(q))
	s.persist("question-started", code, func(ctx context.Context) error {
		return s.recorder.RecordQuestionStartedAt(ctx, code, q.Index, q.StartedAt)
	})
	slog.Info("Question started", "room", code, "question", q.Index, "total", q.Total)
}

func (s *Service) announceGameOver(room *Room) {
	code := room.Code()
	s.hub.Broadcast(code, MakeMessageGameOver(room.Leaderboard()))
	s.persist("status", code, func(ctx context.Context) error {
		return s.recorder.RecordStatus(ctx, code, string(STATUS_FINISHED))
	})
	slog.Info("Game over", "room", code)
	s.reapIfAbandoned(code)
}

// enterRoom switches the participant's broadcast group; the room it stops
// listening to may now be abandoned.
func (s *Service) enterRoom(participantID, code string) {
	if previous, moved := s.hub.EnterRoom(participantID, code); moved {
		s.reapIfAbandoned(previous)
	}
}

// reapIfAbandoned drops a finished room nobody listens to anymore.
func (s *Service) reapIfAbandoned(code string) {
	room, err := s.registry.FindRoom(code)
	if err != nil {
		return
	}
	if room.Status() != STATUS_FINISHED || s.hub.Members(code) > 0 {
		return
	}
	s.registry.RemoveRoom(code)
	slog.Info("Room reaped", "room", code)
}

// persist runs a storage write inline, bounded by the persist timeout. A slow
// database can therefore delay the reply to the triggering event by up to
// that timeout; failures are only logged.
func (s *Service) persist(op, roomCode string, record func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := record(ctx); err != nil {
		slog.Warn("Failed to record session event", "op", op, "room", roomCode, "error", err)
	}
}

func (s *Service) replyError(participantID, event string, err error) {
	// a repeated answer is a no-op, not a failure
	if errors.Is(err, ErrAlreadyAnswered) {
		return
	}
	for _, public := range publicErrors {
		if errors.Is(err, public) {
			s.hub.SendTo(participantID, MakeMessageError(public))
			return
		}
	}
	slog.Error("Unexpected error handling event", "event", event, "participant", participantID, "error", err)
	s.hub.SendTo(participantID, MakeMessageError(ErrUnknown))
}

func decode[T any](data json.RawMessage) (T, error) {
	var payload T
	if len(data) == 0 {
		return payload, ErrInvalidPayload
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, ErrInvalidPayload
	}
	return payload, nil
}

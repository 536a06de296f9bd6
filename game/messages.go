package game

import "encoding/json"

// Inbound events.
const (
	EVENT_CREATE_GAME   = "create_game"
	EVENT_HOST_JOIN     = "host_join"
	EVENT_JOIN_GAME     = "join_game"
	EVENT_START_GAME    = "start_game"
	EVENT_SUBMIT_ANSWER = "submit_answer"
	EVENT_SHOW_RESULTS  = "show_results"
	EVENT_NEXT_QUESTION = "next_question"
)

// Outbound events.
const (
	EVENT_GAME_CREATED    = "game_created"
	EVENT_GAME_JOINED     = "game_joined"
	EVENT_PLAYER_JOINED   = "player_joined"
	EVENT_PLAYER_LEFT     = "player_left"
	EVENT_ERROR           = "error"
	EVENT_GAME_STATE      = "game_state"
	EVENT_NEW_QUESTION    = "new_question"
	EVENT_QUESTION_RESULT = "question_result"
	EVENT_GAME_OVER       = "game_over"
	EVENT_ANSWER_RECEIVED = "answer_received"
)

// ClientMessage is one JSON text frame sent by a participant.
type ClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type ServerMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type CreateGamePayload struct {
	QuizId string `json:"quizId"`
}

type RoomPayload struct {
	RoomCode string `json:"roomCode"`
}

type JoinGamePayload struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`
}

type SubmitAnswerPayload struct {
	RoomCode    string `json:"roomCode"`
	OptionIndex *int   `json:"optionIndex"`
}

type GameCreatedPayload struct {
	RoomCode string `json:"roomCode"`
}

type GameJoinedPayload struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`
}

type PlayerJoinedPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PlayerLeftPayload struct {
	ID string `json:"id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type GameStatePayload struct {
	Status Status `json:"status"`
}

// NewQuestionPayload never carries the correct option.
type NewQuestionPayload struct {
	QuestionIndex int      `json:"questionIndex"`
	Title         string   `json:"title"`
	Options       []string `json:"options"`
	TimeLimit     int      `json:"timeLimit"`
}

type QuestionResultPayload struct {
	CorrectOption int   `json:"correctOption"`
	Stats         []int `json:"stats"`
}

type GameOverPayload struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type AnswerReceivedPayload struct{}

func MakeMessageGameCreated(roomCode string) ServerMessage {
	return ServerMessage{Event: EVENT_GAME_CREATED, Data: GameCreatedPayload{RoomCode: roomCode}}
}

func MakeMessageGameJoined(roomCode, name string) ServerMessage {
	return ServerMessage{Event: EVENT_GAME_JOINED, Data: GameJoinedPayload{RoomCode: roomCode, Name: name}}
}

func MakeMessagePlayerJoined(id, name string) ServerMessage {
	return ServerMessage{Event: EVENT_PLAYER_JOINED, Data: PlayerJoinedPayload{ID: id, Name: name}}
}

func MakeMessagePlayerLeft(id string) ServerMessage {
	return ServerMessage{Event: EVENT_PLAYER_LEFT, Data: PlayerLeftPayload{ID: id}}
}

func MakeMessageError(err error) ServerMessage {
	return ServerMessage{Event: EVENT_ERROR, Data: ErrorPayload{Message: err.Error()}}
}

func MakeMessageGameState(status Status) ServerMessage {
	return ServerMessage{Event: EVENT_GAME_STATE, Data: GameStatePayload{Status: status}}
}

func MakeMessageNewQuestion(q ActiveQuestion) ServerMessage {
	options := q.Options
	if options == nil {
		options = []string{}
	}
	return ServerMessage{Event: EVENT_NEW_QUESTION, Data: NewQuestionPayload{
		QuestionIndex: q.Index,
		Title:         q.Title,
		Options:       options,
		TimeLimit:     q.TimeLimit,
	}}
}

func MakeMessageQuestionResult(res QuestionResult) ServerMessage {
	return ServerMessage{Event: EVENT_QUESTION_RESULT, Data: QuestionResultPayload{
		CorrectOption: res.CorrectOption,
		Stats:         res.Stats,
	}}
}

func MakeMessageGameOver(leaderboard []LeaderboardEntry) ServerMessage {
	if leaderboard == nil {
		leaderboard = []LeaderboardEntry{}
	}
	return ServerMessage{Event: EVENT_GAME_OVER, Data: GameOverPayload{Leaderboard: leaderboard}}
}

func MakeMessageAnswerReceived() ServerMessage {
	return ServerMessage{Event: EVENT_ANSWER_RECEIVED, Data: AnswerReceivedPayload{}}
}

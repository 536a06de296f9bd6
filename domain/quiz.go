package domain

import "time"

const DefaultTimeLimit = 20

type Question struct {
	Title         string   `json:"title"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
	// TimeLimit is in seconds. Clients count it down, the server never enforces it.
	TimeLimit int `json:"timeLimit"`
}

type Quiz struct {
	Id        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

type SessionPlayer struct {
	PlayerID string    `json:"playerId"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

type Response struct {
	PlayerID      string    `json:"playerId"`
	QuestionIndex int       `json:"questionIndex"`
	AnswerIndex   int       `json:"answerIndex"`
	IsCorrect     bool      `json:"isCorrect"`
	ScoreAwarded  int       `json:"scoreAwarded"`
	AnsweredAt    time.Time `json:"answeredAt"`
}

// Session is the recorded history of one game, as kept by the storage layer.
type Session struct {
	RoomCode           string
	Quiz               Quiz
	Status             string
	CreatedAt          time.Time
	Players            []SessionPlayer
	Responses          []Response
	QuestionStartTimes map[int]time.Time
}

package game

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tak-uukti/orion-quiz-app/domain"
)

type Status string

const (
	STATUS_WAITING         Status = "WAITING"
	STATUS_COUNTDOWN       Status = "COUNTDOWN"
	STATUS_QUESTION        Status = "QUESTION"
	STATUS_SHOWING_RESULTS Status = "SHOWING_RESULTS"
	STATUS_FINISHED        Status = "FINISHED"
)

// CorrectAnswerScore is flat. Streaks and time limits do not weight it.
const CorrectAnswerScore = 1000

// ActiveQuestion is the question a room just activated, without its answer.
type ActiveQuestion struct {
	Index     int
	Total     int
	Title     string
	Options   []string
	TimeLimit int
	StartedAt time.Time
}

type AnswerOutcome struct {
	QuestionIndex int
	IsCorrect     bool
	ScoreAwarded  int
	TotalScore    int
	Streak        int
}

type QuestionResult struct {
	QuestionIndex int
	CorrectOption int
	// Stats[i] is the number of players that picked option i.
	Stats []int
}

// Room is a single quiz session. Every exported method is atomic with
// respect to the others, so one room is one serialization domain.
type Room struct {
	mu sync.Mutex

	code string
	quiz domain.Quiz
	now  func() time.Time

	status               Status
	currentQuestionIndex int
	questionStartedAt    time.Time

	// join order
	players []*Player
	answers map[int]map[string]int
}

func NewRoom(code string, quiz domain.Quiz) *Room {
	return &Room{
		code:                 code,
		quiz:                 quiz,
		now:                  time.Now,
		status:               STATUS_WAITING,
		currentQuestionIndex: -1,
		players:              make([]*Player, 0, 8),
		answers:              make(map[int]map[string]int),
	}
}

func (r *Room) Code() string {
	return r.code
}

func (r *Room) Quiz() domain.Quiz {
	return r.quiz
}

func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Room) CurrentQuestionIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentQuestionIndex
}

func (r *Room) QuestionStartedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.questionStartedAt
}

func (r *Room) findPlayer(id string) (int, *Player) {
	for i, p := range r.players {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

func (r *Room) HasPlayer(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, p := r.findPlayer(id)
	return p != nil
}

func (r *Room) Player(id string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, p := r.findPlayer(id)
	if p == nil {
		return Player{}, false
	}
	return *p, true
}

// Players returns a snapshot in join order.
func (r *Room) Players() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		res = append(res, *p)
	}
	return res
}

// Answers returns a copy of the ledger for one question index.
func (r *Room) Answers(questionIndex int) map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make(map[string]int, len(r.answers[questionIndex]))
	for id, option := range r.answers[questionIndex] {
		res[id] = option
	}
	return res
}

func (r *Room) AddPlayer(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == STATUS_FINISHED {
		return ErrGameFinished
	}
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	for _, p := range r.players {
		if p.ID == id {
			return ErrAlreadyJoined
		}
		if p.Name == name {
			return ErrNameTaken
		}
	}
	r.players = append(r.players, &Player{ID: id, Name: name})
	return nil
}

// RemovePlayer reports whether id was present. Its past answers stay in the ledger.
func (r *Room) RemovePlayer(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, p := r.findPlayer(id)
	if p == nil {
		return false
	}
	r.players = slices.Delete(r.players, i, i+1)
	return true
}

// BeginCountdown is accepted once, from WAITING.
func (r *Room) BeginCountdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != STATUS_WAITING {
		return ErrGameAlreadyStarted
	}
	r.status = STATUS_COUNTDOWN
	return nil
}

// AdvanceQuestion moves the cursor to the next question, or finishes the
// game when there is none. It is used for the first question too.
func (r *Room) AdvanceQuestion() (ActiveQuestion, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.advance()
}

// EndCountdown advances to the first question only if the room is still
// counting down.
func (r *Room) EndCountdown() (ActiveQuestion, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != STATUS_COUNTDOWN {
		return ActiveQuestion{}, false, ErrCountdownInterrupted
	}
	q, ok := r.advance()
	return q, ok, nil
}

// NextQuestion is the host-driven advance: valid only while a question or
// its results are showing.
func (r *Room) NextQuestion() (ActiveQuestion, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.status {
	case STATUS_WAITING, STATUS_COUNTDOWN:
		return ActiveQuestion{}, false, ErrGameNotStarted
	case STATUS_FINISHED:
		return ActiveQuestion{}, false, ErrGameFinished
	}
	q, ok := r.advance()
	return q, ok, nil
}

func (r *Room) advance() (ActiveQuestion, bool) {
	next := r.currentQuestionIndex + 1
	if next >= len(r.quiz.Questions) {
		r.status = STATUS_FINISHED
		return ActiveQuestion{}, false
	}
	r.currentQuestionIndex = next
	r.status = STATUS_QUESTION
	r.questionStartedAt = r.now()

	q := r.quiz.Questions[next]
	return ActiveQuestion{
		Index:     next,
		Total:     len(r.quiz.Questions),
		Title:     q.Title,
		Options:   slices.Clone(q.Options),
		TimeLimit: q.TimeLimit,
		StartedAt: r.questionStartedAt,
	}, true
}

func (r *Room) SubmitAnswer(playerID string, option int) (AnswerOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != STATUS_QUESTION {
		return AnswerOutcome{}, ErrNotAcceptingAnswers
	}
	_, player := r.findPlayer(playerID)
	if player == nil {
		return AnswerOutcome{}, ErrPlayerNotInRoom
	}
	idx := r.currentQuestionIndex
	question := r.quiz.Questions[idx]
	if option < 0 || option >= len(question.Options) {
		return AnswerOutcome{}, ErrInvalidOption
	}

	ledger, ok := r.answers[idx]
	if !ok {
		ledger = make(map[string]int)
		r.answers[idx] = ledger
	}
	if _, answered := ledger[playerID]; answered {
		return AnswerOutcome{}, ErrAlreadyAnswered
	}
	ledger[playerID] = option

	outcome := AnswerOutcome{QuestionIndex: idx}
	if option == question.CorrectOption {
		outcome.IsCorrect = true
		outcome.ScoreAwarded = CorrectAnswerScore
		player.Score += CorrectAnswerScore
		player.Streak++
	} else {
		player.Streak = 0
	}
	outcome.TotalScore = player.Score
	outcome.Streak = player.Streak
	return outcome, nil
}

func (r *Room) EnterResultsPhase() (QuestionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentQuestionIndex < 0 || r.status == STATUS_FINISHED {
		return QuestionResult{}, ErrNoActiveQuestion
	}
	r.status = STATUS_SHOWING_RESULTS

	idx := r.currentQuestionIndex
	question := r.quiz.Questions[idx]
	stats := make([]int, len(question.Options))
	for _, option := range r.answers[idx] {
		stats[option]++
	}
	return QuestionResult{
		QuestionIndex: idx,
		CorrectOption: question.CorrectOption,
		Stats:         stats,
	}, nil
}

// Leaderboard ranks players by descending score; ties keep join order.
func (r *Room) Leaderboard() []LeaderboardEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]LeaderboardEntry, 0, len(r.players))
	for _, p := range r.players {
		entries = append(entries, LeaderboardEntry{Name: p.Name, Score: p.Score})
	}
	slices.SortStableFunc(entries, func(a, b LeaderboardEntry) int {
		return b.Score - a.Score
	})
	return entries
}

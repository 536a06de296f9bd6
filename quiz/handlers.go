package quiz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tak-uukti/orion-quiz-app/domain"
)

const (
	MinTimeLimit = 5
	MaxTimeLimit = 300
	MinOptions   = 2
)

var (
	ErrInvalidRequestFormatStr = "bad-request-format"
	ErrQuizNotFoundStr         = "quiz-not-found"
	ErrServerTimeoutStr        = "server-timeout"
	ErrUnknownStr              = "unknown-error"
)

var (
	ErrMissingTitle        = errors.New("missing-title")
	ErrNoQuestions         = errors.New("no-questions")
	ErrMissingQuestion     = errors.New("missing-question-title")
	ErrTooFewOptions       = errors.New("too-few-options")
	ErrEmptyOption         = errors.New("empty-option")
	ErrCorrectOutOfRange   = errors.New("correct-option-out-of-range")
	ErrTimeLimitOutOfRange = errors.New("time-limit-out-of-range")
)

type Repo interface {
	CreateQuiz(ctx context.Context, title string, questions []domain.Question) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	GetQuizById(ctx context.Context, id string) (domain.Quiz, error)
}

type quizHandler struct {
	repo Repo
}

func NewQuizHandler(repo Repo) *quizHandler {
	return &quizHandler{repo: repo}
}

type createQuizRequest struct {
	Title     string            `json:"title"`
	Questions []domain.Question `json:"questions"`
}

// Validate normalizes the request in place: titles are trimmed and a missing
// time limit becomes domain.DefaultTimeLimit.
func (req *createQuizRequest) Validate() error {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return ErrMissingTitle
	}
	if len(req.Questions) == 0 {
		return ErrNoQuestions
	}
	for i := range req.Questions {
		q := &req.Questions[i]
		q.Title = strings.TrimSpace(q.Title)
		if q.Title == "" {
			return ErrMissingQuestion
		}
		if len(q.Options) < MinOptions {
			return ErrTooFewOptions
		}
		for _, option := range q.Options {
			if strings.TrimSpace(option) == "" {
				return ErrEmptyOption
			}
		}
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			return ErrCorrectOutOfRange
		}
		if q.TimeLimit == 0 {
			q.TimeLimit = domain.DefaultTimeLimit
		}
		if q.TimeLimit < MinTimeLimit || q.TimeLimit > MaxTimeLimit {
			return ErrTimeLimitOutOfRange
		}
	}
	return nil
}

func (qh *quizHandler) CreateQuizHandler(ctx *gin.Context) {
	var req createQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}
	if err := req.Validate(); err != nil {
		ctx.String(http.StatusBadRequest, err.Error())
		ctx.Abort()
		return
	}

	quiz, err := qh.repo.CreateQuiz(ctx.Request.Context(), req.Title, req.Questions)
	if err != nil {
		respondRepoError(ctx, "create quiz", err)
		return
	}
	slog.Info("Quiz created", "quiz", quiz.Id, "questions", len(quiz.Questions))
	ctx.JSON(http.StatusCreated, quiz)
}

func (qh *quizHandler) ListQuizzesHandler(ctx *gin.Context) {
	quizzes, err := qh.repo.ListQuizzes(ctx.Request.Context())
	if err != nil {
		respondRepoError(ctx, "list quizzes", err)
		return
	}
	ctx.JSON(http.StatusOK, quizzes)
}

func (qh *quizHandler) GetQuizHandler(ctx *gin.Context) {
	quiz, err := qh.repo.GetQuizById(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondRepoError(ctx, "get quiz", err)
		return
	}
	ctx.JSON(http.StatusOK, quiz)
}

func respondRepoError(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		ctx.String(http.StatusNotFound, ErrQuizNotFoundStr)
	case errors.Is(err, context.DeadlineExceeded):
		ctx.String(http.StatusGatewayTimeout, ErrServerTimeoutStr)
	case errors.Is(err, context.Canceled):
		ctx.Status(499)
	default:
		slog.Error("Quiz repository failure", "op", op, "error", err)
		ctx.String(http.StatusInternalServerError, ErrUnknownStr)
	}
	ctx.Abort()
}

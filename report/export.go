package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tak-uukti/orion-quiz-app/domain"
)

var (
	ErrSessionNotFoundStr = "session-not-found"
	ErrServerTimeoutStr   = "server-timeout"
	ErrUnknownStr         = "unknown-error"
)

var Header = []string{
	"Player Name",
	"Question Index",
	"Question Title",
	"Answer Selected",
	"Correct Answer",
	"Is Correct",
	"Time Taken (s)",
	"Score Awarded",
	"Total Score",
}

type SessionGetter interface {
	GetSession(ctx context.Context, roomCode string) (domain.Session, error)
}

type exportHandler struct {
	sessions SessionGetter
}

func NewExportHandler(sessions SessionGetter) *exportHandler {
	return &exportHandler{sessions: sessions}
}

// Rows flattens a session into one row per response, in answer order. Total
// Score is the player's running total up to and including that response.
func Rows(session domain.Session) [][]string {
	names := make(map[string]string, len(session.Players))
	for _, p := range session.Players {
		names[p.PlayerID] = p.Name
	}

	totals := make(map[string]int)
	rows := make([][]string, 0, len(session.Responses))
	for _, r := range session.Responses {
		totals[r.PlayerID] += r.ScoreAwarded

		name, ok := names[r.PlayerID]
		if !ok {
			name = "Unknown"
		}
		var q domain.Question
		if r.QuestionIndex >= 0 && r.QuestionIndex < len(session.Quiz.Questions) {
			q = session.Quiz.Questions[r.QuestionIndex]
		}
		timeTaken := "N/A"
		if startedAt, ok := session.QuestionStartTimes[r.QuestionIndex]; ok {
			timeTaken = strconv.FormatFloat(r.AnsweredAt.Sub(startedAt).Seconds(), 'f', 2, 64)
		}
		isCorrect := "No"
		if r.IsCorrect {
			isCorrect = "Yes"
		}

		rows = append(rows, []string{
			name,
			strconv.Itoa(r.QuestionIndex + 1),
			q.Title,
			optionText(q, r.AnswerIndex),
			optionText(q, q.CorrectOption),
			isCorrect,
			timeTaken,
			strconv.Itoa(r.ScoreAwarded),
			strconv.Itoa(totals[r.PlayerID]),
		})
	}
	return rows
}

// optionText falls back to the raw index for options the quiz no longer has.
func optionText(q domain.Question, idx int) string {
	if idx < 0 || idx >= len(q.Options) {
		return strconv.Itoa(idx)
	}
	return q.Options[idx]
}

func Write(w io.Writer, session domain.Session) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	if err := cw.WriteAll(Rows(session)); err != nil {
		return err
	}
	return cw.Error()
}

func (eh *exportHandler) ExportHandler(ctx *gin.Context) {
	roomCode := ctx.Param("roomCode")
	session, err := eh.sessions.GetSession(ctx.Request.Context(), roomCode)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			ctx.String(http.StatusNotFound, ErrSessionNotFoundStr)
		case errors.Is(err, context.DeadlineExceeded):
			ctx.String(http.StatusGatewayTimeout, ErrServerTimeoutStr)
		case errors.Is(err, context.Canceled):
			ctx.Status(499)
		default:
			slog.Error("Failed to load session for export", "room", roomCode, "error", err)
			ctx.String(http.StatusInternalServerError, ErrUnknownStr)
		}
		ctx.Abort()
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=results_%s.csv`, roomCode))
	ctx.Header("Content-Type", "text/csv")
	ctx.Status(http.StatusOK)
	if err := Write(ctx.Writer, session); err != nil {
		slog.Warn("Export interrupted", "room", roomCode, "error", err)
	}
}

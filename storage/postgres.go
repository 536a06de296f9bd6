package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tak-uukti/orion-quiz-app/domain"
)

// latestSession resolves a room code to its most recent session. Codes are
// only unique among live rooms, a restarted process may hand one out again.
const latestSession = `(SELECT id FROM sessions WHERE room_code = $1::text ORDER BY id DESC LIMIT 1)`

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgr *PostgresRepo) Close() {
	pgr.pool.Close()
}

func wrapErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: sqlstate %s: %w", domain.ErrUnexpectedDatabase, pgErr.Code, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrUnexpectedDatabase, err)
}

func (pgr *PostgresRepo) CreateQuiz(ctx context.Context, title string, questions []domain.Question) (domain.Quiz, error) {
	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz := domain.Quiz{Title: title, Questions: questions}
	row := pgr.pool.QueryRow(ctx, "INSERT INTO quizzes(title, questions) VALUES($1, $2) RETURNING id::text, created_at", title, questionsJSON)
	if err := row.Scan(&quiz.Id, &quiz.CreatedAt); err != nil {
		return domain.Quiz{}, wrapErr(err)
	}
	return quiz, nil
}

func (pgr *PostgresRepo) GetQuizById(ctx context.Context, id string) (domain.Quiz, error) {
	// ids are uuids, anything else cannot exist
	if _, err := uuid.Parse(id); err != nil {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz := domain.Quiz{Id: id}
	var questionsJSON []byte

	row := pgr.pool.QueryRow(ctx, "SELECT title, questions, created_at FROM quizzes WHERE id = $1::uuid", id)
	err := row.Scan(&quiz.Title, &questionsJSON, &quiz.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, wrapErr(err)
	}
	if err := json.Unmarshal(questionsJSON, &quiz.Questions); err != nil {
		return domain.Quiz{}, wrapErr(err)
	}
	return quiz, nil
}

func (pgr *PostgresRepo) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := pgr.pool.Query(ctx, "SELECT id::text, title, questions, created_at FROM quizzes ORDER BY created_at DESC")
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	quizzes := []domain.Quiz{}
	for rows.Next() {
		var quiz domain.Quiz
		var questionsJSON []byte
		if err := rows.Scan(&quiz.Id, &quiz.Title, &questionsJSON, &quiz.CreatedAt); err != nil {
			return nil, wrapErr(err)
		}
		if err := json.Unmarshal(questionsJSON, &quiz.Questions); err != nil {
			return nil, wrapErr(err)
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return quizzes, nil
}

func (pgr *PostgresRepo) RecordSessionCreated(ctx context.Context, roomCode string, quiz domain.Quiz) error {
	quizJSON, err := json.Marshal(quiz)
	if err != nil {
		return err
	}
	_, err = pgr.pool.Exec(ctx, "INSERT INTO sessions(room_code, quiz_data) VALUES($1, $2)", roomCode, quizJSON)
	if err != nil {
		return wrapErr(err)
	}
	return nil
}

// execOnSession runs a write against the latest session of a room and
// reports ErrSessionNotFound when nothing matched.
func (pgr *PostgresRepo) execOnSession(ctx context.Context, query string, args ...any) error {
	tag, err := pgr.pool.Exec(ctx, query, args...)
	if err != nil {
		return wrapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (pgr *PostgresRepo) RecordPlayerJoined(ctx context.Context, roomCode, playerID, name string) error {
	return pgr.execOnSession(ctx, `
		INSERT INTO session_players(session_id, player_id, name)
		SELECT `+latestSession+`, $2::text, $3::text
		WHERE EXISTS `+latestSession+`
		ON CONFLICT (session_id, player_id) DO UPDATE SET name = EXCLUDED.name`,
		roomCode, playerID, name)
}

func (pgr *PostgresRepo) RecordAnswer(ctx context.Context, roomCode string, r domain.Response) error {
	return pgr.execOnSession(ctx, `
		INSERT INTO responses(session_id, player_id, question_index, answer_index, is_correct, score_awarded, answered_at)
		SELECT `+latestSession+`, $2::text, $3::int, $4::int, $5::boolean, $6::int, $7::timestamptz
		WHERE EXISTS `+latestSession+`
		ON CONFLICT (session_id, question_index, player_id) DO NOTHING`,
		roomCode, r.PlayerID, r.QuestionIndex, r.AnswerIndex, r.IsCorrect, r.ScoreAwarded, r.AnsweredAt)
}

func (pgr *PostgresRepo) RecordQuestionStartedAt(ctx context.Context, roomCode string, questionIndex int, startedAt time.Time) error {
	return pgr.execOnSession(ctx, `
		INSERT INTO question_starts(session_id, question_index, started_at)
		SELECT `+latestSession+`, $2::int, $3::timestamptz
		WHERE EXISTS `+latestSession+`
		ON CONFLICT (session_id, question_index) DO UPDATE SET started_at = EXCLUDED.started_at`,
		roomCode, questionIndex, startedAt)
}

func (pgr *PostgresRepo) RecordStatus(ctx context.Context, roomCode string, status string) error {
	return pgr.execOnSession(ctx, "UPDATE sessions SET status = $2 WHERE id = "+latestSession, roomCode, status)
}

func (pgr *PostgresRepo) GetSession(ctx context.Context, roomCode string) (domain.Session, error) {
	session := domain.Session{RoomCode: roomCode, QuestionStartTimes: map[int]time.Time{}}
	var sessionID int64
	var quizJSON []byte

	row := pgr.pool.QueryRow(ctx, "SELECT id, quiz_data, status, created_at FROM sessions WHERE id = "+latestSession, roomCode)
	if err := row.Scan(&sessionID, &quizJSON, &session.Status, &session.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, wrapErr(err)
	}
	if err := json.Unmarshal(quizJSON, &session.Quiz); err != nil {
		return domain.Session{}, wrapErr(err)
	}

	players, err := pgr.pool.Query(ctx, "SELECT player_id, name, joined_at FROM session_players WHERE session_id = $1 ORDER BY joined_at", sessionID)
	if err != nil {
		return domain.Session{}, wrapErr(err)
	}
	session.Players, err = pgx.CollectRows(players, func(row pgx.CollectableRow) (domain.SessionPlayer, error) {
		var p domain.SessionPlayer
		err := row.Scan(&p.PlayerID, &p.Name, &p.JoinedAt)
		return p, err
	})
	if err != nil {
		return domain.Session{}, wrapErr(err)
	}

	responses, err := pgr.pool.Query(ctx, `
		SELECT player_id, question_index, answer_index, is_correct, score_awarded, answered_at
		FROM responses WHERE session_id = $1 ORDER BY answered_at, id`, sessionID)
	if err != nil {
		return domain.Session{}, wrapErr(err)
	}
	session.Responses, err = pgx.CollectRows(responses, func(row pgx.CollectableRow) (domain.Response, error) {
		var r domain.Response
		err := row.Scan(&r.PlayerID, &r.QuestionIndex, &r.AnswerIndex, &r.IsCorrect, &r.ScoreAwarded, &r.AnsweredAt)
		return r, err
	})
	if err != nil {
		return domain.Session{}, wrapErr(err)
	}

	starts, err := pgr.pool.Query(ctx, "SELECT question_index, started_at FROM question_starts WHERE session_id = $1", sessionID)
	if err != nil {
		return domain.Session{}, wrapErr(err)
	}
	defer starts.Close()
	for starts.Next() {
		var idx int
		var startedAt time.Time
		if err := starts.Scan(&idx, &startedAt); err != nil {
			return domain.Session{}, wrapErr(err)
		}
		session.QuestionStartTimes[idx] = startedAt
	}
	if err := starts.Err(); err != nil {
		return domain.Session{}, wrapErr(err)
	}
	return session, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mbolis/survey-desk/model"
)

func (t *Tx) CreateUser(ctx context.Context, name string) (userID int, err error) {
	err = t.tx.QueryRowContext(ctx, `
		INSERT INTO user (name) VALUES (?)
		RETURNING id`,
		name,
	).Scan(&userID)
	err = storageErr("db.insert_user", err)
	return
}

// CreateOpenAnswer inserts the text a user wrote for an open question.
// It fails with ErrNotFound if questionID is not an open question.
func (t *Tx) CreateOpenAnswer(ctx context.Context, questionID int, text string) (answerID int, err error) {
	err = t.tx.QueryRowContext(ctx, `
		INSERT INTO answer (question_id, text)
		SELECT q.id, ? FROM question q
		WHERE q.id = ?
			AND q.kind = 'open'
		RETURNING id`,
		text,
		questionID,
	).Scan(&answerID)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	err = storageErr("db.insert_open_answer", err)
	return
}

// CreateUserAnswer links a user to an existing answer of the given
// question. It fails with ErrNotFound if the answer belongs elsewhere.
func (t *Tx) CreateUserAnswer(ctx context.Context, userID int, questionID int, answerID int) error {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO user_answer (user_id, answer_id)
		SELECT ?, a.id FROM answer a
		WHERE a.id = ?
			AND a.question_id = ?`,
		userID,
		answerID,
		questionID,
	)
	if err != nil {
		return storageErr("db.insert_user_answer", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("db.insert_user_answer.verify", err)
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

// ensureUnanswered fails with ErrAlreadyAnswered if the user is linked to
// any answer of the question: each user answers a question once.
func (t *Tx) ensureUnanswered(ctx context.Context, userID int, questionID int) error {
	var answered bool
	err := t.tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_answer ua
			INNER JOIN answer a ON (a.id = ua.answer_id)
			WHERE ua.user_id = ?
				AND a.question_id = ?
		)`,
		userID,
		questionID,
	).Scan(&answered)
	if err != nil {
		return storageErr("db.check_answered", err)
	}
	if answered {
		return ErrAlreadyAnswered
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, name string) (int, error) {
	var userID int
	err := s.WithTx(ctx, func(tx *Tx) (err error) {
		userID, err = tx.CreateUser(ctx, name)
		return
	})
	return userID, err
}

func (s *Store) GetUser(ctx context.Context, userID int) (u model.User, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT id, name FROM user WHERE id = ?`,
		userID,
	).Scan(&u.ID, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	err = storageErr("db.get_user", err)
	return
}

// RecordClosedSubmission links the user to every option listed in
// q.Options. Options are pre-existing rows: none is created. A user who
// already answered q gets ErrAlreadyAnswered.
func (s *Store) RecordClosedSubmission(ctx context.Context, userID int, q model.Question) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		err := tx.ensureUnanswered(ctx, userID, q.ID)
		if err != nil {
			return err
		}
		for _, o := range q.Options {
			err := tx.CreateUserAnswer(ctx, userID, q.ID, o.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// RecordOpenSubmission stores a free-text answer and links it to the user,
// both or neither. A user who already answered the question gets
// ErrAlreadyAnswered.
func (s *Store) RecordOpenSubmission(ctx context.Context, userID int, a model.Answer) (int, error) {
	var answerID int
	err := s.WithTx(ctx, func(tx *Tx) (err error) {
		err = tx.ensureUnanswered(ctx, userID, a.QuestionID)
		if err != nil {
			return
		}
		answerID, err = tx.recordOpen(ctx, userID, a.QuestionID, a.Text)
		return
	})
	if err != nil {
		return 0, err
	}
	return answerID, nil
}

func (t *Tx) recordOpen(ctx context.Context, userID int, questionID int, text string) (int, error) {
	answerID, err := t.CreateOpenAnswer(ctx, questionID, text)
	if err != nil {
		return 0, err
	}
	err = t.CreateUserAnswer(ctx, userID, questionID, answerID)
	if err != nil {
		return 0, err
	}
	return answerID, nil
}

// SubmitCompletion creates a user named name and records all of their
// responses to the given questions in one transaction. Blank responses
// are skipped. It returns the id of the new user.
func (s *Store) SubmitCompletion(ctx context.Context, name string, questions []model.Question, responses []model.Response) (int, error) {
	kinds := make(map[int]model.QuestionKind, len(questions))
	for _, q := range questions {
		kinds[q.ID] = q.Kind
	}

	var userID int
	err := s.WithTx(ctx, func(tx *Tx) (err error) {
		userID, err = tx.CreateUser(ctx, name)
		if err != nil {
			return
		}

		for _, r := range responses {
			switch kinds[r.QuestionID] {
			case model.Closed:
				for _, answerID := range r.Options {
					err = tx.CreateUserAnswer(ctx, userID, r.QuestionID, answerID)
					if err != nil {
						return
					}
				}
			case model.Open:
				text := strings.TrimSpace(r.Text)
				if text == "" {
					continue
				}
				_, err = tx.recordOpen(ctx, userID, r.QuestionID, text)
				if err != nil {
					return
				}
			default:
				return ErrNotFound
			}
		}
		return
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func scanUser(rows *sql.Rows) (u model.User, err error) {
	err = rows.Scan(&u.ID, &u.Name)
	return
}

// ListUsersForSurvey returns the users who answered at least one question
// of the survey.
func (s *Store) ListUsersForSurvey(ctx context.Context, surveyID int) ([]model.User, error) {
	return collect(ctx, s.db, "db.get_survey_users", scanUser, `
		SELECT DISTINCT u.id, u.name
		FROM user u
		INNER JOIN user_answer ua ON (ua.user_id = u.id)
		INNER JOIN answer a ON (a.id = ua.answer_id)
		INNER JOIN question q ON (q.id = a.question_id)
		WHERE q.survey_id = ?
		ORDER BY u.id`,
		surveyID,
	)
}

// GetAnswersForUserAndSurvey returns what a user answered to the questions
// of one survey, in question order.
func (s *Store) GetAnswersForUserAndSurvey(ctx context.Context, userID int, surveyID int) ([]model.Answer, error) {
	return collect(ctx, s.db, "db.get_user_answers", scanAnswer, `
		SELECT a.id, a.question_id, a.text
		FROM user_answer ua
		INNER JOIN answer a ON (a.id = ua.answer_id)
		INNER JOIN question q ON (q.id = a.question_id)
		WHERE ua.user_id = ?
			AND q.survey_id = ?
		ORDER BY q.position, q.id, a.position, a.id`,
		userID,
		surveyID,
	)
}

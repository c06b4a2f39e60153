package repository

import (
	"context"
	"database/sql"

	"github.com/mbolis/survey-desk/model"
)

func (t *Tx) CreateSurvey(ctx context.Context, title string, adminID int) (surveyID int, err error) {
	err = t.tx.QueryRowContext(ctx, `
		INSERT INTO survey (admin_id, title) VALUES (?, ?)
		RETURNING id`,
		adminID,
		title,
	).Scan(&surveyID)
	err = storageErr("db.insert_survey", err)
	return
}

func (t *Tx) CreateQuestion(ctx context.Context, surveyID int, position int, q model.QuestionDraft) (questionID int, err error) {
	var maxAllowed *int
	if q.Kind == model.Closed {
		maxAllowed = q.Max
	}

	err = t.tx.QueryRowContext(ctx, `
		INSERT INTO question (survey_id, position, title, kind, min_required, max_allowed)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		surveyID,
		position,
		q.Title,
		string(q.Kind),
		q.Min,
		maxAllowed,
	).Scan(&questionID)
	err = storageErr("db.insert_question", err)
	return
}

// CreateAnswer inserts an option of a closed question.
func (t *Tx) CreateAnswer(ctx context.Context, questionID int, position int, text string) (answerID int, err error) {
	err = t.tx.QueryRowContext(ctx, `
		INSERT INTO answer (question_id, position, text) VALUES (?, ?, ?)
		RETURNING id`,
		questionID,
		position,
		text,
	).Scan(&answerID)
	err = storageErr("db.insert_answer", err)
	return
}

// CreateSurvey stores a validated draft with all its questions and options
// in one transaction, returning the id of the new survey.
func (s *Store) CreateSurvey(ctx context.Context, adminID int, d model.SurveyDraft) (int, error) {
	var surveyID int
	err := s.WithTx(ctx, func(tx *Tx) (err error) {
		surveyID, err = tx.CreateSurvey(ctx, d.Title, adminID)
		if err != nil {
			return
		}

		for i, q := range d.Questions {
			questionID, err := tx.CreateQuestion(ctx, surveyID, i, q)
			if err != nil {
				return err
			}
			if q.Kind != model.Closed {
				continue
			}
			for j, text := range q.Options {
				_, err := tx.CreateAnswer(ctx, questionID, j, text)
				if err != nil {
					return err
				}
			}
		}
		return
	})
	if err != nil {
		return 0, err
	}
	return surveyID, nil
}

// completions counts distinct users per survey; the outer joins keep
// surveys nobody has answered yet, with a count of zero.
const surveysWithCompletions = `
	SELECT s.id, s.title, s.admin_id, COUNT(DISTINCT ua.user_id)
	FROM survey s
	LEFT OUTER JOIN question q ON (q.survey_id = s.id)
	LEFT OUTER JOIN answer a ON (a.question_id = q.id)
	LEFT OUTER JOIN user_answer ua ON (ua.answer_id = a.id)`

func scanSurvey(rows *sql.Rows) (s model.Survey, err error) {
	err = rows.Scan(&s.ID, &s.Title, &s.AdminID, &s.Completions)
	return
}

// ListSurveys returns every survey, without questions.
func (s *Store) ListSurveys(ctx context.Context) ([]model.Survey, error) {
	return collect(ctx, s.db, "db.get_surveys", scanSurvey,
		surveysWithCompletions+`
		GROUP BY s.id, s.title, s.admin_id
		ORDER BY s.id`)
}

// ListSurveysByAdmin returns the surveys an admin published, each with its
// number of completions, including those with none.
func (s *Store) ListSurveysByAdmin(ctx context.Context, adminID int) ([]model.Survey, error) {
	return collect(ctx, s.db, "db.get_admin_surveys", scanSurvey,
		surveysWithCompletions+`
		WHERE s.admin_id = ?
		GROUP BY s.id, s.title, s.admin_id
		ORDER BY s.id`,
		adminID,
	)
}

// GetSurvey returns a survey with its questions and their options.
func (s *Store) GetSurvey(ctx context.Context, surveyID int) (model.Survey, error) {
	surveys, err := collect(ctx, s.db, "db.get_survey", scanSurvey,
		surveysWithCompletions+`
		WHERE s.id = ?
		GROUP BY s.id, s.title, s.admin_id`,
		surveyID,
	)
	if err != nil {
		return model.Survey{}, err
	}
	if len(surveys) == 0 {
		return model.Survey{}, ErrNotFound
	}

	survey := surveys[0]
	survey.Questions, err = s.GetQuestionsForSurvey(ctx, surveyID)
	if err != nil {
		return model.Survey{}, err
	}
	return survey, nil
}

// only closed questions join their answers: the answers of an open
// question are what users wrote, not options
const questionsWithOptions = `
	SELECT
		q.id, q.survey_id, q.title, q.kind, q.min_required, q.max_allowed,
		a.id, a.text
	FROM question q
	LEFT OUTER JOIN answer a ON (a.question_id = q.id AND q.kind = 'closed')`

func (s *Store) queryQuestions(ctx context.Context, op string, where string, arg any) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx, questionsWithOptions+`
		WHERE `+where+`
		ORDER BY q.position, q.id, a.position, a.id`,
		arg,
	)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var (
			q          model.Question
			kind       string
			maxAllowed sql.NullInt64
			optionID   sql.NullInt64
			text       sql.NullString
		)
		err = rows.Scan(&q.ID, &q.SurveyID, &q.Title, &kind, &q.Min, &maxAllowed, &optionID, &text)
		if err != nil {
			return nil, storageErr(op+".scan", err)
		}

		last := len(questions) - 1
		if last < 0 || questions[last].ID != q.ID {
			q.Kind = model.QuestionKind(kind)
			if maxAllowed.Valid {
				m := int(maxAllowed.Int64)
				q.Max = &m
			}
			questions = append(questions, q)
			last++
		}
		if optionID.Valid {
			questions[last].Options = append(questions[last].Options, model.Answer{
				ID:         int(optionID.Int64),
				QuestionID: q.ID,
				Text:       text.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return questions, nil
}

// GetQuestionsForSurvey returns the questions of a survey in authoring
// order, closed ones with their options.
func (s *Store) GetQuestionsForSurvey(ctx context.Context, surveyID int) ([]model.Question, error) {
	return s.queryQuestions(ctx, "db.get_questions", "q.survey_id = ?", surveyID)
}

func (s *Store) GetQuestion(ctx context.Context, questionID int) (model.Question, error) {
	questions, err := s.queryQuestions(ctx, "db.get_question", "q.id = ?", questionID)
	if err != nil {
		return model.Question{}, err
	}
	if len(questions) == 0 {
		return model.Question{}, ErrNotFound
	}
	return questions[0], nil
}

func scanAnswer(rows *sql.Rows) (a model.Answer, err error) {
	err = rows.Scan(&a.ID, &a.QuestionID, &a.Text)
	return
}

// GetOptionsForQuestion returns the options of a closed question; open
// questions have none.
func (s *Store) GetOptionsForQuestion(ctx context.Context, questionID int) ([]model.Answer, error) {
	return collect(ctx, s.db, "db.get_options", scanAnswer, `
		SELECT a.id, a.question_id, a.text
		FROM answer a
		INNER JOIN question q ON (q.id = a.question_id)
		WHERE a.question_id = ?
			AND q.kind = 'closed'
		ORDER BY a.position, a.id`,
		questionID,
	)
}

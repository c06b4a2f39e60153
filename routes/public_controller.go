package routes

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/survey-desk/app"
	"github.com/mbolis/survey-desk/httpx"
	"github.com/mbolis/survey-desk/log"
	"github.com/mbolis/survey-desk/model"
	"github.com/mbolis/survey-desk/validation"
)

func urlID(w http.ResponseWriter, r *http.Request, param string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil {
		httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param."+param)
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := render.DecodeJSON(r.Body, v)
	if err != nil {
		httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
		return false
	}
	return true
}

func created(w http.ResponseWriter, r *http.Request, id int) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{
		"id": id,
	})
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := app.Store.ListSurveys(r.Context())
		if err != nil {
			httpx.RenderError(w, r, "list_surveys", err)
			return
		}
		render.JSON(w, r, surveys)
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		survey, err := app.GetSurvey(r.Context(), surveyId)
		if err != nil {
			httpx.RenderError(w, r, "get_survey", err)
			return
		}
		render.JSON(w, r, survey)
	}
}

func GetQuestionOptions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		// tell a missing question apart from one without options
		if _, err := app.GetQuestion(r.Context(), questionId); err != nil {
			httpx.RenderError(w, r, "get_question", err)
			return
		}

		options, err := app.GetOptionsForQuestion(r.Context(), questionId)
		if err != nil {
			httpx.RenderError(w, r, "get_options", err)
			return
		}
		render.JSON(w, r, options)
	}
}

// SubmitCompletion records a whole survey filled out by a new user.
func SubmitCompletion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		completion := model.Completion{}
		if !decodeBody(w, r, &completion) {
			return
		}

		err := validation.ValidateUserName(completion.Name)
		if err != nil {
			httpx.RenderError(w, r, "submit_completion.name", err)
			return
		}

		survey, err := app.GetSurvey(r.Context(), surveyId)
		if err != nil {
			httpx.RenderError(w, r, "submit_completion.get_survey", err)
			return
		}

		err = validation.ValidateCompletion(survey.Questions, completion.Responses)
		if err != nil {
			httpx.RenderError(w, r, "submit_completion.validate", err)
			return
		}

		userId, err := app.Store.SubmitCompletion(
			r.Context(),
			strings.TrimSpace(completion.Name),
			survey.Questions,
			completion.Responses,
		)
		if err != nil {
			httpx.RenderError(w, r, "submit_completion", err)
			return
		}

		log.WithFields(log.Fields{"survey": surveyId, "user": userId}).Info("completion recorded")
		created(w, r, userId)
	}
}

func CreateUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := model.User{}
		if !decodeBody(w, r, &user) {
			return
		}

		err := validation.ValidateUserName(user.Name)
		if err != nil {
			httpx.RenderError(w, r, "create_user", err)
			return
		}

		userId, err := app.Store.CreateUser(r.Context(), strings.TrimSpace(user.Name))
		if err != nil {
			httpx.RenderError(w, r, "create_user", err)
			return
		}
		created(w, r, userId)
	}
}

// loadAnswerTarget resolves the user and the question of a single answer
// submission, answering 404 when either is missing.
func loadAnswerTarget(app app.App, w http.ResponseWriter, r *http.Request) (userId int, resp model.Response, q model.Question, ok bool) {
	userId, ok = urlID(w, r, "id")
	if !ok {
		return
	}
	if ok = decodeBody(w, r, &resp); !ok {
		return
	}
	ok = false

	if _, err := app.GetUser(r.Context(), userId); err != nil {
		httpx.RenderError(w, r, "submit_answer.get_user", err)
		return
	}

	q, err := app.GetQuestion(r.Context(), resp.QuestionID)
	if err != nil {
		httpx.RenderError(w, r, "submit_answer.get_question", err)
		return
	}

	ok = true
	return
}

// SubmitClosedAnswer links a user to the options selected for one closed
// question.
func SubmitClosedAnswer(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, resp, q, ok := loadAnswerTarget(app, w, r)
		if !ok {
			return
		}

		err := validation.ValidateClosedAnswer(q, resp.Options)
		if err != nil {
			httpx.RenderError(w, r, "submit_closed_answer.validate", err)
			return
		}

		selected := make(map[int]bool, len(resp.Options))
		for _, id := range resp.Options {
			selected[id] = true
		}
		chosen := q
		chosen.Options = nil
		for _, o := range q.Options {
			if selected[o.ID] {
				chosen.Options = append(chosen.Options, o)
			}
		}

		err = app.RecordClosedSubmission(r.Context(), userId, chosen)
		if err != nil {
			httpx.RenderError(w, r, "submit_closed_answer", err)
			return
		}
		created(w, r, q.ID)
	}
}

// SubmitOpenAnswer stores the text a user wrote for one open question.
func SubmitOpenAnswer(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId, resp, q, ok := loadAnswerTarget(app, w, r)
		if !ok {
			return
		}

		err := validation.ValidateOpenAnswer(q, resp.Text)
		if err != nil {
			httpx.RenderError(w, r, "submit_open_answer.validate", err)
			return
		}
		if validation.IsEmpty(q, resp) {
			httpx.LogStatusMsg(w, r, http.StatusUnprocessableEntity, log.DebugLevel, "submit_open_answer", "nothing to record: the answer is blank")
			return
		}

		answerId, err := app.RecordOpenSubmission(r.Context(), userId, model.Answer{
			QuestionID: q.ID,
			Text:       strings.TrimSpace(resp.Text),
		})
		if err != nil {
			httpx.RenderError(w, r, "submit_open_answer", err)
			return
		}
		created(w, r, answerId)
	}
}

package routes

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/survey-desk/app"
	"github.com/mbolis/survey-desk/httpx"
	"github.com/mbolis/survey-desk/log"
	"github.com/mbolis/survey-desk/model"
	"github.com/mbolis/survey-desk/routes/middlewares"
	"github.com/mbolis/survey-desk/validation"
)

func currentAdmin(w http.ResponseWriter, r *http.Request) (model.Admin, bool) {
	admin, ok := middlewares.CurrentAdmin(r.Context())
	if !ok {
		httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "auth.no_admin")
	}
	return admin, ok
}

// ownedSurvey loads the survey named in the URL. Surveys of other admins
// are reported as missing.
func ownedSurvey(app app.App, w http.ResponseWriter, r *http.Request) (model.Survey, bool) {
	admin, ok := currentAdmin(w, r)
	if !ok {
		return model.Survey{}, false
	}
	surveyId, ok := urlID(w, r, "id")
	if !ok {
		return model.Survey{}, false
	}

	survey, err := app.GetSurvey(r.Context(), surveyId)
	if err != nil {
		httpx.RenderError(w, r, "admin.get_survey", err)
		return model.Survey{}, false
	}
	if survey.AdminID != admin.ID {
		httpx.LogNotFound(w, r, "admin.get_survey.not_owner", surveyId)
		return model.Survey{}, false
	}
	return survey, true
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, ok := currentAdmin(w, r)
		if !ok {
			return
		}

		draft := model.SurveyDraft{}
		if !decodeBody(w, r, &draft) {
			return
		}

		err := validation.ValidateSurvey(draft)
		if err != nil {
			httpx.RenderError(w, r, "create_survey.validate", err)
			return
		}

		surveyId, err := app.Store.CreateSurvey(r.Context(), admin.ID, validation.NormalizeSurvey(draft))
		if err != nil {
			httpx.RenderError(w, r, "create_survey", err)
			return
		}

		log.WithFields(log.Fields{"survey": surveyId, "admin": admin.Username}).Info("survey created")
		created(w, r, surveyId)
	}
}

func ListAdminSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, ok := currentAdmin(w, r)
		if !ok {
			return
		}

		surveys, err := app.ListSurveysByAdmin(r.Context(), admin.ID)
		if err != nil {
			httpx.RenderError(w, r, "list_admin_surveys", err)
			return
		}
		render.JSON(w, r, surveys)
	}
}

func GetAdminSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, ok := ownedSurvey(app, w, r)
		if !ok {
			return
		}
		render.JSON(w, r, survey)
	}
}

// ListSurveyUsers lists the users who answered a survey.
func ListSurveyUsers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, ok := ownedSurvey(app, w, r)
		if !ok {
			return
		}

		users, err := app.ListUsersForSurvey(r.Context(), survey.ID)
		if err != nil {
			httpx.RenderError(w, r, "list_survey_users", err)
			return
		}
		render.JSON(w, r, users)
	}
}

// GetUserAnswers lists what one user answered to a survey.
func GetUserAnswers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, ok := ownedSurvey(app, w, r)
		if !ok {
			return
		}
		userId, ok := urlID(w, r, "userId")
		if !ok {
			return
		}

		if _, err := app.GetUser(r.Context(), userId); err != nil {
			httpx.RenderError(w, r, "get_user_answers.get_user", err)
			return
		}

		answers, err := app.GetAnswersForUserAndSurvey(r.Context(), userId, survey.ID)
		if err != nil {
			httpx.RenderError(w, r, "get_user_answers", err)
			return
		}
		render.JSON(w, r, answers)
	}
}

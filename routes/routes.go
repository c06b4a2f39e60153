package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/mbolis/survey-desk/app"
	"github.com/mbolis/survey-desk/httpx"
	"github.com/mbolis/survey-desk/log"
	"github.com/mbolis/survey-desk/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.RequestID,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Logger, NoColor: true}),
		middleware.Recoverer,
		app.Metrics.Middleware,
	)

	root.Get("/health", Health(app))
	root.Method(http.MethodGet, "/metrics", app.Metrics.Handler())

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()
	api.Use(render.SetContentType(render.ContentTypeJSON))

	api.Get("/surveys", ListSurveys(app))
	api.Get(`/surveys/{id:^\d+$}`, GetSurveyById(app))
	api.Post(`/surveys/{id:^\d+$}/completions`, SubmitCompletion(app))
	api.Get(`/questions/{id:^\d+$}/options`, GetQuestionOptions(app))

	api.Post("/users", CreateUser(app))
	api.Post(`/users/{id:^\d+$}/answers/closed`, SubmitClosedAnswer(app))
	api.Post(`/users/{id:^\d+$}/answers/open`, SubmitOpenAnswer(app))

	adminGate := chi.Chain(
		middlewares.CookieAuth(app.BearerServer),
		middlewares.Admin(app.TokenSecret, app.Store),
	)

	api.Route("/sessions", func(r chi.Router) {
		r.With(middlewares.RateLimit(app.LoginRate, app.LoginBurst)).Post("/", Login(app))
		r.Post("/refresh", Refresh(app))

		r.With(adminGate...).Get("/current", CurrentSession(app))
		r.With(adminGate...).Delete("/current", Logout(app))
	})

	api.Route("/admin", func(r chi.Router) {
		r.Use(adminGate...)

		r.Post("/surveys", CreateSurvey(app))
		r.Get("/surveys", ListAdminSurveys(app))
		r.Get(`/surveys/{id:^\d+$}`, GetAdminSurvey(app))
		r.Get(`/surveys/{id:^\d+$}/users`, ListSurveyUsers(app))
		r.Get(`/surveys/{id:^\d+$}/users/{userId:^\d+$}/answers`, GetUserAnswers(app))
	})

	return api
}

// Health reports whether the database answers.
func Health(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := app.Ping(r.Context())
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusServiceUnavailable, log.WarnLevel, "health", "database unavailable")
			return
		}
		render.JSON(w, r, map[string]string{
			"status": "ok",
		})
	}
}

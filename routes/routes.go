package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lemeur/confirm-by-email/app"
	"github.com/lemeur/confirm-by-email/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// fired by the survey platform when a response is completed
	api.Post(`/surveys/{id:^\d+$}/responses/{rid:^\d+$}/complete`, ResponseCompleted(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.AdminKey(app.Config))

		r.Get(`/surveys/{id:^\d+$}/settings`, GetSurveySettings(app))
		r.Post(`/surveys/{id:^\d+$}/settings`, SaveSurveySettings(app))
	})

	return api
}

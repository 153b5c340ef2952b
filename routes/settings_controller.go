package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/lemeur/confirm-by-email/app"
	"github.com/lemeur/confirm-by-email/httpx"
	"github.com/lemeur/confirm-by-email/log"
	"github.com/lemeur/confirm-by-email/store"
)

// GetSurveySettings returns the ordered settings form of one survey,
// current values prefilled, for the host admin UI to render.
func GetSurveySettings(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		fields, err := app.SurveySettings(r.Context(), surveyId)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "get_settings", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_settings", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"name":     "ConfirmByEmail",
			"settings": fields,
		})
	}
}

// SaveSurveySettings accepts the submitted flat name/value mapping and
// writes it through to the settings store.
func SaveSurveySettings(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		values := map[string]string{}
		err = render.DecodeJSON(r.Body, &values)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		err = app.SaveSurveySettings(r.Context(), surveyId, values)
		if err != nil {
			httpx.LogInternalError(w, "db.save_settings", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

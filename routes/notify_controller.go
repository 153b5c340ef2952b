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
	"github.com/lemeur/confirm-by-email/plugin"
	"github.com/lemeur/confirm-by-email/store"
)

// ResponseCompleted is the completion hook: it runs the notification
// handler for one submitted response and reports what each configured
// slot did. An unconfigured or inactive survey yields an empty result.
func ResponseCompleted(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}
		responseId, err := strconv.Atoi(chi.URLParam(r, "rid"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.rid")
			return
		}

		results, err := app.AfterSurveyComplete(r.Context(), surveyId, responseId)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "response_completed", responseId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "notify.complete", err)
			return
		}

		if results == nil {
			results = []plugin.SlotResult{}
		}
		render.JSON(w, r, map[string]any{
			"results": results,
		})
	}
}

package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/lemeur/confirm-by-email/config"
	"github.com/lemeur/confirm-by-email/httpx"
	"github.com/lemeur/confirm-by-email/log"
)

// AdminKey guards the admin settings endpoints with the static bearer
// key from the configuration. The host admin UI holds the key; end
// users never reach these routes.
func AdminKey(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			key, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(key), []byte(cfg.AdminKey)) != 1 {
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "admin.key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"crypto/subtle"
	"net/http"

	"terrabid-api/pkg/apierror"
)

// NewSharedSecret returns a middleware that requires the given header to
// carry the configured secret. Used for the settlement cron trigger
// (X-Cron-Key) and the admin surface (X-Admin-Key). An empty configured
// secret disables the route entirely rather than leaving it open.
func NewSharedSecret(header, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeError(w, apierror.Forbidden("endpoint disabled: no secret configured"))
				return
			}

			provided := r.Header.Get(header)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				writeError(w, apierror.Unauthorized("invalid or missing "+header))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}

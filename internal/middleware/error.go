package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Response is the uniform envelope returned by every API endpoint.
type Response struct {
	Status       string `json:"status"`
	Data         any    `json:"data,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// RespondWithJSON writes a success envelope with the given payload
func RespondWithJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(Response{
		Status: "Ok",
		Data:   data,
	})
}

// RespondWithError writes an error envelope with the given message
func RespondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(Response{
		Status:       "Error",
		ErrorMessage: message,
	})
}

// RecoveryMiddleware converts panics into a 500 envelope. The panic value is
// logged, never echoed to the client.
func RecoveryMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Panic recovered",
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
					)
					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

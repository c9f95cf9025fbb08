package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/apex/log"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recover turns a handler panic into a JSON 500 and logs the stack.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.WithFields(log.Fields{
				"panic":      rec,
				"path":       r.URL.Path,
				"request_id": chimw.GetReqID(r.Context()),
				"stack":      string(debug.Stack()),
			}).Error("handler panic")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
		}()
		next.ServeHTTP(w, r)
	})
}

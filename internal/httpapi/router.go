package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const requestTimeout = 30 * time.Second

type RouterOptions struct {
	CORSOrigins []string
}

func NewRouter(api *API, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(api.logger), middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type"},
			ExposedHeaders:   []string{"Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", api.HandleHealth)

	r.Group(func(sr chi.Router) {
		sr.Use(api.cookies.Middleware)
		sr.Get("/exams", api.HandleListExams)
		sr.Post("/exams/{exam}/start", api.HandleStart)
		sr.Get("/session/question", api.HandleCurrent)
		sr.Post("/session/answer", api.HandleAnswer)
		sr.Post("/session/next", api.HandleNext)
		sr.Delete("/session", api.HandleReset)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})

	return r
}

// Package web serves the browser UI and a small JSON API over the app
// controller.
package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-chapters/internal/app"
)

// KeyIssueURL is where users obtain a Gemini API key.
const KeyIssueURL = "https://aistudio.google.com/app/apikey"

const defaultMaxUpload = 20 << 20

//go:embed templates/*.html
var templateFS embed.FS

type Options struct {
	MaxUploadBytes int64
	// AllowedOrigins for the JSON API and for cross-origin form posts.
	// Loopback origins when empty.
	AllowedOrigins []string
	Logger         *zap.Logger
}

type Server struct {
	ctrl      *app.Controller
	log       *zap.Logger
	maxUpload int64
	origins   []string
	views     *template.Template
}

func NewServer(ctrl *app.Controller, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	limit := opts.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	return &Server{
		ctrl:      ctrl,
		log:       log.Named("web"),
		maxUpload: limit,
		origins:   origins,
		views:     template.Must(template.New("").Funcs(viewFuncs).ParseFS(templateFS, "templates/*.html")),
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()
	mux.Use(requestID)
	mux.Use(accessLog(s.log))
	mux.Use(originCheck(s.origins, s.log))
	mux.Use(middleware.Recoverer)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.Get("/", s.handleIndex)
	mux.Post("/key", s.handleSetKey)
	mux.Post("/key/reset", s.handleClearKey)
	mux.Post("/analyze", s.handleAnalyze)
	mux.Post("/reset", s.handleReset)
	mux.Get("/result.md", s.handleDownload)

	mux.Route("/api", func(rt chi.Router) {
		rt.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", RequestIDHeader},
			ExposedHeaders: []string{RequestIDHeader},
			MaxAge:         300,
		}))
		rt.Get("/state", s.wrap(s.apiState))
		rt.Put("/key", s.wrap(s.apiSetKey))
		rt.Delete("/key", s.wrap(s.apiClearKey))
		rt.Post("/analyze", s.wrap(s.apiAnalyze))
		rt.Post("/reset", s.wrap(s.apiReset))
	})

	return mux
}

package server

import (
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/capabilities", s.capabilitiesHandler)
		r.Post("/addresses/parse", s.parseAddressesHandler)

		r.Route("/mailboxes", func(r chi.Router) {
			r.Get("/", s.mailboxesHandler)
			r.Get("/{mailbox}/emails", s.listEmailsHandler)
			r.Get("/{mailbox}/emails/{id}", s.emailContentHandler)

			r.Group(func(r chi.Router) {
				r.Use(s.requireEditMode)
				r.Post("/{mailbox}/emails/{id}/read", s.markEmailReadHandler)
				r.Post("/{mailbox}/emails/{id}/delete", s.deleteEmailHandler)
			})
		})
	})

	if s.cfg.StaticDir != "" {
		// Some platforms lack .css/.js in their MIME tables
		mime.AddExtensionType(".css", "text/css")
		mime.AddExtensionType(".js", "application/javascript")

		fs := http.FileServer(http.Dir(s.cfg.StaticDir))
		r.Handle("/static/*", http.StripPrefix("/static/", fs))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, filepath.Join(s.cfg.StaticDir, "index.html"))
		})
	}

	return r
}

// requireEditMode hides state-changing routes unless edit mode is on.
func (s *Server) requireEditMode(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.EditMode {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)))
	})
}

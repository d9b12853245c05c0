package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/intelliread/auth"
	"github.com/kevinaaaquil/intelliread/middleware"
)

// Router assembles the HTTP surface. Zero-valued optional fields switch their routes off.
type Router struct {
	Auth      *AuthHandler
	OTP       *OTPHandler
	Books     *BooksHandler
	Publisher *PublisherHandler
	Admin     *AdminHandler

	Gate        *auth.Gate
	Tokens      *auth.Tokens
	Limiter     *middleware.RateLimiter // login, signup and OTP routes
	CORSOrigins []string
	Health      func(ctx context.Context) error
	Metrics     http.Handler
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(rt.CORSOrigins))
	r.Use(middleware.Instrument)
	r.Use(rt.Gate.Sessions().LoadAndSave)
	if rt.Tokens != nil {
		r.Use(middleware.Bearer(rt.Tokens))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, "welcome to intelliread")
	})
	r.Get("/health", rt.health)
	if rt.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if rt.Limiter != nil {
				r.Use(rt.Limiter.Handler)
			}
			r.Post("/signup", rt.Auth.Signup)
			r.Post("/login", rt.Auth.Login)
			r.Post("/admin/login", rt.Auth.AdminLogin)
			r.Post("/otp/send", rt.OTP.Send)
			r.Post("/otp/resend", rt.OTP.Resend)
			r.Post("/otp/verify", rt.OTP.Verify)
			r.Post("/otp/reset", rt.OTP.Reset)
		})
		r.Post("/logout", rt.Auth.Logout)
		r.Post("/admin/logout", rt.Auth.Logout)
		r.Get("/auth/status", rt.Auth.Status)

		r.Get("/books", rt.Books.List)
		r.Get("/books/{id}", rt.Books.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Require(rt.Gate, auth.LevelUser))
			r.Get("/user/me", rt.Auth.Me)
			r.Get("/user/profile", rt.Auth.Me)
			r.Get("/books/{id}/download", rt.Books.Download)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Require(rt.Gate, auth.LevelPublisher))
			r.Get("/publisher/books", rt.Publisher.List)
			r.Post("/publisher/books", rt.Publisher.Create)
			r.Put("/publisher/books/{id}", rt.Publisher.Update)
			r.Delete("/publisher/books/{id}", rt.Publisher.Delete)
			r.Get("/publisher/stats", rt.Publisher.Stats)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Require(rt.Gate, auth.LevelAdmin))
			r.Get("/admin/publishers/pending", rt.Admin.Pending)
			r.Post("/admin/publishers/{id}/approve", rt.Admin.Approve)
			r.Post("/admin/publishers/{id}/reject", rt.Admin.Reject)
			r.Get("/admin/summary", rt.Admin.Summary)
			r.Get("/admin/users", rt.Admin.Users)
			r.Delete("/admin/users/{id}", rt.Admin.DeleteUser)
			r.Get("/admin/books", rt.Admin.Books)
			r.Put("/admin/books/{id}", rt.Admin.UpdateBookStatus)
			r.Delete("/admin/books/{id}", rt.Admin.DeleteBook)
		})
	})
	return r
}

type healthResponse struct {
	Status string `json:"status"`
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	if rt.Health != nil {
		if err := rt.Health(r.Context()); err != nil {
			middleware.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}
	middleware.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// Package rest exposes the book, music and review services over HTTP.
package rest

import (
	"net/http"

	"github.com/ewilliams-labs/shelfsound/internal/core/services"
	"github.com/ewilliams-labs/shelfsound/internal/logging"
	"github.com/ewilliams-labs/shelfsound/internal/metrics"
)

// Handler manages the HTTP interface for our application.
type Handler struct {
	svc     *services.Orchestrator
	reviews *services.ReviewService
	router  *http.ServeMux
	chain   http.Handler
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(svc *services.Orchestrator, reviews *services.ReviewService) *Handler {
	h := &Handler{
		svc:     svc,
		reviews: reviews,
		router:  http.NewServeMux(),
	}
	h.routes()
	h.chain = logging.HTTPMiddleware(h.router)
	return h
}

// ServeHTTP satisfies the http.Handler interface. Every request is access
// logged.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.chain.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.HandleFunc("GET /health", h.HealthCheck)
	h.router.Handle("GET /metrics", metrics.Handler())

	// Books
	h.router.HandleFunc("GET /books/search", h.SearchBooks)
	h.router.HandleFunc("GET /books/trending", h.TrendingBooks)
	h.router.HandleFunc("GET /books/category/{category}", h.BooksByCategory)
	h.router.HandleFunc("GET /books/{id}", h.GetBook)

	// Music
	h.router.HandleFunc("GET /music/recommendations/{bookId}", h.Recommendations)
	h.router.HandleFunc("GET /music/search", h.SearchMusic)
	h.router.HandleFunc("GET /music/playlists/{id}", h.GetPlaylist)
	h.router.HandleFunc("GET /music/match", h.MatchTrack)
	h.router.HandleFunc("POST /music/vibes/{vibeId}/vote", h.VoteVibe)
	h.router.HandleFunc("GET /music/vibes/popular", h.PopularVibes)

	// Reviews
	h.router.HandleFunc("POST /reviews", h.CreateReview)
	h.router.HandleFunc("PUT /reviews/{id}", h.UpdateReview)
	h.router.HandleFunc("DELETE /reviews/{id}", h.DeleteReview)
	h.router.HandleFunc("GET /reviews/book/{bookId}", h.BookReviews)
	h.router.HandleFunc("GET /reviews/user/{userId}", h.UserReviews)
	h.router.HandleFunc("POST /reviews/{id}/like", h.LikeReview)
	h.router.HandleFunc("POST /reviews/{id}/flag", h.FlagReview)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "shelfsound is live"})
}

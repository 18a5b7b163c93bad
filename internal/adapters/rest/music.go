package rest

import (
	"net/http"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/core/services"
)

type voteRequest struct {
	Vote string `json:"vote" validate:"required,oneof=up down"`
}

type voteResponse struct {
	VibeID string `json:"vibeId"`
	Votes  int    `json:"votes"`
}

// Recommendations handles GET /music/recommendations/{bookId}?mood=&energy=&limit=
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	rec, err := h.svc.RecommendMusic(r.Context(), services.RecommendRequest{
		BookID: r.PathValue("bookId"),
		Mood:   q.Get("mood"),
		Energy: q.Get("energy"),
		Limit:  limit,
		UserID: r.Header.Get(UserHeader),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// SearchMusic handles GET /music/search?q=&type=track|playlist&limit=
func (h *Handler) SearchMusic(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	res, err := h.svc.SearchMusic(r.Context(), q.Get("q"), q.Get("type"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetPlaylist handles GET /music/playlists/{id}
func (h *Handler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPlaylist(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// MatchTrack handles GET /music/match?q=Artist - Title
func (h *Handler) MatchTrack(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.MatchTrack(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// VoteVibe handles POST /music/vibes/{vibeId}/vote
func (h *Handler) VoteVibe(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	vibeID := r.PathValue("vibeId")
	votes, err := h.svc.RecordVote(r.Context(), vibeID, domain.VoteDirection(req.Vote))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, voteResponse{VibeID: vibeID, Votes: votes})
}

// PopularVibes handles GET /music/vibes/popular?limit=
func (h *Handler) PopularVibes(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	vibes, err := h.svc.PopularVibes(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vibes": vibes})
}

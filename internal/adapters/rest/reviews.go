package rest

import (
	"net/http"

	"github.com/ewilliams-labs/shelfsound/internal/core/services"
)

type reviewRequest struct {
	BookID           string   `json:"bookId"`
	Rating           *float64 `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Review           *string  `json:"review" validate:"omitempty,max=1000"`
	MusicVibeRating  *float64 `json:"musicVibeRating" validate:"omitempty,gte=1,lte=5"`
	MusicVibeComment *string  `json:"musicVibeComment" validate:"omitempty,max=500"`
	Tags             []string `json:"tags" validate:"omitempty,max=10,dive,max=30"`
	IsPublic         *bool    `json:"isPublic"`
}

func (req reviewRequest) input() services.ReviewInput {
	return services.ReviewInput{
		BookID:           req.BookID,
		Rating:           req.Rating,
		Text:             req.Review,
		MusicVibeRating:  req.MusicVibeRating,
		MusicVibeComment: req.MusicVibeComment,
		Tags:             req.Tags,
		IsPublic:         req.IsPublic,
	}
}

type flagRequest struct {
	Reason string `json:"reason" validate:"required,max=200"`
}

type flagResponse struct {
	FlagCount int `json:"flagCount"`
}

// CreateReview handles POST /reviews
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req reviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	review, err := h.reviews.CreateReview(r.Context(), user, req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/reviews/"+review.ID)
	writeJSON(w, http.StatusCreated, review)
}

// UpdateReview handles PUT /reviews/{id}
func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req reviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	review, err := h.reviews.UpdateReview(r.Context(), user, r.PathValue("id"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// DeleteReview handles DELETE /reviews/{id}
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.reviews.DeleteReview(r.Context(), user, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BookReviews handles GET /reviews/book/{bookId}?sort=&page=&limit=
func (h *Handler) BookReviews(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.reviews.ListBookReviews(r.Context(), r.PathValue("bookId"), r.URL.Query().Get("sort"), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// UserReviews handles GET /reviews/user/{userId}?includePrivate=true
func (h *Handler) UserReviews(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	includePrivate := r.URL.Query().Get("includePrivate") == "true"
	res, err := h.reviews.ListUserReviews(r.Context(), r.PathValue("userId"), r.Header.Get(UserHeader), includePrivate, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// LikeReview handles POST /reviews/{id}/like and toggles the caller's like.
func (h *Handler) LikeReview(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	res, err := h.reviews.ToggleLike(r.Context(), user, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// FlagReview handles POST /reviews/{id}/flag
func (h *Handler) FlagReview(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req flagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	count, err := h.reviews.FlagReview(r.Context(), user, r.PathValue("id"), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flagResponse{FlagCount: count})
}

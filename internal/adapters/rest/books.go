package rest

import (
	"net/http"
)

// SearchBooks handles GET /books/search?q=&page=&limit=
func (h *Handler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.svc.SearchBooks(r.Context(), r.URL.Query().Get("q"), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// TrendingBooks handles GET /books/trending?limit=
func (h *Handler) TrendingBooks(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	books, err := h.svc.TrendingBooks(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

// BooksByCategory handles GET /books/category/{category}?page=&limit=
func (h *Handler) BooksByCategory(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.svc.BooksByCategory(r.Context(), r.PathValue("category"), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetBook handles GET /books/{id}. The id may be a store id or a catalog
// volume id.
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.svc.ResolveBook(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

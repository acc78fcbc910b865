package api

import (
	"net/http"

	"github.com/trogers1052/skill-exchange-service/internal/trading"
)

// CreateReview handles POST /trades/{id}/reviews
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	tradeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body ratingBody
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if body.Rating == nil {
		badRequest(w, "rating is required")
		return
	}

	review, err := h.trades.CreateReview(r.Context(), trading.CreateReviewRequest{
		TradeID:    tradeID,
		ReviewerID: userID,
		Rating:     *body.Rating,
		Feedback:   body.Feedback,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, review)
}

// ListReviews handles GET /trades/{id}/reviews
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	tradeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	search, page, ok := listParams(w, r)
	if !ok {
		return
	}
	reviews, err := h.trades.ListReviews(r.Context(), tradeID, search, page)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reviews)
}

// UpdateReview handles PUT /reviews/{id}
func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	reviewID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body ratingBody
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if body.Rating == nil {
		badRequest(w, "rating is required")
		return
	}

	review, err := h.trades.UpdateReview(r.Context(), trading.UpdateReviewRequest{
		ReviewID:   reviewID,
		ReviewerID: userID,
		Rating:     *body.Rating,
		Feedback:   body.Feedback,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, review)
}

// DeleteReview handles DELETE /reviews/{id}
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	reviewID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.trades.DeleteReview(r.Context(), reviewID, userID); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

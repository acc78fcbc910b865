package api

import (
	"net/http"

	"github.com/trogers1052/skill-exchange-service/internal/messaging"
)

// SendMessage handles POST /trades/{id}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	tradeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	msg, err := h.messages.Send(r.Context(), messaging.SendRequest{
		TradeID:  tradeID,
		SenderID: userID,
		Content:  body.Content,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

// ListMessages handles GET /trades/{id}/messages
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	tradeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	search, page, ok := listParams(w, r)
	if !ok {
		return
	}
	msgs, err := h.messages.List(r.Context(), tradeID, userID, search, page)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, msgs)
}

// DeleteMessage handles DELETE /messages/{id}
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	messageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.messages.Delete(r.Context(), messageID, userID); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

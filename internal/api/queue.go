package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/trogers1052/skill-exchange-service/internal/models"
	"github.com/trogers1052/skill-exchange-service/internal/trading"
)

// Apply handles POST /trades/{id}/apply
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	tradeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entry, err := h.trades.Apply(r.Context(), trading.ApplyRequest{TradeID: tradeID, UserID: userID})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// Invite handles POST /trades/{id}/invite
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	tradeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		InviteeID uuid.UUID `json:"invitee_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	entry, err := h.trades.Invite(r.Context(), trading.InviteRequest{
		TradeID:     tradeID,
		InitiatorID: userID,
		InviteeID:   body.InviteeID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// ListQueue handles GET /trades/{id}/queue
func (h *Handler) ListQueue(w http.ResponseWriter, r *http.Request) {
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
	entries, err := h.trades.ListQueue(r.Context(), tradeID, userID, search, page)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// RespondToInvitation handles POST /queue/{id}/respond
func (h *Handler) RespondToInvitation(w http.ResponseWriter, r *http.Request) {
	h.resolveEntry(w, r, h.trades.RespondToInvitation)
}

// ResolveApplication handles POST /queue/{id}/resolve
func (h *Handler) ResolveApplication(w http.ResponseWriter, r *http.Request) {
	h.resolveEntry(w, r, h.trades.ResolveApplication)
}

type resolveFunc func(ctx context.Context, req trading.RespondRequest) (*models.Trade, error)

func (h *Handler) resolveEntry(w http.ResponseWriter, r *http.Request, resolve resolveFunc) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	entryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Action         string `json:"action"`
		ResponderTerms string `json:"responder_terms"`
	}
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	action, err := trading.ParseResolveAction(body.Action)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	trade, err := resolve(r.Context(), trading.RespondRequest{
		EntryID: entryID,
		ActorID: userID,
		Action:  action,
		Terms:   body.ResponderTerms,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, trade)
}

// RemoveCandidate handles DELETE /queue/{id}
func (h *Handler) RemoveCandidate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	entryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.trades.RemoveCandidate(r.Context(), trading.RemoveCandidateRequest{
		EntryID: entryID,
		ActorID: userID,
	}); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

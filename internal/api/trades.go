package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/trogers1052/skill-exchange-service/internal/trading"
)

type createTradeBody struct {
	InitiatorSkills []uuid.UUID `json:"initiator_skills"`
	DesiredSkills   []uuid.UUID `json:"desired_skills"`
	InitiatorTerms  string      `json:"initiator_terms"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
}

// CreateTrade handles POST /trades
func (h *Handler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body createTradeBody
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	trade, err := h.trades.CreateTrade(r.Context(), trading.CreateTradeRequest{
		InitiatorID:     userID,
		InitiatorSkills: body.InitiatorSkills,
		DesiredSkills:   body.DesiredSkills,
		Terms:           body.InitiatorTerms,
		Title:           body.Title,
		Description:     body.Description,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, trade)
}

// ListTrades handles GET /trades
func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	search, page, ok := listParams(w, r)
	if !ok {
		return
	}
	trades, err := h.trades.ListTrades(r.Context(), userID, search, page)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, trades)
}

// GetTrade handles GET /trades/{id}
func (h *Handler) GetTrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	tradeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	trade, err := h.trades.GetTrade(r.Context(), tradeID, userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, trade)
}

// DeleteTrade handles DELETE /trades/{id}
func (h *Handler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	req, ok := tradeAction(w, r)
	if !ok {
		return
	}
	if err := h.trades.DeleteTrade(r.Context(), req); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteTrade handles POST /trades/{id}/complete
func (h *Handler) CompleteTrade(w http.ResponseWriter, r *http.Request) {
	req, ok := tradeAction(w, r)
	if !ok {
		return
	}
	trade, err := h.trades.CompleteTrade(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, trade)
}

func tradeAction(w http.ResponseWriter, r *http.Request) (trading.TradeActionRequest, bool) {
	userID, ok := currentUser(w, r)
	if !ok {
		return trading.TradeActionRequest{}, false
	}
	tradeID, ok := pathID(w, r, "id")
	if !ok {
		return trading.TradeActionRequest{}, false
	}
	return trading.TradeActionRequest{TradeID: tradeID, ActorID: userID}, true
}

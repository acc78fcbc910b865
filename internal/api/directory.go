package api

import (
	"net/http"

	"github.com/google/uuid"
)

// ListUsers handles GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	search, page, ok := listParams(w, r)
	if !ok {
		return
	}
	users, err := h.trades.ListUsers(r.Context(), search, page)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// ListSkills handles GET /skills
func (h *Handler) ListSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := h.trades.ListSkills(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, skills)
}

// GetSkill handles GET /skills/{id}
func (h *Handler) GetSkill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	skill, err := h.trades.GetSkill(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, skill)
}

// AddOfferedSkill handles POST /me/skills
func (h *Handler) AddOfferedSkill(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		SkillID uuid.UUID `json:"skill_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.SkillID == uuid.Nil {
		badRequest(w, "skill_id is required")
		return
	}

	skill, err := h.trades.AddOfferedSkill(r.Context(), userID, req.SkillID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, skill)
}

// RemoveOfferedSkill handles DELETE /me/skills/{skillID}
func (h *Handler) RemoveOfferedSkill(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	skillID, ok := pathID(w, r, "skillID")
	if !ok {
		return
	}
	if _, err := h.trades.RemoveOfferedSkill(r.Context(), userID, skillID); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

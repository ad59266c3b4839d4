package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/grouppay/internal/middleware"
)

// CreateGroupRequest represents the request body for group creation.
type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateGroup creates a group owned by the caller.
// POST /groups
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := decode(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	group, err := h.groups.CreateGroup(r.Context(), middleware.GetUserID(r.Context()), req.Name, req.Description)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, group)
}

// GetGroup returns a group with its members.
// GET /groups/{groupID}
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.GetGroup(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, group)
}

// DeleteGroup removes a group.
// DELETE /groups/{groupID}
func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.DeleteGroup(r.Context(), chi.URLParam(r, "groupID")); err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUserGroups returns the groups a user belongs to.
// GET /users/{userID}/groups
func (h *Handler) ListUserGroups(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "me" {
		userID = middleware.GetUserID(r.Context())
	}
	groups, err := h.groups.ListUserGroups(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, groups)
}

// AddMemberRequest represents the request body for adding a member.
type AddMemberRequest struct {
	UserID string `json:"userId"`
}

// AddMember adds a user to a group.
// POST /groups/{groupID}/members
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req AddMemberRequest
	if err := decode(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	group, err := h.groups.AddMember(r.Context(), chi.URLParam(r, "groupID"), req.UserID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, group)
}

// RemoveMember removes a user from a group.
// DELETE /groups/{groupID}/members/{userID}
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.groups.RemoveMember(r.Context(), chi.URLParam(r, "groupID"), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

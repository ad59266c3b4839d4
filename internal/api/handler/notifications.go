package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/grouppay/internal/middleware"
)

// ListNotifications returns the caller's notifications, newest first.
// GET /users/me/notifications
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notifications.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, notes)
}

// MarkAllNotificationsRead handles POST /users/me/notifications/read.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkAllRead(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkNotificationRead handles POST /notifications/{id}/read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	err := h.notifications.MarkRead(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"rcca-backend/internal/domain"
	"rcca-backend/internal/service"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) Register(r *mux.Router) {
	r.HandleFunc("/notifications", h.List).Methods(http.MethodGet)
	r.HandleFunc("/notifications/{id}/read", h.MarkAsRead).Methods(http.MethodPost)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	q := r.URL.Query()
	page, err := queryInt32(q.Get("page"), "page")
	if err != nil {
		writeError(w, err)
		return
	}
	pageSize, err := queryInt32(q.Get("page_size"), "page_size")
	if err != nil {
		writeError(w, err)
		return
	}

	notes, total, err := h.svc.GetNotifications(r.Context(), actor.ID, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	if notes == nil {
		notes = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notes,
		"total_count":   total,
	})
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, &domain.ValidationError{Field: "id", Message: "must be numeric"})
		return
	}
	if err := h.svc.MarkAsRead(r.Context(), actor.ID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// queryInt32 parses an optional paging parameter. Zero means default.
func queryInt32(raw, field string) (int32, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n < 0 {
		return 0, &domain.ValidationError{Field: field, Message: "must be a non-negative number"}
	}
	return int32(n), nil
}

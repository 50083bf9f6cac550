package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"rcca-backend/internal/domain"
	"rcca-backend/internal/service"
)

type memberRequest struct {
	ID         string `json:"id" validate:"required,max=64"`
	Name       string `json:"name" validate:"max=200"`
	Department string `json:"department" validate:"max=100"`
}

type draftRequest struct {
	Title              *string         `json:"title" validate:"omitempty,max=200"`
	Narrative          *string         `json:"narrative" validate:"omitempty,max=20000"`
	NotificationNumber *string         `json:"notification_number" validate:"omitempty,max=64"`
	Factory            *string         `json:"factory" validate:"omitempty,max=64"`
	Department         *string         `json:"department" validate:"omitempty,max=100"`
	ErrorCategory      *string         `json:"error_category" validate:"omitempty,max=100"`
	Members            []memberRequest `json:"members" validate:"omitempty,dive"`
}

func (r draftRequest) patch() domain.RecordPatch {
	return domain.RecordPatch{
		Title:              r.Title,
		Narrative:          r.Narrative,
		NotificationNumber: r.NotificationNumber,
		Factory:            r.Factory,
		Department:         r.Department,
		ErrorCategory:      r.ErrorCategory,
		Members:            toMembers(r.Members),
	}
}

type membersRequest struct {
	Members []memberRequest `json:"members" validate:"dive"`
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

func toMembers(in []memberRequest) []domain.Member {
	if in == nil {
		return nil
	}
	out := make([]domain.Member, 0, len(in))
	for _, m := range in {
		out = append(out, domain.Member{ID: m.ID, Name: m.Name, Department: m.Department})
	}
	return out
}

// RCCAHandler serves the record lifecycle endpoints.
type RCCAHandler struct {
	svc      service.RCCAService
	validate *validator.Validate
}

func NewRCCAHandler(svc service.RCCAService, validate *validator.Validate) *RCCAHandler {
	return &RCCAHandler{svc: svc, validate: validate}
}

func (h *RCCAHandler) Register(r *mux.Router) {
	r.HandleFunc("/rcca", h.List).Methods(http.MethodGet)
	r.HandleFunc("/rcca/drafts", h.CreateDraft).Methods(http.MethodPost)
	r.HandleFunc("/rcca/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/rcca/{id}/history", h.History).Methods(http.MethodGet)
	r.HandleFunc("/rcca/{id}/draft", h.SaveDraft).Methods(http.MethodPut)
	r.HandleFunc("/rcca/{id}/members", h.UpdateMembers).Methods(http.MethodPut)
	r.HandleFunc("/rcca/{id}/submit", h.Submit).Methods(http.MethodPost)
	r.HandleFunc("/rcca/{id}/approve", h.Approve).Methods(http.MethodPut)
	r.HandleFunc("/rcca/{id}/reject", h.Reject).Methods(http.MethodPut)
	r.HandleFunc("/rcca/{id}/resubmit", h.Resubmit).Methods(http.MethodPost)
	r.HandleFunc("/rcca/{id}/delete", h.Delete).Methods(http.MethodPost)
}

// decode reads a JSON body into dst and validates it. An empty body is
// treated as an empty object.
func decode(r *http.Request, v *validator.Validate, dst any) error {
	if r.Body != nil && r.ContentLength != 0 {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(dst); err != nil {
			return &domain.ValidationError{Field: "body", Message: "malformed JSON: " + err.Error()}
		}
	}
	return v.Struct(dst)
}

func (h *RCCAHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	var req draftRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.svc.CreateDraft(r.Context(), actor, req.patch())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *RCCAHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	var req draftRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.svc.SaveDraft(r.Context(), actor, mux.Vars(r)["id"], req.patch())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *RCCAHandler) UpdateMembers(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	var req membersRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	members := toMembers(req.Members)
	if members == nil {
		members = []domain.Member{}
	}
	rec, err := h.svc.UpdateMembers(r.Context(), actor, mux.Vars(r)["id"], members)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *RCCAHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	rec, err := h.svc.Submit(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *RCCAHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	rec, err := h.svc.Approve(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *RCCAHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	var req reasonRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.svc.Reject(r.Context(), actor, mux.Vars(r)["id"], req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *RCCAHandler) Resubmit(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	rec, err := h.svc.Resubmit(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *RCCAHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	var req reasonRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), actor, mux.Vars(r)["id"], req.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RCCAHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	detail, err := h.svc.Get(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *RCCAHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	q := r.URL.Query()
	filter := service.ListFilter{
		Status:  domain.RecordStatus(q.Get("status")),
		Factory: q.Get("factory"),
	}
	if raw := q.Get("include_superseded"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, &domain.ValidationError{Field: "include_superseded", Message: "must be a boolean"})
			return
		}
		filter.IncludeSuperseded = b
	}
	records, err := h.svc.List(r.Context(), actor, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *RCCAHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	changes, err := h.svc.History(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if changes == nil {
		changes = []domain.StatusChange{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": changes})
}

package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"rcca-backend/internal/aggregate"
	"rcca-backend/internal/domain"
	"rcca-backend/internal/service"
)

const dateLayout = "2006-01-02"

// DashboardHandler serves the chart and card data.
type DashboardHandler struct {
	svc service.DashboardService
}

func NewDashboardHandler(svc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

func (h *DashboardHandler) Register(r *mux.Router) {
	r.HandleFunc("/dashboard/stats", h.Stats).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/trend", h.Trend).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/pareto", h.Pareto).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/employees", h.Employees).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/departments", h.Departments).Methods(http.MethodGet)
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	counts, err := h.svc.Stats(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *DashboardHandler) Trend(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	q := r.URL.Query()
	query := aggregate.TrendQuery{
		Factory: q.Get("factory"),
		Period:  aggregate.Period(strings.ToLower(q.Get("period"))),
	}
	if query.Period == aggregate.PeriodCustom {
		var err error
		if query.From, err = parseDate(q.Get("from"), "from"); err != nil {
			writeError(w, err)
			return
		}
		if query.To, err = parseDate(q.Get("to"), "to"); err != nil {
			writeError(w, err)
			return
		}
	}
	series, err := h.svc.Trend(r.Context(), actor, query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (h *DashboardHandler) Pareto(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	p, err := h.svc.Pareto(r.Context(), actor, r.URL.Query().Get("factory"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *DashboardHandler) Employees(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	q := r.URL.Query()
	query := aggregate.EmployeeQuery{Factory: q.Get("factory"), Page: 1}

	// top is a number or "all"
	if raw := q.Get("top"); raw != "" && !strings.EqualFold(raw, "all") {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, &domain.ValidationError{Field: "top", Message: "must be a positive number or all"})
			return
		}
		query.TopN = n
	}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, &domain.ValidationError{Field: "page", Message: "must be a positive number"})
			return
		}
		query.Page = n
	}

	page, err := h.svc.Employees(r.Context(), actor, query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *DashboardHandler) Departments(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	out, err := h.svc.Departments(r.Context(), actor, r.URL.Query().Get("factory"))
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []aggregate.DepartmentCount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"departments": out})
}

func parseDate(raw, field string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, &domain.ValidationError{Field: field, Message: "required for a custom period"}
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: field, Message: "expected YYYY-MM-DD"}
	}
	return t, nil
}

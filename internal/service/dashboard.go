package service

import (
	"context"
	"time"

	"rcca-backend/internal/aggregate"
	"rcca-backend/internal/domain"
	"rcca-backend/internal/logger"
	"rcca-backend/internal/metrics"
	"rcca-backend/internal/reconcile"
	"rcca-backend/internal/repository"
)

// DashboardOptions carries the reporting settings from config.
type DashboardOptions struct {
	Categories           []string
	DefaultFactory       string
	ResubmittedAsPending bool
}

type dashboardService struct {
	snapshotLoader
	userRepo repository.UserRepository
	metrics  *metrics.Metrics
	opts     DashboardOptions
	now      func() time.Time
}

func NewDashboardService(
	records repository.RecordRepository,
	cache repository.DraftCache,
	userRepo repository.UserRepository,
	m *metrics.Metrics,
	opts DashboardOptions,
) DashboardService {
	return &dashboardService{
		snapshotLoader: snapshotLoader{records: records, cache: cache},
		userRepo:       userRepo,
		metrics:        m,
		opts:           opts,
		now:            time.Now,
	}
}

func (s *dashboardService) Stats(ctx context.Context, actor domain.Actor) (aggregate.StatusCounts, error) {
	logger.EnterMethod("dashboardService.Stats", "actorID", actor.ID, "admin", actor.IsAdmin)
	v, err := s.load(ctx)
	if err != nil {
		logger.ExitMethodWithError("dashboardService.Stats", err)
		return aggregate.StatusCounts{}, err
	}
	counts := aggregate.CountStatuses(v, aggregate.Scope{ActorID: actor.ID, Admin: actor.IsAdmin})
	logger.ExitMethod("dashboardService.Stats", "total", counts.Total)
	return counts, nil
}

func (s *dashboardService) Trend(ctx context.Context, actor domain.Actor, q aggregate.TrendQuery) (aggregate.Series, error) {
	logger.EnterMethod("dashboardService.Trend", "actorID", actor.ID, "period", q.Period, "factory", q.Factory)
	records, err := s.visible(ctx, actor)
	if err != nil {
		logger.ExitMethodWithError("dashboardService.Trend", err)
		return aggregate.Series{}, err
	}
	if q.Now.IsZero() {
		q.Now = s.now()
	}
	series, err := aggregate.Trend(records, q)
	if err != nil {
		logger.ExitMethodWithError("dashboardService.Trend", err)
		return aggregate.Series{}, err
	}
	logger.ExitMethod("dashboardService.Trend", "buckets", len(series.Labels), "sum", series.Sum())
	return series, nil
}

func (s *dashboardService) Pareto(ctx context.Context, actor domain.Actor, factory string) (aggregate.Pareto, error) {
	logger.EnterMethod("dashboardService.Pareto", "actorID", actor.ID, "factory", factory)
	records, err := s.visible(ctx, actor)
	if err != nil {
		logger.ExitMethodWithError("dashboardService.Pareto", err)
		return aggregate.Pareto{}, err
	}
	p := aggregate.ParetoRanking(records, factory, s.opts.Categories)
	logger.ExitMethod("dashboardService.Pareto", "categories", len(p.Labels))
	return p, nil
}

// Employees is admin only: it exposes every employee's counts.
func (s *dashboardService) Employees(ctx context.Context, actor domain.Actor, q aggregate.EmployeeQuery) (aggregate.EmployeePage, error) {
	logger.EnterMethod("dashboardService.Employees", "actorID", actor.ID, "factory", q.Factory, "topN", q.TopN, "page", q.Page)
	if !actor.IsAdmin {
		err := &domain.PermissionError{ActorID: actor.ID, Action: "view employee breakdown"}
		logger.ExitMethodWithError("dashboardService.Employees", err)
		return aggregate.EmployeePage{}, err
	}

	v, err := s.load(ctx)
	if err != nil {
		logger.ExitMethodWithError("dashboardService.Employees", err)
		return aggregate.EmployeePage{}, err
	}
	logger.DatabaseCall("ListAll", "users")
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		logger.ExitMethodWithError("dashboardService.Employees", err)
		return aggregate.EmployeePage{}, err
	}

	q.ResubmittedAsPending = s.opts.ResubmittedAsPending
	if q.DefaultFactory == "" {
		q.DefaultFactory = s.opts.DefaultFactory
	}
	page := aggregate.EmployeeBreakdown(v.Live(), v.Pending(), users, q)
	logger.ExitMethod("dashboardService.Employees", "employees", page.TotalCount, "page", page.Page)
	return page, nil
}

func (s *dashboardService) Departments(ctx context.Context, actor domain.Actor, factory string) ([]aggregate.DepartmentCount, error) {
	logger.EnterMethod("dashboardService.Departments", "actorID", actor.ID, "factory", factory)
	records, err := s.visible(ctx, actor)
	if err != nil {
		logger.ExitMethodWithError("dashboardService.Departments", err)
		return nil, err
	}
	out := aggregate.DepartmentBreakdown(records, factory)
	logger.ExitMethod("dashboardService.Departments", "departments", len(out))
	return out, nil
}

func (s *dashboardService) RefreshMetrics(ctx context.Context) (aggregate.StatusCounts, error) {
	v, err := s.load(ctx)
	if err != nil {
		return aggregate.StatusCounts{}, err
	}
	counts := aggregate.CountStatuses(v, aggregate.Scope{Admin: true})
	if s.metrics != nil {
		s.metrics.SetStatusCounts(statusGauges(v))
	}
	return counts, nil
}

// visible returns the live records actor may see in charts.
func (s *dashboardService) visible(ctx context.Context, actor domain.Actor) ([]domain.Record, error) {
	v, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	live := v.Live()
	if actor.IsAdmin {
		return live, nil
	}
	out := live[:0]
	for _, r := range live {
		if r.CreatorID() == actor.ID {
			out = append(out, r)
		}
	}
	return out, nil
}

func statusGauges(v *reconcile.View) map[domain.RecordStatus]int {
	counts := map[domain.RecordStatus]int{
		domain.RecordStatusDraft:       0,
		domain.RecordStatusSubmitted:   0,
		domain.RecordStatusResubmitted: 0,
		domain.RecordStatusApproved:    0,
		domain.RecordStatusRejected:    0,
	}
	for _, r := range v.Live() {
		counts[r.Status]++
	}
	return counts
}

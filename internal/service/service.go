package service

import (
	"context"

	"rcca-backend/internal/aggregate"
	"rcca-backend/internal/domain"
)

type RCCAService interface {
	CreateDraft(ctx context.Context, actor domain.Actor, patch domain.RecordPatch) (*domain.Record, error)
	SaveDraft(ctx context.Context, actor domain.Actor, id string, patch domain.RecordPatch) (*domain.Record, error)
	UpdateMembers(ctx context.Context, actor domain.Actor, id string, members []domain.Member) (*domain.Record, error)
	Submit(ctx context.Context, actor domain.Actor, id string) (*domain.Record, error)
	Approve(ctx context.Context, actor domain.Actor, id string) (*domain.Record, error)
	Reject(ctx context.Context, actor domain.Actor, id, reason string) (*domain.Record, error)
	Resubmit(ctx context.Context, actor domain.Actor, id string) (*domain.Record, error)
	Delete(ctx context.Context, actor domain.Actor, id, reason string) error
	Get(ctx context.Context, actor domain.Actor, id string) (*RecordDetail, error)
	List(ctx context.Context, actor domain.Actor, filter ListFilter) ([]domain.Record, error)
	History(ctx context.Context, actor domain.Actor, id string) ([]domain.StatusChange, error)
}

type DashboardService interface {
	Stats(ctx context.Context, actor domain.Actor) (aggregate.StatusCounts, error)
	Trend(ctx context.Context, actor domain.Actor, q aggregate.TrendQuery) (aggregate.Series, error)
	Pareto(ctx context.Context, actor domain.Actor, factory string) (aggregate.Pareto, error)
	Employees(ctx context.Context, actor domain.Actor, q aggregate.EmployeeQuery) (aggregate.EmployeePage, error)
	Departments(ctx context.Context, actor domain.Actor, factory string) ([]aggregate.DepartmentCount, error)
	// RefreshMetrics recomputes the record gauges from a fresh snapshot.
	RefreshMetrics(ctx context.Context) (aggregate.StatusCounts, error)
}

type SyncService interface {
	Sync(ctx context.Context) (*SyncResult, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID string, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID string, notificationID int64) error
}

// NotificationSink delivers one event to a set of users. Sinks resolve the
// recipient ids to whatever address they need.
type NotificationSink interface {
	Name() string
	Notify(ctx context.Context, recipients []domain.User, ev domain.Event) error
}

// RecordDetail is a single record together with what the caller may do
// with it.
type RecordDetail struct {
	Record       domain.Record `json:"record"`
	CanEdit      bool          `json:"can_edit"`
	CanDelete    bool          `json:"can_delete"`
	SupersededBy []string      `json:"superseded_by,omitempty"`
}

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	Status            domain.RecordStatus
	Factory           string
	IncludeSuperseded bool
}

// SyncResult reports one outbox flush.
type SyncResult struct {
	Flushed int `json:"flushed"`
	Dropped int `json:"dropped"`
	Failed  int `json:"failed"`
}

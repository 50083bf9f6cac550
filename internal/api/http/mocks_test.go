package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rcca-backend/internal/aggregate"
	"rcca-backend/internal/domain"
	"rcca-backend/internal/service"
)

type MockRCCAService struct{ mock.Mock }

func (m *MockRCCAService) record(args mock.Arguments) (*domain.Record, error) {
	if r, ok := args.Get(0).(*domain.Record); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRCCAService) CreateDraft(ctx context.Context, actor domain.Actor, patch domain.RecordPatch) (*domain.Record, error) {
	return m.record(m.Called(ctx, actor, patch))
}

func (m *MockRCCAService) SaveDraft(ctx context.Context, actor domain.Actor, id string, patch domain.RecordPatch) (*domain.Record, error) {
	return m.record(m.Called(ctx, actor, id, patch))
}

func (m *MockRCCAService) UpdateMembers(ctx context.Context, actor domain.Actor, id string, members []domain.Member) (*domain.Record, error) {
	return m.record(m.Called(ctx, actor, id, members))
}

func (m *MockRCCAService) Submit(ctx context.Context, actor domain.Actor, id string) (*domain.Record, error) {
	return m.record(m.Called(ctx, actor, id))
}

func (m *MockRCCAService) Approve(ctx context.Context, actor domain.Actor, id string) (*domain.Record, error) {
	return m.record(m.Called(ctx, actor, id))
}

func (m *MockRCCAService) Reject(ctx context.Context, actor domain.Actor, id, reason string) (*domain.Record, error) {
	return m.record(m.Called(ctx, actor, id, reason))
}

func (m *MockRCCAService) Resubmit(ctx context.Context, actor domain.Actor, id string) (*domain.Record, error) {
	return m.record(m.Called(ctx, actor, id))
}

func (m *MockRCCAService) Delete(ctx context.Context, actor domain.Actor, id, reason string) error {
	return m.Called(ctx, actor, id, reason).Error(0)
}

func (m *MockRCCAService) Get(ctx context.Context, actor domain.Actor, id string) (*service.RecordDetail, error) {
	args := m.Called(ctx, actor, id)
	if d, ok := args.Get(0).(*service.RecordDetail); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRCCAService) List(ctx context.Context, actor domain.Actor, filter service.ListFilter) ([]domain.Record, error) {
	args := m.Called(ctx, actor, filter)
	records, _ := args.Get(0).([]domain.Record)
	return records, args.Error(1)
}

func (m *MockRCCAService) History(ctx context.Context, actor domain.Actor, id string) ([]domain.StatusChange, error) {
	args := m.Called(ctx, actor, id)
	changes, _ := args.Get(0).([]domain.StatusChange)
	return changes, args.Error(1)
}

type MockDashboardService struct{ mock.Mock }

func (m *MockDashboardService) Stats(ctx context.Context, actor domain.Actor) (aggregate.StatusCounts, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(aggregate.StatusCounts), args.Error(1)
}

func (m *MockDashboardService) Trend(ctx context.Context, actor domain.Actor, q aggregate.TrendQuery) (aggregate.Series, error) {
	args := m.Called(ctx, actor, q)
	return args.Get(0).(aggregate.Series), args.Error(1)
}

func (m *MockDashboardService) Pareto(ctx context.Context, actor domain.Actor, factory string) (aggregate.Pareto, error) {
	args := m.Called(ctx, actor, factory)
	return args.Get(0).(aggregate.Pareto), args.Error(1)
}

func (m *MockDashboardService) Employees(ctx context.Context, actor domain.Actor, q aggregate.EmployeeQuery) (aggregate.EmployeePage, error) {
	args := m.Called(ctx, actor, q)
	return args.Get(0).(aggregate.EmployeePage), args.Error(1)
}

func (m *MockDashboardService) Departments(ctx context.Context, actor domain.Actor, factory string) ([]aggregate.DepartmentCount, error) {
	args := m.Called(ctx, actor, factory)
	out, _ := args.Get(0).([]aggregate.DepartmentCount)
	return out, args.Error(1)
}

func (m *MockDashboardService) RefreshMetrics(ctx context.Context) (aggregate.StatusCounts, error) {
	args := m.Called(ctx)
	return args.Get(0).(aggregate.StatusCounts), args.Error(1)
}

type MockNotificationService struct{ mock.Mock }

func (m *MockNotificationService) GetNotifications(ctx context.Context, userID string, page, pageSize int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	notes, _ := args.Get(0).([]domain.Notification)
	return notes, args.Get(1).(int32), args.Error(2)
}

func (m *MockNotificationService) MarkAsRead(ctx context.Context, userID string, notificationID int64) error {
	return m.Called(ctx, userID, notificationID).Error(0)
}

package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"rcca-backend/internal/domain"
)

// MockRecordRepo
type MockRecordRepo struct {
	mock.Mock
}

func (m *MockRecordRepo) ListMain(ctx context.Context) ([]domain.Record, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Record), args.Error(1)
}
func (m *MockRecordRepo) ListPending(ctx context.Context) ([]domain.Record, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Record), args.Error(1)
}
func (m *MockRecordRepo) ListDrafts(ctx context.Context) ([]domain.Record, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Record), args.Error(1)
}
func (m *MockRecordRepo) FindByID(ctx context.Context, id string) (*domain.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}
func (m *MockRecordRepo) CreateDraft(ctx context.Context, r *domain.Record) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockRecordRepo) Update(ctx context.Context, r *domain.Record) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockRecordRepo) Submit(ctx context.Context, r *domain.Record) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockRecordRepo) Approve(ctx context.Context, r *domain.Record) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockRecordRepo) Reject(ctx context.Context, r *domain.Record) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockRecordRepo) Resubmit(ctx context.Context, originalID string, r *domain.Record) error {
	args := m.Called(ctx, originalID, r)
	return args.Error(0)
}
func (m *MockRecordRepo) UpdateMembers(ctx context.Context, id string, members []domain.Member, at time.Time) error {
	args := m.Called(ctx, id, members, at)
	return args.Error(0)
}
func (m *MockRecordRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) ListAll(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) ListAdmins(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, userID string, limit, offset int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id int64, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockHistoryRepo
type MockHistoryRepo struct {
	mock.Mock
}

func (m *MockHistoryRepo) Append(ctx context.Context, c *domain.StatusChange) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
func (m *MockHistoryRepo) ListByRecord(ctx context.Context, recordID string) ([]domain.StatusChange, error) {
	args := m.Called(ctx, recordID)
	return args.Get(0).([]domain.StatusChange), args.Error(1)
}

// MockSink
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Name() string { return "mock" }
func (m *MockSink) Notify(ctx context.Context, recipients []domain.User, ev domain.Event) error {
	args := m.Called(ctx, recipients, ev)
	return args.Error(0)
}

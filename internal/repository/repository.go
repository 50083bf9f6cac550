package repository

import (
	"context"
	"time"

	"rcca-backend/internal/domain"
)

// RecordRepository persists RCCA records across the main table (drafts and
// decided records) and the pending table (records awaiting a decision).
// Transport failures come back as *domain.StoreError.
type RecordRepository interface {
	ListMain(ctx context.Context) ([]domain.Record, error)
	ListPending(ctx context.Context) ([]domain.Record, error)
	ListDrafts(ctx context.Context) ([]domain.Record, error)
	FindByID(ctx context.Context, id string) (*domain.Record, error)

	// CreateDraft inserts or updates the draft by canonical id, removing any
	// pending copy in the same transaction.
	CreateDraft(ctx context.Context, r *domain.Record) error
	Update(ctx context.Context, r *domain.Record) error
	Submit(ctx context.Context, r *domain.Record) error
	// Approve and Reject move r out of the pending table only while it is
	// still Submitted; otherwise they return *domain.ConflictError.
	Approve(ctx context.Context, r *domain.Record) error
	Reject(ctx context.Context, r *domain.Record) error
	// Resubmit marks originalID superseded and inserts r as pending. Fails
	// with *domain.ConflictError when the original was already superseded.
	Resubmit(ctx context.Context, originalID string, r *domain.Record) error
	UpdateMembers(ctx context.Context, id string, members []domain.Member, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	ListAll(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ListAdmins(ctx context.Context) ([]domain.User, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, userID string, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id int64, userID string) error
}

type StatusHistoryRepository interface {
	Append(ctx context.Context, c *domain.StatusChange) error
	ListByRecord(ctx context.Context, recordID string) ([]domain.StatusChange, error)
}

// DraftCache holds drafts that have not reached the record store yet.
// Get returns domain.ErrNotFound for unknown ids.
type DraftCache interface {
	Get(ctx context.Context, id string) (*domain.Record, error)
	Set(ctx context.Context, r *domain.Record) error
	Remove(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Record, error)
}

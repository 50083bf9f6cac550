package permission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rcca-backend/internal/domain"
)

var (
	fixedNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	creator  = domain.Actor{ID: "creator"}
	member   = domain.Actor{ID: "member"}
	outsider = domain.Actor{ID: "outsider"}
	admin    = domain.Actor{ID: "admin", IsAdmin: true}
)

func newEvaluator() *Evaluator {
	return NewEvaluator(DefaultGracePeriod, WithClock(func() time.Time { return fixedNow }))
}

func record(status domain.RecordStatus) *domain.Record {
	r := &domain.Record{
		ID:                 "r1",
		Status:             status,
		CreatedBy:          creator.ID,
		EditingPermissions: domain.EditingPermissions{CreatorID: creator.ID},
	}
	r.ReplaceMembers([]domain.Member{{ID: member.ID, Name: "Member"}}, fixedNow)
	return r
}

func TestEvaluator_CanEdit(t *testing.T) {
	e := newEvaluator()
	recent := fixedNow.Add(-48 * time.Hour)
	stale := fixedNow.Add(-8 * 24 * time.Hour)

	approvedRecent := record(domain.RecordStatusApproved)
	approvedRecent.ApprovedAt = &recent
	approvedStale := record(domain.RecordStatusApproved)
	approvedStale.ApprovedAt = &stale

	tests := []struct {
		name   string
		record *domain.Record
		actor  domain.Actor
		want   bool
	}{
		{"draft creator", record(domain.RecordStatusDraft), creator, true},
		{"draft team member", record(domain.RecordStatusDraft), member, true},
		{"draft admin", record(domain.RecordStatusDraft), admin, true},
		{"draft outsider", record(domain.RecordStatusDraft), outsider, false},
		{"submitted creator", record(domain.RecordStatusSubmitted), creator, true},
		{"submitted team member", record(domain.RecordStatusSubmitted), member, false},
		{"submitted admin", record(domain.RecordStatusSubmitted), admin, true},
		{"resubmitted team member", record(domain.RecordStatusResubmitted), member, false},
		{"resubmitted admin", record(domain.RecordStatusResubmitted), admin, true},
		{"rejected creator", record(domain.RecordStatusRejected), creator, true},
		{"rejected admin", record(domain.RecordStatusRejected), admin, true},
		{"rejected team member", record(domain.RecordStatusRejected), member, false},
		{"approved admin inside grace", approvedRecent, admin, true},
		{"approved admin outside grace", approvedStale, admin, false},
		{"approved creator outside grace", approvedStale, creator, true},
		{"approved team member", approvedRecent, member, false},
		{"unknown status", record("Archived"), admin, false},
		{"anonymous actor", record(domain.RecordStatusDraft), domain.Actor{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.CanEdit(tt.record, tt.actor))
		})
	}
	assert.False(t, e.CanEdit(nil, admin))
}

func TestEvaluator_CanEdit_ApprovedWithoutTimestamp(t *testing.T) {
	e := newEvaluator()
	r := record(domain.RecordStatusApproved)
	assert.False(t, e.CanEdit(r, admin))
	assert.True(t, e.CanEdit(r, creator))
}

func TestEvaluator_CanEdit_GraceBoundary(t *testing.T) {
	e := NewEvaluator(time.Hour, WithClock(func() time.Time { return fixedNow }))
	edge := fixedNow.Add(-time.Hour)
	r := record(domain.RecordStatusApproved)
	r.ApprovedAt = &edge
	assert.True(t, e.CanEdit(r, admin))

	past := edge.Add(-time.Second)
	r.ApprovedAt = &past
	assert.False(t, e.CanEdit(r, admin))
}

// Whatever a non-admin may do, the same user holding the admin role may do.
func TestEvaluator_CanEdit_MonotonicInPrivilege(t *testing.T) {
	e := newEvaluator()
	recent := fixedNow.Add(-time.Hour)
	stale := fixedNow.Add(-30 * 24 * time.Hour)
	statuses := []domain.RecordStatus{
		domain.RecordStatusDraft,
		domain.RecordStatusSubmitted,
		domain.RecordStatusApproved,
		domain.RecordStatusRejected,
		domain.RecordStatusResubmitted,
	}
	for _, status := range statuses {
		for _, approvedAt := range []*time.Time{nil, &recent, &stale} {
			for _, user := range []domain.Actor{creator, member, outsider} {
				r := record(status)
				r.ApprovedAt = approvedAt
				elevated := user
				elevated.IsAdmin = true
				if e.CanEdit(r, user) {
					assert.True(t, e.CanEdit(r, elevated), "status=%s user=%s", status, user.ID)
				}
			}
		}
	}
}

func TestEvaluator_CanDecide(t *testing.T) {
	e := newEvaluator()
	assert.True(t, e.CanDecide(admin))
	assert.False(t, e.CanDecide(creator))
	assert.False(t, e.CanDecide(domain.Actor{IsAdmin: true}))
}

func TestEvaluator_CanResubmit(t *testing.T) {
	e := newEvaluator()
	r := record(domain.RecordStatusRejected)
	assert.True(t, e.CanResubmit(r, creator))
	assert.True(t, e.CanResubmit(r, admin))
	assert.False(t, e.CanResubmit(r, member))
}

func TestEvaluator_CanDelete(t *testing.T) {
	e := newEvaluator()
	assert.True(t, e.CanDelete(record(domain.RecordStatusDraft), creator))
	assert.False(t, e.CanDelete(record(domain.RecordStatusSubmitted), creator))
	assert.False(t, e.CanDelete(record(domain.RecordStatusDraft), member))
	assert.True(t, e.CanDelete(record(domain.RecordStatusRejected), admin))

	stale := fixedNow.Add(-30 * 24 * time.Hour)
	approved := record(domain.RecordStatusApproved)
	approved.ApprovedAt = &stale
	assert.False(t, e.CanDelete(approved, admin))
}

func TestEvaluator_CanView(t *testing.T) {
	e := newEvaluator()
	r := record(domain.RecordStatusSubmitted)
	assert.True(t, e.CanView(r, creator))
	assert.True(t, e.CanView(r, member))
	assert.True(t, e.CanView(r, admin))
	assert.False(t, e.CanView(r, outsider))
}

func TestNewEvaluator_DefaultsGracePeriod(t *testing.T) {
	assert.Equal(t, DefaultGracePeriod, NewEvaluator(0).GracePeriod())
}

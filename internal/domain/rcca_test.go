package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecord_ReplaceMembers(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	r := &Record{ID: "r1", CreatedBy: "c1"}

	r.ReplaceMembers([]Member{{ID: "m2", Name: "Two"}, {ID: "m1", Name: "One"}, {ID: "m2", Name: "Dup"}}, now)

	assert.Len(t, r.AssignedMembers, 3)
	assert.Equal(t, []string{"m1", "m2"}, r.EditingPermissions.TeamMemberIDs)
	assert.Equal(t, now, r.EditingPermissions.LastUpdated)
	assert.True(t, r.MembersInSync())

	r.ReplaceMembers(nil, now)
	assert.Empty(t, r.EditingPermissions.TeamMemberIDs)
	assert.True(t, r.MembersInSync())
}

func TestRecord_MembersInSync_DetectsDrift(t *testing.T) {
	r := &Record{
		AssignedMembers:    []Member{{ID: "m1"}},
		EditingPermissions: EditingPermissions{TeamMemberIDs: []string{"m1", "m9"}},
	}
	assert.False(t, r.MembersInSync())
}

func TestRecord_Clone(t *testing.T) {
	approved := time.Now()
	r := &Record{
		ID:                 "r1",
		AssignedMembers:    []Member{{ID: "m1"}},
		EditingPermissions: EditingPermissions{TeamMemberIDs: []string{"m1"}, AdminIDs: []string{"a1"}},
		ApprovedAt:         &approved,
	}

	c := r.Clone()
	c.AssignedMembers[0].ID = "changed"
	c.EditingPermissions.TeamMemberIDs[0] = "changed"
	*c.ApprovedAt = approved.Add(time.Hour)

	assert.Equal(t, "m1", r.AssignedMembers[0].ID)
	assert.Equal(t, "m1", r.EditingPermissions.TeamMemberIDs[0])
	assert.Equal(t, approved, *r.ApprovedAt)
	assert.Nil(t, (*Record)(nil).Clone())
}

func TestRecord_CreatorID(t *testing.T) {
	assert.Equal(t, "p1", (&Record{CreatedBy: "c1", EditingPermissions: EditingPermissions{CreatorID: "p1"}}).CreatorID())
	assert.Equal(t, "c1", (&Record{CreatedBy: "c1"}).CreatorID())
}

func TestRecord_AddAdmin(t *testing.T) {
	now := time.Now()
	r := &Record{}
	r.AddAdmin("a2", now)
	r.AddAdmin("a1", now)
	r.AddAdmin("a2", now)
	r.AddAdmin("", now)
	assert.Equal(t, []string{"a1", "a2"}, r.EditingPermissions.AdminIDs)
}

func TestRecordPatch_Apply(t *testing.T) {
	now := time.Now()
	title := "Leak on line 3"
	number := "  N-100 "
	r := &Record{Title: "old", Factory: "DPL 1"}

	RecordPatch{Title: &title, NotificationNumber: &number, Members: []Member{{ID: "m1"}}}.Apply(r, now)

	assert.Equal(t, title, r.Title)
	assert.Equal(t, "N-100", r.NotificationNumber)
	assert.Equal(t, "DPL 1", r.Factory)
	assert.Equal(t, []string{"m1"}, r.EditingPermissions.TeamMemberIDs)
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsValidation(&ValidationError{Field: "narrative", Message: "required"}))
	assert.True(t, IsPermission(&PermissionError{ActorID: "u1", Action: "approve"}))
	assert.True(t, IsConflict(&ConflictError{RecordID: "r1", ExpectedStatus: RecordStatusSubmitted}))

	conflict := &ConflictError{RecordID: "r1", ExpectedStatus: RecordStatusSubmitted}
	assert.True(t, conflict.Expected())
	assert.Equal(t, "conflict: record r1 is no longer Submitted", conflict.Error())

	inner := assert.AnError
	se := &StoreError{Op: "approve", Err: inner}
	assert.True(t, IsStore(se))
	assert.ErrorIs(t, se, inner)
	assert.False(t, IsStore(inner))
}

package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcca-backend/internal/domain"
	"rcca-backend/internal/permission"
)

var (
	now     = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	creator = domain.Actor{ID: "c1", Name: "Creator"}
	member  = domain.Actor{ID: "m1", Name: "Member"}
	admin   = domain.Actor{ID: "a1", Name: "Admin", IsAdmin: true}
)

func newEngine() *Engine {
	clock := func() time.Time { return now }
	perms := permission.NewEvaluator(permission.DefaultGracePeriod, permission.WithClock(clock))
	return NewEngine(perms, WithClock(clock), WithIDGenerator(func() string { return "new-id" }))
}

func draft() *domain.Record {
	r := &domain.Record{
		ID:                 "r1",
		StorageID:          "11",
		Tier:               domain.TierMain,
		Status:             domain.RecordStatusDraft,
		CreatedBy:          creator.ID,
		Title:              "Seal failure",
		Narrative:          "Customer reported leaking seals",
		NotificationNumber: "N-1",
		EditingPermissions: domain.EditingPermissions{CreatorID: creator.ID},
	}
	r.ReplaceMembers([]domain.Member{{ID: member.ID, Name: member.Name}}, now.Add(-time.Hour))
	return r
}

func withStatus(status domain.RecordStatus) *domain.Record {
	r := draft()
	r.Status = status
	if status.IsPending() {
		r.Tier = domain.TierPending
	}
	return r
}

func TestEngine_Submit(t *testing.T) {
	e := newEngine()
	in := draft()

	out, err := e.Transition(in, Command{Action: ActionSubmit, Actor: member})
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStatusSubmitted, out.Record.Status)
	assert.Equal(t, domain.TierPending, out.Record.Tier)
	assert.Equal(t, now, out.Record.UpdatedAt)
	assert.Equal(t, domain.EventSubmitted, out.Event.Type)
	assert.Equal(t, "r1", out.Event.RecordID)
	assert.Nil(t, out.Superseded)

	assert.Equal(t, domain.RecordStatusDraft, in.Status, "input must not change")
}

func TestEngine_Submit_RequiresNarrative(t *testing.T) {
	e := newEngine()
	in := draft()
	in.Narrative = "   "

	out, err := e.Transition(in, Command{Action: ActionSubmit, Actor: creator})
	assert.Nil(t, out)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "narrative", verr.Field)
	assert.Equal(t, domain.RecordStatusDraft, in.Status)
}

func TestEngine_Submit_Outsider(t *testing.T) {
	e := newEngine()
	_, err := e.Transition(draft(), Command{Action: ActionSubmit, Actor: domain.Actor{ID: "x"}})
	assert.True(t, domain.IsPermission(err))
}

func TestEngine_Approve(t *testing.T) {
	e := newEngine()
	in := withStatus(domain.RecordStatusSubmitted)

	out, err := e.Transition(in, Command{Action: ActionApprove, Actor: admin})
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStatusApproved, out.Record.Status)
	assert.Equal(t, domain.TierMain, out.Record.Tier)
	require.NotNil(t, out.Record.ApprovedAt)
	assert.Equal(t, now, *out.Record.ApprovedAt)
	assert.Equal(t, admin.ID, out.Record.ApprovedBy)
	assert.Contains(t, out.Record.EditingPermissions.AdminIDs, admin.ID)
	assert.Equal(t, domain.EventApproved, out.Event.Type)
}

func TestEngine_Approve_NonAdmin(t *testing.T) {
	e := newEngine()
	in := withStatus(domain.RecordStatusSubmitted)
	_, err := e.Transition(in, Command{Action: ActionApprove, Actor: creator})
	assert.True(t, domain.IsPermission(err))
	assert.Equal(t, domain.RecordStatusSubmitted, in.Status)
}

func TestEngine_Reject(t *testing.T) {
	e := newEngine()
	out, err := e.Transition(withStatus(domain.RecordStatusSubmitted), Command{Action: ActionReject, Actor: admin, Reason: " missing 5-why "})
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStatusRejected, out.Record.Status)
	assert.Equal(t, "missing 5-why", out.Record.RejectionReason)
	assert.Equal(t, admin.ID, out.Record.RejectedBy)
	assert.Equal(t, domain.EventRejected, out.Event.Type)
	assert.Equal(t, "missing 5-why", out.Event.Reason)
}

func TestEngine_Reject_RequiresReason(t *testing.T) {
	e := newEngine()
	_, err := e.Transition(withStatus(domain.RecordStatusSubmitted), Command{Action: ActionReject, Actor: admin})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "reason", verr.Field)
}

func TestEngine_Resubmit(t *testing.T) {
	e := newEngine()
	in := withStatus(domain.RecordStatusRejected)
	in.RejectionReason = "incomplete"
	in.RejectedBy = admin.ID

	out, err := e.Transition(in, Command{Action: ActionResubmit, Actor: creator})
	require.NoError(t, err)

	assert.Equal(t, "new-id", out.Record.ID)
	assert.Empty(t, out.Record.StorageID)
	assert.Equal(t, domain.RecordStatusSubmitted, out.Record.Status)
	assert.Equal(t, domain.TierPending, out.Record.Tier)
	assert.Equal(t, "r1", out.Record.ResubmissionLink)
	assert.Empty(t, out.Record.RejectionReason)
	assert.Equal(t, "N-1", out.Record.NotificationNumber)

	require.NotNil(t, out.Superseded)
	assert.True(t, out.Superseded.Superseded)
	assert.Equal(t, domain.RecordStatusRejected, out.Superseded.Status)

	assert.Equal(t, domain.EventResubmitted, out.Event.Type)
	assert.Equal(t, "r1", out.Event.OriginalID)
	assert.False(t, in.Superseded)
}

func TestEngine_SubmitFromRejected_TakesResubmitPath(t *testing.T) {
	e := newEngine()
	out, err := e.Transition(withStatus(domain.RecordStatusRejected), Command{Action: ActionSubmit, Actor: admin})
	require.NoError(t, err)
	assert.Equal(t, domain.EventResubmitted, out.Event.Type)
	assert.NotNil(t, out.Superseded)
}

func TestEngine_Resubmit_Guards(t *testing.T) {
	e := newEngine()

	_, err := e.Transition(withStatus(domain.RecordStatusRejected), Command{Action: ActionResubmit, Actor: member})
	assert.True(t, domain.IsPermission(err))

	superseded := withStatus(domain.RecordStatusRejected)
	superseded.Superseded = true
	_, err = e.Transition(superseded, Command{Action: ActionResubmit, Actor: creator})
	assert.True(t, domain.IsValidation(err))

	blank := withStatus(domain.RecordStatusRejected)
	blank.Narrative = ""
	_, err = e.Transition(blank, Command{Action: ActionResubmit, Actor: creator})
	assert.True(t, domain.IsValidation(err))
}

func TestEngine_SaveDraft(t *testing.T) {
	e := newEngine()
	in := withStatus(domain.RecordStatusRejected)

	out, err := e.Transition(in, Command{Action: ActionSaveDraft, Actor: creator})
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStatusDraft, out.Record.Status)
	assert.Equal(t, now, out.Record.UpdatedAt)
	assert.Equal(t, domain.EventDraftSaved, out.Event.Type)

	local := draft()
	local.Tier = domain.TierLocal
	out, err = e.Transition(local, Command{Action: ActionSaveDraft, Actor: member})
	require.NoError(t, err)
	assert.Equal(t, domain.TierLocal, out.Record.Tier)

	_, err = e.Transition(withStatus(domain.RecordStatusSubmitted), Command{Action: ActionSaveDraft, Actor: member})
	assert.True(t, domain.IsPermission(err))
}

func TestEngine_SaveDraft_DemotionClearsDecision(t *testing.T) {
	e := newEngine()
	approvedAt := now.Add(-time.Hour)
	in := withStatus(domain.RecordStatusApproved)
	in.ApprovedAt, in.ApprovedBy = &approvedAt, admin.ID

	out, err := e.Transition(in, Command{Action: ActionSaveDraft, Actor: creator})
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStatusDraft, out.Record.Status)
	assert.Nil(t, out.Record.ApprovedAt)
	assert.Empty(t, out.Record.ApprovedBy)
	assert.NotNil(t, in.ApprovedAt, "input record must not be mutated")

	rejected := withStatus(domain.RecordStatusRejected)
	rejected.RejectionReason, rejected.RejectedBy = "missing root cause", admin.ID
	out, err = e.Transition(rejected, Command{Action: ActionSaveDraft, Actor: creator})
	require.NoError(t, err)
	assert.Empty(t, out.Record.RejectionReason)
	assert.Empty(t, out.Record.RejectedBy)
}

// Only the documented transitions succeed; everything else is a validation
// or permission failure and leaves the record untouched.
func TestEngine_TransitionTable(t *testing.T) {
	e := newEngine()
	statuses := []domain.RecordStatus{
		domain.RecordStatusDraft,
		domain.RecordStatusSubmitted,
		domain.RecordStatusApproved,
		domain.RecordStatusRejected,
		domain.RecordStatusResubmitted,
	}
	legal := map[Action]map[domain.RecordStatus]bool{
		ActionSubmit:   {domain.RecordStatusDraft: true, domain.RecordStatusRejected: true},
		ActionApprove:  {domain.RecordStatusSubmitted: true},
		ActionReject:   {domain.RecordStatusSubmitted: true},
		ActionResubmit: {domain.RecordStatusRejected: true},
	}

	for action, from := range legal {
		for _, status := range statuses {
			in := withStatus(status)
			out, err := e.Transition(in, Command{Action: action, Actor: admin, Reason: "because"})
			if from[status] {
				require.NoError(t, err, "%s from %s", action, status)
				assert.NotNil(t, out)
			} else {
				require.Error(t, err, "%s from %s", action, status)
				assert.True(t, domain.IsValidation(err) || domain.IsPermission(err))
				assert.Equal(t, status, in.Status)
			}
		}
	}

	_, err := e.Transition(draft(), Command{Action: "Archive", Actor: admin})
	assert.True(t, domain.IsValidation(err))
	_, err = e.Transition(nil, Command{Action: ActionSubmit, Actor: admin})
	assert.True(t, domain.IsValidation(err))
}

func TestEngine_NewDraft(t *testing.T) {
	e := newEngine()
	title := "Burr on housing"
	r := e.NewDraft(creator, domain.RecordPatch{Title: &title, Members: []domain.Member{{ID: "m2"}}})

	assert.Equal(t, "new-id", r.ID)
	assert.Equal(t, domain.TierLocal, r.Tier)
	assert.Equal(t, domain.RecordStatusDraft, r.Status)
	assert.Equal(t, creator.ID, r.EditingPermissions.CreatorID)
	assert.Equal(t, []string{"m2"}, r.EditingPermissions.TeamMemberIDs)
	assert.Equal(t, now, r.CreatedAt)
	assert.Equal(t, title, r.Title)
}

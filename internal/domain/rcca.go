package domain

import (
	"sort"
	"strings"
	"time"
)

type RecordStatus string

const (
	RecordStatusDraft       RecordStatus = "Draft"
	RecordStatusSubmitted   RecordStatus = "Submitted"
	RecordStatusApproved    RecordStatus = "Approved"
	RecordStatusRejected    RecordStatus = "Rejected"
	RecordStatusResubmitted RecordStatus = "Resubmitted"
)

// IsPending reports whether the status belongs in the pending-approval tier.
func (s RecordStatus) IsPending() bool {
	return s == RecordStatusSubmitted || s == RecordStatusResubmitted
}

// Tier identifies the storage bucket a record was read from.
type Tier string

const (
	TierMain    Tier = "main"
	TierPending Tier = "pending"
	TierLocal   Tier = "local"
)

type Member struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

type EditingPermissions struct {
	CreatorID     string    `json:"creator_id"`
	TeamMemberIDs []string  `json:"team_member_ids"`
	AdminIDs      []string  `json:"admin_ids"`
	LastUpdated   time.Time `json:"last_updated"`
}

// HasTeamMember reports whether id is in the team member set.
func (p EditingPermissions) HasTeamMember(id string) bool {
	return containsID(p.TeamMemberIDs, id)
}

// HasAdmin reports whether id is in the admin set.
func (p EditingPermissions) HasAdmin(id string) bool {
	return containsID(p.AdminIDs, id)
}

// Record is a single RCCA. ID is the canonical identifier assigned at
// creation; StorageID is whatever the tier that holds the record uses.
type Record struct {
	ID                 string             `json:"id"`
	StorageID          string             `json:"storage_id,omitempty"`
	Tier               Tier               `json:"tier"`
	Status             RecordStatus       `json:"status"`
	CreatedBy          string             `json:"created_by"`
	AssignedMembers    []Member           `json:"assigned_members"`
	EditingPermissions EditingPermissions `json:"editing_permissions"`
	NotificationNumber string             `json:"notification_number"`
	Title              string             `json:"title"`
	// Narrative is the problem or failure as reported. Required to submit.
	Narrative        string     `json:"narrative"`
	Factory          string     `json:"factory"`
	Department       string     `json:"department"`
	ErrorCategory    string     `json:"error_category"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	ApprovedBy       string     `json:"approved_by,omitempty"`
	RejectionReason  string     `json:"rejection_reason,omitempty"`
	RejectedBy       string     `json:"rejected_by,omitempty"`
	ResubmissionLink string     `json:"resubmission_link,omitempty"`
	Superseded       bool       `json:"superseded"`
}

// Clone returns a deep copy so callers can mutate without aliasing slices.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.AssignedMembers != nil {
		c.AssignedMembers = append([]Member(nil), r.AssignedMembers...)
	}
	if r.EditingPermissions.TeamMemberIDs != nil {
		c.EditingPermissions.TeamMemberIDs = append([]string(nil), r.EditingPermissions.TeamMemberIDs...)
	}
	if r.EditingPermissions.AdminIDs != nil {
		c.EditingPermissions.AdminIDs = append([]string(nil), r.EditingPermissions.AdminIDs...)
	}
	if r.ApprovedAt != nil {
		t := *r.ApprovedAt
		c.ApprovedAt = &t
	}
	return &c
}

// CreatorID resolves the creator, preferring the permission block.
func (r *Record) CreatorID() string {
	if r.EditingPermissions.CreatorID != "" {
		return r.EditingPermissions.CreatorID
	}
	return r.CreatedBy
}

// ReplaceMembers swaps the assigned members and re-derives the team member
// id set in the same step, so the two never drift.
func (r *Record) ReplaceMembers(members []Member, now time.Time) {
	r.AssignedMembers = append([]Member(nil), members...)
	r.EditingPermissions.TeamMemberIDs = MemberIDs(members)
	r.EditingPermissions.LastUpdated = now
}

// AddAdmin records an admin that acted on the record.
func (r *Record) AddAdmin(id string, now time.Time) {
	if id == "" || r.EditingPermissions.HasAdmin(id) {
		return
	}
	r.EditingPermissions.AdminIDs = normalizeIDs(append(r.EditingPermissions.AdminIDs, id))
	r.EditingPermissions.LastUpdated = now
}

// MembersInSync reports whether the team member set matches the members.
func (r *Record) MembersInSync() bool {
	want := MemberIDs(r.AssignedMembers)
	got := normalizeIDs(r.EditingPermissions.TeamMemberIDs)
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

// MemberIDs returns the sorted, de-duplicated id set of members.
func MemberIDs(members []Member) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return normalizeIDs(ids)
}

func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func containsID(ids []string, id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	for _, v := range ids {
		if strings.TrimSpace(v) == id {
			return true
		}
	}
	return false
}

// RecordPatch carries the editable fields of a record. Nil fields are left
// untouched.
type RecordPatch struct {
	Title              *string
	Narrative          *string
	NotificationNumber *string
	Factory            *string
	Department         *string
	ErrorCategory      *string
	Members            []Member
}

// Apply copies the non-nil fields of p onto r.
func (p RecordPatch) Apply(r *Record, now time.Time) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Narrative != nil {
		r.Narrative = *p.Narrative
	}
	if p.NotificationNumber != nil {
		r.NotificationNumber = strings.TrimSpace(*p.NotificationNumber)
	}
	if p.Factory != nil {
		r.Factory = *p.Factory
	}
	if p.Department != nil {
		r.Department = *p.Department
	}
	if p.ErrorCategory != nil {
		r.ErrorCategory = *p.ErrorCategory
	}
	if p.Members != nil {
		r.ReplaceMembers(p.Members, now)
	}
}

// Actor is the user performing an operation.
type Actor struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

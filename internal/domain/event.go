package domain

import "time"

type EventType string

const (
	EventDraftSaved  EventType = "DRAFT_SAVED"
	EventSubmitted   EventType = "SUBMITTED"
	EventApproved    EventType = "APPROVED"
	EventRejected    EventType = "REJECTED"
	EventResubmitted EventType = "RESUBMITTED"
	EventDeleted     EventType = "DELETED"
)

// Event describes a committed workflow transition. OriginalID is only set
// for EventResubmitted. CreatorID and MemberIDs let subscribers pick
// recipients without reloading the record.
type Event struct {
	Type       EventType `json:"type"`
	RecordID   string    `json:"record_id"`
	OriginalID string    `json:"original_id,omitempty"`
	ActorID    string    `json:"actor_id"`
	CreatorID  string    `json:"creator_id"`
	MemberIDs  []string  `json:"member_ids,omitempty"`
	Title      string    `json:"title"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

package domain

import "time"

type Notification struct {
	ID         int64             `json:"id"`
	UserID     string            `json:"user_id"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"is_read"`
	Attributes map[string]string `json:"attributes"`
	CreatedOn  time.Time         `json:"created_on"`
}

// HistoryDeleted is the to-status written to the audit trail when a record
// is deleted. It is never a record status.
const HistoryDeleted RecordStatus = "Deleted"

// StatusChange is one row of a record's audit trail.
type StatusChange struct {
	ID         int64        `json:"id"`
	RecordID   string       `json:"record_id"`
	FromStatus RecordStatus `json:"from_status"`
	ToStatus   RecordStatus `json:"to_status"`
	ActorID    string       `json:"actor_id"`
	Reason     string       `json:"reason,omitempty"`
	CreatedOn  time.Time    `json:"created_on"`
}

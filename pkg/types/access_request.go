package types

import "time"

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusDenied   RequestStatus = "denied"
)

// Terminal reports whether no further transitions are allowed from s.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusApproved || s == RequestStatusDenied
}

// DocumentSelection names the documents a requester wants to see: either
// every document the target owns, or an explicit set of ids.
type DocumentSelection struct {
	All bool    `json:"all"`
	IDs []int64 `json:"documentIds,omitempty"`
}

func (sel DocumentSelection) Empty() bool {
	return !sel.All && len(sel.IDs) == 0
}

// AccessRequest records a third party's ask to view an owner's documents.
// It is an audit record: rows are never deleted, and approval has no effect
// on the read gate.
type AccessRequest struct {
	ID           int64         `db:"id" json:"id"`
	TargetUserID int64         `db:"target_user_id" json:"targetUserId"`
	RequestAll   bool          `db:"request_all" json:"requestAll"`
	RequestedIDs []int64       `db:"requested_ids" json:"requestedDocumentIds"`
	DeviceInfo   string        `db:"device_info" json:"deviceInfo"`
	Location     *string       `db:"location" json:"location,omitempty"`
	Status       RequestStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
}

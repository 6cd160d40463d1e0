package domain

import "time"

// Status of a negotiation. Rejected and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// Known reports whether s is one of the four defined statuses.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Negotiation is the request-to-rent record linking a renter and a property.
// At most one non-terminal negotiation exists per (renter, property) pair;
// UpdatedAt advances on every status transition and anchors the unread
// message computation.
type Negotiation struct {
	ID         int64
	PropertyID int64
	RenterID   int64
	OwnerID    int64
	From       time.Time
	To         time.Time
	Message    string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Message is one entry of a negotiation's chat thread.
type Message struct {
	ID            int64
	NegotiationID int64
	SenderID      int64
	RecipientID   int64
	Body          string
	SentAt        time.Time
}

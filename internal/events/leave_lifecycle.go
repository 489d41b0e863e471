package events

import "time"

// LeaveLifecycleTopic carries every leave request state change to the
// notification sink. Delivery is at-least-once via the event outbox.
const LeaveLifecycleTopic = "leave.request.lifecycle.v1"

const (
	TypeSubmitted     = "submitted"
	TypeStageApproved = "stage_approved"
	TypeFinalApproved = "final_approved"
	TypeRejected      = "rejected"
	TypeCancelled     = "cancelled"
)

// LeaveLifecycleEvent is the outbound payload. Recipients lists the employee
// ids that should be notified: the request owner plus, for non-final events,
// the approvers of the stage now awaiting action.
type LeaveLifecycleEvent struct {
	Type       string    `json:"type"`
	RequestID  string    `json:"request_id"`
	ActorID    string    `json:"actor_id"`
	Recipients []string  `json:"recipients"`
	OccurredAt time.Time `json:"occurred_at"`
}

package leave

import (
	"time"

	"leaveflow/internal/chain"

	"github.com/google/uuid"
)

// Actor is the authenticated identity the transport layer hands the core:
// an opaque employee reference plus the role/affiliate scope every
// eligibility decision needs.
type Actor struct {
	ID         uuid.UUID
	Role       string
	Affiliate  string
	Department string
}

type SubmitLeaveRequest struct {
	LeaveTypeID string `json:"leave_type" binding:"required,uuid"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	Reason      string `json:"reason"`
}

type ApproveRequest struct {
	Comment string `json:"comment"`
}

type RejectRequest struct {
	Comment string `json:"comment" binding:"required"`
	// Stage optionally names the audit slot to record the rejection under
	// when the actor's role alone is ambiguous.
	Stage string `json:"stage" binding:"omitempty,oneof=manager hr ceo"`
}

type ApprovalStepResponse struct {
	Stage   string `json:"stage"`
	ActorID string `json:"actor_id"`
	ActedAt string `json:"acted_at"`
	Comment string `json:"comment,omitempty"`
}

type LeaveRequestResponse struct {
	ID               string                 `json:"id"`
	EmployeeID       string                 `json:"employee_id"`
	Affiliate        string                 `json:"affiliate"`
	EmployeeRole     string                 `json:"employee_role"`
	LeaveTypeID      string                 `json:"leave_type"`
	StartDate        string                 `json:"start_date"`
	EndDate          string                 `json:"end_date"`
	TotalDays        int                    `json:"total_days"`
	Reason           string                 `json:"reason,omitempty"`
	Status           string                 `json:"status"`
	StatusLabel      string                 `json:"status_label"`
	ApprovedBy       *string                `json:"approved_by,omitempty"`
	ApprovalDate     *string                `json:"approval_date,omitempty"`
	ApprovalComments *string                `json:"approval_comments,omitempty"`
	Steps            []ApprovalStepResponse `json:"steps,omitempty"`
}

// Queue projection categories, keyed by the requesting employee's role so
// approver UIs can tab the list.
const (
	CategoryStaff      = "staff"
	CategoryHodManager = "hod_manager"
	CategoryHR         = "hr"
)

type QueueCounts struct {
	Staff      int `json:"staff"`
	HodManager int `json:"hod_manager"`
	HR         int `json:"hr"`
	Total      int `json:"total"`
}

type RecentActivityItem struct {
	RequestID string `json:"request_id"`
	Stage     string `json:"stage"`
	ActedAt   string `json:"acted_at"`
	Comment   string `json:"comment,omitempty"`
	Status    string `json:"status"`
	OwnerID   string `json:"employee_id"`
}

type QueueResponse struct {
	Staff          []LeaveRequestResponse `json:"staff"`
	HodManager     []LeaveRequestResponse `json:"hod_manager"`
	HR             []LeaveRequestResponse `json:"hr"`
	Counts         QueueCounts            `json:"counts"`
	RecentActivity []RecentActivityItem   `json:"recent_activity"`
}

type LeaveTypeResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	MaxDaysPerRequest int    `json:"max_days_per_request"`
	RequiresEvidence  bool   `json:"requires_evidence"`
	Active            bool   `json:"active"`
}

func mapToResponse(l LeaveRequest) LeaveRequestResponse {
	label, err := chain.Narrate(l.Status, l.EmployeeAffiliate, l.EmployeeRole)
	if err != nil {
		label = l.Status
	}

	resp := LeaveRequestResponse{
		ID:           l.ID.String(),
		EmployeeID:   l.EmployeeID.String(),
		Affiliate:    l.EmployeeAffiliate,
		EmployeeRole: l.EmployeeRole,
		LeaveTypeID:  l.LeaveTypeID.String(),
		StartDate:    l.StartDate.Format("2006-01-02"),
		EndDate:      l.EndDate.Format("2006-01-02"),
		TotalDays:    l.TotalDays,
		Reason:       l.Reason,
		Status:       l.Status,
		StatusLabel:  label,
	}
	if l.ApprovedBy != nil {
		v := l.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if l.ApprovalDate != nil {
		v := l.ApprovalDate.UTC().Format(time.RFC3339)
		resp.ApprovalDate = &v
	}
	resp.ApprovalComments = l.ApprovalComments

	for _, st := range l.Steps {
		resp.Steps = append(resp.Steps, ApprovalStepResponse{
			Stage:   st.Stage,
			ActorID: st.ActorID.String(),
			ActedAt: st.ActedAt.UTC().Format(time.RFC3339),
			Comment: st.Comment,
		})
	}
	return resp
}

func mapToListResponse(requests []LeaveRequest) []LeaveRequestResponse {
	resp := make([]LeaveRequestResponse, len(requests))
	for i, l := range requests {
		resp[i] = mapToResponse(l)
	}
	return resp
}

func mapStepToActivity(step ApprovalStep) RecentActivityItem {
	item := RecentActivityItem{
		RequestID: step.RequestID.String(),
		Stage:     step.Stage,
		ActedAt:   step.ActedAt.UTC().Format(time.RFC3339),
		Comment:   step.Comment,
	}
	if step.Request != nil {
		item.Status = step.Request.Status
		item.OwnerID = step.Request.EmployeeID.String()
	}
	return item
}

func mapTypeToResponse(t LeaveType) LeaveTypeResponse {
	return LeaveTypeResponse{
		ID:                t.ID.String(),
		Name:              t.Name,
		MaxDaysPerRequest: t.MaxDaysPerRequest,
		RequiresEvidence:  t.RequiresEvidence,
		Active:            t.Active,
	}
}

package balance

type BalanceResponse struct {
	LeaveTypeID   string `json:"leave_type_id"`
	Year          int    `json:"year"`
	EntitledDays  int    `json:"entitled_days"`
	UsedDays      int    `json:"used_days"`
	PendingDays   int    `json:"pending_days"`
	RemainingDays int    `json:"remaining_days"`
}

func mapToResponse(b LeaveBalance) BalanceResponse {
	return BalanceResponse{
		LeaveTypeID:   b.LeaveTypeID.String(),
		Year:          b.Year,
		EntitledDays:  b.EntitledDays,
		UsedDays:      b.UsedDays,
		PendingDays:   b.PendingDays,
		RemainingDays: b.Remaining(),
	}
}

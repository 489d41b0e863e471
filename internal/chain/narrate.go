package chain

// Narrate renders the viewer-facing status string for a request. It resolves
// the same chain the state machine uses, so changing an affiliate template
// changes what every observer reads in the same release. A status past the
// last stage of the resolved chain (hr_approved under a CEO-led chain, for
// example) reads as "Pending Final Approval" rather than an error.
func Narrate(status, affiliate, requesterRole string) (string, error) {
	switch status {
	case StatusApproved:
		return "Approved", nil
	case StatusRejected:
		return "Rejected", nil
	case StatusCancelled:
		return "Cancelled", nil
	}

	c, err := For(affiliate, requesterRole)
	if err != nil {
		return "", err
	}

	idx := c.NextIndex(status)
	stage, ok := c.StageAt(idx)
	if !ok {
		// Every stage is complete; the status write lags or the chain is
		// empty. Present the optimistic reading.
		return "Pending Final Approval", nil
	}

	switch stage {
	case StageManager:
		return "Pending Manager Approval", nil
	case StageHR:
		if idx == len(c)-1 && idx > 0 {
			return "Pending HR Final Approval", nil
		}
		return "Pending HR Approval", nil
	case StageCEO:
		if CEOFirst(affiliate) {
			return "Pending " + Normalize(affiliate) + " CEO Approval", nil
		}
		return "Pending CEO Approval", nil
	}
	return "Pending Approval", nil
}

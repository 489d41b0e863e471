// Package chain resolves the ordered approval stages a leave request must
// traverse for a given (affiliate, requester role) pair. The state machine,
// the queue projection, and the status narrator all consume the same
// resolution so behavior and presentation cannot drift apart.
package chain

import (
	"errors"
	"strings"
)

// Stage is one approval step. Its string value doubles as the role token of
// the approver responsible for it.
type Stage string

const (
	StageManager Stage = "manager"
	StageHR      Stage = "hr"
	StageCEO     Stage = "ceo"
)

// Role returns the approver role token responsible for the stage.
func (s Stage) Role() string { return string(s) }

// Request statuses. Intermediate markers record the most recently completed
// stage; the chain derives the next stage from them.
const (
	StatusPending         = "pending"
	StatusManagerApproved = "manager_approved"
	StatusHRApproved      = "hr_approved"
	StatusCEOApproved     = "ceo_approved"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusCancelled       = "cancelled"
)

// IsTerminal reports whether a status is immutable.
func IsTerminal(status string) bool {
	switch status {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// CompletionStatus maps a stage to the intermediate status written when it
// is approved but later stages remain.
func CompletionStatus(s Stage) string {
	switch s {
	case StageManager:
		return StatusManagerApproved
	case StageHR:
		return StatusHRApproved
	case StageCEO:
		return StatusCEOApproved
	}
	return ""
}

// stageFor is the inverse of CompletionStatus.
func stageFor(status string) (Stage, bool) {
	switch status {
	case StatusManagerApproved:
		return StageManager, true
	case StatusHRApproved:
		return StageHR, true
	case StatusCEOApproved:
		return StageCEO, true
	}
	return "", false
}

// ErrUnknownAffiliate is returned when no approval template exists for the
// affiliate. Callers translate it into their own error taxonomy.
var ErrUnknownAffiliate = errors.New("no approval template for affiliate")

// Canonical affiliate names, matched case-insensitively.
const (
	AffiliateMerban = "MERBAN CAPITAL"
	AffiliateSDSL   = "SDSL"
	AffiliateSBL    = "SBL"
)

type template struct {
	stages []Stage
	// ceoFirst marks CEO-led affiliates where the CEO acts before HR; the
	// narrator names the affiliate in the CEO stage for these.
	ceoFirst bool
}

// The affiliate templates are fixed configuration, not code paths: adding an
// affiliate means adding a row here.
var templates = map[string]template{
	AffiliateMerban: {stages: []Stage{StageManager, StageHR, StageCEO}},
	AffiliateSDSL:   {stages: []Stage{StageCEO, StageHR}, ceoFirst: true},
	AffiliateSBL:    {stages: []Stage{StageCEO, StageHR}, ceoFirst: true},
}

// Normalize canonicalizes an affiliate name for template lookup.
func Normalize(affiliate string) string {
	return strings.ToUpper(strings.TrimSpace(affiliate))
}

// Chain is the ordered list of stages a request traverses.
type Chain []Stage

// For resolves the chain for a requester. It starts from the affiliate's
// canonical template and removes every stage whose role equals the
// requester's own role: self-approval is never a step. The rule applies to
// the template only, never to an already reduced chain. An empty result
// means the request moves directly to approved.
func For(affiliate, requesterRole string) (Chain, error) {
	tpl, ok := templates[Normalize(affiliate)]
	if !ok {
		return nil, ErrUnknownAffiliate
	}

	out := make(Chain, 0, len(tpl.stages))
	for _, st := range tpl.stages {
		if st.Role() == requesterRole {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

// CEOFirst reports whether the affiliate's template puts the CEO before HR.
func CEOFirst(affiliate string) bool {
	tpl, ok := templates[Normalize(affiliate)]
	return ok && tpl.ceoFirst
}

// Known reports whether the affiliate has an approval template.
func Known(affiliate string) bool {
	_, ok := templates[Normalize(affiliate)]
	return ok
}

// NextIndex returns the index of the stage awaiting action for the given
// non-terminal status. pending maps to 0; an intermediate marker maps to the
// position after its stage. A result of len(chain) means every stage is
// complete and the request should already be terminal.
func (c Chain) NextIndex(status string) int {
	if status == StatusPending {
		return 0
	}
	st, ok := stageFor(status)
	if !ok {
		return len(c)
	}
	for i, s := range c {
		if s == st {
			return i + 1
		}
	}
	return len(c)
}

// StageAt returns the stage at index i, if any.
func (c Chain) StageAt(i int) (Stage, bool) {
	if i < 0 || i >= len(c) {
		return "", false
	}
	return c[i], true
}

// Contains reports whether the chain includes a stage of the given role.
func (c Chain) Contains(role string) bool {
	for _, s := range c {
		if s.Role() == role {
			return true
		}
	}
	return false
}

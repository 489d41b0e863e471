package leave

import (
	"context"
	"fmt"

	"leaveflow/internal/chain"
	"leaveflow/internal/employee"

	"go.uber.org/zap"
)

const recentActivityLimit = 10

// Queue projects the approval inbox for one approver: every non-terminal
// request in the actor's affiliate whose next pending stage matches the
// actor's role, grouped by requester seniority, plus the actor's own recent
// decisions. Concurrent identical reads collapse onto one database scan.
func (s *service) Queue(ctx context.Context, actor Actor) (QueueResponse, error) {
	if !employee.IsApproverRole(actor.Role) || actor.Role == employee.RoleAdmin {
		return emptyQueue(), nil
	}

	key := fmt.Sprintf("queue:%s:%s:%s", actor.ID, actor.Role, chain.Normalize(actor.Affiliate))
	out, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.buildQueue(ctx, actor)
	})
	if err != nil {
		return QueueResponse{}, err
	}
	return out.(QueueResponse), nil
}

func (s *service) buildQueue(ctx context.Context, actor Actor) (QueueResponse, error) {
	requests, err := s.repo.FindNonTerminalByAffiliate(ctx, actor.Affiliate)
	if err != nil {
		s.log(ctx).Error("queue scan failed",
			zap.String("affiliate", actor.Affiliate),
			zap.Error(err),
		)
		return QueueResponse{}, err
	}

	resp := emptyQueue()
	for _, l := range requests {
		if l.EmployeeID == actor.ID {
			continue
		}
		c, err := chain.For(l.EmployeeAffiliate, l.EmployeeRole)
		if err != nil {
			s.log(ctx).Warn("queue skipped request with unknown affiliate",
				zap.String("request_id", l.ID.String()),
				zap.String("affiliate", l.EmployeeAffiliate),
			)
			continue
		}
		stage, ok := c.StageAt(c.NextIndex(l.Status))
		if !ok || stage.Role() != actor.Role {
			continue
		}

		item := mapToResponse(l)
		switch requesterCategory(l.EmployeeRole) {
		case CategoryStaff:
			resp.Staff = append(resp.Staff, item)
		case CategoryHodManager:
			resp.HodManager = append(resp.HodManager, item)
		default:
			resp.HR = append(resp.HR, item)
		}
	}

	resp.Counts = QueueCounts{
		Staff:      len(resp.Staff),
		HodManager: len(resp.HodManager),
		HR:         len(resp.HR),
		Total:      len(resp.Staff) + len(resp.HodManager) + len(resp.HR),
	}

	steps, err := s.repo.RecentStepsByActor(ctx, actor.ID.String(), recentActivityLimit)
	if err != nil {
		s.log(ctx).Error("queue recent activity failed",
			zap.String("actor_id", actor.ID.String()),
			zap.Error(err),
		)
		return QueueResponse{}, err
	}
	for _, step := range steps {
		resp.RecentActivity = append(resp.RecentActivity, mapStepToActivity(step))
	}

	return resp, nil
}

// requesterCategory maps the requester's role onto a queue tab. HR and CEO
// requesters land on the hr tab; they have no tab of their own.
func requesterCategory(role string) string {
	switch role {
	case employee.RoleJuniorStaff, employee.RoleSeniorStaff:
		return CategoryStaff
	case employee.RoleManager:
		return CategoryHodManager
	default:
		return CategoryHR
	}
}

func emptyQueue() QueueResponse {
	return QueueResponse{
		Staff:          []LeaveRequestResponse{},
		HodManager:     []LeaveRequestResponse{},
		HR:             []LeaveRequestResponse{},
		RecentActivity: []RecentActivityItem{},
	}
}

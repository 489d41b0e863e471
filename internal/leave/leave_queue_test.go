package leave_test

import (
	"context"
	"testing"
	"time"

	"leaveflow/internal/chain"
	"leaveflow/internal/employee"
	"leaveflow/internal/leave"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLeaveService_Queue(t *testing.T) {
	ctx := context.Background()
	manager := leave.Actor{ID: uuid.New(), Role: employee.RoleManager, Affiliate: "MERBAN CAPITAL"}

	t.Run("manager sees only requests waiting on a manager", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		juniorReq := pendingMerbanRequest(uuid.New())
		seniorReq := pendingMerbanRequest(uuid.New())
		seniorReq.EmployeeRole = employee.RoleSeniorStaff

		// HR requester: self-skip keeps [manager, ceo], pending waits on
		// the manager and lands on the hr tab.
		hrReq := pendingMerbanRequest(uuid.New())
		hrReq.EmployeeRole = employee.RoleHR

		// Past the manager stage: waiting on HR, not this actor.
		advanced := pendingMerbanRequest(uuid.New())
		advanced.Status = chain.StatusManagerApproved

		deps.repo.findNonTerminalFn = func(ctx context.Context, affiliate string) ([]leave.LeaveRequest, error) {
			assert.Equal(t, "MERBAN CAPITAL", affiliate)
			return []leave.LeaveRequest{*juniorReq, *seniorReq, *hrReq, *advanced}, nil
		}

		resp, err := deps.service.Queue(ctx, manager)

		assert.NoError(t, err)
		assert.Len(t, resp.Staff, 2)
		assert.Len(t, resp.HodManager, 0)
		assert.Len(t, resp.HR, 1)
		assert.Equal(t, 3, resp.Counts.Total)
		assert.Equal(t, hrReq.ID.String(), resp.HR[0].ID)
	})

	t.Run("manager requester rows land on hod tab for hr", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		hrActor := leave.Actor{ID: uuid.New(), Role: employee.RoleHR, Affiliate: "MERBAN CAPITAL"}

		// Manager's own request: chain [hr, ceo], pending waits on HR.
		managerReq := pendingMerbanRequest(uuid.New())
		managerReq.EmployeeRole = employee.RoleManager

		deps.repo.findNonTerminalFn = func(ctx context.Context, affiliate string) ([]leave.LeaveRequest, error) {
			return []leave.LeaveRequest{*managerReq}, nil
		}

		resp, err := deps.service.Queue(ctx, hrActor)

		assert.NoError(t, err)
		assert.Len(t, resp.HodManager, 1)
		assert.Equal(t, 1, resp.Counts.HodManager)
	})

	t.Run("own request never appears", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		sdslHR := leave.Actor{ID: uuid.New(), Role: employee.RoleHR, Affiliate: "SDSL"}

		// SDSL CEO's request waits on HR alone; when the viewer owns it,
		// it must not show.
		own := pendingMerbanRequest(sdslHR.ID)
		own.EmployeeAffiliate = "SDSL"
		own.EmployeeRole = employee.RoleHR

		other := pendingMerbanRequest(uuid.New())
		other.EmployeeAffiliate = "SDSL"
		other.EmployeeRole = employee.RoleCEO

		deps.repo.findNonTerminalFn = func(ctx context.Context, affiliate string) ([]leave.LeaveRequest, error) {
			return []leave.LeaveRequest{*own, *other}, nil
		}

		resp, err := deps.service.Queue(ctx, sdslHR)

		assert.NoError(t, err)
		assert.Len(t, resp.HR, 1)
		assert.Equal(t, other.ID.String(), resp.HR[0].ID)
	})

	t.Run("admin gets an empty queue", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		admin := leave.Actor{ID: uuid.New(), Role: employee.RoleAdmin, Affiliate: "MERBAN CAPITAL"}
		resp, err := deps.service.Queue(ctx, admin)

		assert.NoError(t, err)
		assert.Empty(t, resp.Staff)
		assert.Empty(t, resp.HodManager)
		assert.Empty(t, resp.HR)
		assert.Equal(t, 0, resp.Counts.Total)
		assert.NotNil(t, resp.RecentActivity)
	})

	t.Run("staff role gets an empty queue", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		staff := leave.Actor{ID: uuid.New(), Role: employee.RoleJuniorStaff, Affiliate: "MERBAN CAPITAL"}
		resp, err := deps.service.Queue(ctx, staff)

		assert.NoError(t, err)
		assert.Equal(t, 0, resp.Counts.Total)
	})

	t.Run("recent activity trails the queue", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		owner := uuid.New()
		decided := pendingMerbanRequest(owner)
		decided.Status = chain.StatusManagerApproved

		deps.repo.recentStepsByActorFn = func(ctx context.Context, actorID string, limit int) ([]leave.ApprovalStep, error) {
			assert.Equal(t, manager.ID.String(), actorID)
			assert.Equal(t, 10, limit)
			return []leave.ApprovalStep{
				{
					ID:        uuid.New(),
					RequestID: decided.ID,
					Stage:     "manager",
					ActorID:   manager.ID,
					ActedAt:   time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC),
					Comment:   "ok",
					Request:   decided,
				},
			}, nil
		}

		resp, err := deps.service.Queue(ctx, manager)

		assert.NoError(t, err)
		assert.Len(t, resp.RecentActivity, 1)
		item := resp.RecentActivity[0]
		assert.Equal(t, decided.ID.String(), item.RequestID)
		assert.Equal(t, "manager", item.Stage)
		assert.Equal(t, chain.StatusManagerApproved, item.Status)
		assert.Equal(t, owner.String(), item.OwnerID)
	})
}

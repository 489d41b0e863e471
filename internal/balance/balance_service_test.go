package balance_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"leaveflow/internal/balance"
	balanceerrors "leaveflow/internal/balance/errors"
	"leaveflow/internal/shared/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeBalanceRepository struct {
	listByEmployeeYearFn func(ctx context.Context, employeeID string, year int) ([]balance.LeaveBalance, error)
}

func (f *fakeBalanceRepository) WithTx(tx *sql.Tx) balance.Repository { return f }

func (f *fakeBalanceRepository) Find(ctx context.Context, employeeID, leaveTypeID string, year int) (*balance.LeaveBalance, error) {
	return nil, nil
}

func (f *fakeBalanceRepository) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]balance.LeaveBalance, error) {
	if f.listByEmployeeYearFn != nil {
		return f.listByEmployeeYearFn(ctx, employeeID, year)
	}
	return nil, nil
}

func (f *fakeBalanceRepository) Insert(ctx context.Context, b *balance.LeaveBalance) error {
	return nil
}

func (f *fakeBalanceRepository) Reserve(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error) {
	return true, nil
}

func (f *fakeBalanceRepository) CommitReservation(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error) {
	return true, nil
}

func (f *fakeBalanceRepository) ReleaseReservation(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error) {
	return true, nil
}

func TestBalanceService_ListForEmployee(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()

	t.Run("success computes remaining", func(t *testing.T) {
		repo := &fakeBalanceRepository{
			listByEmployeeYearFn: func(ctx context.Context, eid string, year int) ([]balance.LeaveBalance, error) {
				assert.Equal(t, employeeID, eid)
				assert.Equal(t, 2026, year)
				return []balance.LeaveBalance{
					{
						LeaveTypeID:  uuid.New(),
						Year:         2026,
						EntitledDays: 21,
						UsedDays:     5,
						PendingDays:  3,
					},
				}, nil
			},
		}
		svc := balance.NewService(repo)

		out, err := svc.ListForEmployee(ctx, employeeID, 2026)

		assert.NoError(t, err)
		assert.Len(t, out, 1)
		assert.Equal(t, 21, out[0].EntitledDays)
		assert.Equal(t, 13, out[0].RemainingDays)
	})

	t.Run("zero year defaults to current", func(t *testing.T) {
		var requested int
		repo := &fakeBalanceRepository{
			listByEmployeeYearFn: func(ctx context.Context, eid string, year int) ([]balance.LeaveBalance, error) {
				requested = year
				return nil, nil
			},
		}
		svc := balance.NewService(repo)

		_, err := svc.ListForEmployee(ctx, employeeID, 0)

		assert.NoError(t, err)
		assert.GreaterOrEqual(t, requested, 2026)
	})

	t.Run("negative invalid year", func(t *testing.T) {
		svc := balance.NewService(&fakeBalanceRepository{})

		_, err := svc.ListForEmployee(ctx, employeeID, 99)
		assert.ErrorIs(t, err, balanceerrors.ErrInvalidYear)
	})

	t.Run("negative repo failure surfaces as internal error", func(t *testing.T) {
		cause := errors.New("connection refused")
		repo := &fakeBalanceRepository{
			listByEmployeeYearFn: func(ctx context.Context, eid string, year int) ([]balance.LeaveBalance, error) {
				return nil, cause
			},
		}
		svc := balance.NewService(repo)

		_, err := svc.ListForEmployee(ctx, employeeID, 2026)

		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperror.CodeInternalError, appErr.Code)
		assert.ErrorIs(t, err, cause)
	})
}

func TestLeaveBalance_Remaining(t *testing.T) {
	b := balance.LeaveBalance{EntitledDays: 21, UsedDays: 10, PendingDays: 5}
	assert.Equal(t, 6, b.Remaining())

	// Floor at zero even if the ledger was seeded inconsistently.
	b = balance.LeaveBalance{EntitledDays: 5, UsedDays: 4, PendingDays: 3}
	assert.Equal(t, 0, b.Remaining())
}

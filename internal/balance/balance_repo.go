package balance

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Find(ctx context.Context, employeeID, leaveTypeID string, year int) (*LeaveBalance, error)
	ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error)
	// Insert creates the row if it does not exist yet; a concurrent creation
	// of the same key is not an error.
	Insert(ctx context.Context, b *LeaveBalance) error
	// Reserve adds days to pending only when the remaining entitlement
	// covers them; reports whether the reservation was taken. The check and
	// the write are one statement, so two concurrent reservations can never
	// both pass against the same remainder.
	Reserve(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error)
	// CommitReservation moves days from pending to used; reports whether
	// the guarded write matched.
	CommitReservation(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error)
	// ReleaseReservation returns reserved days to the remainder.
	ReleaseReservation(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error)
}

type repository struct {
	gorm *gorm.DB
	db   *sql.DB
	tx   *sql.Tx
}

func NewRepository(gormDB *gorm.DB, db *sql.DB) Repository {
	return &repository{gorm: gormDB, db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{gorm: r.gorm, db: r.db, tx: tx}
}

func (r *repository) Find(ctx context.Context, employeeID, leaveTypeID string, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.gorm.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("leave_type_id = ?", leaveTypeID).
		Where("year = ?", year).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error) {
	var out []LeaveBalance
	err := r.gorm.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("year = ?", year).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) Insert(ctx context.Context, b *LeaveBalance) error {
	query := `
INSERT INTO leave_balance (id, employee_id, leave_type_id, year, entitled_days, used_days, pending_days, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
ON CONFLICT (employee_id, leave_type_id, year) DO NOTHING
`
	_, err := r.execer().ExecContext(ctx, query,
		b.ID, b.EmployeeID, b.LeaveTypeID, b.Year,
		b.EntitledDays, b.UsedDays, b.PendingDays,
	)
	return err
}

func (r *repository) Reserve(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error) {
	query := `
UPDATE leave_balance
SET pending_days = pending_days + $4, updated_at = NOW()
WHERE employee_id = $1 AND leave_type_id = $2 AND year = $3
	AND entitled_days - used_days - pending_days >= $4
`
	return r.guardedExec(ctx, query, employeeID, leaveTypeID, year, days)
}

func (r *repository) CommitReservation(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error) {
	query := `
UPDATE leave_balance
SET pending_days = pending_days - $4, used_days = used_days + $4, updated_at = NOW()
WHERE employee_id = $1 AND leave_type_id = $2 AND year = $3
	AND pending_days >= $4
	AND used_days + pending_days <= entitled_days
`
	return r.guardedExec(ctx, query, employeeID, leaveTypeID, year, days)
}

func (r *repository) ReleaseReservation(ctx context.Context, employeeID, leaveTypeID string, year, days int) (bool, error) {
	query := `
UPDATE leave_balance
SET pending_days = pending_days - $4, updated_at = NOW()
WHERE employee_id = $1 AND leave_type_id = $2 AND year = $3
	AND pending_days >= $4
`
	return r.guardedExec(ctx, query, employeeID, leaveTypeID, year, days)
}

func (r *repository) guardedExec(ctx context.Context, query, employeeID, leaveTypeID string, year, days int) (bool, error) {
	res, err := r.execer().ExecContext(ctx, query, employeeID, leaveTypeID, year, days)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

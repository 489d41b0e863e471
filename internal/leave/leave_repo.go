package leave

import (
	"context"
	"database/sql"
	"time"

	"leaveflow/internal/chain"

	"gorm.io/gorm"
)

// FinalSnapshot is written onto the request row when it turns terminal.
type FinalSnapshot struct {
	ApprovedBy   string
	ApprovalDate time.Time
	Comments     string
}

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Insert(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	FindAllByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error)
	HasOverlapping(ctx context.Context, employeeID string, start, end time.Time) (bool, error)

	// AdvanceStatus moves the request to an intermediate status guarded on
	// the status it was read at; a guard miss means another event won.
	AdvanceStatus(ctx context.Context, id, fromStatus, toStatus string) (bool, error)
	// FinalizeStatus is AdvanceStatus plus the terminal snapshot columns.
	FinalizeStatus(ctx context.Context, id, fromStatus, toStatus string, snap FinalSnapshot) (bool, error)
	InsertStep(ctx context.Context, step *ApprovalStep) error

	FindNonTerminalByAffiliate(ctx context.Context, affiliate string) ([]LeaveRequest, error)
	RecentStepsByActor(ctx context.Context, actorID string, limit int) ([]ApprovalStep, error)

	FindTypeByID(ctx context.Context, id string) (*LeaveType, error)
	ListTypes(ctx context.Context, activeOnly bool) ([]LeaveType, error)
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

func (r *repository) Insert(ctx context.Context, l *LeaveRequest) error {
	query := `
INSERT INTO leave_request (
	id, employee_id, employee_affiliate, employee_role, leave_type_id,
	start_date, end_date, total_days, reason, status, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
`
	_, err := r.execer().ExecContext(ctx, query,
		l.ID, l.EmployeeID, l.EmployeeAffiliate, l.EmployeeRole, l.LeaveTypeID,
		l.StartDate, l.EndDate, l.TotalDays, l.Reason, l.Status,
	)
	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.gorm.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("acted_at ASC")
		}).
		First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindAllByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	var out []LeaveRequest
	err := r.gorm.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *repository) HasOverlapping(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	var count int64
	err := r.gorm.WithContext(ctx).
		Model(&LeaveRequest{}).
		Where("employee_id = ?", employeeID).
		Where("status NOT IN ?", []string{chain.StatusApproved, chain.StatusRejected, chain.StatusCancelled}).
		Where("NOT (end_date < ? OR start_date > ?)", start, end).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) AdvanceStatus(ctx context.Context, id, fromStatus, toStatus string) (bool, error) {
	query := `
UPDATE leave_request
SET status = $3, updated_at = NOW()
WHERE id = $1 AND status = $2
`
	res, err := r.execer().ExecContext(ctx, query, id, fromStatus, toStatus)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repository) FinalizeStatus(ctx context.Context, id, fromStatus, toStatus string, snap FinalSnapshot) (bool, error) {
	query := `
UPDATE leave_request
SET status = $3,
	approved_by = $4,
	approval_date = $5,
	approval_comments = $6,
	updated_at = NOW()
WHERE id = $1 AND status = $2
`
	res, err := r.execer().ExecContext(ctx, query,
		id, fromStatus, toStatus,
		snap.ApprovedBy, snap.ApprovalDate, snap.Comments,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repository) InsertStep(ctx context.Context, step *ApprovalStep) error {
	query := `
INSERT INTO approval_step (id, request_id, stage, actor_id, acted_at, comment)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err := r.execer().ExecContext(ctx, query,
		step.ID, step.RequestID, step.Stage, step.ActorID, step.ActedAt, step.Comment,
	)
	return err
}

func (r *repository) FindNonTerminalByAffiliate(ctx context.Context, affiliate string) ([]LeaveRequest, error) {
	var out []LeaveRequest
	err := r.gorm.WithContext(ctx).
		Where("status NOT IN ?", []string{chain.StatusApproved, chain.StatusRejected, chain.StatusCancelled}).
		Where("UPPER(employee_affiliate) = UPPER(?)", affiliate).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) RecentStepsByActor(ctx context.Context, actorID string, limit int) ([]ApprovalStep, error) {
	var out []ApprovalStep
	err := r.gorm.WithContext(ctx).
		Preload("Request").
		Where("actor_id = ?", actorID).
		Order("acted_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *repository) FindTypeByID(ctx context.Context, id string) (*LeaveType, error) {
	var t LeaveType
	err := r.gorm.WithContext(ctx).First(&t, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) ListTypes(ctx context.Context, activeOnly bool) ([]LeaveType, error) {
	db := r.gorm.WithContext(ctx).Model(&LeaveType{}).Order("name ASC")
	if activeOnly {
		db = db.Where("active")
	}
	var out []LeaveType
	err := db.Find(&out).Error
	return out, err
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

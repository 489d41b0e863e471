package leave

import (
	"time"

	"github.com/google/uuid"
)

// LeaveType is the catalog of leave categories (Annual, Sick, ...). Rows are
// administered by the master-data boundary; the core reads them at submit.
type LeaveType struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name              string    `gorm:"type:varchar(60);not null;uniqueIndex"`
	MaxDaysPerRequest int       `gorm:"not null;default:30"`
	DefaultEntitled   int       `gorm:"not null;default:0"`
	RequiresEvidence  bool      `gorm:"not null;default:false"`
	Active            bool      `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (LeaveType) TableName() string { return "leave_type" }

// LeaveRequest is the aggregate root. Status moves forward along the
// resolved approval chain and only through state-machine events; terminal
// rows are immutable and never deleted. The employee's affiliate and role
// are denormalized onto the row so the queue projection can scan by
// (status, affiliate) and (status, role) without joining.
type LeaveRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_request_employee_dates"`

	EmployeeAffiliate string `gorm:"type:varchar(60);not null;index:idx_leave_request_status_affiliate"`
	EmployeeRole      string `gorm:"type:varchar(20);not null;index:idx_leave_request_status_role"`

	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null"`
	StartDate   time.Time `gorm:"type:date;not null;index:idx_leave_request_employee_dates"`
	EndDate     time.Time `gorm:"type:date;not null;index:idx_leave_request_employee_dates"`
	TotalDays   int       `gorm:"not null"`
	Reason      string    `gorm:"type:text"`

	Status string `gorm:"type:varchar(20);not null;default:'pending';index:idx_leave_request_status_affiliate;index:idx_leave_request_status_role"`

	// Final snapshot, written once when the request turns terminal.
	ApprovedBy       *uuid.UUID `gorm:"type:uuid"`
	ApprovalDate     *time.Time
	ApprovalComments *string `gorm:"type:text"`

	Steps []ApprovalStep `gorm:"foreignKey:RequestID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveRequest) TableName() string { return "leave_request" }

// ApprovalStep is the per-stage audit record: who acted at which stage, when
// and with what comment. One row per completed stage, inserted in the same
// transaction as the status change.
type ApprovalStep struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	RequestID uuid.UUID `gorm:"type:uuid;not null;index"`
	Stage     string    `gorm:"type:varchar(20);not null"`
	ActorID   uuid.UUID `gorm:"type:uuid;not null;index:idx_approval_step_actor_time"`
	ActedAt   time.Time `gorm:"not null;index:idx_approval_step_actor_time"`
	Comment   string    `gorm:"type:text"`

	Request *LeaveRequest `gorm:"foreignKey:RequestID"`
}

func (ApprovalStep) TableName() string { return "approval_step" }

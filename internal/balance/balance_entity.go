package balance

import (
	"time"

	"github.com/google/uuid"
)

// LeaveBalance is one ledger row, keyed by (employee, leave type, year).
// used counts committed days, pending counts days reserved by non-terminal
// requests. Rows are created lazily at first reservation and never deleted.
type LeaveBalance struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_balance_employee_type_year"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_balance_employee_type_year"`
	Year        int       `gorm:"not null;uniqueIndex:uq_balance_employee_type_year"`

	EntitledDays int `gorm:"not null;default:0"`
	UsedDays     int `gorm:"not null;default:0"`
	PendingDays  int `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveBalance) TableName() string { return "leave_balance" }

// Remaining is the spendable entitlement after committed and reserved days.
func (b LeaveBalance) Remaining() int {
	r := b.EntitledDays - b.UsedDays - b.PendingDays
	if r < 0 {
		return 0
	}
	return r
}

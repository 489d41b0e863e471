package employee

import (
	"time"

	"github.com/google/uuid"
)

// Employee roles. junior_staff and senior_staff are regular requesters;
// manager, hr and ceo are approver roles; admin never approves but may
// cancel any non-terminal request.
const (
	RoleJuniorStaff = "junior_staff"
	RoleSeniorStaff = "senior_staff"
	RoleManager     = "manager"
	RoleHR          = "hr"
	RoleCEO         = "ceo"
	RoleAdmin       = "admin"
)

// IsApproverRole reports whether the role can appear in an approval chain.
func IsApproverRole(role string) bool {
	switch role {
	case RoleManager, RoleHR, RoleCEO:
		return true
	}
	return false
}

// Employee is the identity read model the core consumes. The HR master-data
// service owns the rows; this service only reads them.
type Employee struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	FullName       string     `gorm:"type:varchar(120);not null"`
	Email          string     `gorm:"type:varchar(255);uniqueIndex"`
	Role           string     `gorm:"type:varchar(20);not null;index:idx_employees_role_affiliate"`
	AffiliateName  string     `gorm:"type:varchar(60);not null;index:idx_employees_role_affiliate"`
	DepartmentName string     `gorm:"type:varchar(80)"`
	ManagerID      *uuid.UUID `gorm:"type:uuid"`
	Active         bool       `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Employee) TableName() string { return "employees" }

package employee

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	FindByID(ctx context.Context, id string) (*Employee, error)
	// ListByRoleAndAffiliate returns the active holders of a role inside one
	// affiliate; the event emitter uses it to address stage approvers.
	ListByRoleAndAffiliate(ctx context.Context, role, affiliate string) ([]Employee, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) ListByRoleAndAffiliate(ctx context.Context, role, affiliate string) ([]Employee, error) {
	var out []Employee
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Where("UPPER(affiliate_name) = UPPER(?)", affiliate).
		Where("active").
		Find(&out).Error
	return out, err
}

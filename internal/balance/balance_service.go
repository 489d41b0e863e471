package balance

import (
	"context"
	"net/http"
	"time"

	balanceerrors "leaveflow/internal/balance/errors"
	"leaveflow/internal/shared/apperror"

	"go.uber.org/zap"
)

//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Service interface {
	// ListForEmployee returns the caller's ledger rows for a year; year 0
	// defaults to the current year.
	ListForEmployee(ctx context.Context, employeeID string, year int) ([]BalanceResponse, error)
}

type service struct {
	repo   Repository
	now    func() time.Time
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{repo: repo, now: time.Now, logger: l}
}

func (s *service) ListForEmployee(ctx context.Context, employeeID string, year int) ([]BalanceResponse, error) {
	if year == 0 {
		year = s.now().UTC().Year()
	}
	if year < 1000 || year > 9999 {
		return nil, balanceerrors.ErrInvalidYear
	}

	rows, err := s.repo.ListByEmployeeYear(ctx, employeeID, year)
	if err != nil {
		s.logger.Error("list balances failed",
			zap.String("employee_id", employeeID),
			zap.Int("year", year),
			zap.Error(err),
		)
		return nil, apperror.Wrap(err,
			apperror.CodeInternalError,
			"could not load leave balances",
			http.StatusInternalServerError,
		)
	}

	out := make([]BalanceResponse, len(rows))
	for i, b := range rows {
		out[i] = mapToResponse(b)
	}
	return out, nil
}

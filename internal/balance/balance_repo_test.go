package balance_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"leaveflow/internal/balance"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func setupBalanceRepoTest(t *testing.T) (balance.Repository, *sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	return balance.NewRepository(nil, db), db, mock
}

func TestBalanceRepository_Reserve(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()
	leaveTypeID := uuid.New().String()

	// The remainder check and the pending increment must be one statement.
	guard := regexp.QuoteMeta("entitled_days - used_days - pending_days >= $4")

	t.Run("positive remainder covers the reservation", func(t *testing.T) {
		repo, db, mock := setupBalanceRepoTest(t)
		defer db.Close()

		mock.ExpectExec(guard).
			WithArgs(employeeID, leaveTypeID, 2026, 15).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.Reserve(ctx, employeeID, leaveTypeID, 2026, 15)

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative guard miss reports not taken", func(t *testing.T) {
		repo, db, mock := setupBalanceRepoTest(t)
		defer db.Close()

		mock.ExpectExec(guard).
			WithArgs(employeeID, leaveTypeID, 2026, 15).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.Reserve(ctx, employeeID, leaveTypeID, 2026, 15)

		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative exec error bubbles up", func(t *testing.T) {
		repo, db, mock := setupBalanceRepoTest(t)
		defer db.Close()

		mock.ExpectExec(guard).
			WithArgs(employeeID, leaveTypeID, 2026, 15).
			WillReturnError(errors.New("connection reset"))

		ok, err := repo.Reserve(ctx, employeeID, leaveTypeID, 2026, 15)

		assert.Error(t, err)
		assert.False(t, ok)
	})
}

func TestBalanceRepository_CommitReservation(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()
	leaveTypeID := uuid.New().String()

	// Moving days from pending to used must never push the ledger past the
	// entitlement.
	guard := regexp.QuoteMeta("used_days + pending_days <= entitled_days")

	t.Run("positive moves pending to used", func(t *testing.T) {
		repo, db, mock := setupBalanceRepoTest(t)
		defer db.Close()

		mock.ExpectExec(guard).
			WithArgs(employeeID, leaveTypeID, 2026, 5).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.CommitReservation(ctx, employeeID, leaveTypeID, 2026, 5)

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative guard miss when pending is short", func(t *testing.T) {
		repo, db, mock := setupBalanceRepoTest(t)
		defer db.Close()

		mock.ExpectExec(guard).
			WithArgs(employeeID, leaveTypeID, 2026, 5).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.CommitReservation(ctx, employeeID, leaveTypeID, 2026, 5)

		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestBalanceRepository_ReleaseReservation(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()
	leaveTypeID := uuid.New().String()

	set := regexp.QuoteMeta("SET pending_days = pending_days - $4, updated_at = NOW()")

	t.Run("positive returns reserved days", func(t *testing.T) {
		repo, db, mock := setupBalanceRepoTest(t)
		defer db.Close()

		mock.ExpectExec(set).
			WithArgs(employeeID, leaveTypeID, 2026, 5).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.ReleaseReservation(ctx, employeeID, leaveTypeID, 2026, 5)

		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("negative guard miss when pending is short", func(t *testing.T) {
		repo, db, mock := setupBalanceRepoTest(t)
		defer db.Close()

		mock.ExpectExec(set).
			WithArgs(employeeID, leaveTypeID, 2026, 5).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.ReleaseReservation(ctx, employeeID, leaveTypeID, 2026, 5)

		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestBalanceRepository_Insert(t *testing.T) {
	repo, db, mock := setupBalanceRepoTest(t)
	defer db.Close()

	row := &balance.LeaveBalance{
		ID:           uuid.New(),
		EmployeeID:   uuid.New(),
		LeaveTypeID:  uuid.New(),
		Year:         2026,
		EntitledDays: 21,
	}

	// Concurrent lazy creation of the same key must not be an error.
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (employee_id, leave_type_id, year) DO NOTHING")).
		WithArgs(row.ID, row.EmployeeID, row.LeaveTypeID, row.Year, row.EntitledDays, 0, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), row)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBalanceRepository_WithTx(t *testing.T) {
	repo, db, mock := setupBalanceRepoTest(t)
	defer db.Close()

	employeeID := uuid.New().String()
	leaveTypeID := uuid.New().String()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("entitled_days - used_days - pending_days >= $4")).
		WithArgs(employeeID, leaveTypeID, 2026, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	assert.NoError(t, err)

	ok, err := repo.WithTx(tx).Reserve(context.Background(), employeeID, leaveTypeID, 2026, 3)
	assert.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

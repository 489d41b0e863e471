package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"leaveflow/internal/balance"
	balanceerrors "leaveflow/internal/balance/errors"
	"leaveflow/internal/chain"
	"leaveflow/internal/employee"
	"leaveflow/internal/events"
	leaveerrors "leaveflow/internal/leave/errors"
	"leaveflow/internal/messaging/kafka"
	"leaveflow/internal/shared/contextutil"
	"leaveflow/internal/shared/keylock"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// TypesCacheKey is where the active leave-type catalog is cached in redis.
const TypesCacheKey = "leave:types:active"

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, actor Actor, req SubmitLeaveRequest) (LeaveRequestResponse, error)
	ListOwn(ctx context.Context, actor Actor) ([]LeaveRequestResponse, error)
	GetByID(ctx context.Context, actor Actor, id string) (LeaveRequestResponse, error)
	Approve(ctx context.Context, actor Actor, id, comment string) (LeaveRequestResponse, error)
	Reject(ctx context.Context, actor Actor, id, comment, stageHint string) (LeaveRequestResponse, error)
	Cancel(ctx context.Context, actor Actor, id string) (LeaveRequestResponse, error)
	Queue(ctx context.Context, actor Actor) (QueueResponse, error)
	ListTypes(ctx context.Context) ([]LeaveTypeResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	balances  balance.Repository
	employees employee.Repository
	outbox    kafka.OutboxRepository
	rdb       *redis.Client
	locks     *keylock.KeyedMutex
	sf        *singleflight.Group
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	balances balance.Repository,
	employees employee.Repository,
	outbox kafka.OutboxRepository,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithClock(db, repo, balances, employees, outbox, rdb, time.Now, logger...)
}

// NewServiceWithClock lets callers pin the actor clock; timestamps recorded
// on transitions come from it at the moment of commit.
func NewServiceWithClock(
	db *sql.DB,
	repo Repository,
	balances balance.Repository,
	employees employee.Repository,
	outbox kafka.OutboxRepository,
	rdb *redis.Client,
	clock func() time.Time,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		balances:  balances,
		employees: employees,
		outbox:    outbox,
		rdb:       rdb,
		locks:     keylock.New(),
		sf:        &singleflight.Group{},
		now:       clock,
		logger:    l,
	}
}

// log picks the request-scoped logger when middleware attached one,
// falling back to the service logger.
func (s *service) log(ctx context.Context) *zap.Logger {
	return contextutil.GetLogger(ctx, s.logger)
}

func (s *service) Submit(ctx context.Context, actor Actor, req SubmitLeaveRequest) (LeaveRequestResponse, error) {
	s.log(ctx).Debug("submit leave requested",
		zap.String("employee_id", actor.ID.String()),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	start, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if start.After(end) {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidRange
	}

	today := dateOnly(s.now().UTC())
	if start.Before(today) {
		return LeaveRequestResponse{}, leaveerrors.ErrPastDate
	}
	if start.Year() > today.Year()+1 {
		return LeaveRequestResponse{}, leaveerrors.ErrYearOutOfWindow
	}

	totalDays := WorkingDays(start, end)
	if totalDays < 1 {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidRange
	}

	emp, err := s.employees.FindByID(ctx, actor.ID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrInvalidEmployee
		}
		return LeaveRequestResponse{}, err
	}
	if !emp.Active {
		return LeaveRequestResponse{}, leaveerrors.ErrInvalidEmployee
	}
	if !chain.Known(emp.AffiliateName) {
		return LeaveRequestResponse{}, leaveerrors.ErrUnknownAffiliate
	}

	lt, err := s.repo.FindTypeByID(ctx, req.LeaveTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrUnknownLeaveType
		}
		return LeaveRequestResponse{}, err
	}
	if !lt.Active {
		return LeaveRequestResponse{}, leaveerrors.ErrUnknownLeaveType
	}
	if totalDays > lt.MaxDaysPerRequest {
		return LeaveRequestResponse{}, leaveerrors.ErrExceedsTypeLimit
	}

	// Overlap checks and lazy balance creation for the same employee must
	// not interleave.
	unlock := s.locks.Lock("submit:" + actor.ID.String())
	defer unlock()

	overlap, err := s.repo.HasOverlapping(ctx, actor.ID.String(), start, end)
	if err != nil {
		s.log(ctx).Error("submit overlap check failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if overlap {
		s.log(ctx).Warn("submit overlap detected",
			zap.String("employee_id", actor.ID.String()),
			zap.String("start_date", req.StartDate),
			zap.String("end_date", req.EndDate),
		)
		return LeaveRequestResponse{}, leaveerrors.ErrOverlap
	}

	approvalChain, err := chain.For(emp.AffiliateName, emp.Role)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrUnknownAffiliate
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log(ctx).Error("submit begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qbal := s.balances.WithTx(tx)

	year := start.Year()
	if err := s.ensureBalanceRow(ctx, qbal, emp.ID, lt, year, today.Year()); err != nil {
		return LeaveRequestResponse{}, err
	}

	reserved, err := qbal.Reserve(ctx, emp.ID.String(), lt.ID.String(), year, totalDays)
	if err != nil {
		s.log(ctx).Error("submit reserve failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if !reserved {
		return LeaveRequestResponse{}, balanceerrors.ErrInsufficientBalance
	}

	l := &LeaveRequest{
		ID:                uuid.New(),
		EmployeeID:        emp.ID,
		EmployeeAffiliate: chain.Normalize(emp.AffiliateName),
		EmployeeRole:      emp.Role,
		LeaveTypeID:       lt.ID,
		StartDate:         start,
		EndDate:           end,
		TotalDays:         totalDays,
		Reason:            req.Reason,
		Status:            chain.StatusPending,
	}

	eventType := events.TypeSubmitted
	if len(approvalChain) == 0 {
		// Nobody to ask: the request completes at submission. The
		// reservation converts to usage in the same transaction.
		now := s.now().UTC()
		l.Status = chain.StatusApproved
		actorID := emp.ID
		l.ApprovedBy = &actorID
		l.ApprovalDate = &now
		committed, err := qbal.CommitReservation(ctx, emp.ID.String(), lt.ID.String(), year, totalDays)
		if err != nil {
			return LeaveRequestResponse{}, err
		}
		if !committed {
			return LeaveRequestResponse{}, balanceerrors.ErrLedgerInvariant
		}
		eventType = events.TypeFinalApproved
	}

	if err := qtx.Insert(ctx, l); err != nil {
		s.log(ctx).Error("submit persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if l.Status == chain.StatusApproved {
		// The insert above does not carry the snapshot columns.
		if _, err := qtx.FinalizeStatus(ctx, l.ID.String(), chain.StatusApproved, chain.StatusApproved, FinalSnapshot{
			ApprovedBy:   emp.ID.String(),
			ApprovalDate: *l.ApprovalDate,
		}); err != nil {
			return LeaveRequestResponse{}, err
		}
	}

	recipients := s.stageRecipients(ctx, approvalChain, 0, l)
	if err := s.queueEvent(ctx, tx, eventType, l, actor.ID, recipients); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.log(ctx).Error("submit commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	s.log(ctx).Info("submit leave success",
		zap.String("request_id", l.ID.String()),
		zap.String("employee_id", emp.ID.String()),
		zap.Int("total_days", totalDays),
	)
	return mapToResponse(*l), nil
}

// ensureBalanceRow creates the ledger row lazily. A next-year row copies the
// current year's entitlement when one exists, otherwise the type default.
func (s *service) ensureBalanceRow(
	ctx context.Context,
	qbal balance.Repository,
	employeeID uuid.UUID,
	lt *LeaveType,
	year, currentYear int,
) error {
	_, err := s.balances.Find(ctx, employeeID.String(), lt.ID.String(), year)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	entitled := lt.DefaultEntitled
	if year == currentYear+1 {
		if prev, err := s.balances.Find(ctx, employeeID.String(), lt.ID.String(), currentYear); err == nil {
			entitled = prev.EntitledDays
		}
	}

	return qbal.Insert(ctx, &balance.LeaveBalance{
		ID:           uuid.New(),
		EmployeeID:   employeeID,
		LeaveTypeID:  lt.ID,
		Year:         year,
		EntitledDays: entitled,
	})
}

func (s *service) ListOwn(ctx context.Context, actor Actor) ([]LeaveRequestResponse, error) {
	requests, err := s.repo.FindAllByEmployee(ctx, actor.ID.String())
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

func (s *service) GetByID(ctx context.Context, actor Actor, id string) (LeaveRequestResponse, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}

	owner := l.EmployeeID == actor.ID
	sameAffiliate := chain.Normalize(actor.Affiliate) == chain.Normalize(l.EmployeeAffiliate)
	approver := employee.IsApproverRole(actor.Role) && sameAffiliate
	if !owner && !approver && actor.Role != employee.RoleAdmin {
		return LeaveRequestResponse{}, leaveerrors.ErrForbidden
	}

	return mapToResponse(*l), nil
}

func (s *service) Approve(ctx context.Context, actor Actor, id, comment string) (LeaveRequestResponse, error) {
	return s.transition(ctx, actor, id, comment, "", false)
}

func (s *service) Reject(ctx context.Context, actor Actor, id, comment, stageHint string) (LeaveRequestResponse, error) {
	if comment == "" {
		return LeaveRequestResponse{}, leaveerrors.ErrCommentRequired
	}
	return s.transition(ctx, actor, id, comment, stageHint, true)
}

// transition runs one Approve or Reject event through the state machine.
// Events on the same request are serialized by the per-request lock; the
// guarded status update backs that up across processes, so a losing event
// observes a guard miss and fails with the stale-state error.
func (s *service) transition(ctx context.Context, actor Actor, id, comment, stageHint string, reject bool) (LeaveRequestResponse, error) {
	unlock := s.locks.Lock("request:" + id)
	defer unlock()

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}

	if chain.IsTerminal(l.Status) {
		return LeaveRequestResponse{}, leaveerrors.ErrTerminal
	}

	approvalChain, err := chain.For(l.EmployeeAffiliate, l.EmployeeRole)
	if err != nil {
		return LeaveRequestResponse{}, leaveerrors.ErrUnknownAffiliate
	}

	idx := approvalChain.NextIndex(l.Status)
	stage, ok := approvalChain.StageAt(idx)
	if !ok {
		// All stages complete but the row is still non-terminal: a
		// concurrent finalization is in flight.
		return LeaveRequestResponse{}, leaveerrors.StaleState(l.Status)
	}

	if err := eligibility(actor, l, approvalChain, idx); err != nil {
		s.log(ctx).Warn("transition not eligible",
			zap.String("request_id", id),
			zap.String("actor_id", actor.ID.String()),
			zap.String("actor_role", actor.Role),
			zap.String("status", l.Status),
		)
		return LeaveRequestResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log(ctx).Error("transition begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qbal := s.balances.WithTx(tx)
	now := s.now().UTC()

	auditStage := stage
	if reject && stageHint != "" && approvalChain.Contains(stageHint) {
		auditStage = chain.Stage(stageHint)
	}

	step := &ApprovalStep{
		ID:        uuid.New(),
		RequestID: l.ID,
		Stage:     auditStage.Role(),
		ActorID:   actor.ID,
		ActedAt:   now,
		Comment:   comment,
	}
	if err := qtx.InsertStep(ctx, step); err != nil {
		s.log(ctx).Error("transition step persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	fromStatus := l.Status
	year := l.StartDate.Year()

	var eventType string
	var recipients []string

	switch {
	case reject:
		moved, err := qtx.FinalizeStatus(ctx, id, fromStatus, chain.StatusRejected, FinalSnapshot{
			ApprovedBy:   actor.ID.String(),
			ApprovalDate: now,
			Comments:     comment,
		})
		if err != nil {
			return LeaveRequestResponse{}, err
		}
		if !moved {
			return LeaveRequestResponse{}, leaveerrors.StaleState(fromStatus)
		}
		released, err := qbal.ReleaseReservation(ctx, l.EmployeeID.String(), l.LeaveTypeID.String(), year, l.TotalDays)
		if err != nil {
			return LeaveRequestResponse{}, err
		}
		if !released {
			s.log(ctx).Error("reject release violated ledger invariant",
				zap.String("request_id", id),
			)
			return LeaveRequestResponse{}, balanceerrors.ErrLedgerInvariant
		}
		l.Status = chain.StatusRejected
		actorID := actor.ID
		l.ApprovedBy = &actorID
		l.ApprovalDate = &now
		l.ApprovalComments = &comment
		eventType = events.TypeRejected
		recipients = []string{l.EmployeeID.String()}

	case idx == len(approvalChain)-1:
		moved, err := qtx.FinalizeStatus(ctx, id, fromStatus, chain.StatusApproved, FinalSnapshot{
			ApprovedBy:   actor.ID.String(),
			ApprovalDate: now,
			Comments:     comment,
		})
		if err != nil {
			return LeaveRequestResponse{}, err
		}
		if !moved {
			return LeaveRequestResponse{}, leaveerrors.StaleState(fromStatus)
		}
		committed, err := qbal.CommitReservation(ctx, l.EmployeeID.String(), l.LeaveTypeID.String(), year, l.TotalDays)
		if err != nil {
			return LeaveRequestResponse{}, err
		}
		if !committed {
			s.log(ctx).Error("final approve violated ledger invariant",
				zap.String("request_id", id),
			)
			return LeaveRequestResponse{}, balanceerrors.ErrLedgerInvariant
		}
		l.Status = chain.StatusApproved
		actorID := actor.ID
		l.ApprovedBy = &actorID
		l.ApprovalDate = &now
		if comment != "" {
			l.ApprovalComments = &comment
		}
		eventType = events.TypeFinalApproved
		recipients = []string{l.EmployeeID.String()}

	default:
		newStatus := chain.CompletionStatus(stage)
		moved, err := qtx.AdvanceStatus(ctx, id, fromStatus, newStatus)
		if err != nil {
			return LeaveRequestResponse{}, err
		}
		if !moved {
			return LeaveRequestResponse{}, leaveerrors.StaleState(fromStatus)
		}
		l.Status = newStatus
		eventType = events.TypeStageApproved
		recipients = s.stageRecipients(ctx, approvalChain, idx+1, l)
	}

	if err := s.queueEvent(ctx, tx, eventType, l, actor.ID, recipients); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.log(ctx).Error("transition commit failed",
			zap.String("request_id", id),
			zap.Error(err),
		)
		return LeaveRequestResponse{}, err
	}

	l.Steps = append(l.Steps, *step)
	s.log(ctx).Info("transition success",
		zap.String("request_id", id),
		zap.String("from_status", fromStatus),
		zap.String("status", l.Status),
		zap.String("actor_id", actor.ID.String()),
	)
	return mapToResponse(*l), nil
}

func (s *service) Cancel(ctx context.Context, actor Actor, id string) (LeaveRequestResponse, error) {
	unlock := s.locks.Lock("request:" + id)
	defer unlock()

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}

	if chain.IsTerminal(l.Status) {
		return LeaveRequestResponse{}, leaveerrors.ErrTerminal
	}

	owner := l.EmployeeID == actor.ID
	switch {
	case owner && l.Status == chain.StatusPending:
	case actor.Role == employee.RoleAdmin:
	default:
		return LeaveRequestResponse{}, leaveerrors.ErrForbidden
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log(ctx).Error("cancel begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	qbal := s.balances.WithTx(tx)
	now := s.now().UTC()

	fromStatus := l.Status
	moved, err := qtx.FinalizeStatus(ctx, id, fromStatus, chain.StatusCancelled, FinalSnapshot{
		ApprovedBy:   actor.ID.String(),
		ApprovalDate: now,
	})
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if !moved {
		return LeaveRequestResponse{}, leaveerrors.StaleState(fromStatus)
	}

	released, err := qbal.ReleaseReservation(ctx, l.EmployeeID.String(), l.LeaveTypeID.String(), l.StartDate.Year(), l.TotalDays)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if !released {
		s.log(ctx).Error("cancel release violated ledger invariant",
			zap.String("request_id", id),
		)
		return LeaveRequestResponse{}, balanceerrors.ErrLedgerInvariant
	}

	l.Status = chain.StatusCancelled
	actorID := actor.ID
	l.ApprovedBy = &actorID
	l.ApprovalDate = &now

	if err := s.queueEvent(ctx, tx, events.TypeCancelled, l, actor.ID, []string{l.EmployeeID.String()}); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.log(ctx).Error("cancel commit failed", zap.String("request_id", id), zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	s.log(ctx).Info("cancel success",
		zap.String("request_id", id),
		zap.String("from_status", fromStatus),
		zap.String("actor_id", actor.ID.String()),
	)
	return mapToResponse(*l), nil
}

func (s *service) ListTypes(ctx context.Context) ([]LeaveTypeResponse, error) {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, TypesCacheKey).Result(); err == nil {
			var cached []LeaveTypeResponse
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		}
	}

	types, err := s.repo.ListTypes(ctx, true)
	if err != nil {
		return nil, err
	}

	out := make([]LeaveTypeResponse, len(types))
	for i, t := range types {
		out[i] = mapTypeToResponse(t)
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(out); err == nil {
			if err := s.rdb.Set(ctx, TypesCacheKey, payload, 10*time.Minute).Err(); err != nil {
				s.log(ctx).Warn("cache leave types failed", zap.Error(err))
			}
		}
	}
	return out, nil
}

// eligibility decides whether the actor is the approver the request is
// waiting on. An actor whose role belongs to a stage already completed lost
// a race and gets the stale-state error instead of a flat forbidden.
func eligibility(actor Actor, l *LeaveRequest, c chain.Chain, idx int) error {
	if actor.Role == employee.RoleAdmin {
		return leaveerrors.ErrForbidden
	}
	if actor.ID == l.EmployeeID {
		return leaveerrors.ErrForbidden
	}
	if chain.Normalize(actor.Affiliate) != chain.Normalize(l.EmployeeAffiliate) {
		return leaveerrors.ErrForbidden
	}

	stage := c[idx]
	if stage.Role() == actor.Role {
		return nil
	}
	for _, done := range c[:idx] {
		if done.Role() == actor.Role {
			return leaveerrors.StaleState(l.Status)
		}
	}
	return leaveerrors.ErrForbidden
}

// stageRecipients addresses a lifecycle event: the owner always, plus the
// approvers of the stage at idx when one exists. Address resolution is best
// effort; a lookup failure must not abort the transition.
func (s *service) stageRecipients(ctx context.Context, c chain.Chain, idx int, l *LeaveRequest) []string {
	recipients := []string{l.EmployeeID.String()}

	stage, ok := c.StageAt(idx)
	if !ok {
		return recipients
	}

	approvers, err := s.employees.ListByRoleAndAffiliate(ctx, stage.Role(), l.EmployeeAffiliate)
	if err != nil {
		s.log(ctx).Warn("resolve stage approvers failed",
			zap.String("stage", stage.Role()),
			zap.String("affiliate", l.EmployeeAffiliate),
			zap.Error(err),
		)
		return recipients
	}
	for _, a := range approvers {
		recipients = append(recipients, a.ID.String())
	}
	return recipients
}

// queueEvent parks the lifecycle event in the outbox inside the caller's
// transaction. Outbox write failure aborts the whole transition: only
// committed transitions may emit.
func (s *service) queueEvent(ctx context.Context, tx *sql.Tx, eventType string, l *LeaveRequest, actorID uuid.UUID, recipients []string) error {
	event := events.LeaveLifecycleEvent{
		Type:       eventType,
		RequestID:  l.ID.String(),
		ActorID:    actorID.String(),
		Recipients: recipients,
		OccurredAt: s.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   l.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

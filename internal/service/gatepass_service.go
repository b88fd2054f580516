package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/HiteshShonak/hostel-ops-api/internal/dto"
	"github.com/HiteshShonak/hostel-ops-api/internal/models"
	"github.com/HiteshShonak/hostel-ops-api/internal/repository"
	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
)

type gatePassRepository interface {
	Create(ctx context.Context, pass *models.GatePass, maxPending int) (*models.GatePass, error)
	FindByID(ctx context.Context, id string) (*models.GatePass, error)
	ApplyParentDecision(ctx context.Context, params repository.DecisionParams) (*models.GatePass, error)
	ApplyWardenDecision(ctx context.Context, params repository.DecisionParams) (*models.GatePass, error)
	RecordExit(ctx context.Context, passID string, at time.Time) (*models.GatePass, error)
	RecordEntry(ctx context.Context, passID string, at time.Time) (*models.GatePass, error)
	List(ctx context.Context, filter models.GatePassFilter) ([]models.GatePass, int, error)
	CurrentlyOut(ctx context.Context) ([]models.GatePass, error)
	LateReturns(ctx context.Context, from, to *time.Time) ([]models.LateReturnRow, error)
}

type parentLinkReader interface {
	IsParentOf(ctx context.Context, parentID, studentID string) (bool, error)
}

type gatePassPolicy interface {
	GatePassLimits(ctx context.Context) (models.GatePassLimits, error)
}

type gatePassAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type gatePassMetrics interface {
	RecordGatePassTransition(to string)
}

// GatePassService drives the pass lifecycle: creation with limit checks,
// ordered parent/warden decisions, guard exit/entry stamping, and the
// read-only ledger projections derived from pass state.
type GatePassService struct {
	repo      gatePassRepository
	users     parentLinkReader
	policy    gatePassPolicy
	audit     gatePassAuditLogger
	metrics   gatePassMetrics
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewGatePassService constructs a GatePassService.
func NewGatePassService(repo gatePassRepository, users parentLinkReader, policy gatePassPolicy, audit gatePassAuditLogger, metrics gatePassMetrics, validate *validator.Validate, logger *zap.Logger) *GatePassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatePassService{
		repo:      repo,
		users:     users,
		policy:    policy,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create opens a new pass for the student in PENDING_PARENT. Limits are read
// fresh so tightened policy applies to the next request; the pending-count
// check runs inside the repository transaction so concurrent creates cannot
// exceed the cap.
func (s *GatePassService) Create(ctx context.Context, studentID string, req dto.CreateGatePassRequest) (*dto.GatePassView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid gate pass request")
	}
	if req.ToDate.Before(req.FromDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to_date precedes from_date")
	}

	limits, err := s.policy.GatePassLimits(ctx)
	if err != nil {
		return nil, err
	}
	if req.ToDate.Sub(req.FromDate) > time.Duration(limits.MaxDays)*24*time.Hour {
		return nil, appErrors.Clone(appErrors.ErrDurationExceeded, "")
	}

	pass := &models.GatePass{
		StudentID: studentID,
		Reason:    req.Reason,
		FromDate:  req.FromDate,
		ToDate:    req.ToDate,
	}
	stored, err := s.repo.Create(ctx, pass, limits.MaxPending)
	if err != nil {
		if errors.Is(err, repository.ErrPendingLimit) {
			return nil, appErrors.Clone(appErrors.ErrTooManyPending, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create gate pass")
	}

	s.countTransition(string(models.GatePassPendingParent))
	s.logger.Info("gate pass created",
		zap.String("pass_id", stored.ID),
		zap.String("student_id", studentID))

	view := dto.NewGatePassView(stored)
	return &view, nil
}

// Get loads one pass, enforcing role-scoped visibility.
func (s *GatePassService) Get(ctx context.Context, passID string, actor *models.JWTClaims) (*dto.GatePassView, error) {
	pass, err := s.findPass(ctx, passID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, pass, actor); err != nil {
		return nil, err
	}
	view := dto.NewGatePassView(pass)
	return &view, nil
}

// List returns passes visible to the actor: students see their own, parents
// their children's, staff everything.
func (s *GatePassService) List(ctx context.Context, actor *models.JWTClaims, filter models.GatePassFilter) ([]dto.GatePassView, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleStudent:
		filter.StudentID = actor.UserID
		filter.ParentID = ""
	case models.RoleParent:
		filter.ParentID = actor.UserID
		filter.StudentID = ""
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list gate passes")
	}
	views := make([]dto.GatePassView, 0, len(rows))
	for i := range rows {
		views = append(views, dto.NewGatePassView(&rows[i]))
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return views, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ParentDecide applies the parent's decision. Valid only from PENDING_PARENT;
// the update is conditional on that pre-state so a stale decision surfaces as
// a conflict instead of overwriting a later transition.
func (s *GatePassService) ParentDecide(ctx context.Context, passID string, actor *models.JWTClaims, req dto.DecisionRequest) (*dto.GatePassView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	pass, err := s.findPass(ctx, passID)
	if err != nil {
		return nil, err
	}
	linked, err := s.users.IsParentOf(ctx, actor.UserID, pass.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify parent link")
	}
	if !linked {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not the student's registered parent")
	}

	next := models.GatePassPendingWarden
	if !req.Approved {
		next = models.GatePassRejected
	}
	updated, err := s.repo.ApplyParentDecision(ctx, repository.DecisionParams{
		PassID:    passID,
		Expected:  models.GatePassPendingParent,
		Next:      next,
		Approved:  req.Approved,
		DecidedBy: actor.UserID,
		DecidedAt: s.now().UTC(),
		Reason:    req.Reason,
	})
	if err != nil {
		return s.mapDecisionError(err)
	}

	s.countTransition(string(next))
	s.emitDecisionAudit(ctx, actor, updated, "parent", req.Approved)
	view := dto.NewGatePassView(updated)
	return &view, nil
}

// WardenDecide applies the warden's decision. Valid only from PENDING_WARDEN.
func (s *GatePassService) WardenDecide(ctx context.Context, passID string, actor *models.JWTClaims, req dto.DecisionRequest) (*dto.GatePassView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	next := models.GatePassApproved
	if !req.Approved {
		next = models.GatePassRejected
	}
	updated, err := s.repo.ApplyWardenDecision(ctx, repository.DecisionParams{
		PassID:    passID,
		Expected:  models.GatePassPendingWarden,
		Next:      next,
		Approved:  req.Approved,
		DecidedBy: actor.UserID,
		DecidedAt: s.now().UTC(),
		Reason:    req.Reason,
	})
	if err != nil {
		return s.mapDecisionError(err)
	}

	s.countTransition(string(next))
	s.emitDecisionAudit(ctx, actor, updated, "warden", req.Approved)
	view := dto.NewGatePassView(updated)
	return &view, nil
}

// RecordExit stamps the guard-observed exit on an approved pass.
func (s *GatePassService) RecordExit(ctx context.Context, passID string, actor *models.JWTClaims) (*dto.GatePassView, error) {
	at := s.now().UTC()
	updated, err := s.repo.RecordExit(ctx, passID, at)
	if err != nil {
		return s.mapDecisionError(err)
	}

	s.countTransition(string(models.StateApprovedExited))
	s.emitGateAudit(ctx, actor, updated, "exit", at)
	view := dto.NewGatePassView(updated)
	return &view, nil
}

// RecordEntry stamps the return, closing the pass. Lateness is derived
// against the pass's expected return inside the same update.
func (s *GatePassService) RecordEntry(ctx context.Context, passID string, actor *models.JWTClaims) (*dto.GatePassView, error) {
	at := s.now().UTC()
	updated, err := s.repo.RecordEntry(ctx, passID, at)
	if err != nil {
		return s.mapDecisionError(err)
	}

	s.countTransition(string(updated.State()))
	s.emitGateAudit(ctx, actor, updated, "entry", at)
	if updated.IsLate {
		s.logger.Info("late return recorded",
			zap.String("pass_id", updated.ID),
			zap.String("student_id", updated.StudentID),
			zap.Duration("late_by", updated.LateDuration()))
	}
	view := dto.NewGatePassView(updated)
	return &view, nil
}

// CurrentlyOut projects passes whose students are outside the hostel.
func (s *GatePassService) CurrentlyOut(ctx context.Context) ([]dto.CurrentlyOutRow, error) {
	rows, err := s.repo.CurrentlyOut(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students currently out")
	}
	out := make([]dto.CurrentlyOutRow, 0, len(rows))
	for i := range rows {
		out = append(out, dto.CurrentlyOutRow{
			GatePassView: dto.NewGatePassView(&rows[i]),
			OutSince:     *rows[i].ExitTime,
		})
	}
	return out, nil
}

// LateReturns projects closed passes that came back after the expected
// return.
func (s *GatePassService) LateReturns(ctx context.Context, from, to *time.Time) ([]models.LateReturnRow, error) {
	rows, err := s.repo.LateReturns(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list late returns")
	}
	return rows, nil
}

func (s *GatePassService) findPass(ctx context.Context, passID string) (*models.GatePass, error) {
	pass, err := s.repo.FindByID(ctx, passID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "gate pass not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gate pass")
	}
	return pass, nil
}

func (s *GatePassService) authorizeView(ctx context.Context, pass *models.GatePass, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleStudent:
		if pass.StudentID != actor.UserID {
			return appErrors.ErrForbidden
		}
	case models.RoleParent:
		linked, err := s.users.IsParentOf(ctx, actor.UserID, pass.StudentID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify parent link")
		}
		if !linked {
			return appErrors.ErrForbidden
		}
	}
	return nil
}

func (s *GatePassService) mapDecisionError(err error) (*dto.GatePassView, error) {
	if errors.Is(err, repository.ErrStateConflict) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "")
	}
	return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update gate pass")
}

func (s *GatePassService) emitDecisionAudit(ctx context.Context, actor *models.JWTClaims, pass *models.GatePass, step string, approved bool) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"step":     step,
		"approved": approved,
		"status":   pass.Status,
	})
	log := &models.AuditLog{
		UserID:     actorIDPtr(actor),
		Action:     models.AuditActionGatePassDecide,
		Resource:   "gate_passes",
		ResourceID: &pass.ID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "gatepass-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record gate pass audit", zap.Error(err))
	}
}

func (s *GatePassService) emitGateAudit(ctx context.Context, actor *models.JWTClaims, pass *models.GatePass, event string, at time.Time) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"event": event,
		"at":    at,
	})
	log := &models.AuditLog{
		UserID:     actorIDPtr(actor),
		Action:     models.AuditActionGatePassGateLog,
		Resource:   "gate_passes",
		ResourceID: &pass.ID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "gatepass-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record gate event audit", zap.Error(err))
	}
}

func (s *GatePassService) countTransition(to string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordGatePassTransition(to)
}

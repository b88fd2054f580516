package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HiteshShonak/hostel-ops-api/internal/dto"
	"github.com/HiteshShonak/hostel-ops-api/internal/models"
	"github.com/HiteshShonak/hostel-ops-api/internal/repository"
	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
)

type gatePassRepoStub struct {
	passes map[string]*models.GatePass
}

func newGatePassRepoStub() *gatePassRepoStub {
	return &gatePassRepoStub{passes: make(map[string]*models.GatePass)}
}

func (s *gatePassRepoStub) pendingCount(studentID string) int {
	count := 0
	for _, pass := range s.passes {
		if pass.StudentID == studentID && pass.Status.Pending() {
			count++
		}
	}
	return count
}

func (s *gatePassRepoStub) Create(ctx context.Context, pass *models.GatePass, maxPending int) (*models.GatePass, error) {
	if s.pendingCount(pass.StudentID) >= maxPending {
		return nil, repository.ErrPendingLimit
	}
	stored := *pass
	stored.ID = uuid.NewString()
	stored.Status = models.GatePassPendingParent
	s.passes[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (s *gatePassRepoStub) FindByID(ctx context.Context, id string) (*models.GatePass, error) {
	pass, ok := s.passes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *pass
	return &copied, nil
}

func (s *gatePassRepoStub) ApplyParentDecision(ctx context.Context, params repository.DecisionParams) (*models.GatePass, error) {
	pass, ok := s.passes[params.PassID]
	if !ok || pass.Status != params.Expected {
		return nil, repository.ErrStateConflict
	}
	pass.Status = params.Next
	pass.ParentApproved = &params.Approved
	pass.ParentDecidedBy = &params.DecidedBy
	pass.ParentDecidedAt = &params.DecidedAt
	pass.ParentReason = params.Reason
	copied := *pass
	return &copied, nil
}

func (s *gatePassRepoStub) ApplyWardenDecision(ctx context.Context, params repository.DecisionParams) (*models.GatePass, error) {
	pass, ok := s.passes[params.PassID]
	if !ok || pass.Status != params.Expected {
		return nil, repository.ErrStateConflict
	}
	pass.Status = params.Next
	pass.WardenApproved = &params.Approved
	pass.WardenDecidedBy = &params.DecidedBy
	pass.WardenDecidedAt = &params.DecidedAt
	pass.WardenReason = params.Reason
	copied := *pass
	return &copied, nil
}

func (s *gatePassRepoStub) RecordExit(ctx context.Context, passID string, at time.Time) (*models.GatePass, error) {
	pass, ok := s.passes[passID]
	if !ok || pass.Status != models.GatePassApproved || pass.ExitTime != nil {
		return nil, repository.ErrStateConflict
	}
	pass.ExitTime = &at
	copied := *pass
	return &copied, nil
}

func (s *gatePassRepoStub) RecordEntry(ctx context.Context, passID string, at time.Time) (*models.GatePass, error) {
	pass, ok := s.passes[passID]
	if !ok || pass.ExitTime == nil || pass.EntryTime != nil {
		return nil, repository.ErrStateConflict
	}
	pass.EntryTime = &at
	pass.IsLate = at.After(pass.ToDate)
	pass.Status = models.GatePassClosed
	copied := *pass
	return &copied, nil
}

func (s *gatePassRepoStub) List(ctx context.Context, filter models.GatePassFilter) ([]models.GatePass, int, error) {
	var rows []models.GatePass
	for _, pass := range s.passes {
		if filter.StudentID != "" && pass.StudentID != filter.StudentID {
			continue
		}
		rows = append(rows, *pass)
	}
	return rows, len(rows), nil
}

func (s *gatePassRepoStub) CurrentlyOut(ctx context.Context) ([]models.GatePass, error) {
	var rows []models.GatePass
	for _, pass := range s.passes {
		if pass.Out() {
			rows = append(rows, *pass)
		}
	}
	return rows, nil
}

func (s *gatePassRepoStub) LateReturns(ctx context.Context, from, to *time.Time) ([]models.LateReturnRow, error) {
	var rows []models.LateReturnRow
	for _, pass := range s.passes {
		if pass.Status == models.GatePassClosed && pass.IsLate {
			rows = append(rows, models.LateReturnRow{GatePass: *pass, StudentName: "Asha"})
		}
	}
	return rows, nil
}

type parentLinkStub struct {
	children map[string]string // studentID -> parentID
}

func (s parentLinkStub) IsParentOf(ctx context.Context, parentID, studentID string) (bool, error) {
	return s.children[studentID] == parentID, nil
}

type gatePassAuditStub struct {
	logs []*models.AuditLog
}

func (a *gatePassAuditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newGatePassService(repo *gatePassRepoStub) (*GatePassService, *gatePassAuditStub) {
	audit := &gatePassAuditStub{}
	links := parentLinkStub{children: map[string]string{"stu-1": "par-1"}}
	svc := NewGatePassService(repo, links, hostelPolicy(), audit, nil, validator.New(), nil)
	return svc, audit
}

func passRequest(days int) dto.CreateGatePassRequest {
	from := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	return dto.CreateGatePassRequest{
		Reason:   "family visit",
		FromDate: from,
		ToDate:   from.AddDate(0, 0, days),
	}
}

func parentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "par-1", Role: models.RoleParent}
}

func wardenClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "war-1", Role: models.RoleWarden}
}

func guardClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "grd-1", Role: models.RoleGuard}
}

func TestGatePassHappyPathLateReturn(t *testing.T) {
	repo := newGatePassRepoStub()
	svc, audit := newGatePassService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, "stu-1", passRequest(2))
	require.NoError(t, err)
	assert.Equal(t, models.StatePendingParent, created.State)

	approved := dto.DecisionRequest{Approved: true}
	afterParent, err := svc.ParentDecide(ctx, created.ID, parentClaims(), approved)
	require.NoError(t, err)
	assert.Equal(t, models.StatePendingWarden, afterParent.State)

	afterWarden, err := svc.WardenDecide(ctx, created.ID, wardenClaims(), approved)
	require.NoError(t, err)
	assert.Equal(t, models.StateApprovedNotExited, afterWarden.State)

	svc.now = func() time.Time { return created.FromDate.Add(2 * time.Hour) }
	exited, err := svc.RecordExit(ctx, created.ID, guardClaims())
	require.NoError(t, err)
	assert.Equal(t, models.StateApprovedExited, exited.State)

	// Return a day after to_date.
	svc.now = func() time.Time { return created.ToDate.Add(24 * time.Hour) }
	closed, err := svc.RecordEntry(ctx, created.ID, guardClaims())
	require.NoError(t, err)
	assert.Equal(t, models.StateClosedLate, closed.State)
	assert.True(t, closed.IsLate)

	late, err := svc.LateReturns(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, late, 1)

	assert.NotEmpty(t, audit.logs)
}

func TestGatePassDurationExceeded(t *testing.T) {
	svc, _ := newGatePassService(newGatePassRepoStub())
	_, err := svc.Create(context.Background(), "stu-1", passRequest(20))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDurationExceeded.Code, appErrors.FromError(err).Code)
}

func TestGatePassPendingLimit(t *testing.T) {
	repo := newGatePassRepoStub()
	svc, _ := newGatePassService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, "stu-1", passRequest(2))
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, "stu-1", passRequest(2))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTooManyPending.Code, appErrors.FromError(err).Code)

	// Resolving one pending pass frees a slot.
	var anyID string
	for id := range repo.passes {
		anyID = id
		break
	}
	_, err = svc.ParentDecide(ctx, anyID, parentClaims(), dto.DecisionRequest{Approved: false})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "stu-1", passRequest(2))
	require.NoError(t, err)
}

func TestGatePassDecisionOutOfOrder(t *testing.T) {
	repo := newGatePassRepoStub()
	svc, _ := newGatePassService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, "stu-1", passRequest(2))
	require.NoError(t, err)

	// Warden cannot decide before the parent.
	_, err = svc.WardenDecide(ctx, created.ID, wardenClaims(), dto.DecisionRequest{Approved: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestGatePassStateMonotonic(t *testing.T) {
	repo := newGatePassRepoStub()
	svc, _ := newGatePassService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, "stu-1", passRequest(2))
	require.NoError(t, err)

	_, err = svc.ParentDecide(ctx, created.ID, parentClaims(), dto.DecisionRequest{Approved: false})
	require.NoError(t, err)

	// Rejected is terminal: no decision or gate event may move it.
	_, err = svc.ParentDecide(ctx, created.ID, parentClaims(), dto.DecisionRequest{Approved: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)

	_, err = svc.RecordExit(ctx, created.ID, guardClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestGatePassConcurrentDecisionConflict(t *testing.T) {
	repo := newGatePassRepoStub()
	svc, _ := newGatePassService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, "stu-1", passRequest(2))
	require.NoError(t, err)

	_, err = svc.ParentDecide(ctx, created.ID, parentClaims(), dto.DecisionRequest{Approved: true})
	require.NoError(t, err)

	// A second decision from a stale PENDING_PARENT view must conflict, not
	// overwrite.
	_, err = svc.ParentDecide(ctx, created.ID, parentClaims(), dto.DecisionRequest{Approved: false})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestGatePassParentLinkEnforced(t *testing.T) {
	repo := newGatePassRepoStub()
	svc, _ := newGatePassService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, "stu-1", passRequest(2))
	require.NoError(t, err)

	stranger := &models.JWTClaims{UserID: "par-2", Role: models.RoleParent}
	_, err = svc.ParentDecide(ctx, created.ID, stranger, dto.DecisionRequest{Approved: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestGatePassEntryBeforeExit(t *testing.T) {
	repo := newGatePassRepoStub()
	svc, _ := newGatePassService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, "stu-1", passRequest(2))
	require.NoError(t, err)
	_, err = svc.ParentDecide(ctx, created.ID, parentClaims(), dto.DecisionRequest{Approved: true})
	require.NoError(t, err)
	_, err = svc.WardenDecide(ctx, created.ID, wardenClaims(), dto.DecisionRequest{Approved: true})
	require.NoError(t, err)

	_, err = svc.RecordEntry(ctx, created.ID, guardClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestGatePassCurrentlyOutProjection(t *testing.T) {
	repo := newGatePassRepoStub()
	svc, _ := newGatePassService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, "stu-1", passRequest(2))
	require.NoError(t, err)
	_, err = svc.ParentDecide(ctx, created.ID, parentClaims(), dto.DecisionRequest{Approved: true})
	require.NoError(t, err)
	_, err = svc.WardenDecide(ctx, created.ID, wardenClaims(), dto.DecisionRequest{Approved: true})
	require.NoError(t, err)

	out, err := svc.CurrentlyOut(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = svc.RecordExit(ctx, created.ID, guardClaims())
	require.NoError(t, err)

	out, err = svc.CurrentlyOut(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, models.StateApprovedExited, out[0].State)

	_, err = svc.RecordEntry(ctx, created.ID, guardClaims())
	require.NoError(t, err)

	out, err = svc.CurrentlyOut(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGatePassVisibilityScoping(t *testing.T) {
	repo := newGatePassRepoStub()
	svc, _ := newGatePassService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, "stu-1", passRequest(2))
	require.NoError(t, err)

	otherStudent := &models.JWTClaims{UserID: "stu-2", Role: models.RoleStudent}
	_, err = svc.Get(ctx, created.ID, otherStudent)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	owner := &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent}
	view, err := svc.Get(ctx, created.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, created.ID, view.ID)
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/HiteshShonak/hostel-ops-api/internal/models"
)

var (
	// ErrPendingLimit signals the per-student pending-pass cap was hit
	// inside the create transaction.
	ErrPendingLimit = fmt.Errorf("pending gate pass limit reached")
	// ErrStateConflict signals a conditional update matched no row: the
	// stored status no longer equals the expected pre-state.
	ErrStateConflict = fmt.Errorf("gate pass state changed concurrently")
)

const gatePassColumns = `id, student_id, reason, from_date, to_date, status,
parent_approved, parent_decided_by, parent_decided_at, parent_reason,
warden_approved, warden_decided_by, warden_decided_at, warden_reason,
exit_time, entry_time, is_late, created_at, updated_at`

// GatePassRepository handles persistence for gate passes.
type GatePassRepository struct {
	db *sqlx.DB
}

// NewGatePassRepository constructs the repository.
func NewGatePassRepository(db *sqlx.DB) *GatePassRepository {
	return &GatePassRepository{db: db}
}

// Create inserts a new pass in PENDING_PARENT after re-checking the pending
// cap. The student row is locked first so concurrent creates for the same
// student serialize on the count-then-insert.
func (r *GatePassRepository) Create(ctx context.Context, pass *models.GatePass, maxPending int) (*models.GatePass, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin gate pass create: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	var lockedID string
	if err := tx.GetContext(ctx, &lockedID, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, pass.StudentID); err != nil {
		return nil, fmt.Errorf("lock student for gate pass create: %w", err)
	}

	var pending int
	if err := tx.GetContext(ctx, &pending,
		`SELECT COUNT(*) FROM gate_passes WHERE student_id = $1 AND status IN ('PENDING_PARENT', 'PENDING_WARDEN')`,
		pass.StudentID); err != nil {
		return nil, fmt.Errorf("count pending gate passes: %w", err)
	}
	if pending >= maxPending {
		return nil, ErrPendingLimit
	}

	now := time.Now().UTC()
	if pass.ID == "" {
		pass.ID = uuid.NewString()
	}
	pass.Status = models.GatePassPendingParent
	pass.CreatedAt = now
	pass.UpdatedAt = now

	query := fmt.Sprintf(`INSERT INTO gate_passes (id, student_id, reason, from_date, to_date, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING %s`, gatePassColumns)
	var stored models.GatePass
	if err := tx.GetContext(ctx, &stored, query,
		pass.ID, pass.StudentID, pass.Reason, pass.FromDate, pass.ToDate, pass.Status, pass.CreatedAt, pass.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert gate pass: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit gate pass create: %w", err)
	}
	commit = true
	return &stored, nil
}

// FindByID loads a single pass.
func (r *GatePassRepository) FindByID(ctx context.Context, id string) (*models.GatePass, error) {
	query := fmt.Sprintf(`SELECT %s FROM gate_passes WHERE id = $1`, gatePassColumns)
	var pass models.GatePass
	if err := r.db.GetContext(ctx, &pass, query, id); err != nil {
		return nil, err
	}
	return &pass, nil
}

// DecisionParams carries one approval step for persistence.
type DecisionParams struct {
	PassID    string
	Expected  models.GatePassStatus
	Next      models.GatePassStatus
	Approved  bool
	DecidedBy string
	DecidedAt time.Time
	Reason    *string
}

// ApplyParentDecision moves a pass out of PENDING_PARENT. The update is
// conditional on the expected status; a lost race yields ErrStateConflict.
func (r *GatePassRepository) ApplyParentDecision(ctx context.Context, params DecisionParams) (*models.GatePass, error) {
	query := fmt.Sprintf(`UPDATE gate_passes
SET status = $1, parent_approved = $2, parent_decided_by = $3, parent_decided_at = $4, parent_reason = $5, updated_at = $4
WHERE id = $6 AND status = $7
RETURNING %s`, gatePassColumns)
	return r.conditionalUpdate(ctx, query,
		params.Next, params.Approved, params.DecidedBy, params.DecidedAt, params.Reason, params.PassID, params.Expected)
}

// ApplyWardenDecision moves a pass out of PENDING_WARDEN.
func (r *GatePassRepository) ApplyWardenDecision(ctx context.Context, params DecisionParams) (*models.GatePass, error) {
	query := fmt.Sprintf(`UPDATE gate_passes
SET status = $1, warden_approved = $2, warden_decided_by = $3, warden_decided_at = $4, warden_reason = $5, updated_at = $4
WHERE id = $6 AND status = $7
RETURNING %s`, gatePassColumns)
	return r.conditionalUpdate(ctx, query,
		params.Next, params.Approved, params.DecidedBy, params.DecidedAt, params.Reason, params.PassID, params.Expected)
}

// RecordExit stamps the guard-observed exit on an approved, not-yet-exited
// pass.
func (r *GatePassRepository) RecordExit(ctx context.Context, passID string, at time.Time) (*models.GatePass, error) {
	query := fmt.Sprintf(`UPDATE gate_passes
SET exit_time = $1, updated_at = $1
WHERE id = $2 AND status = 'APPROVED' AND exit_time IS NULL
RETURNING %s`, gatePassColumns)
	return r.conditionalUpdate(ctx, query, at, passID)
}

// RecordEntry stamps the return, derives lateness against to_date and closes
// the pass.
func (r *GatePassRepository) RecordEntry(ctx context.Context, passID string, at time.Time) (*models.GatePass, error) {
	query := fmt.Sprintf(`UPDATE gate_passes
SET entry_time = $1, is_late = ($1 > to_date), status = 'CLOSED', updated_at = $1
WHERE id = $2 AND exit_time IS NOT NULL AND entry_time IS NULL
RETURNING %s`, gatePassColumns)
	return r.conditionalUpdate(ctx, query, at, passID)
}

// List returns passes matching the filter, newest first.
func (r *GatePassRepository) List(ctx context.Context, filter models.GatePassFilter) ([]models.GatePass, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	base := "FROM gate_passes gp"
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("gp.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ParentID != "" {
		base = "FROM gate_passes gp JOIN users s ON s.id = gp.student_id"
		where = append(where, fmt.Sprintf("s.parent_id = $%d", len(args)+1))
		args = append(args, filter.ParentID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("gp.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	columns := prefixColumns("gp")
	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY gp.created_at DESC LIMIT %d OFFSET %d`,
		columns, base, whereClause, size, offset)
	var rows []models.GatePass
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list gate passes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count gate passes: %w", err)
	}
	return rows, total, nil
}

// CurrentlyOut lists passes whose students are outside the hostel: exit
// stamped, entry not yet.
func (r *GatePassRepository) CurrentlyOut(ctx context.Context) ([]models.GatePass, error) {
	query := fmt.Sprintf(`SELECT %s FROM gate_passes
WHERE exit_time IS NOT NULL AND entry_time IS NULL
ORDER BY exit_time ASC`, gatePassColumns)
	var rows []models.GatePass
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list students currently out: %w", err)
	}
	return rows, nil
}

// LateReturns lists closed passes whose entry came after the expected
// return, joined with the student name for the warden view.
func (r *GatePassRepository) LateReturns(ctx context.Context, from, to *time.Time) ([]models.LateReturnRow, error) {
	where := []string{"gp.status = 'CLOSED'", "gp.is_late"}
	args := []interface{}{}
	if from != nil {
		where = append(where, fmt.Sprintf("gp.entry_time >= $%d", len(args)+1))
		args = append(args, *from)
	}
	if to != nil {
		where = append(where, fmt.Sprintf("gp.entry_time <= $%d", len(args)+1))
		args = append(args, *to)
	}
	query := fmt.Sprintf(`SELECT %s, s.full_name AS student_name
FROM gate_passes gp
JOIN users s ON s.id = gp.student_id
WHERE %s
ORDER BY gp.entry_time DESC`, prefixColumns("gp"), strings.Join(where, " AND "))
	var rows []models.LateReturnRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list late returns: %w", err)
	}
	for i := range rows {
		rows[i].LateDuration = rows[i].GatePass.LateDuration().String()
	}
	return rows, nil
}

func (r *GatePassRepository) conditionalUpdate(ctx context.Context, query string, args ...interface{}) (*models.GatePass, error) {
	var pass models.GatePass
	if err := r.db.GetContext(ctx, &pass, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrStateConflict
		}
		return nil, fmt.Errorf("update gate pass: %w", err)
	}
	return &pass, nil
}

func prefixColumns(alias string) string {
	cols := strings.Split(gatePassColumns, ",")
	for i, col := range cols {
		cols[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}

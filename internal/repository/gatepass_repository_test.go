package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HiteshShonak/hostel-ops-api/internal/models"
)

func gatePassRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "reason", "from_date", "to_date", "status",
		"parent_approved", "parent_decided_by", "parent_decided_at", "parent_reason",
		"warden_approved", "warden_decided_by", "warden_decided_at", "warden_reason",
		"exit_time", "entry_time", "is_late", "created_at", "updated_at",
	})
}

func addPassRow(rows *sqlmock.Rows, id, studentID string, status models.GatePassStatus, from, to time.Time) *sqlmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(id, studentID, "family visit", from, to, status,
		nil, nil, nil, nil,
		nil, nil, nil, nil,
		nil, nil, false, now, now)
}

func TestGatePassRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGatePassRepository(db)

	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 2)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("student-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM gate_passes")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO gate_passes")).
		WillReturnRows(addPassRow(gatePassRows(), "pass-1", "student-1", models.GatePassPendingParent, from, to))
	mock.ExpectCommit()

	pass, err := repo.Create(context.Background(), &models.GatePass{
		StudentID: "student-1",
		Reason:    "family visit",
		FromDate:  from,
		ToDate:    to,
	}, 3)
	require.NoError(t, err)
	assert.Equal(t, models.GatePassPendingParent, pass.Status)
	assert.Equal(t, "pass-1", pass.ID)
}

func TestGatePassRepositoryCreatePendingLimit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGatePassRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("student-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM gate_passes")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &models.GatePass{StudentID: "student-1"}, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPendingLimit)
}

func TestGatePassRepositoryParentDecisionConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGatePassRepository(db)

	// Conditional update matches no row when the stored status is no longer
	// PENDING_PARENT.
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE gate_passes")).
		WillReturnRows(gatePassRows())

	_, err := repo.ApplyParentDecision(context.Background(), DecisionParams{
		PassID:    "pass-1",
		Expected:  models.GatePassPendingParent,
		Next:      models.GatePassPendingWarden,
		Approved:  true,
		DecidedBy: "parent-1",
		DecidedAt: time.Now().UTC(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestGatePassRepositoryRecordEntryLate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGatePassRepository(db)

	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 2)
	exit := from.Add(10 * time.Hour)
	entry := to.Add(6 * time.Hour)
	now := time.Now().UTC()

	rows := gatePassRows().AddRow("pass-1", "student-1", "family visit", from, to, models.GatePassClosed,
		true, "parent-1", now, nil,
		true, "warden-1", now, nil,
		exit, entry, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE gate_passes")).
		WithArgs(entry, "pass-1").
		WillReturnRows(rows)

	pass, err := repo.RecordEntry(context.Background(), "pass-1", entry)
	require.NoError(t, err)
	assert.Equal(t, models.GatePassClosed, pass.Status)
	assert.True(t, pass.IsLate)
	assert.Equal(t, models.StateClosedLate, pass.State())
	assert.Equal(t, 6*time.Hour, pass.LateDuration())
}

func TestGatePassRepositoryCurrentlyOut(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGatePassRepository(db)

	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	exit := from.Add(9 * time.Hour)
	now := time.Now().UTC()

	rows := gatePassRows().AddRow("pass-1", "student-1", "family visit", from, to, models.GatePassApproved,
		true, "parent-1", now, nil,
		true, "warden-1", now, nil,
		exit, nil, false, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("exit_time IS NOT NULL AND entry_time IS NULL")).
		WillReturnRows(rows)

	out, err := repo.CurrentlyOut(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].Out())
	assert.Equal(t, models.StateApprovedExited, out[0].State())
}

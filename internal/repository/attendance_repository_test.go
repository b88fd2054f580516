package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HiteshShonak/hostel-ops-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func attendanceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "date", "marked_at", "latitude", "longitude",
		"distance_m", "within_geofence", "on_time", "created_at",
	})
}

func TestAttendanceRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	marked := time.Date(2024, 3, 11, 19, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance_records")).
		WithArgs(sqlmock.AnyArg(), "student-1", day, marked, 28.986701, 77.152050, 0.0, true, true, sqlmock.AnyArg()).
		WillReturnRows(attendanceRows().
			AddRow("rec-1", "student-1", day, marked, 28.986701, 77.152050, 0.0, true, true, marked))

	stored, err := repo.Insert(context.Background(), &models.AttendanceRecord{
		StudentID:      "student-1",
		Date:           day,
		MarkedAt:       marked,
		Latitude:       28.986701,
		Longitude:      77.152050,
		WithinGeofence: true,
		OnTime:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, "rec-1", stored.ID)
	assert.True(t, stored.WithinGeofence)
}

func TestAttendanceRepositoryInsertDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	// ON CONFLICT DO NOTHING returns no row when the (student_id, date)
	// constraint suppresses the insert.
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance_records")).
		WillReturnRows(attendanceRows())

	_, err := repo.Insert(context.Background(), &models.AttendanceRecord{
		StudentID: "student-1",
		Date:      time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		MarkedAt:  time.Now().UTC(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateAttendance)
}

func TestAttendanceRepositoryFindByStudentAndDateNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("student-9", sqlmock.AnyArg()).
		WillReturnRows(attendanceRows())

	record, err := repo.FindByStudentAndDate(context.Background(), "student-9", time.Now())
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestAttendanceRepositoryDailyReport(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	marked := time.Date(2024, 3, 11, 19, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"student_id", "student_name", "room_number", "marked_at", "on_time", "present"}).
		AddRow("student-1", "Aman Verma", "B-204", marked, true, true).
		AddRow("student-2", "Ravi Singh", nil, nil, nil, false)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN attendance_records")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	report, err := repo.DailyReport(context.Background(), time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, report, 2)
	assert.True(t, report[0].Present)
	assert.False(t, report[1].Present)
	assert.Nil(t, report[1].MarkedAt)
}

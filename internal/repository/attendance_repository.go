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

// ErrDuplicateAttendance signals that a record already exists for the
// student/day pair. The unique constraint on (student_id, date) is the sole
// authority: concurrent writers race on the insert and the loser sees this.
var ErrDuplicateAttendance = fmt.Errorf("attendance already recorded for student/day")

// AttendanceRepository handles persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Insert stores one attendance record. A conflicting (student_id, date)
// insert returns ErrDuplicateAttendance without touching the existing row.
func (r *AttendanceRepository) Insert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO attendance_records (id, student_id, date, marked_at, latitude, longitude, distance_m, within_geofence, on_time, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (student_id, date) DO NOTHING
RETURNING id, student_id, date, marked_at, latitude, longitude, distance_m, within_geofence, on_time, created_at`
	var stored models.AttendanceRecord
	err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.StudentID, record.Date, record.MarkedAt,
		record.Latitude, record.Longitude, record.DistanceM,
		record.WithinGeofence, record.OnTime, record.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDuplicateAttendance
		}
		return nil, fmt.Errorf("insert attendance record: %w", err)
	}
	return &stored, nil
}

// FindByStudentAndDate returns the record for a student on a given day, or
// nil when none exists.
func (r *AttendanceRepository) FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*models.AttendanceRecord, error) {
	const query = `SELECT id, student_id, date, marked_at, latitude, longitude, distance_m, within_geofence, on_time, created_at
FROM attendance_records WHERE student_id = $1 AND date = $2`
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find attendance record: %w", err)
	}
	return &record, nil
}

// History returns a student's attendance rows matching the filter, newest
// first, with a total count for pagination.
func (r *AttendanceRepository) History(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	where := []string{"student_id = $1"}
	args := []interface{}{filter.StudentID}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
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

	query := fmt.Sprintf(`SELECT id, student_id, date, marked_at, latitude, longitude, distance_m, within_geofence, on_time, created_at
FROM attendance_records WHERE %s
ORDER BY date DESC
LIMIT %d OFFSET %d`, whereClause, size, offset)

	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("attendance history: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attendance_records WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance history: %w", err)
	}
	return rows, total, nil
}

// DailyReport lists every active student with their mark for the date, if
// any, so wardens can see absentees alongside marked rows.
func (r *AttendanceRepository) DailyReport(ctx context.Context, date time.Time) ([]models.AttendanceReportRow, error) {
	const query = `SELECT u.id AS student_id, u.full_name AS student_name, u.room_number,
       ar.marked_at, ar.on_time, ar.id IS NOT NULL AS present
FROM users u
LEFT JOIN attendance_records ar ON ar.student_id = u.id AND ar.date = $1
WHERE u.role = 'STUDENT' AND u.active
ORDER BY u.full_name ASC`
	var rows []models.AttendanceReportRow
	if err := r.db.SelectContext(ctx, &rows, query, date); err != nil {
		return nil, fmt.Errorf("daily attendance report: %w", err)
	}
	return rows, nil
}

// Summary aggregates presence counts for a student within a range.
func (r *AttendanceRepository) Summary(ctx context.Context, studentID string, from, to time.Time) (*models.AttendanceSummary, error) {
	const query = `SELECT COUNT(*) AS total,
       COUNT(*) FILTER (WHERE NOT on_time) AS late
FROM attendance_records
WHERE student_id = $1 AND date >= $2 AND date <= $3`
	row := struct {
		Total int `db:"total"`
		Late  int `db:"late"`
	}{}
	if err := r.db.GetContext(ctx, &row, query, studentID, from, to); err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	days := int(to.Sub(from).Hours()/24) + 1
	summary := &models.AttendanceSummary{Present: row.Total, Late: row.Late, Total: days}
	if days > 0 {
		summary.Percent = float64(row.Total) / float64(days) * 100
	}
	return summary, nil
}

package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/HiteshShonak/hostel-ops-api/internal/dto"
	"github.com/HiteshShonak/hostel-ops-api/internal/models"
	"github.com/HiteshShonak/hostel-ops-api/internal/repository"
	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
	"github.com/HiteshShonak/hostel-ops-api/pkg/geo"
)

type attendanceRepository interface {
	Insert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*models.AttendanceRecord, error)
	History(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
	DailyReport(ctx context.Context, date time.Time) ([]models.AttendanceReportRow, error)
	Summary(ctx context.Context, studentID string, from, to time.Time) (*models.AttendanceSummary, error)
}

type attendancePolicy interface {
	Geofence(ctx context.Context) (geo.Fence, error)
	AttendanceWindow(ctx context.Context) (models.AttendanceWindow, error)
}

type attendanceMetrics interface {
	RecordAttendanceMark(outcome string)
}

// AttendanceService verifies and stores geofenced attendance marks.
type AttendanceService struct {
	repo      attendanceRepository
	policy    attendancePolicy
	metrics   attendanceMetrics
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, policy attendancePolicy, metrics attendanceMetrics, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:      repo,
		policy:    policy,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Mark verifies the student's reported location against the current policy
// and stores the day's attendance record. Policy is read fresh on every call
// so administrative changes apply immediately. Checks run in a fixed order:
// coordinate shape, window, geofence, then uniqueness.
func (s *AttendanceService) Mark(ctx context.Context, studentID string, req dto.MarkAttendanceRequest) (*dto.MarkAttendanceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "latitude and longitude are required")
	}
	point := geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if !point.Valid() {
		s.countMark("invalid_coordinate")
		return nil, appErrors.Clone(appErrors.ErrInvalidCoordinate, "")
	}

	window, err := s.policy.AttendanceWindow(ctx)
	if err != nil {
		return nil, err
	}
	markedAt := s.now().UTC()
	timing, err := ClassifyTiming(markedAt, window)
	if err != nil {
		return nil, err
	}
	if !timing.WindowOpen && !timing.WithinGrace {
		s.countMark("window_closed")
		return nil, appErrors.Clone(appErrors.ErrWindowClosed, "")
	}

	fence, err := s.policy.Geofence(ctx)
	if err != nil {
		return nil, err
	}
	eval, err := geo.Evaluate(point, fence)
	if err != nil {
		s.countMark("invalid_coordinate")
		return nil, err
	}
	if !eval.WithinFence {
		s.countMark("out_of_range")
		s.logger.Info("attendance rejected outside geofence",
			zap.String("student_id", studentID),
			zap.Float64("distance_m", eval.DistanceM))
		return nil, appErrors.Clone(appErrors.ErrOutOfRange, "")
	}

	date, err := s.hostelDate(markedAt, window.Timezone)
	if err != nil {
		return nil, err
	}
	record := &models.AttendanceRecord{
		StudentID:      studentID,
		Date:           date,
		MarkedAt:       markedAt,
		Latitude:       point.Latitude,
		Longitude:      point.Longitude,
		DistanceM:      eval.DistanceM,
		WithinGeofence: true,
		OnTime:         timing.OnTime,
	}
	stored, err := s.repo.Insert(ctx, record)
	if err != nil {
		if err == repository.ErrDuplicateAttendance {
			s.countMark("duplicate")
			return nil, appErrors.Clone(appErrors.ErrAlreadyMarked, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attendance")
	}

	if timing.OnTime {
		s.countMark("on_time")
	} else {
		s.countMark("late")
	}
	s.logger.Info("attendance marked",
		zap.String("student_id", studentID),
		zap.Bool("on_time", timing.OnTime),
		zap.Float64("distance_m", eval.DistanceM))

	return &dto.MarkAttendanceResponse{
		Record:      *stored,
		DistanceM:   eval.DistanceM,
		OnTime:      timing.OnTime,
		WithinGrace: timing.WithinGrace,
	}, nil
}

// Today returns the caller's attendance status for the current hostel day.
func (s *AttendanceService) Today(ctx context.Context, studentID string) (*dto.TodayAttendanceResponse, error) {
	window, err := s.policy.AttendanceWindow(ctx)
	if err != nil {
		return nil, err
	}
	date, err := s.hostelDate(s.now(), window.Timezone)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.FindByStudentAndDate(ctx, studentID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return &dto.TodayAttendanceResponse{Marked: record != nil, Record: record}, nil
}

// History returns a student's attendance rows, newest first.
func (s *AttendanceService) History(ctx context.Context, studentID string, query dto.AttendanceHistoryQuery) ([]models.AttendanceRecord, *models.Pagination, error) {
	filter := models.AttendanceFilter{
		StudentID: studentID,
		DateFrom:  query.From,
		DateTo:    query.To,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	rows, total, err := s.repo.History(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return rows, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// DailyReport lists every active student with their mark for the date.
func (s *AttendanceService) DailyReport(ctx context.Context, date time.Time) (*dto.DailyReportResponse, error) {
	rows, err := s.repo.DailyReport(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build daily report")
	}
	report := &dto.DailyReportResponse{Date: date.Format("2006-01-02"), Rows: rows}
	for _, row := range rows {
		if row.Present {
			report.Present++
		} else {
			report.Absent++
		}
	}
	return report, nil
}

// Summary aggregates a student's presence over a date range.
func (s *AttendanceService) Summary(ctx context.Context, studentID string, from, to time.Time) (*models.AttendanceSummary, error) {
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date range is inverted")
	}
	summary, err := s.repo.Summary(ctx, studentID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarize attendance")
	}
	return summary, nil
}

// hostelDate truncates an instant to the calendar day in hostel time. The
// stored date is a midnight UTC timestamp keyed by the hostel-local day, so
// the uniqueness constraint tracks the hostel's day boundary.
func (s *AttendanceService) hostelDate(at time.Time, timezone string) (time.Time, error) {
	local, err := inHostelTime(at, timezone)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (s *AttendanceService) countMark(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordAttendanceMark(outcome)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HiteshShonak/hostel-ops-api/internal/dto"
	"github.com/HiteshShonak/hostel-ops-api/internal/models"
	"github.com/HiteshShonak/hostel-ops-api/internal/repository"
	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
	"github.com/HiteshShonak/hostel-ops-api/pkg/geo"
)

type attendanceRepoStub struct {
	records  map[string]models.AttendanceRecord
	inserted *models.AttendanceRecord
	insert   error
}

func recordKey(studentID string, date time.Time) string {
	return studentID + "|" + date.Format("2006-01-02")
}

func (s *attendanceRepoStub) Insert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if s.insert != nil {
		return nil, s.insert
	}
	if s.records == nil {
		s.records = make(map[string]models.AttendanceRecord)
	}
	key := recordKey(record.StudentID, record.Date)
	if _, ok := s.records[key]; ok {
		return nil, repository.ErrDuplicateAttendance
	}
	stored := *record
	stored.ID = "rec-1"
	s.records[key] = stored
	s.inserted = &stored
	return &stored, nil
}

func (s *attendanceRepoStub) FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*models.AttendanceRecord, error) {
	if record, ok := s.records[recordKey(studentID, date)]; ok {
		return &record, nil
	}
	return nil, nil
}

func (s *attendanceRepoStub) History(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	var rows []models.AttendanceRecord
	for _, record := range s.records {
		if record.StudentID == filter.StudentID {
			rows = append(rows, record)
		}
	}
	return rows, len(rows), nil
}

func (s *attendanceRepoStub) DailyReport(ctx context.Context, date time.Time) ([]models.AttendanceReportRow, error) {
	return []models.AttendanceReportRow{
		{StudentID: "stu-1", StudentName: "Asha", Present: true},
		{StudentID: "stu-2", StudentName: "Ravi", Present: false},
	}, nil
}

func (s *attendanceRepoStub) Summary(ctx context.Context, studentID string, from, to time.Time) (*models.AttendanceSummary, error) {
	return &models.AttendanceSummary{Present: 5, Late: 1, Total: 7}, nil
}

type policyStub struct {
	fence  geo.Fence
	window models.AttendanceWindow
	limits models.GatePassLimits
}

func (p policyStub) Geofence(ctx context.Context) (geo.Fence, error) {
	return p.fence, nil
}

func (p policyStub) AttendanceWindow(ctx context.Context) (models.AttendanceWindow, error) {
	return p.window, nil
}

func (p policyStub) GatePassLimits(ctx context.Context) (models.GatePassLimits, error) {
	return p.limits, nil
}

func (p policyStub) Timezone(ctx context.Context) (string, error) {
	return p.window.Timezone, nil
}

func hostelPolicy() policyStub {
	return policyStub{
		fence: geo.Fence{
			Center:  geo.Point{Latitude: 28.986701, Longitude: 77.152050},
			RadiusM: 50,
		},
		window: models.AttendanceWindow{
			Enabled:      true,
			StartHour:    19,
			EndHour:      20,
			GraceMinutes: 15,
			Timezone:     "Asia/Kolkata",
		},
		limits: models.GatePassLimits{MaxDays: 14, MaxPending: 3},
	}
}

func newAttendanceService(repo *attendanceRepoStub, policy policyStub) *AttendanceService {
	return NewAttendanceService(repo, policy, nil, validator.New(), nil)
}

func floatPtr(v float64) *float64 { return &v }

func insideRequest() dto.MarkAttendanceRequest {
	return dto.MarkAttendanceRequest{Latitude: floatPtr(28.986701), Longitude: floatPtr(77.152050)}
}

func TestAttendanceMarkInsideFence(t *testing.T) {
	repo := &attendanceRepoStub{}
	svc := newAttendanceService(repo, hostelPolicy())
	svc.now = func() time.Time { return kolkataTime(t, 19, 30) }

	resp, err := svc.Mark(context.Background(), "stu-1", insideRequest())
	require.NoError(t, err)
	assert.True(t, resp.OnTime)
	assert.True(t, resp.Record.WithinGeofence)
	assert.Less(t, resp.DistanceM, 1.0)
	require.NotNil(t, repo.inserted)
	assert.True(t, repo.inserted.OnTime)
}

func TestAttendanceMarkOutsideFence(t *testing.T) {
	svc := newAttendanceService(&attendanceRepoStub{}, hostelPolicy())
	svc.now = func() time.Time { return kolkataTime(t, 19, 30) }

	// Roughly 220 m north of the center.
	req := dto.MarkAttendanceRequest{Latitude: floatPtr(28.988700), Longitude: floatPtr(77.152050)}
	_, err := svc.Mark(context.Background(), "stu-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOutOfRange.Code, appErrors.FromError(err).Code)
}

func TestAttendanceMarkWindowClosed(t *testing.T) {
	svc := newAttendanceService(&attendanceRepoStub{}, hostelPolicy())
	svc.now = func() time.Time { return kolkataTime(t, 12, 0) }

	_, err := svc.Mark(context.Background(), "stu-1", insideRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWindowClosed.Code, appErrors.FromError(err).Code)
}

func TestAttendanceMarkWithinGraceIsLate(t *testing.T) {
	repo := &attendanceRepoStub{}
	svc := newAttendanceService(repo, hostelPolicy())
	svc.now = func() time.Time { return kolkataTime(t, 20, 10) }

	resp, err := svc.Mark(context.Background(), "stu-1", insideRequest())
	require.NoError(t, err)
	assert.False(t, resp.OnTime)
	assert.True(t, resp.WithinGrace)
	assert.False(t, repo.inserted.OnTime)
}

func TestAttendanceMarkDuplicate(t *testing.T) {
	repo := &attendanceRepoStub{}
	svc := newAttendanceService(repo, hostelPolicy())
	svc.now = func() time.Time { return kolkataTime(t, 19, 30) }

	_, err := svc.Mark(context.Background(), "stu-1", insideRequest())
	require.NoError(t, err)

	_, err = svc.Mark(context.Background(), "stu-1", insideRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyMarked.Code, appErrors.FromError(err).Code)
}

func TestAttendanceMarkInvalidCoordinate(t *testing.T) {
	svc := newAttendanceService(&attendanceRepoStub{}, hostelPolicy())
	svc.now = func() time.Time { return kolkataTime(t, 19, 30) }

	req := dto.MarkAttendanceRequest{Latitude: floatPtr(123.0), Longitude: floatPtr(77.15)}
	_, err := svc.Mark(context.Background(), "stu-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCoordinate.Code, appErrors.FromError(err).Code)
}

func TestAttendanceMarkMissingCoordinate(t *testing.T) {
	svc := newAttendanceService(&attendanceRepoStub{}, hostelPolicy())
	_, err := svc.Mark(context.Background(), "stu-1", dto.MarkAttendanceRequest{Latitude: floatPtr(28.9)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceTodayReflectsMark(t *testing.T) {
	repo := &attendanceRepoStub{}
	svc := newAttendanceService(repo, hostelPolicy())
	svc.now = func() time.Time { return kolkataTime(t, 19, 30) }

	status, err := svc.Today(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.False(t, status.Marked)

	_, err = svc.Mark(context.Background(), "stu-1", insideRequest())
	require.NoError(t, err)

	status, err = svc.Today(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, status.Marked)
	require.NotNil(t, status.Record)
}

func TestAttendanceHostelDateCrossesUTCMidnight(t *testing.T) {
	repo := &attendanceRepoStub{}
	svc := newAttendanceService(repo, hostelPolicy())
	// 19:30 IST on March 11 is 14:00 UTC on March 11; the stored day must be
	// the hostel-local calendar day.
	svc.now = func() time.Time { return kolkataTime(t, 19, 30) }

	_, err := svc.Mark(context.Background(), "stu-1", insideRequest())
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", repo.inserted.Date.Format("2006-01-02"))
}

func TestAttendanceDailyReportCounts(t *testing.T) {
	svc := newAttendanceService(&attendanceRepoStub{}, hostelPolicy())
	report, err := svc.DailyReport(context.Background(), time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Present)
	assert.Equal(t, 1, report.Absent)
}

func TestAttendanceSummaryInvertedRange(t *testing.T) {
	svc := newAttendanceService(&attendanceRepoStub{}, hostelPolicy())
	from := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	_, err := svc.Summary(context.Background(), "stu-1", from, from.AddDate(0, 0, -1))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/HiteshShonak/hostel-ops-api/internal/models"
	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
	"github.com/HiteshShonak/hostel-ops-api/pkg/export"
)

type reportAttendanceReader interface {
	DailyReport(ctx context.Context, date time.Time) ([]models.AttendanceReportRow, error)
}

type reportGatePassReader interface {
	LateReturns(ctx context.Context, from, to *time.Time) ([]models.LateReturnRow, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportFormat selects the rendered output type.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// Valid reports whether the format is supported.
func (f ReportFormat) Valid() bool {
	return f == ReportFormatCSV || f == ReportFormatPDF
}

// ReportFile is a rendered, downloadable report.
type ReportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService renders warden-facing reports as CSV or PDF downloads.
type ReportService struct {
	attendance reportAttendanceReader
	passes     reportGatePassReader
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(attendance reportAttendanceReader, passes reportGatePassReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ReportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{attendance: attendance, passes: passes, csv: csv, pdf: pdf, logger: logger}
}

// DailyAttendance renders the roll-call report for one date.
func (s *ReportService) DailyAttendance(ctx context.Context, date time.Time, format ReportFormat) (*ReportFile, error) {
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
	rows, err := s.attendance.DailyReport(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build attendance report")
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Room", "Status", "Marked At", "On Time"},
	}
	for _, row := range rows {
		record := map[string]string{
			"Student": row.StudentName,
			"Room":    strOrDash(row.RoomNumber),
			"Status":  "ABSENT",
		}
		if row.Present {
			record["Status"] = "PRESENT"
			if row.MarkedAt != nil {
				record["Marked At"] = row.MarkedAt.UTC().Format("15:04")
			}
			if row.OnTime != nil {
				record["On Time"] = yesNo(*row.OnTime)
			}
		}
		dataset.Rows = append(dataset.Rows, record)
	}

	name := fmt.Sprintf("attendance-%s", date.Format("2006-01-02"))
	title := fmt.Sprintf("Attendance %s", date.Format("02 Jan 2006"))
	return s.render(dataset, name, title, format)
}

// LateReturns renders the late-return ledger for a date range.
func (s *ReportService) LateReturns(ctx context.Context, from, to *time.Time, format ReportFormat) (*ReportFile, error) {
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
	rows, err := s.passes.LateReturns(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build late return report")
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Expected Return", "Actual Return", "Late By"},
	}
	for _, row := range rows {
		record := map[string]string{
			"Student":         row.StudentName,
			"Expected Return": row.ToDate.UTC().Format("2006-01-02 15:04"),
			"Late By":         row.LateDuration,
		}
		if row.EntryTime != nil {
			record["Actual Return"] = row.EntryTime.UTC().Format("2006-01-02 15:04")
		}
		dataset.Rows = append(dataset.Rows, record)
	}

	return s.render(dataset, "late-returns", "Late Returns", format)
}

func (s *ReportService) render(dataset export.Dataset, name, title string, format ReportFormat) (*ReportFile, error) {
	switch format {
	case ReportFormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ReportFile{Filename: name + ".csv", ContentType: "text/csv", Data: data}, nil
	case ReportFormatPDF:
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ReportFile{Filename: name + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
}

func strOrDash(value *string) string {
	if value == nil || *value == "" {
		return "-"
	}
	return *value
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

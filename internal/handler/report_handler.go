package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HiteshShonak/hostel-ops-api/internal/service"
	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
	"github.com/HiteshShonak/hostel-ops-api/pkg/response"
)

type reportService interface {
	DailyAttendance(ctx context.Context, date time.Time, format service.ReportFormat) (*service.ReportFile, error)
	LateReturns(ctx context.Context, from, to *time.Time, format service.ReportFormat) (*service.ReportFile, error)
}

// ReportHandler serves downloadable attendance and gate pass reports.
type ReportHandler struct {
	service reportService
}

func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// DailyAttendance godoc
// @Summary Download the daily attendance report
// @Tags Reports
// @Produce octet-stream
// @Security BearerAuth
// @Param date query string false "Report date (YYYY-MM-DD), defaults to today"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /reports/attendance/daily [get]
func (h *ReportHandler) DailyAttendance(c *gin.Context) {
	date, ok := queryDate(c, "date")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid report date"))
		return
	}
	day := time.Now().UTC().Truncate(24 * time.Hour)
	if date != nil {
		day = *date
	}
	file, err := h.service.DailyAttendance(c.Request.Context(), day, reportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.ContentType, file.Filename, file.Data)
}

// LateReturns godoc
// @Summary Download the late returns report
// @Tags Reports
// @Produce octet-stream
// @Security BearerAuth
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /reports/gatepasses/late-returns [get]
func (h *ReportHandler) LateReturns(c *gin.Context) {
	from, ok := queryDate(c, "from")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid from date"))
		return
	}
	to, ok := queryDate(c, "to")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid to date"))
		return
	}
	file, err := h.service.LateReturns(c.Request.Context(), from, to, reportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.ContentType, file.Filename, file.Data)
}

func reportFormat(c *gin.Context) service.ReportFormat {
	return service.ReportFormat(c.DefaultQuery("format", string(service.ReportFormatCSV)))
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/HiteshShonak/hostel-ops-api/internal/dto"
	"github.com/HiteshShonak/hostel-ops-api/internal/models"
	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
)

type alertRepository interface {
	Create(ctx context.Context, alert *models.EmergencyAlert) (*models.EmergencyAlert, error)
	ListOpen(ctx context.Context) ([]models.EmergencyAlert, error)
	Acknowledge(ctx context.Context, id, byUserID string, at time.Time) (*models.EmergencyAlert, error)
}

// AlertService records and resolves student SOS alerts.
type AlertService struct {
	repo      alertRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAlertService constructs an AlertService.
func NewAlertService(repo alertRepository, validate *validator.Validate, logger *zap.Logger) *AlertService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// Raise opens a new alert for the student.
func (s *AlertService) Raise(ctx context.Context, studentID string, req dto.RaiseAlertRequest) (*models.EmergencyAlert, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid alert payload")
	}

	alert := &models.EmergencyAlert{
		StudentID: studentID,
		Message:   &req.Message,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	stored, err := s.repo.Create(ctx, alert)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to raise alert")
	}

	s.logger.Warn("emergency alert raised",
		zap.String("alert_id", stored.ID),
		zap.String("student_id", studentID))
	return stored, nil
}

// ListOpen returns unacknowledged alerts, oldest first.
func (s *AlertService) ListOpen(ctx context.Context) ([]models.EmergencyAlert, error) {
	rows, err := s.repo.ListOpen(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list alerts")
	}
	return rows, nil
}

// Acknowledge closes an open alert. Acknowledging an already-handled alert
// surfaces a conflict so two staff members do not both believe they own it.
func (s *AlertService) Acknowledge(ctx context.Context, alertID string, actor *models.JWTClaims) (*models.EmergencyAlert, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	alert, err := s.repo.Acknowledge(ctx, alertID, actor.UserID, s.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "alert is not open")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acknowledge alert")
	}
	return alert, nil
}

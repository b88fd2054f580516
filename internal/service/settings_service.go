package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/HiteshShonak/hostel-ops-api/internal/dto"
	"github.com/HiteshShonak/hostel-ops-api/internal/models"
	"github.com/HiteshShonak/hostel-ops-api/pkg/config"
	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
	"github.com/HiteshShonak/hostel-ops-api/pkg/geo"
)

type settingsRepository interface {
	ListByKeys(ctx context.Context, keys []string) ([]models.Setting, error)
	Get(ctx context.Context, key string) (*models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
	BulkUpsert(ctx context.Context, settings []models.Setting) error
}

type settingsAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type allowedSetting struct {
	Key         string
	Type        models.SettingType
	Description string
	Validate    func(value string) error
}

const (
	settingGeofenceLat     = "geofence_center_lat"
	settingGeofenceLng     = "geofence_center_lng"
	settingGeofenceRadius  = "geofence_radius_m"
	settingWindowEnabled   = "attendance_window_enabled"
	settingWindowStartHour = "attendance_window_start_hour"
	settingWindowEndHour   = "attendance_window_end_hour"
	settingGraceMinutes    = "attendance_grace_minutes"
	settingTimezone        = "hostel_timezone"
	settingMaxPassDays     = "gatepass_max_days"
	settingMaxPending      = "gatepass_max_pending"
	settingHostelName      = "hostel_name"
)

var allowedSettingKeys = []string{
	settingGeofenceLat,
	settingGeofenceLng,
	settingGeofenceRadius,
	settingWindowEnabled,
	settingWindowStartHour,
	settingWindowEndHour,
	settingGraceMinutes,
	settingTimezone,
	settingMaxPassDays,
	settingMaxPending,
	settingHostelName,
}

var allowedSettings = map[string]allowedSetting{
	settingGeofenceLat: {
		Key:         settingGeofenceLat,
		Type:        models.SettingTypeNumber,
		Description: "Latitude of the hostel geofence center",
		Validate:    numberInRange(-90, 90),
	},
	settingGeofenceLng: {
		Key:         settingGeofenceLng,
		Type:        models.SettingTypeNumber,
		Description: "Longitude of the hostel geofence center",
		Validate:    numberInRange(-180, 180),
	},
	settingGeofenceRadius: {
		Key:         settingGeofenceRadius,
		Type:        models.SettingTypeNumber,
		Description: "Geofence radius in meters",
		Validate:    positiveNumber,
	},
	settingWindowEnabled: {
		Key:         settingWindowEnabled,
		Type:        models.SettingTypeBoolean,
		Description: "Whether attendance marking is restricted to the daily window",
	},
	settingWindowStartHour: {
		Key:         settingWindowStartHour,
		Type:        models.SettingTypeNumber,
		Description: "Hour (0-23, hostel time) the attendance window opens",
		Validate:    hourOfDay,
	},
	settingWindowEndHour: {
		Key:         settingWindowEndHour,
		Type:        models.SettingTypeNumber,
		Description: "Hour (0-23, hostel time) the attendance window closes",
		Validate:    hourOfDay,
	},
	settingGraceMinutes: {
		Key:         settingGraceMinutes,
		Type:        models.SettingTypeNumber,
		Description: "Minutes after close during which a late mark is still accepted",
		Validate:    nonNegativeInteger,
	},
	settingTimezone: {
		Key:         settingTimezone,
		Type:        models.SettingTypeString,
		Description: "IANA timezone the hostel schedule runs in",
		Validate:    validTimezone,
	},
	settingMaxPassDays: {
		Key:         settingMaxPassDays,
		Type:        models.SettingTypeNumber,
		Description: "Maximum gate pass duration in days",
		Validate:    positiveInteger,
	},
	settingMaxPending: {
		Key:         settingMaxPending,
		Type:        models.SettingTypeNumber,
		Description: "Maximum simultaneously pending gate passes per student",
		Validate:    positiveInteger,
	},
	settingHostelName: {
		Key:         settingHostelName,
		Type:        models.SettingTypeString,
		Description: "Hostel display name shown in reports and notices",
	},
}

// SettingsService owns runtime hostel policy. Every policy read goes through
// the store so an administrative update applies to the next evaluation
// without a restart.
type SettingsService struct {
	repo      settingsRepository
	audit     settingsAuditLogger
	validator *validator.Validate
	logger    *zap.Logger
	defaults  map[string]string
}

// NewSettingsService constructs a SettingsService seeded with config
// defaults.
func NewSettingsService(repo settingsRepository, audit settingsAuditLogger, validate *validator.Validate, logger *zap.Logger, hostel config.HostelConfig) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := map[string]string{
		settingGeofenceLat:     strconv.FormatFloat(hostel.CenterLatitude, 'f', -1, 64),
		settingGeofenceLng:     strconv.FormatFloat(hostel.CenterLongitude, 'f', -1, 64),
		settingGeofenceRadius:  strconv.FormatFloat(hostel.GeofenceRadiusM, 'f', -1, 64),
		settingWindowEnabled:   strconv.FormatBool(hostel.WindowEnabled),
		settingWindowStartHour: strconv.Itoa(hostel.WindowStartHour),
		settingWindowEndHour:   strconv.Itoa(hostel.WindowEndHour),
		settingGraceMinutes:    strconv.Itoa(hostel.GraceMinutes),
		settingTimezone:        hostel.Timezone,
		settingMaxPassDays:     strconv.Itoa(hostel.MaxGatePassDays),
		settingMaxPending:      strconv.Itoa(hostel.MaxPendingPass),
		settingHostelName:      hostel.Name,
	}
	return &SettingsService{
		repo:      repo,
		audit:     audit,
		validator: validate,
		logger:    logger,
		defaults:  defaults,
	}
}

// List returns every supported setting, falling back to seeded defaults for
// keys never written.
func (s *SettingsService) List(ctx context.Context) ([]dto.SettingItem, error) {
	rows, err := s.repo.ListByKeys(ctx, allowedKeys())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list settings")
	}
	existing := make(map[string]models.Setting, len(rows))
	for _, row := range rows {
		existing[row.Key] = row
	}

	items := make([]dto.SettingItem, 0, len(allowedSettingKeys))
	for _, key := range allowedSettingKeys {
		meta := allowedSettings[key]
		item := dto.SettingItem{
			Key:         key,
			Value:       s.defaults[key],
			Type:        string(meta.Type),
			Description: meta.Description,
		}
		if row, ok := existing[key]; ok {
			item.Value = row.Value
		}
		items = append(items, item)
	}
	return items, nil
}

// Get retrieves a single setting.
func (s *SettingsService) Get(ctx context.Context, key string) (*dto.SettingItem, error) {
	meta, err := s.requireAllowedKey(key)
	if err != nil {
		return nil, err
	}
	value, err := s.getValueOrDefault(ctx, key)
	if err != nil {
		return nil, err
	}
	return &dto.SettingItem{
		Key:         key,
		Value:       value,
		Type:        string(meta.Type),
		Description: meta.Description,
	}, nil
}

// Update validates and upserts one setting, auditing the change.
func (s *SettingsService) Update(ctx context.Context, key, value string, actor *models.JWTClaims) (*dto.SettingItem, error) {
	meta, err := s.requireAllowedKey(key)
	if err != nil {
		return nil, err
	}
	value, err = s.validateValue(meta, value)
	if err != nil {
		return nil, err
	}

	prev, err := s.getValueOrDefault(ctx, key)
	if err != nil {
		return nil, err
	}

	setting := &models.Setting{
		Key:         key,
		Value:       value,
		Type:        meta.Type,
		Description: meta.Description,
		UpdatedBy:   actorIDPtr(actor),
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update setting")
	}

	s.emitAudit(ctx, actor, key, prev, value)

	return &dto.SettingItem{
		Key:         key,
		Value:       value,
		Type:        string(meta.Type),
		Description: meta.Description,
	}, nil
}

// BulkUpdate applies several updates atomically.
func (s *SettingsService) BulkUpdate(ctx context.Context, req dto.BulkUpdateSettingsRequest, actor *models.JWTClaims) ([]dto.SettingItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	toUpsert := make([]models.Setting, 0, len(req.Items))
	for _, item := range req.Items {
		meta, err := s.requireAllowedKey(item.Key)
		if err != nil {
			return nil, err
		}
		value, err := s.validateValue(meta, item.Value)
		if err != nil {
			return nil, err
		}
		toUpsert = append(toUpsert, models.Setting{
			Key:         item.Key,
			Value:       value,
			Type:        meta.Type,
			Description: meta.Description,
			UpdatedBy:   actorIDPtr(actor),
		})
	}

	if err := s.repo.BulkUpsert(ctx, toUpsert); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bulk update settings")
	}

	result := make([]dto.SettingItem, 0, len(toUpsert))
	for _, setting := range toUpsert {
		result = append(result, dto.SettingItem{
			Key:         setting.Key,
			Value:       setting.Value,
			Type:        string(setting.Type),
			Description: setting.Description,
		})
		s.emitAudit(ctx, actor, setting.Key, "", setting.Value)
	}
	return result, nil
}

// Geofence returns the currently effective geofence.
func (s *SettingsService) Geofence(ctx context.Context) (geo.Fence, error) {
	lat, err := s.floatValue(ctx, settingGeofenceLat)
	if err != nil {
		return geo.Fence{}, err
	}
	lng, err := s.floatValue(ctx, settingGeofenceLng)
	if err != nil {
		return geo.Fence{}, err
	}
	radius, err := s.floatValue(ctx, settingGeofenceRadius)
	if err != nil {
		return geo.Fence{}, err
	}
	label, err := s.getValueOrDefault(ctx, settingHostelName)
	if err != nil {
		return geo.Fence{}, err
	}
	return geo.Fence{
		Center:  geo.Point{Latitude: lat, Longitude: lng},
		RadiusM: radius,
		Label:   label,
	}, nil
}

// AttendanceWindow returns the currently effective marking window.
func (s *SettingsService) AttendanceWindow(ctx context.Context) (models.AttendanceWindow, error) {
	enabled, err := s.boolValue(ctx, settingWindowEnabled)
	if err != nil {
		return models.AttendanceWindow{}, err
	}
	start, err := s.intValue(ctx, settingWindowStartHour)
	if err != nil {
		return models.AttendanceWindow{}, err
	}
	end, err := s.intValue(ctx, settingWindowEndHour)
	if err != nil {
		return models.AttendanceWindow{}, err
	}
	grace, err := s.intValue(ctx, settingGraceMinutes)
	if err != nil {
		return models.AttendanceWindow{}, err
	}
	tz, err := s.getValueOrDefault(ctx, settingTimezone)
	if err != nil {
		return models.AttendanceWindow{}, err
	}
	return models.AttendanceWindow{
		Enabled:      enabled,
		StartHour:    start,
		EndHour:      end,
		GraceMinutes: grace,
		Timezone:     tz,
	}, nil
}

// GatePassLimits returns the currently effective creation bounds.
func (s *SettingsService) GatePassLimits(ctx context.Context) (models.GatePassLimits, error) {
	days, err := s.intValue(ctx, settingMaxPassDays)
	if err != nil {
		return models.GatePassLimits{}, err
	}
	pending, err := s.intValue(ctx, settingMaxPending)
	if err != nil {
		return models.GatePassLimits{}, err
	}
	return models.GatePassLimits{MaxDays: days, MaxPending: pending}, nil
}

// Timezone returns the hostel's IANA timezone name.
func (s *SettingsService) Timezone(ctx context.Context) (string, error) {
	return s.getValueOrDefault(ctx, settingTimezone)
}

func (s *SettingsService) requireAllowedKey(key string) (allowedSetting, error) {
	meta, ok := allowedSettings[key]
	if !ok {
		return allowedSetting{}, appErrors.Clone(appErrors.ErrValidation, "unsupported setting key")
	}
	return meta, nil
}

func (s *SettingsService) validateValue(meta allowedSetting, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch meta.Type {
	case models.SettingTypeBoolean:
		switch strings.ToLower(value) {
		case "true":
			value = "true"
		case "false":
			value = "false"
		default:
			return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s expects a boolean value", meta.Key))
		}
	case models.SettingTypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s expects a numeric value", meta.Key))
		}
	}
	if meta.Validate != nil {
		if err := meta.Validate(value); err != nil {
			return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: %v", meta.Key, err))
		}
	}
	return value, nil
}

func (s *SettingsService) getValueOrDefault(ctx context.Context, key string) (string, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return s.defaults[key], nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get setting")
	}
	return setting.Value, nil
}

func (s *SettingsService) floatValue(ctx context.Context, key string) (float64, error) {
	raw, err := s.getValueOrDefault(ctx, key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("setting %s holds a non-numeric value", key))
	}
	return value, nil
}

func (s *SettingsService) intValue(ctx context.Context, key string) (int, error) {
	value, err := s.floatValue(ctx, key)
	if err != nil {
		return 0, err
	}
	return int(value), nil
}

func (s *SettingsService) boolValue(ctx context.Context, key string) (bool, error) {
	raw, err := s.getValueOrDefault(ctx, key)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(raw, "true"), nil
}

func (s *SettingsService) emitAudit(ctx context.Context, actor *models.JWTClaims, key, oldValue, newValue string) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{"key": key, "old": oldValue, "new": newValue})
	log := &models.AuditLog{
		UserID:     actorIDPtr(actor),
		Action:     models.AuditActionSettingsUpdate,
		Resource:   "hostel_settings",
		ResourceID: &key,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "settings-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record settings audit", zap.Error(err))
	}
}

func allowedKeys() []string {
	keys := make([]string, len(allowedSettingKeys))
	copy(keys, allowedSettingKeys)
	return keys
}

func actorIDPtr(actor *models.JWTClaims) *string {
	if actor == nil || actor.UserID == "" {
		return nil
	}
	return &actor.UserID
}

func numberInRange(min, max float64) func(string) error {
	return func(value string) error {
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if n < min || n > max {
			return fmt.Errorf("must be between %g and %g", min, max)
		}
		return nil
	}
}

func positiveNumber(value string) error {
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func positiveInteger(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func nonNegativeInteger(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func hourOfDay(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	if n < 0 || n > 23 {
		return fmt.Errorf("must be an hour between 0 and 23")
	}
	return nil
}

func validTimezone(value string) error {
	if _, err := time.LoadLocation(value); err != nil {
		return fmt.Errorf("unknown timezone")
	}
	return nil
}

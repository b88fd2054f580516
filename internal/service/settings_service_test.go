package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HiteshShonak/hostel-ops-api/internal/dto"
	"github.com/HiteshShonak/hostel-ops-api/internal/models"
	"github.com/HiteshShonak/hostel-ops-api/pkg/config"
	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
)

type settingsRepoStub struct {
	items map[string]models.Setting
}

func (s *settingsRepoStub) ListByKeys(ctx context.Context, keys []string) ([]models.Setting, error) {
	result := []models.Setting{}
	for _, key := range keys {
		if setting, ok := s.items[key]; ok {
			result = append(result, setting)
		}
	}
	return result, nil
}

func (s *settingsRepoStub) Get(ctx context.Context, key string) (*models.Setting, error) {
	if setting, ok := s.items[key]; ok {
		return &setting, nil
	}
	return nil, sql.ErrNoRows
}

func (s *settingsRepoStub) Upsert(ctx context.Context, setting *models.Setting) error {
	if s.items == nil {
		s.items = make(map[string]models.Setting)
	}
	s.items[setting.Key] = *setting
	return nil
}

func (s *settingsRepoStub) BulkUpsert(ctx context.Context, settings []models.Setting) error {
	for i := range settings {
		if err := s.Upsert(ctx, &settings[i]); err != nil {
			return err
		}
	}
	return nil
}

func defaultHostelConfig() config.HostelConfig {
	return config.HostelConfig{
		Name:            "Main Hostel",
		CenterLatitude:  28.986701,
		CenterLongitude: 77.152050,
		GeofenceRadiusM: 50,
		WindowEnabled:   true,
		WindowStartHour: 19,
		WindowEndHour:   20,
		GraceMinutes:    15,
		Timezone:        "Asia/Kolkata",
		MaxGatePassDays: 14,
		MaxPendingPass:  3,
	}
}

func newSettingsService(repo *settingsRepoStub) (*SettingsService, *gatePassAuditStub) {
	audit := &gatePassAuditStub{}
	return NewSettingsService(repo, audit, validator.New(), nil, defaultHostelConfig()), audit
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "adm-1", Role: models.RoleAdmin}
}

func bulkUpdate(pairs ...string) dto.BulkUpdateSettingsRequest {
	req := dto.BulkUpdateSettingsRequest{}
	for i := 0; i+1 < len(pairs); i += 2 {
		req.Items = append(req.Items, dto.BulkSettingItem{Key: pairs[i], Value: pairs[i+1]})
	}
	return req
}

func TestSettingsDefaultsWhenUnset(t *testing.T) {
	svc, _ := newSettingsService(&settingsRepoStub{})

	fence, err := svc.Geofence(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 28.986701, fence.Center.Latitude, 1e-9)
	assert.Equal(t, 50.0, fence.RadiusM)

	window, err := svc.AttendanceWindow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 19, window.StartHour)
	assert.Equal(t, "Asia/Kolkata", window.Timezone)

	limits, err := svc.GatePassLimits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 14, limits.MaxDays)
	assert.Equal(t, 3, limits.MaxPending)
}

func TestSettingsUpdateAppliesToNextRead(t *testing.T) {
	repo := &settingsRepoStub{}
	svc, audit := newSettingsService(repo)
	ctx := context.Background()

	_, err := svc.Update(ctx, "geofence_radius_m", "120", adminClaims())
	require.NoError(t, err)

	fence, err := svc.Geofence(ctx)
	require.NoError(t, err)
	assert.Equal(t, 120.0, fence.RadiusM)
	assert.NotEmpty(t, audit.logs)
}

func TestSettingsRejectsUnknownKey(t *testing.T) {
	svc, _ := newSettingsService(&settingsRepoStub{})
	_, err := svc.Update(context.Background(), "mystery_key", "1", adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSettingsValidatesValues(t *testing.T) {
	svc, _ := newSettingsService(&settingsRepoStub{})
	ctx := context.Background()

	cases := []struct{ key, value string }{
		{"geofence_radius_m", "-5"},
		{"geofence_center_lat", "95"},
		{"attendance_window_start_hour", "24"},
		{"attendance_grace_minutes", "-1"},
		{"attendance_window_enabled", "maybe"},
		{"hostel_timezone", "Not/AZone"},
		{"gatepass_max_pending", "0"},
	}
	for _, tc := range cases {
		_, err := svc.Update(ctx, tc.key, tc.value, adminClaims())
		require.Errorf(t, err, "expected rejection for %s=%s", tc.key, tc.value)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestSettingsBulkUpdate(t *testing.T) {
	repo := &settingsRepoStub{}
	svc, _ := newSettingsService(repo)
	ctx := context.Background()

	items, err := svc.BulkUpdate(ctx, bulkUpdate(
		"attendance_window_start_hour", "21",
		"attendance_window_end_hour", "6",
	), adminClaims())
	require.NoError(t, err)
	assert.Len(t, items, 2)

	window, err := svc.AttendanceWindow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 21, window.StartHour)
	assert.Equal(t, 6, window.EndHour)
}

func TestSettingsListMergesStoredAndDefaults(t *testing.T) {
	repo := &settingsRepoStub{}
	svc, _ := newSettingsService(repo)
	ctx := context.Background()

	_, err := svc.Update(ctx, "hostel_name", "North Block", adminClaims())
	require.NoError(t, err)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	values := make(map[string]string, len(items))
	for _, item := range items {
		values[item.Key] = item.Value
	}
	assert.Equal(t, "North Block", values["hostel_name"])
	assert.Equal(t, "14", values["gatepass_max_days"])
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/HiteshShonak/hostel-ops-api/internal/models"
)

// AlertRepository handles persistence for emergency alerts.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository constructs the repository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `id, student_id, message, latitude, longitude, status, acknowledged_by, acknowledged_at, created_at`

// Create inserts a new open alert.
func (r *AlertRepository) Create(ctx context.Context, alert *models.EmergencyAlert) (*models.EmergencyAlert, error) {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	alert.Status = models.AlertOpen
	alert.CreatedAt = time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO emergency_alerts (id, student_id, message, latitude, longitude, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING %s`, alertColumns)
	var stored models.EmergencyAlert
	if err := r.db.GetContext(ctx, &stored, query,
		alert.ID, alert.StudentID, alert.Message, alert.Latitude, alert.Longitude, alert.Status, alert.CreatedAt); err != nil {
		return nil, fmt.Errorf("create emergency alert: %w", err)
	}
	return &stored, nil
}

// ListOpen returns unacknowledged alerts, oldest first.
func (r *AlertRepository) ListOpen(ctx context.Context) ([]models.EmergencyAlert, error) {
	query := fmt.Sprintf(`SELECT %s FROM emergency_alerts WHERE status = 'OPEN' ORDER BY created_at ASC`, alertColumns)
	var rows []models.EmergencyAlert
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list open alerts: %w", err)
	}
	return rows, nil
}

// Acknowledge closes an open alert. A lost race (already acknowledged)
// returns sql.ErrNoRows via the conditional update.
func (r *AlertRepository) Acknowledge(ctx context.Context, id, byUserID string, at time.Time) (*models.EmergencyAlert, error) {
	query := fmt.Sprintf(`UPDATE emergency_alerts
SET status = 'ACKNOWLEDGED', acknowledged_by = $1, acknowledged_at = $2
WHERE id = $3 AND status = 'OPEN' RETURNING %s`, alertColumns)
	var stored models.EmergencyAlert
	if err := r.db.GetContext(ctx, &stored, query, byUserID, at, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("acknowledge alert: %w", err)
	}
	return &stored, nil
}

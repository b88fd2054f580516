package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/HiteshShonak/hostel-ops-api/internal/models"
)

// NoticeRepository handles persistence for notice board entries.
type NoticeRepository struct {
	db *sqlx.DB
}

// NewNoticeRepository constructs the repository.
func NewNoticeRepository(db *sqlx.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

const noticeColumns = `id, title, body, audience, posted_by, pinned, created_at, updated_at`

// List returns notices matching the filter, pinned first then newest.
func (r *NoticeRepository) List(ctx context.Context, filter models.NoticeFilter) ([]models.Notice, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Audience != nil && filter.Audience.Valid() {
		where = append(where, fmt.Sprintf("(audience = $%d OR audience = 'ALL')", len(args)+1))
		args = append(args, *filter.Audience)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM notices WHERE %s
ORDER BY pinned DESC, created_at DESC LIMIT %d OFFSET %d`, noticeColumns, whereClause, size, offset)
	var rows []models.Notice
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list notices: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM notices WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count notices: %w", err)
	}
	return rows, total, nil
}

// FindByID loads a single notice.
func (r *NoticeRepository) FindByID(ctx context.Context, id string) (*models.Notice, error) {
	query := fmt.Sprintf(`SELECT %s FROM notices WHERE id = $1`, noticeColumns)
	var notice models.Notice
	if err := r.db.GetContext(ctx, &notice, query, id); err != nil {
		return nil, err
	}
	return &notice, nil
}

// Create inserts a notice.
func (r *NoticeRepository) Create(ctx context.Context, notice *models.Notice) (*models.Notice, error) {
	now := time.Now().UTC()
	if notice.ID == "" {
		notice.ID = uuid.NewString()
	}
	notice.CreatedAt = now
	notice.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO notices (id, title, body, audience, posted_by, pinned, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING %s`, noticeColumns)
	var stored models.Notice
	if err := r.db.GetContext(ctx, &stored, query,
		notice.ID, notice.Title, notice.Body, notice.Audience, notice.PostedBy, notice.Pinned, notice.CreatedAt, notice.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create notice: %w", err)
	}
	return &stored, nil
}

// Update rewrites the mutable fields of a notice.
func (r *NoticeRepository) Update(ctx context.Context, notice *models.Notice) (*models.Notice, error) {
	notice.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`UPDATE notices SET title = $1, body = $2, audience = $3, pinned = $4, updated_at = $5
WHERE id = $6 RETURNING %s`, noticeColumns)
	var stored models.Notice
	if err := r.db.GetContext(ctx, &stored, query,
		notice.Title, notice.Body, notice.Audience, notice.Pinned, notice.UpdatedAt, notice.ID); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Delete removes a notice.
func (r *NoticeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete notice rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("notice %s not found", id)
	}
	return nil
}

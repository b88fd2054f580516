package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/HiteshShonak/hostel-ops-api/internal/dto"
	"github.com/HiteshShonak/hostel-ops-api/internal/models"
	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
)

type noticeRepository interface {
	List(ctx context.Context, filter models.NoticeFilter) ([]models.Notice, int, error)
	FindByID(ctx context.Context, id string) (*models.Notice, error)
	Create(ctx context.Context, notice *models.Notice) (*models.Notice, error)
	Update(ctx context.Context, notice *models.Notice) (*models.Notice, error)
	Delete(ctx context.Context, id string) error
}

type noticeCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cachedNoticeList struct {
	Items []models.Notice `json:"items"`
	Total int             `json:"total"`
}

// NoticeService manages the hostel notice board. Listings are cached per
// audience/page; any write blows the whole notice cache.
type NoticeService struct {
	repo      noticeRepository
	cache     noticeCache
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewNoticeService constructs a NoticeService.
func NewNoticeService(repo noticeRepository, cache noticeCache, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *NoticeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &NoticeService{repo: repo, cache: cache, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// List returns notices for the filter, serving from cache when possible.
func (s *NoticeService) List(ctx context.Context, filter models.NoticeFilter) ([]models.Notice, *models.Pagination, error) {
	key := noticeCacheKey(filter)
	if s.cache != nil {
		var cached cachedNoticeList
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached.Items, noticePagination(filter, cached.Total), nil
		} else if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("notice cache read failed", zap.Error(err))
		}
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cachedNoticeList{Items: rows, Total: total}, s.cacheTTL); err != nil {
			s.logger.Warn("notice cache write failed", zap.Error(err))
		}
	}
	return rows, noticePagination(filter, total), nil
}

// Get loads one notice.
func (s *NoticeService) Get(ctx context.Context, id string) (*models.Notice, error) {
	notice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice")
	}
	return notice, nil
}

// Create publishes a notice and invalidates the listing cache.
func (s *NoticeService) Create(ctx context.Context, req dto.CreateNoticeRequest, actor *models.JWTClaims) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	notice := &models.Notice{
		Title:    req.Title,
		Body:     req.Body,
		Audience: models.NoticeAudience(req.Audience),
		PostedBy: actor.UserID,
		Pinned:   req.Pinned,
	}
	stored, err := s.repo.Create(ctx, notice)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notice")
	}

	s.invalidate(ctx)
	return stored, nil
}

// Update edits a notice and invalidates the listing cache.
func (s *NoticeService) Update(ctx context.Context, id string, req dto.UpdateNoticeRequest) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}
	notice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		notice.Title = *req.Title
	}
	if req.Body != nil {
		notice.Body = *req.Body
	}
	if req.Audience != nil {
		notice.Audience = models.NoticeAudience(*req.Audience)
	}
	if req.Pinned != nil {
		notice.Pinned = *req.Pinned
	}

	stored, err := s.repo.Update(ctx, notice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notice")
	}

	s.invalidate(ctx)
	return stored, nil
}

// Delete removes a notice and invalidates the listing cache.
func (s *NoticeService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notice")
	}
	s.invalidate(ctx)
	return nil
}

func (s *NoticeService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "notices:*"); err != nil {
		s.logger.Warn("notice cache invalidation failed", zap.Error(err))
	}
}

func noticeCacheKey(filter models.NoticeFilter) string {
	audience := "ALL"
	if filter.Audience != nil {
		audience = string(*filter.Audience)
	}
	return fmt.Sprintf("notices:%s:%d:%d", audience, filter.Page, filter.PageSize)
}

func noticePagination(filter models.NoticeFilter, total int) *models.Pagination {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

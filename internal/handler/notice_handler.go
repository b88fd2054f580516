package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HiteshShonak/hostel-ops-api/internal/dto"
	"github.com/HiteshShonak/hostel-ops-api/internal/middleware"
	"github.com/HiteshShonak/hostel-ops-api/internal/models"
	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
	"github.com/HiteshShonak/hostel-ops-api/pkg/response"
)

type noticeService interface {
	List(ctx context.Context, filter models.NoticeFilter) ([]models.Notice, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Notice, error)
	Create(ctx context.Context, req dto.CreateNoticeRequest, actor *models.JWTClaims) (*models.Notice, error)
	Update(ctx context.Context, id string, req dto.UpdateNoticeRequest) (*models.Notice, error)
	Delete(ctx context.Context, id string) error
}

// NoticeHandler exposes the hostel notice board.
type NoticeHandler struct {
	service noticeService
}

func NewNoticeHandler(service noticeService) *NoticeHandler {
	return &NoticeHandler{service: service}
}

// List godoc
// @Summary List notices
// @Tags Notices
// @Produce json
// @Security BearerAuth
// @Param audience query string false "Filter by audience"
// @Success 200 {object} response.Envelope
// @Router /notices [get]
func (h *NoticeHandler) List(c *gin.Context) {
	filter := models.NoticeFilter{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 20),
	}
	if raw := c.Query("audience"); raw != "" {
		audience := models.NoticeAudience(raw)
		if !audience.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown notice audience"))
			return
		}
		filter.Audience = &audience
	}
	notices, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notices, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Load one notice
// @Tags Notices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Success 200 {object} response.Envelope
// @Router /notices/{id} [get]
func (h *NoticeHandler) Get(c *gin.Context) {
	notice, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notice, nil)
}

// Create godoc
// @Summary Publish a notice
// @Tags Notices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateNoticeRequest true "Notice"
// @Success 201 {object} response.Envelope
// @Router /notices [post]
func (h *NoticeHandler) Create(c *gin.Context) {
	var req dto.CreateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notice payload"))
		return
	}
	notice, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notice)
}

// Update godoc
// @Summary Edit a notice
// @Tags Notices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Param payload body dto.UpdateNoticeRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /notices/{id} [put]
func (h *NoticeHandler) Update(c *gin.Context) {
	var req dto.UpdateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notice payload"))
		return
	}
	notice, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notice, nil)
}

// Delete godoc
// @Summary Remove a notice
// @Tags Notices
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Success 204
// @Router /notices/{id} [delete]
func (h *NoticeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

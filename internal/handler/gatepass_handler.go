package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HiteshShonak/hostel-ops-api/internal/dto"
	"github.com/HiteshShonak/hostel-ops-api/internal/models"
	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
	"github.com/HiteshShonak/hostel-ops-api/pkg/response"
)

type gatePassService interface {
	Create(ctx context.Context, studentID string, req dto.CreateGatePassRequest) (*dto.GatePassView, error)
	Get(ctx context.Context, passID string, actor *models.JWTClaims) (*dto.GatePassView, error)
	List(ctx context.Context, actor *models.JWTClaims, filter models.GatePassFilter) ([]dto.GatePassView, *models.Pagination, error)
	ParentDecide(ctx context.Context, passID string, actor *models.JWTClaims, req dto.DecisionRequest) (*dto.GatePassView, error)
	WardenDecide(ctx context.Context, passID string, actor *models.JWTClaims, req dto.DecisionRequest) (*dto.GatePassView, error)
	RecordExit(ctx context.Context, passID string, actor *models.JWTClaims) (*dto.GatePassView, error)
	RecordEntry(ctx context.Context, passID string, actor *models.JWTClaims) (*dto.GatePassView, error)
	CurrentlyOut(ctx context.Context) ([]dto.CurrentlyOutRow, error)
	LateReturns(ctx context.Context, from, to *time.Time) ([]models.LateReturnRow, error)
}

// GatePassHandler exposes gate pass endpoints.
type GatePassHandler struct {
	service gatePassService
}

// NewGatePassHandler builds a new handler.
func NewGatePassHandler(service gatePassService) *GatePassHandler {
	return &GatePassHandler{service: service}
}

// Create godoc
// @Summary Request a new gate pass
// @Tags GatePass
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateGatePassRequest true "Pass request"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /gatepasses [post]
func (h *GatePassHandler) Create(c *gin.Context) {
	var req dto.CreateGatePassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid gate pass payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	pass, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pass)
}

// Get godoc
// @Summary Load one gate pass
// @Tags GatePass
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pass ID"
// @Success 200 {object} response.Envelope
// @Router /gatepasses/{id} [get]
func (h *GatePassHandler) Get(c *gin.Context) {
	pass, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pass, nil)
}

// List godoc
// @Summary List gate passes visible to the caller
// @Tags GatePass
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /gatepasses [get]
func (h *GatePassHandler) List(c *gin.Context) {
	filter := models.GatePassFilter{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 50),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.GatePassStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown gate pass status"))
			return
		}
		filter.Status = &status
	}
	rows, pagination, err := h.service.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// ParentDecide godoc
// @Summary Record the parent's decision on a pass
// @Tags GatePass
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pass ID"
// @Param payload body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /gatepasses/{id}/parent-decision [post]
func (h *GatePassHandler) ParentDecide(c *gin.Context) {
	h.decide(c, h.service.ParentDecide)
}

// WardenDecide godoc
// @Summary Record the warden's decision on a pass
// @Tags GatePass
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pass ID"
// @Param payload body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /gatepasses/{id}/warden-decision [post]
func (h *GatePassHandler) WardenDecide(c *gin.Context) {
	h.decide(c, h.service.WardenDecide)
}

func (h *GatePassHandler) decide(c *gin.Context, apply func(context.Context, string, *models.JWTClaims, dto.DecisionRequest) (*dto.GatePassView, error)) {
	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	pass, err := apply(c.Request.Context(), c.Param("id"), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pass, nil)
}

// RecordExit godoc
// @Summary Record a guard-observed exit
// @Tags GatePass
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pass ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /gatepasses/{id}/exit [post]
func (h *GatePassHandler) RecordExit(c *gin.Context) {
	pass, err := h.service.RecordExit(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pass, nil)
}

// RecordEntry godoc
// @Summary Record a guard-observed return
// @Tags GatePass
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pass ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /gatepasses/{id}/entry [post]
func (h *GatePassHandler) RecordEntry(c *gin.Context) {
	pass, err := h.service.RecordEntry(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pass, nil)
}

// CurrentlyOut godoc
// @Summary List students currently outside the hostel
// @Tags GatePass
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /gatepasses/currently-out [get]
func (h *GatePassHandler) CurrentlyOut(c *gin.Context) {
	rows, err := h.service.CurrentlyOut(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// LateReturns godoc
// @Summary List late returns
// @Tags GatePass
// @Produce json
// @Security BearerAuth
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /gatepasses/late-returns [get]
func (h *GatePassHandler) LateReturns(c *gin.Context) {
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
	rows, err := h.service.LateReturns(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

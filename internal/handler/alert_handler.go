package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HiteshShonak/hostel-ops-api/internal/dto"
	"github.com/HiteshShonak/hostel-ops-api/internal/models"
	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
	"github.com/HiteshShonak/hostel-ops-api/pkg/response"
)

type alertService interface {
	Raise(ctx context.Context, studentID string, req dto.RaiseAlertRequest) (*models.EmergencyAlert, error)
	ListOpen(ctx context.Context) ([]models.EmergencyAlert, error)
	Acknowledge(ctx context.Context, alertID string, actor *models.JWTClaims) (*models.EmergencyAlert, error)
}

// AlertHandler exposes emergency alert endpoints.
type AlertHandler struct {
	service alertService
}

func NewAlertHandler(service alertService) *AlertHandler {
	return &AlertHandler{service: service}
}

// Raise godoc
// @Summary Raise an emergency alert
// @Tags Alerts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.RaiseAlertRequest true "Alert"
// @Success 201 {object} response.Envelope
// @Router /alerts [post]
func (h *AlertHandler) Raise(c *gin.Context) {
	var req dto.RaiseAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid alert payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	alert, err := h.service.Raise(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, alert)
}

// ListOpen godoc
// @Summary List unresolved alerts
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /alerts/open [get]
func (h *AlertHandler) ListOpen(c *gin.Context) {
	alerts, err := h.service.ListOpen(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alerts, nil)
}

// Acknowledge godoc
// @Summary Acknowledge an open alert
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /alerts/{id}/acknowledge [post]
func (h *AlertHandler) Acknowledge(c *gin.Context) {
	alert, err := h.service.Acknowledge(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert, nil)
}

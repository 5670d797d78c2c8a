package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/tutorhub-api/internal/middleware"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/service"
	appErrors "github.com/tutorhub/tutorhub-api/pkg/errors"
	"github.com/tutorhub/tutorhub-api/pkg/response"
)

// PayoutHandler exposes tutor payout setting administration.
type PayoutHandler struct {
	payouts *service.PayoutService
	metrics *service.MetricsService
}

// NewPayoutHandler constructs PayoutHandler.
func NewPayoutHandler(payouts *service.PayoutService, metrics *service.MetricsService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts, metrics: metrics}
}

// List godoc
// @Summary List tutor payout settings
// @Tags Payouts
// @Produce json
// @Param tutor query string false "Filter by tutor ID"
// @Param method query string false "Filter by payout method"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/payout-settings [get]
func (h *PayoutHandler) List(c *gin.Context) {
	var filter models.PayoutSettingFilter
	filter.TutorID = c.Query("tutor")
	filter.Method = models.PayoutMethod(c.Query("method"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	settings, pagination, err := h.payouts.ListPayoutSettings(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, pagination)
}

// Update godoc
// @Summary Update a tutor payout setting
// @Tags Payouts
// @Accept json
// @Produce json
// @Param id path string true "Payout setting ID"
// @Param payload body service.PayoutUpdateRequest true "Field changes"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/payout-settings/{id} [put]
func (h *PayoutHandler) Update(c *gin.Context) {
	var req service.PayoutUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	setting, err := h.payouts.UpdatePayoutSetting(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req)
	h.metrics.RecordAdminAction("payout_update", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, setting, nil)
}

// Delete godoc
// @Summary Remove a tutor payout setting
// @Tags Payouts
// @Produce json
// @Param id path string true "Payout setting ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/payout-settings/{id} [delete]
func (h *PayoutHandler) Delete(c *gin.Context) {
	err := h.payouts.DeletePayoutSetting(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	h.metrics.RecordAdminAction("payout_delete", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

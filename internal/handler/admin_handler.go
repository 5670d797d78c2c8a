package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/tutorhub-api/internal/middleware"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/service"
	appErrors "github.com/tutorhub/tutorhub-api/pkg/errors"
	"github.com/tutorhub/tutorhub-api/pkg/response"
)

// AdminHandler exposes user moderation endpoints for the admin panel.
type AdminHandler struct {
	users   *service.UserService
	metrics *service.MetricsService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(users *service.UserService, metrics *service.MetricsService) *AdminHandler {
	return &AdminHandler{users: users, metrics: metrics}
}

// ListStudents godoc
// @Summary List student accounts with derived lifecycle state
// @Tags Admin
// @Produce json
// @Param search query string false "Search by name or email"
// @Param approved query bool false "Filter by approval"
// @Param blocked query bool false "Filter by block flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/students [get]
func (h *AdminHandler) ListStudents(c *gin.Context) {
	students, pagination, err := h.users.ListStudents(c.Request.Context(), userFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// ListTeachers godoc
// @Summary List tutor accounts
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/teachers [get]
func (h *AdminHandler) ListTeachers(c *gin.Context) {
	teachers, pagination, err := h.users.ListTeachers(c.Request.Context(), userFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, pagination)
}

// ApproveUser godoc
// @Summary Approve a pending account
// @Tags Admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/approve-user/{id} [put]
func (h *AdminHandler) ApproveUser(c *gin.Context) {
	user, err := h.users.ApproveUser(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	h.metrics.RecordAdminAction("approve", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

type blockRequest struct {
	Blocked *bool `json:"isBlocked" binding:"required"`
}

// BlockUser godoc
// @Summary Block or unblock an account
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body blockRequest true "Block flag"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/block-user/{id} [put]
func (h *AdminHandler) BlockUser(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	user, err := h.users.SetBlocked(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), *req.Blocked)
	h.metrics.RecordAdminAction("block", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// DeleteUser godoc
// @Summary Permanently delete an account
// @Tags Admin
// @Produce json
// @Param id path string true "User ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/delete-user/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	err := h.users.DeleteUser(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	h.metrics.RecordAdminAction("delete", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClearStudents godoc
// @Summary Delete every student account
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/students/clear [delete]
func (h *AdminHandler) ClearStudents(c *gin.Context) {
	count, err := h.users.ClearStudents(c.Request.Context(), middleware.CurrentUserID(c))
	h.metrics.RecordAdminAction("clear_students", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": count}, nil)
}

func userFilterFromQuery(c *gin.Context) models.UserFilter {
	var filter models.UserFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if approved := c.Query("approved"); approved != "" {
		v := approved == "true"
		filter.Approved = &v
	}
	if blocked := c.Query("blocked"); blocked != "" {
		v := blocked == "true"
		filter.Blocked = &v
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")
	return filter
}

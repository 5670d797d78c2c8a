package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/tutorhub/tutorhub-api/pkg/errors"
	"github.com/tutorhub/tutorhub-api/internal/middleware"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/service"
	"github.com/tutorhub/tutorhub-api/pkg/response"
)

// SessionHandler exposes tutoring session management endpoints.
type SessionHandler struct {
	sessions *service.SessionService
	metrics  *service.MetricsService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(sessions *service.SessionService, metrics *service.MetricsService) *SessionHandler {
	return &SessionHandler{sessions: sessions, metrics: metrics}
}

// List godoc
// @Summary List tutoring sessions
// @Tags Sessions
// @Produce json
// @Param status query string false "Filter by session status"
// @Param studentId query string false "Filter by student"
// @Param courseId query string false "Filter by course"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	var filter models.SessionFilter
	filter.Status = models.SessionStatus(c.Query("status"))
	filter.StudentID = c.Query("studentId")
	filter.CourseID = c.Query("courseId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	sessions, pagination, err := h.sessions.ListSessions(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// Create godoc
// @Summary Schedule a tutoring session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body service.SessionCreateRequest true "Session details"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req service.SessionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	session, err := h.sessions.ScheduleSession(c.Request.Context(), middleware.CurrentUserID(c), req)
	h.metrics.RecordAdminAction("session_create", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Update godoc
// @Summary Update a tutoring session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body service.SessionUpdateRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/sessions/{id} [put]
func (h *SessionHandler) Update(c *gin.Context) {
	var req service.SessionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	session, err := h.sessions.UpdateSession(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req)
	h.metrics.RecordAdminAction("session_update", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Delete godoc
// @Summary Delete a tutoring session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	err := h.sessions.DeleteSession(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	h.metrics.RecordAdminAction("session_delete", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClearAll godoc
// @Summary Delete all tutoring sessions
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/sessions [delete]
func (h *SessionHandler) ClearAll(c *gin.Context) {
	deleted, err := h.sessions.ClearSessions(c.Request.Context(), middleware.CurrentUserID(c))
	h.metrics.RecordAdminAction("session_clear", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}

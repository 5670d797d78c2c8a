package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/tutorhub-api/internal/middleware"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/service"
	"github.com/tutorhub/tutorhub-api/pkg/response"
)

// EnrollmentHandler exposes enrollment moderation endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	metrics     *service.MetricsService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, metrics *service.MetricsService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, metrics: metrics}
}

// List godoc
// @Summary List enrollment requests
// @Tags Enrollments
// @Produce json
// @Param status query string false "Filter by enrollment status"
// @Param studentId query string false "Filter by student"
// @Param courseId query string false "Filter by course"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var filter models.EnrollmentFilter
	filter.Status = models.EnrollmentStatus(c.Query("status"))
	filter.StudentID = c.Query("studentId")
	filter.CourseID = c.Query("courseId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	enrollments, pagination, err := h.enrollments.ListEnrollments(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Approve godoc
// @Summary Approve a pending enrollment request
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/enrollments/{id}/approve [put]
func (h *EnrollmentHandler) Approve(c *gin.Context) {
	h.resolve(c, models.EnrollmentStatusActive)
}

// Reject godoc
// @Summary Reject a pending enrollment request
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/enrollments/{id}/reject [put]
func (h *EnrollmentHandler) Reject(c *gin.Context) {
	h.resolve(c, models.EnrollmentStatusRejected)
}

func (h *EnrollmentHandler) resolve(c *gin.Context, status models.EnrollmentStatus) {
	enrollment, err := h.enrollments.ResolveEnrollment(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), status)
	h.metrics.RecordAdminAction("enrollment_resolve", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

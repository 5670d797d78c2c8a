package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/tutorhub-api/internal/middleware"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/service"
	"github.com/tutorhub/tutorhub-api/pkg/response"
)

// CourseHandler exposes course moderation endpoints.
type CourseHandler struct {
	courses *service.CourseService
	metrics *service.MetricsService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService, metrics *service.MetricsService) *CourseHandler {
	return &CourseHandler{courses: courses, metrics: metrics}
}

// List godoc
// @Summary List courses for moderation
// @Tags Courses
// @Produce json
// @Param subject query string false "Filter by subject"
// @Param approval query string false "Filter by approval state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	var filter models.CourseFilter
	filter.Subject = strings.TrimSpace(c.Query("subject"))
	filter.Approval = models.CourseApproval(c.Query("approval"))
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	courses, pagination, err := h.courses.ListCourses(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Approve godoc
// @Summary Approve a pending course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/courses/{id}/approve [put]
func (h *CourseHandler) Approve(c *gin.Context) {
	h.review(c, models.CourseApprovalApproved)
}

// Reject godoc
// @Summary Reject a pending course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/courses/{id}/reject [put]
func (h *CourseHandler) Reject(c *gin.Context) {
	h.review(c, models.CourseApprovalRejected)
}

// Delete godoc
// @Summary Delete a course listing
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	err := h.courses.DeleteCourse(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	h.metrics.RecordAdminAction("course_delete", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *CourseHandler) review(c *gin.Context, status models.CourseApproval) {
	course, err := h.courses.ReviewCourse(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), status)
	h.metrics.RecordAdminAction("course_review", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

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

// PaymentHandler exposes payment review endpoints.
type PaymentHandler struct {
	payments *service.PaymentService
	uploads  *service.UploadService
	metrics  *service.MetricsService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService, uploads *service.UploadService, metrics *service.MetricsService) *PaymentHandler {
	return &PaymentHandler{payments: payments, uploads: uploads, metrics: metrics}
}

// List godoc
// @Summary List payments awaiting review
// @Tags Payments
// @Produce json
// @Param status query string false "Filter by payment status"
// @Param studentId query string false "Filter by student"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	var filter models.PaymentFilter
	filter.Status = models.PaymentStatus(c.Query("status"))
	filter.StudentID = c.Query("studentId")
	filter.CourseID = c.Query("courseId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	payments, pagination, err := h.payments.ListPayments(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, pagination)
}

// Get godoc
// @Summary Get a payment by ID
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.payments.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Review godoc
// @Summary Approve or reject a pending payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param request body service.PaymentReviewRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /payments/{id}/status [put]
func (h *PaymentHandler) Review(c *gin.Context) {
	var req service.PaymentReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	payment, err := h.payments.ReviewPayment(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req)
	h.metrics.RecordAdminAction("payment_review", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// UploadScreenshot godoc
// @Summary Attach a proof-of-payment screenshot
// @Tags Payments
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Payment ID"
// @Param file formData file true "Screenshot file"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/payments/{id}/screenshot [post]
func (h *PaymentHandler) UploadScreenshot(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file field is required"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	payment, err := h.uploads.StoreScreenshot(c.Request.Context(), c.Param("id"),
		header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	h.metrics.RecordAdminAction("payment_screenshot_upload", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// ScreenshotURL godoc
// @Summary Get a signed token for a payment screenshot
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/payments/{id}/screenshot [get]
func (h *PaymentHandler) ScreenshotURL(c *gin.Context) {
	token, err := h.uploads.ScreenshotURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, token, nil)
}

// ViewScreenshot godoc
// @Summary Stream a payment screenshot by signed token
// @Tags Payments
// @Produce application/octet-stream
// @Param token path string true "Signed screenshot token"
// @Success 200 {file} binary
// @Router /admin/screenshots/{token} [get]
func (h *PaymentHandler) ViewScreenshot(c *gin.Context) {
	file, name, err := h.uploads.OpenScreenshot(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.FileAttachment(file.Name(), name)
}

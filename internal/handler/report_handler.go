package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	appErrors "github.com/tutorhub/tutorhub-api/pkg/errors"
	"github.com/tutorhub/tutorhub-api/internal/middleware"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/service"
	"github.com/tutorhub/tutorhub-api/pkg/response"
)

// ReportHandler exposes payment report generation endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Export godoc
// @Summary Download a payment report synchronously
// @Tags Reports
// @Produce application/octet-stream
// @Param format query string true "csv or pdf"
// @Param status query string false "Filter by payment status"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /admin/reports/payments [get]
func (h *ReportHandler) Export(c *gin.Context) {
	req := models.ReportRequest{
		Format: models.ReportFormat(c.DefaultQuery("format", "csv")),
		Status: models.PaymentStatus(c.Query("status")),
	}

	payload, filename, err := h.reports.Export(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	contentType := "text/csv"
	if req.Format == models.ReportFormatPDF {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

// Enqueue godoc
// @Summary Request an asynchronous payment report
// @Tags Reports
// @Accept json
// @Produce json
// @Param request body models.ReportRequest true "Report parameters"
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/reports/payments [post]
func (h *ReportHandler) Enqueue(c *gin.Context) {
	var req models.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	job, err := h.reports.Enqueue(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Job godoc
// @Summary Get report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/reports/payments/{id} [get]
func (h *ReportHandler) Job(c *gin.Context) {
	job, err := h.reports.Job(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a generated report
// @Tags Reports
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /admin/reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	file, name, err := h.reports.OpenDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.FileAttachment(file.Name(), filepath.Base(name))
}

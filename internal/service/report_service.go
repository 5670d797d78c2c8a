package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-api/internal/models"
	appErrors "github.com/tutorhub/tutorhub-api/pkg/errors"
	"github.com/tutorhub/tutorhub-api/pkg/export"
	"github.com/tutorhub/tutorhub-api/pkg/jobs"
	"github.com/tutorhub/tutorhub-api/pkg/storage"
)

// reportFetchSize bounds each page pulled while building a report dataset.
const reportFetchSize = 500

type reportPaymentSource interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error)
}

type reportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportConfig tunes report generation.
type ReportConfig struct {
	APIPrefix  string
	ResultTTL  time.Duration
	Workers    int
	BufferSize int
}

// ReportService renders payment review exports in the background and hands
// out signed download links.
type ReportService struct {
	payments  reportPaymentSource
	storage   reportFileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportConfig

	queue *jobs.Queue

	mu      sync.RWMutex
	tracked map[string]*models.ReportJob
}

// NewReportService constructs a ReportService with its own worker queue.
func NewReportService(payments reportPaymentSource, fileStore reportFileStorage, signer *storage.SignedURLSigner, cfg ReportConfig, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	s := &ReportService{
		payments:  payments,
		storage:   fileStore,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		tracked:   map[string]*models.ReportJob{},
	}
	s.queue = jobs.NewQueue("payment-reports", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the background workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Enqueue registers a report job and schedules it for rendering.
func (s *ReportService) Enqueue(ctx context.Context, actorID string, req models.ReportRequest) (*models.ReportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}

	job := &models.ReportJob{
		ID:          uuid.NewString(),
		Status:      models.ReportJobPending,
		Format:      req.Format,
		RequestedBy: actorID,
		Request:     req,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.tracked[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "payment_report", Payload: job.ID}); err != nil {
		s.setFailed(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule report job")
	}
	return s.Job(job.ID)
}

// Job returns a snapshot of a tracked report job.
func (s *ReportService) Job(id string) (*models.ReportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.tracked[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	snapshot := *job
	return &snapshot, nil
}

// OpenDownload validates a signed token and opens the exported file.
func (s *ReportService) OpenDownload(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	return file, relPath, nil
}

// Cleanup removes exports older than the configured TTL.
func (s *ReportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

// Export renders a report inline, bypassing the job queue. Used by the
// synchronous download endpoint for small queues.
func (s *ReportService) Export(ctx context.Context, req models.ReportRequest) ([]byte, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}

	dataset, title, err := s.buildDataset(ctx, req)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to collect report data")
	}

	var payload []byte
	switch req.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", req.Format))
	}
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	filename := fmt.Sprintf("payments_%s.%s", time.Now().UTC().Format("20060102_150405"), req.Format)
	return payload, filename, nil
}

func (s *ReportService) process(ctx context.Context, queued jobs.Job) error {
	jobID, ok := queued.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", queued.Payload)
	}

	s.mu.Lock()
	job, found := s.tracked[jobID]
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("report job %s not tracked", jobID)
	}
	job.Status = models.ReportJobRunning
	req := job.Request
	s.mu.Unlock()

	dataset, title, err := s.buildDataset(ctx, req)
	if err != nil {
		s.setFailed(jobID, err)
		return err
	}

	var payload []byte
	switch req.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", req.Format)
	}
	if err != nil {
		s.setFailed(jobID, err)
		return err
	}

	filename := fmt.Sprintf("payments_%s.%s", time.Now().UTC().Format("20060102_150405"), req.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.setFailed(jobID, err)
		return err
	}

	token, expiresAt, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		s.setFailed(jobID, err)
		return err
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	now := time.Now().UTC()
	s.mu.Lock()
	job.Status = models.ReportJobCompleted
	job.DownloadURL = fmt.Sprintf("%s/admin/reports/download/%s", prefix, token)
	job.ExpiresAt = &expiresAt
	job.CompletedAt = &now
	job.Error = ""
	s.mu.Unlock()

	s.logger.Info("payment report rendered",
		zap.String("job_id", jobID),
		zap.String("format", string(req.Format)),
		zap.String("file", relPath))
	return nil
}

func (s *ReportService) buildDataset(ctx context.Context, req models.ReportRequest) (export.Dataset, string, error) {
	var rows []map[string]string
	page := 1
	for {
		payments, total, err := s.payments.List(ctx, models.PaymentFilter{
			Status:   req.Status,
			Page:     page,
			PageSize: reportFetchSize,
		})
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, p := range payments {
			if req.From != nil && p.CreatedAt.Before(*req.From) {
				continue
			}
			if req.To != nil && p.CreatedAt.After(*req.To) {
				continue
			}
			rows = append(rows, map[string]string{
				"Payment ID":     p.ID,
				"Student":        p.StudentName,
				"Course":         p.CourseTitle,
				"Amount":         fmt.Sprintf("%.2f %s", p.Amount, p.Currency),
				"Status":         string(p.Status),
				"Transaction ID": p.TransactionID,
				"Created At":     p.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		if page*reportFetchSize >= total || len(payments) == 0 {
			break
		}
		page++
	}

	dataset := export.Dataset{
		Headers: []string{"Payment ID", "Student", "Course", "Amount", "Status", "Transaction ID", "Created At"},
		Rows:    rows,
	}
	title := "Payment Review Report"
	if req.Status != "" {
		title = fmt.Sprintf("Payment Review Report (%s)", req.Status)
	}
	return dataset, title, nil
}

func (s *ReportService) setFailed(jobID string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.tracked[jobID]
	if !ok {
		return
	}
	job.Status = models.ReportJobFailed
	job.Error = cause.Error()
}

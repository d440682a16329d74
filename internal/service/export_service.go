package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhub-dev/study-portal-api/internal/models"
	appErrors "github.com/studyhub-dev/study-portal-api/pkg/errors"
	"github.com/studyhub-dev/study-portal-api/pkg/export"
	"github.com/studyhub-dev/study-portal-api/pkg/jobs"
	"github.com/studyhub-dev/study-portal-api/pkg/storage"
)

type catalogueSource interface {
	ApprovedMaterials() []models.Material
	SubjectNames() map[string]string
}

type fileStorage interface {
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

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix  string
	ResultTTL  time.Duration
	Workers    int
	MaxRetries int
}

// ExportService renders the approved catalogue to CSV or PDF in the
// background. Jobs are tracked in memory; a restart drops queued jobs,
// which is acceptable because requesters simply resubmit.
type ExportService struct {
	catalogue catalogueSource
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	queue     *jobs.Queue
	logger    *zap.Logger
	cfg       ExportConfig

	mu      sync.RWMutex
	tracked map[string]*models.ExportJob
}

// NewExportService constructs an ExportService.
func NewExportService(catalogue catalogueSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	s := &ExportService{
		catalogue: catalogue,
		storage:   store,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
		tracked:   map[string]*models.ExportJob{},
	}
	s.queue = jobs.NewQueue("exports", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Request queues a catalogue export and returns the tracking record.
func (s *ExportService) Request(ctx context.Context, format models.ExportFormat, requestedBy string) (*models.ExportJob, error) {
	if format != models.ExportCSV && format != models.ExportPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	job := &models.ExportJob{
		ID:          uuid.NewString(),
		Format:      format,
		Status:      models.ExportQueued,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	s.tracked[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "catalogue_export"}); err != nil {
		s.mu.Lock()
		delete(s.tracked, job.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}

	snapshot := *job
	return &snapshot, nil
}

// Job returns a tracked export job by id.
func (s *ExportService) Job(id string) (*models.ExportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.tracked[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	snapshot := *job
	return &snapshot, nil
}

// ParseToken validates a signed download token.
func (s *ExportService) ParseToken(token string) (jobID, relPath string, err error) {
	jobID, relPath, _, err = s.signer.Parse(token, false)
	if err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	return jobID, relPath, nil
}

// Open returns a handle to a rendered export file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup deletes rendered files older than the result TTL.
func (s *ExportService) Cleanup() {
	removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("cleaned up expired exports", zap.Int("count", len(removed)))
	}
}

func (s *ExportService) process(_ context.Context, job jobs.Job) error {
	s.setStatus(job.ID, models.ExportRunning, "")

	tracked, err := s.Job(job.ID)
	if err != nil {
		return err
	}

	dataset := s.buildDataset()
	var payload []byte
	switch tracked.Format {
	case models.ExportCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportPDF:
		payload, err = s.pdf.Render(dataset, "Study Material Catalogue")
	default:
		err = fmt.Errorf("unsupported format %s", tracked.Format)
	}
	if err != nil {
		s.setStatus(job.ID, models.ExportFailed, err.Error())
		return err
	}

	filename := fmt.Sprintf("catalogue_%s_%s.%s", time.Now().UTC().Format("20060102_150405"), job.ID[:8], tracked.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.setStatus(job.ID, models.ExportFailed, err.Error())
		return err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.setStatus(job.ID, models.ExportFailed, err.Error())
		return err
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if tracked, ok := s.tracked[job.ID]; ok {
		tracked.Status = models.ExportCompleted
		tracked.FileName = filename
		tracked.DownloadURL = fmt.Sprintf("%s/exports/download/%s", prefix, token)
		tracked.ExpiresAt = &expiresAt
		tracked.CompletedAt = &now
		tracked.Error = ""
	}
	s.mu.Unlock()

	s.logger.Info("export completed",
		zap.String("job_id", job.ID), zap.String("file", filename))
	return nil
}

func (s *ExportService) buildDataset() export.Dataset {
	materials := s.catalogue.ApprovedMaterials()
	names := s.catalogue.SubjectNames()

	dataset := export.Dataset{
		Headers: []string{"Title", "Subject", "Semester", "Type", "Status", "Views", "Downloads", "Link"},
		Rows:    make([][]string, 0, len(materials)),
	}
	for _, m := range materials {
		subject := names[m.SubjectID]
		if subject == "" {
			subject = m.SubjectID
		}
		dataset.Rows = append(dataset.Rows, []string{
			m.Title,
			subject,
			m.SemID,
			string(m.Type),
			string(m.Status),
			strconv.FormatInt(m.Views, 10),
			strconv.FormatInt(m.Downloads, 10),
			m.Link,
		})
	}
	return dataset
}

func (s *ExportService) setStatus(id string, status models.ExportStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.tracked[id]; ok {
		job.Status = status
		job.Error = errMsg
	}
}

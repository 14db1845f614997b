package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/danang-adp/timetable-api/internal/dto"
	"github.com/danang-adp/timetable-api/internal/models"
	appErrors "github.com/danang-adp/timetable-api/pkg/errors"
	"github.com/danang-adp/timetable-api/pkg/export"
	"github.com/danang-adp/timetable-api/pkg/jobs"
	"github.com/danang-adp/timetable-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, job *models.ExportJob) error
}

type exportEntryReader interface {
	ListActiveByClass(ctx context.Context, classID string) ([]models.TimetableEntry, error)
}

type exportClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type exportDispatcher interface {
	Enqueue(job jobs.Job) error
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
	APIPrefix string
	ResultTTL time.Duration
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// ExportService manages asynchronous timetable exports: it persists job
// records, dispatches rendering work onto the queue, and resolves signed
// download tokens back to stored files.
type ExportService struct {
	repo     exportJobStore
	entries  exportEntryReader
	classes  exportClassReader
	subjects allSubjectReader
	teachers allTeacherReader
	queue    exportDispatcher
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(repo exportJobStore, entries exportEntryReader, classes exportClassReader, subjects allSubjectReader, teachers allTeacherReader, queue exportDispatcher, fs fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
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
	return &ExportService{
		repo:     repo,
		entries:  entries,
		classes:  classes,
		subjects: subjects,
		teachers: teachers,
		queue:    queue,
		storage:  fs,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Enqueue validates the request, persists a queued job, and dispatches it.
func (s *ExportService) Enqueue(ctx context.Context, req dto.ExportTimetableRequest) (*dto.ExportJobResponse, error) {
	format := models.ExportFormat(req.Format)
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate export class")
	}

	job := &models.ExportJob{
		Params: models.ExportJobParams{ClassID: req.ClassID, Format: format},
		Status: models.ExportStatusQueued,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "timetable_export"}); err != nil {
		now := time.Now().UTC()
		msg := "failed to enqueue job"
		job.Status = models.ExportStatusFailed
		job.FinishedAt = &now
		job.ErrorMessage = &msg
		if updateErr := s.repo.Update(ctx, job); updateErr != nil {
			s.logger.Sugar().Warnw("failed to mark export job failed", "job_id", job.ID, "error", updateErr)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return jobResponse(job), nil
}

// Job exposes job state to polling clients.
func (s *ExportService) Job(ctx context.Context, id string) (*dto.ExportJobResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return jobResponse(job), nil
}

// ResolveDownload validates a token and opens the stored export file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Params.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// Process renders one queued job. It is the queue handler: status moves to
// PROCESSING up front and lands on FINISHED or FAILED before returning.
func (s *ExportService) Process(ctx context.Context, queued jobs.Job) error {
	job, err := s.repo.GetByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", queued.ID, err)
	}
	job.Status = models.ExportStatusProcessing
	if err := s.repo.Update(ctx, job); err != nil {
		return fmt.Errorf("mark export job processing: %w", err)
	}

	url, err := s.render(ctx, job)
	now := time.Now().UTC()
	if err != nil {
		msg := err.Error()
		job.Status = models.ExportStatusFailed
		job.FinishedAt = &now
		job.ErrorMessage = &msg
		if updateErr := s.repo.Update(ctx, job); updateErr != nil {
			s.logger.Sugar().Warnw("failed to mark export job failed", "job_id", job.ID, "error", updateErr)
		}
		return err
	}

	job.Status = models.ExportStatusFinished
	job.ResultURL = &url
	job.FinishedAt = &now
	job.ErrorMessage = nil
	if err := s.repo.Update(ctx, job); err != nil {
		s.logger.Sugar().Warnw("failed to mark export job finished", "job_id", job.ID, "error", err)
		return err
	}
	return nil
}

// StartCleanup boots a goroutine that purges expired export files.
func (s *ExportService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
					s.logger.Sugar().Warnw("export cleanup failed", "error", err)
				} else if len(deleted) > 0 {
					s.logger.Sugar().Infow("export cleanup removed files", "count", len(deleted))
				}
			}
		}
	}()
}

func (s *ExportService) render(ctx context.Context, job *models.ExportJob) (string, error) {
	dataset, title, err := s.buildDataset(ctx, job.Params.ClassID)
	if err != nil {
		return "", err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return "", err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return "", err
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return "", err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/timetable/export/download/%s", prefix, token), nil
}

func (s *ExportService) buildDataset(ctx context.Context, classID string) (export.Dataset, string, error) {
	entries, err := s.entries.ListActiveByClass(ctx, classID)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load active entries: %w", err)
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load class: %w", err)
	}
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load subjects: %w", err)
	}
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("load teachers: %w", err)
	}

	subjectNames := make(map[string]string, len(subjects))
	for _, subject := range subjects {
		subjectNames[subject.ID] = subject.Name
	}
	teacherNames := make(map[string]string, len(teachers))
	for _, teacher := range teachers {
		teacherNames[teacher.ID] = teacher.FullName
	}

	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		subjectName := subjectNames[entry.SubjectID]
		if subjectName == "" {
			subjectName = entry.SubjectID
		}
		teacherName := teacherNames[entry.TeacherID]
		if teacherName == "" {
			teacherName = entry.TeacherID
		}
		room := ""
		if entry.Room != nil {
			room = *entry.Room
		}
		rows = append(rows, map[string]string{
			"Day":     entry.Day,
			"Period":  fmt.Sprintf("%d", entry.Period),
			"Time":    entry.Window(),
			"Subject": subjectName,
			"Teacher": teacherName,
			"Room":    room,
		})
	}

	dataset := export.Dataset{
		Headers: []string{"Day", "Period", "Time", "Subject", "Teacher", "Room"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Timetable %s", class.Name)
	return dataset, title, nil
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	classPart := sanitizeFilename(job.Params.ClassID)
	return fmt.Sprintf("timetable_%s_%s.%s", classPart, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func jobResponse(job *models.ExportJob) *dto.ExportJobResponse {
	return &dto.ExportJobResponse{
		ID:           job.ID,
		Status:       string(job.Status),
		Format:       string(job.Params.Format),
		ClassID:      job.Params.ClassID,
		ResultURL:    job.ResultURL,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		FinishedAt:   job.FinishedAt,
	}
}

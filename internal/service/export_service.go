package service

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HiteshShonak/hostel-ops-api/internal/dto"
	"github.com/HiteshShonak/hostel-ops-api/internal/models"
	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
	"github.com/HiteshShonak/hostel-ops-api/pkg/jobs"
	"github.com/HiteshShonak/hostel-ops-api/pkg/storage"
)

type exportRenderer interface {
	DailyAttendance(ctx context.Context, date time.Time, format ReportFormat) (*ReportFile, error)
	LateReturns(ctx context.Context, from, to *time.Time, format ReportFormat) (*ReportFile, error)
}

type exportStore interface {
	Save(filename string, data []byte) error
	Read(filename string) ([]byte, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type exportSigner interface {
	Sign(exportID, relPath string) (string, time.Time, error)
	Verify(token string) (storage.DownloadClaims, error)
}

const exportCleanupInterval = time.Hour

// ExportService renders reports in the background and hands out signed
// download tokens for the results.
type ExportService struct {
	reports  exportRenderer
	store    exportStore
	signer   exportSigner
	validate *validator.Validate
	logger   *zap.Logger
	fileTTL  time.Duration

	queue *jobs.Queue

	mu      sync.RWMutex
	entries map[string]*models.ExportJob
}

// NewExportService wires the renderer, file store and token signer together.
func NewExportService(reports exportRenderer, store exportStore, signer exportSigner, validate *validator.Validate, logger *zap.Logger, fileTTL time.Duration, opts jobs.Options) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fileTTL <= 0 {
		fileTTL = 24 * time.Hour
	}
	opts.Logger = logger

	s := &ExportService{
		reports:  reports,
		store:    store,
		signer:   signer,
		validate: validate,
		logger:   logger,
		fileTTL:  fileTTL,
		entries:  make(map[string]*models.ExportJob),
	}
	s.queue = jobs.NewQueue("report-exports", s.process, opts)
	return s
}

// Start launches the export workers and the stale file cleaner.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	go s.cleanupLoop(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue validates the request and queues a new export job.
func (s *ExportService) Enqueue(ctx context.Context, req dto.CreateExportRequest, actor *models.JWTClaims) (*models.ExportJob, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	entry := &models.ExportJob{
		ID:          uuid.NewString(),
		Kind:        models.ExportKind(req.Kind),
		Format:      req.Format,
		Status:      models.ExportPending,
		RequestedBy: actor.UserID,
		CreatedAt:   time.Now().UTC(),
	}

	snapshot := snapshotExport(entry)

	s.mu.Lock()
	s.entries[entry.ID] = entry
	s.mu.Unlock()

	err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Kind: req.Kind, Payload: req})
	if err != nil {
		s.mu.Lock()
		delete(s.entries, entry.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}

	return snapshot, nil
}

// Status returns the tracked state of one export job.
func (s *ExportService) Status(ctx context.Context, exportID string, actor *models.JWTClaims) (*models.ExportJob, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	s.mu.RLock()
	entry, ok := s.entries[exportID]
	var snapshot *models.ExportJob
	if ok {
		snapshot = snapshotExport(entry)
	}
	s.mu.RUnlock()

	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	if actor.Role != models.RoleAdmin && snapshot.RequestedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return snapshot, nil
}

// Download resolves a signed token to the stored file bytes.
func (s *ExportService) Download(ctx context.Context, token string) (*ReportFile, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	data, err := s.store.Read(claims.Path)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	return &ReportFile{
		Filename:    path.Base(claims.Path),
		ContentType: contentTypeForExport(claims.Path),
		Data:        data,
	}, nil
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.CreateExportRequest)
	if !ok {
		s.logger.Error("export job carries unexpected payload", zap.String("job_id", job.ID))
		return nil
	}

	s.setStatus(job.ID, models.ExportRunning, "")

	file, err := s.render(ctx, req)
	if err != nil {
		s.setStatus(job.ID, models.ExportFailed, appErrors.FromError(err).Message)
		return err
	}

	relPath := path.Join(job.ID, file.Filename)
	if err := s.store.Save(relPath, file.Data); err != nil {
		s.setStatus(job.ID, models.ExportFailed, "failed to store export file")
		return err
	}

	token, expiresAt, err := s.signer.Sign(job.ID, relPath)
	if err != nil {
		s.setStatus(job.ID, models.ExportFailed, "failed to sign download token")
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if entry, ok := s.entries[job.ID]; ok {
		entry.Status = models.ExportCompleted
		entry.Filename = file.Filename
		entry.DownloadToken = token
		entry.ExpiresAt = &expiresAt
		entry.CompletedAt = &now
		entry.Error = ""
	}
	s.mu.Unlock()

	s.logger.Info("export completed",
		zap.String("export_id", job.ID),
		zap.String("kind", req.Kind),
		zap.String("filename", file.Filename))
	return nil
}

func (s *ExportService) render(ctx context.Context, req dto.CreateExportRequest) (*ReportFile, error) {
	format := ReportFormat(req.Format)
	switch models.ExportKind(req.Kind) {
	case models.ExportAttendanceDaily:
		date := time.Now().UTC().Truncate(24 * time.Hour)
		if req.Date != nil {
			date = *req.Date
		}
		return s.reports.DailyAttendance(ctx, date, format)
	case models.ExportLateReturns:
		return s.reports.LateReturns(ctx, req.From, req.To, format)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown export kind")
	}
}

func (s *ExportService) setStatus(exportID string, status models.ExportStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[exportID]; ok {
		entry.Status = status
		entry.Error = errMsg
	}
}

func (s *ExportService) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(exportCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.store.CleanupOlderThan(s.fileTTL)
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				s.logger.Info("removed stale export files", zap.Int("count", len(deleted)))
			}
		}
	}
}

func snapshotExport(entry *models.ExportJob) *models.ExportJob {
	copied := *entry
	return &copied
}

func contentTypeForExport(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".pdf":
		return "application/pdf"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HiteshShonak/hostel-ops-api/internal/dto"
	"github.com/HiteshShonak/hostel-ops-api/internal/models"
	appErrors "github.com/HiteshShonak/hostel-ops-api/pkg/errors"
	"github.com/HiteshShonak/hostel-ops-api/pkg/jobs"
	"github.com/HiteshShonak/hostel-ops-api/pkg/storage"
)

type exportStoreStub struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newExportStoreStub() *exportStoreStub {
	return &exportStoreStub{files: make(map[string][]byte)}
}

func (s *exportStoreStub) Save(filename string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[filename] = data
	return nil
}

func (s *exportStoreStub) Read(filename string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[filename]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return data, nil
}

func (s *exportStoreStub) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	return nil, nil
}

func newExportService(t *testing.T, renderer exportRenderer) *ExportService {
	t.Helper()
	svc := NewExportService(
		renderer,
		newExportStoreStub(),
		storage.NewDownloadSigner("test-secret", time.Hour),
		validator.New(),
		zap.NewNop(),
		time.Hour,
		jobs.Options{Workers: 1, MaxRetries: 1},
	)
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	t.Cleanup(func() {
		cancel()
		svc.Stop()
	})
	return svc
}

func waitForExport(t *testing.T, svc *ExportService, id string, actor *models.JWTClaims) *models.ExportJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entry, err := svc.Status(context.Background(), id, actor)
		require.NoError(t, err)
		if entry.Status == models.ExportCompleted || entry.Status == models.ExportFailed {
			return entry
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("export did not finish in time")
	return nil
}

func TestExportLifecycle(t *testing.T) {
	readers := &reportReadersStub{}
	reports := NewReportService(readers, readers, nil, nil, zap.NewNop())
	svc := newExportService(t, reports)
	warden := wardenClaims()

	entry, err := svc.Enqueue(context.Background(), dto.CreateExportRequest{
		Kind:   string(models.ExportAttendanceDaily),
		Format: "csv",
	}, warden)
	require.NoError(t, err)
	assert.Equal(t, models.ExportPending, entry.Status)

	done := waitForExport(t, svc, entry.ID, warden)
	require.Equal(t, models.ExportCompleted, done.Status)
	require.NotEmpty(t, done.DownloadToken)
	require.NotEmpty(t, done.Filename)

	file, err := svc.Download(context.Background(), done.DownloadToken)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.NotEmpty(t, file.Data)
}

func TestExportValidatesRequest(t *testing.T) {
	readers := &reportReadersStub{}
	reports := NewReportService(readers, readers, nil, nil, zap.NewNop())
	svc := newExportService(t, reports)

	_, err := svc.Enqueue(context.Background(), dto.CreateExportRequest{
		Kind:   "yearbook",
		Format: "csv",
	}, wardenClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportStatusScopedToRequester(t *testing.T) {
	readers := &reportReadersStub{}
	reports := NewReportService(readers, readers, nil, nil, zap.NewNop())
	svc := newExportService(t, reports)
	warden := wardenClaims()

	entry, err := svc.Enqueue(context.Background(), dto.CreateExportRequest{
		Kind:   string(models.ExportLateReturns),
		Format: "pdf",
	}, warden)
	require.NoError(t, err)

	_, err = svc.Status(context.Background(), entry.ID, parentClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	admin := adminClaims()
	_, err = svc.Status(context.Background(), entry.ID, admin)
	require.NoError(t, err)
}

func TestDownloadRejectsBadToken(t *testing.T) {
	readers := &reportReadersStub{}
	reports := NewReportService(readers, readers, nil, nil, zap.NewNop())
	svc := newExportService(t, reports)

	_, err := svc.Download(context.Background(), "not.a.real.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

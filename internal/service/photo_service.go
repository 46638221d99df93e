package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/wedding-dispatch-api/internal/dto"
	"github.com/noah-isme/wedding-dispatch-api/internal/models"
	appErrors "github.com/noah-isme/wedding-dispatch-api/pkg/errors"
	"github.com/noah-isme/wedding-dispatch-api/pkg/jobs"
)

// TaskRemovePhoto is the queue task kind for deleting a stored photo.
const TaskRemovePhoto = "remove_photo"

type photoIndex interface {
	ListPhotos(ctx context.Context, start, end time.Time) ([]models.CheckinPhoto, error)
	FindPhotoRef(ctx context.Context, checkinID int64) (string, error)
	ClearPhotoRefs(ctx context.Context, refs []string) (int64, error)
}

type photoFiles interface {
	SavePhoto(prefix, originalName string, data []byte) (string, error)
	Open(ref string) (*os.File, error)
	Delete(ref string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type photoLinks interface {
	Sign(checkinID int64, ref string) (string, time.Time, error)
	Verify(token string) (int64, string, error)
}

type taskQueue interface {
	Enqueue(task jobs.Task) error
}

// PhotoServiceConfig controls photo retention and link shape.
type PhotoServiceConfig struct {
	TTL       time.Duration
	URLPrefix string
}

// PhotoService stores arrival photos, lists them for admins behind signed
// links and expires old files.
type PhotoService struct {
	index   photoIndex
	files   photoFiles
	links   photoLinks
	queue   taskQueue
	metrics *MetricsService
	logger  *zap.Logger
	cfg     PhotoServiceConfig
}

// NewPhotoService constructs the photo service. queue may be nil, in which
// case removals run inline.
func NewPhotoService(index photoIndex, files photoFiles, links photoLinks, queue taskQueue, metrics *MetricsService, logger *zap.Logger, cfg PhotoServiceConfig) *PhotoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 6 * time.Hour
	}
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = "/photos/"
	}
	return &PhotoService{index: index, files: files, links: links, queue: queue, metrics: metrics, logger: logger, cfg: cfg}
}

// Save stores an uploaded arrival photo for photographer name.
func (s *PhotoService) Save(name, filename string, data []byte) (string, error) {
	ref, err := s.files.SavePhoto(name, filename, data)
	if err != nil {
		if errors.Is(err, appErrors.ErrUnsupportedPhoto) {
			return "", err
		}
		return "", appErrors.Internal(err, "failed to store photo")
	}
	return ref, nil
}

// List returns photos of schedules dated within [start, end] with signed links.
func (s *PhotoService) List(ctx context.Context, start, end time.Time) ([]dto.PhotoItem, error) {
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	photos, err := s.index.ListPhotos(ctx, start, end)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list photos")
	}
	items := make([]dto.PhotoItem, 0, len(photos))
	for _, photo := range photos {
		token, expiresAt, err := s.links.Sign(photo.CheckinID, photo.PhotoRef)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to sign photo link")
		}
		items = append(items, dto.PhotoItem{CheckinPhoto: photo, URL: s.cfg.URLPrefix + token, ExpiresAt: expiresAt})
	}
	return items, nil
}

// Open resolves a signed link to the stored file. Links to photos that were
// replaced or expired report not found.
func (s *PhotoService) Open(ctx context.Context, token string) (*os.File, error) {
	checkinID, ref, err := s.links.Verify(token)
	if err != nil {
		return nil, err
	}
	current, err := s.index.FindPhotoRef(ctx, checkinID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "photo not found")
		}
		return nil, appErrors.Internal(err, "failed to load photo")
	}
	if current != ref {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "photo was replaced")
	}
	file, err := s.files.Open(ref)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "photo not found")
		}
		return nil, appErrors.Internal(err, "failed to open photo")
	}
	return file, nil
}

// Delete schedules removal of a stored photo.
func (s *PhotoService) Delete(ref string) error {
	if ref == "" {
		return nil
	}
	if s.queue == nil {
		return s.files.Delete(ref)
	}
	return s.queue.Enqueue(jobs.Task{Kind: TaskRemovePhoto, Ref: ref})
}

// HandleTask executes a queued photo task.
func (s *PhotoService) HandleTask(ctx context.Context, task jobs.Task) error {
	if task.Kind != TaskRemovePhoto {
		s.logger.Warn("unknown photo task", zap.String("kind", task.Kind))
		return nil
	}
	return s.files.Delete(task.Ref)
}

// Cleanup removes photo files older than the retention period and clears
// checkin references to them. It returns how many files were removed.
func (s *PhotoService) Cleanup(ctx context.Context) (int, error) {
	removed, err := s.files.CleanupOlderThan(s.cfg.TTL)
	if len(removed) > 0 {
		if _, clearErr := s.index.ClearPhotoRefs(ctx, removed); clearErr != nil {
			s.logger.Warn("failed to clear photo references", zap.Int("files", len(removed)), zap.Error(clearErr))
		}
		s.metrics.RecordPhotosRemoved(len(removed))
		s.logger.Info("expired photos removed", zap.Int("files", len(removed)))
	}
	if err != nil {
		return len(removed), appErrors.Internal(err, "photo cleanup incomplete")
	}
	return len(removed), nil
}

package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"studylog/internal/catalog"
	"studylog/internal/metrics"
	"studylog/internal/repository"
	"studylog/internal/score"
	"studylog/internal/storage"
	"studylog/pkg/domain"
)

const dateLayout = "2006-01-02"

// IncomingFile is one file of an upload request. Open streams the bytes;
// Thumbnail optionally carries a client-rendered preview frame for video
// uploads.
type IncomingFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
	Thumbnail   []byte
}

// UploadService is the upload coordinator: it validates a request
// against the catalog and the date's current record, persists bytes and
// the updated record, and returns the new record.
type UploadService interface {
	Upload(ctx context.Context, date, taskID string, files []IncomingFile) (*domain.DailyRecord, error)
}

type uploadService struct {
	cat        *catalog.Catalog
	repo       repository.RecordRepository
	store      storage.FileStore
	logger     *slog.Logger
	tz         *time.Location
	now        func() time.Time
	maxPerTask int
}

func NewUploadService(cat *catalog.Catalog, repo repository.RecordRepository, store storage.FileStore, logger *slog.Logger, tz *time.Location, now func() time.Time, maxPerTask int) UploadService {
	if maxPerTask <= 0 {
		maxPerTask = 10
	}
	return &uploadService{cat: cat, repo: repo, store: store, logger: logger, tz: tz, now: now, maxPerTask: maxPerTask}
}

func (s *uploadService) today() string {
	return s.now().In(s.tz).Format(dateLayout)
}

func (s *uploadService) Upload(ctx context.Context, date, taskID string, files []IncomingFile) (*domain.DailyRecord, error) {
	rec, err := s.upload(ctx, date, taskID, files)
	if err != nil {
		metrics.UploadRejectedTotal.WithLabelValues(string(domain.KindOf(err))).Inc()
		return nil, err
	}
	metrics.UploadFilesTotal.WithLabelValues(taskID).Add(float64(len(files)))
	return rec, nil
}

func (s *uploadService) upload(ctx context.Context, date, taskID string, files []IncomingFile) (*domain.DailyRecord, error) {
	// Validation order is fixed: first failure wins and nothing is written.
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, domain.NewError(domain.KindInvalidRequest, "malformed date")
	}
	if len(files) == 0 {
		return nil, domain.NewError(domain.KindInvalidRequest, "no files in request")
	}
	if today := s.today(); date != today {
		return nil, domain.NewError(domain.KindForbidden, "only same-day uploads allowed")
	}
	def, _, ok := s.cat.Resolve(taskID)
	if !ok {
		return nil, domain.NewTaskError(domain.KindInvalidRequest, taskID, "unknown task id")
	}
	if len(def.SubTasks) > 0 {
		return nil, domain.NewTaskError(domain.KindInvalidRequest, taskID, "task accepts uploads through its sub-tasks")
	}
	for _, f := range files {
		if !catalog.Accepts(def, f.ContentType) {
			return nil, domain.NewTaskError(domain.KindUnsupportedMediaType, taskID,
				fmt.Sprintf("type %s not accepted", f.ContentType))
		}
	}
	for _, f := range files {
		if def.MaxFileSize > 0 && f.Size > def.MaxFileSize {
			return nil, domain.NewLimitError(domain.KindPayloadTooLarge, taskID, def.MaxFileSize,
				fmt.Sprintf("file %s exceeds size limit", f.Name))
		}
	}
	// Early dependency/quota checks fail the request before any bytes hit
	// disk; both are re-verified under the date lock before the record is
	// persisted.
	current, err := s.repo.Get(ctx, date)
	if err != nil {
		return nil, err
	}
	if err := s.checkDependencyAndQuota(current, taskID, len(files)); err != nil {
		return nil, err
	}

	written, records, err := s.persistFiles(ctx, date, taskID, files)
	if err != nil {
		s.cleanup(ctx, written)
		return nil, err
	}

	updated, err := s.repo.Update(ctx, date, func(rec *domain.DailyRecord) error {
		if err := s.checkDependencyAndQuota(rec, taskID, len(records)); err != nil {
			return err
		}
		rec.Items[taskID] = append(rec.Items[taskID], records...)
		rec.Score = score.Calculate(s.cat, rec.Items)
		return nil
	})
	if err != nil {
		s.cleanup(ctx, written)
		return nil, err
	}
	return updated, nil
}

func (s *uploadService) checkDependencyAndQuota(rec *domain.DailyRecord, taskID string, incoming int) error {
	if docID, ok := s.cat.SiblingDocID(taskID); ok && rec.FileCount(docID) == 0 {
		return domain.NewTaskError(domain.KindDependencyNotMet, taskID,
			fmt.Sprintf("upload to %s first", docID))
	}
	if rec.FileCount(taskID)+incoming > s.maxPerTask {
		return domain.NewLimitError(domain.KindQuotaExceeded, taskID, int64(s.maxPerTask),
			"per-task file quota exceeded")
	}
	return nil
}

// persistFiles streams every incoming file (and any thumbnail companion)
// to the store. On error the already-written paths are returned so the
// caller can discard them.
func (s *uploadService) persistFiles(ctx context.Context, date, taskID string, files []IncomingFile) (written []string, records []domain.FileRecord, err error) {
	for _, f := range files {
		name := storage.StoredName(s.now(), taskID, f.Name)

		src, openErr := f.Open()
		if openErr != nil {
			return written, nil, domain.StorageError("open incoming file", openErr)
		}
		relPath, saveErr := s.store.SaveUpload(ctx, date, name, src)
		src.Close()
		if saveErr != nil {
			return written, nil, saveErr
		}
		written = append(written, relPath)

		rec := domain.FileRecord{Path: relPath, Name: f.Name, Type: f.ContentType}
		if rec.IsVideo() && len(f.Thumbnail) > 0 {
			thumbPath, thumbErr := s.store.SaveThumbnail(ctx, date, name+".jpg", f.Thumbnail)
			if thumbErr != nil {
				return written, nil, thumbErr
			}
			written = append(written, thumbPath)
			rec.ThumbnailPath = thumbPath
		}
		records = append(records, rec)
	}
	return written, records, nil
}

// cleanup discards bytes written before a late-discovered failure. Best
// effort: the original error still goes to the caller.
func (s *uploadService) cleanup(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := s.store.Remove(ctx, p); err != nil {
			s.logger.Warn("orphan cleanup failed", "path", p, "err", err)
		}
	}
}

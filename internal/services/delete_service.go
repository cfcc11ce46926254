package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"studylog/internal/catalog"
	"studylog/internal/metrics"
	"studylog/internal/repository"
	"studylog/internal/score"
	"studylog/internal/storage"
	"studylog/pkg/domain"
)

// DeleteService is the deletion coordinator. Deletion is per file: the
// caller names the stored path recorded on the FileRecord.
type DeleteService interface {
	Delete(ctx context.Context, date, taskID, path string) (*domain.DailyRecord, error)
}

type deleteService struct {
	cat    *catalog.Catalog
	repo   repository.RecordRepository
	store  storage.FileStore
	logger *slog.Logger
	tz     *time.Location
	now    func() time.Time
}

func NewDeleteService(cat *catalog.Catalog, repo repository.RecordRepository, store storage.FileStore, logger *slog.Logger, tz *time.Location, now func() time.Time) DeleteService {
	return &deleteService{cat: cat, repo: repo, store: store, logger: logger, tz: tz, now: now}
}

func (s *deleteService) Delete(ctx context.Context, date, taskID, path string) (*domain.DailyRecord, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, domain.NewError(domain.KindInvalidRequest, "malformed date")
	}
	if taskID == "" || path == "" {
		return nil, domain.NewError(domain.KindInvalidRequest, "taskId and path are required")
	}
	// Records stop being writable the moment their date stops being today.
	if today := s.now().In(s.tz).Format(dateLayout); date != today {
		return nil, domain.NewError(domain.KindForbidden, "only same-day deletion allowed")
	}

	updated, err := s.repo.Update(ctx, date, func(rec *domain.DailyRecord) error {
		list := rec.Items[taskID]
		if len(list) == 0 {
			return domain.NewTaskError(domain.KindNotFound, taskID, "no record for task")
		}
		target, ok := rec.FindFile(taskID, path)
		if !ok {
			return domain.NewTaskError(domain.KindNotFound, taskID, "file not recorded under task")
		}
		// Inverse dependency: the last doc file must outlive its videos.
		if videoID, isDoc := s.cat.SiblingVideoID(taskID); isDoc && len(list) == 1 && rec.FileCount(videoID) > 0 {
			return domain.NewTaskError(domain.KindDependencyNotMet, taskID,
				fmt.Sprintf("delete files under %s first", videoID))
		}

		s.removeBytes(ctx, target)

		kept := make([]domain.FileRecord, 0, len(list)-1)
		for _, f := range list {
			if f.Path != target.Path {
				kept = append(kept, f)
			}
		}
		if len(kept) == 0 {
			delete(rec.Items, taskID)
		} else {
			rec.Items[taskID] = kept
		}
		rec.Score = score.Calculate(s.cat, rec.Items)
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.DeleteFilesTotal.WithLabelValues(taskID).Inc()
	return updated, nil
}

// removeBytes drops the backing file and thumbnail. Absent files are
// fine (idempotent delete); other I/O failures are reported but never
// abort the record update.
func (s *deleteService) removeBytes(ctx context.Context, f domain.FileRecord) {
	if err := s.store.Remove(ctx, f.Path); err != nil {
		s.logger.Error("remove upload bytes", "path", f.Path, "err", err)
	}
	if f.ThumbnailPath != "" {
		if err := s.store.Remove(ctx, f.ThumbnailPath); err != nil {
			s.logger.Error("remove thumbnail bytes", "path", f.ThumbnailPath, "err", err)
		}
	}
}

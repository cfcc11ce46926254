package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"studylog/pkg/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func setupRepo(t *testing.T) (context.Context, *miniredis.Miniredis, RecordRepository) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return context.Background(), mr, NewRecordRepository(rdb, time.UTC)
}

func TestGetAbsentDateIsEmptyRecord(t *testing.T) {
	ctx, _, repo := setupRepo(t)
	rec, err := repo.Get(ctx, "2026-08-29")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Date != "2026-08-29" || rec.Score != 0 || len(rec.Items) != 0 {
		t.Fatalf("expected implicit empty record, got %+v", rec)
	}
	if rec.Items == nil {
		t.Fatal("Items must never be nil")
	}
}

func TestUpdatePersistsAndReloads(t *testing.T) {
	ctx, _, repo := setupRepo(t)
	_, err := repo.Update(ctx, "2026-08-29", func(rec *domain.DailyRecord) error {
		rec.Items["morning-video"] = []domain.FileRecord{{Path: "/uploads/2026-08-29/a.mp4", Name: "a.mp4", Type: "video/mp4"}}
		rec.Score = 1
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	rec, err := repo.Get(ctx, "2026-08-29")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Score != 1 || len(rec.Items["morning-video"]) != 1 {
		t.Fatalf("reloaded record mismatch: %+v", rec)
	}
}

func TestUpdateMutateErrorPersistsNothing(t *testing.T) {
	ctx, _, repo := setupRepo(t)
	_, err := repo.Update(ctx, "2026-08-29", func(rec *domain.DailyRecord) error {
		rec.Items["morning-video"] = []domain.FileRecord{{Path: "/x", Name: "x", Type: "video/mp4"}}
		return domain.NewError(domain.KindQuotaExceeded, "boom")
	})
	if !domain.IsKind(err, domain.KindQuotaExceeded) {
		t.Fatalf("expected mutate error back, got %v", err)
	}
	rec, _ := repo.Get(ctx, "2026-08-29")
	if len(rec.Items) != 0 {
		t.Fatalf("aborted update must persist nothing, got %+v", rec.Items)
	}
}

func TestUpdateSerializesPerDate(t *testing.T) {
	ctx, _, repo := setupRepo(t)
	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Update(ctx, "2026-08-29", func(rec *domain.DailyRecord) error {
				rec.Items["math-task-doc"] = append(rec.Items["math-task-doc"],
					domain.FileRecord{Path: fmt.Sprintf("/uploads/2026-08-29/%d.png", i), Name: "p.png", Type: "image/png"})
				return nil
			})
			if err != nil {
				t.Errorf("update %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	rec, err := repo.Get(ctx, "2026-08-29")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := len(rec.Items["math-task-doc"]); got != n {
		t.Fatalf("lost updates: %d files recorded, want %d", got, n)
	}
}

func TestAll(t *testing.T) {
	ctx, _, repo := setupRepo(t)
	for _, d := range []string{"2026-08-28", "2026-08-29"} {
		if _, err := repo.Update(ctx, d, func(rec *domain.DailyRecord) error {
			rec.Score = 1
			rec.Items["morning-video"] = []domain.FileRecord{{Path: "/uploads/" + d + "/a.mp4", Name: "a.mp4", Type: "video/mp4"}}
			return nil
		}); err != nil {
			t.Fatalf("seed %s: %v", d, err)
		}
	}
	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 dates, got %d", len(all))
	}
	if all["2026-08-28"].Date != "2026-08-28" {
		t.Fatalf("record date not backfilled: %+v", all["2026-08-28"])
	}
}

// Package thumbnail backfills preview images for video records that
// predate eager client-side generation. An external visibility signal
// enqueues work; a bounded worker pool drains the queue FIFO.
package thumbnail

import (
	"context"
	"log/slog"
	"math/rand"
	"path"
	"sync"
	"time"

	"studylog/internal/backoff"
	"studylog/internal/metrics"
	"studylog/internal/repository"
	"studylog/internal/storage"
	"studylog/pkg/domain"
)

// DefaultWorkers caps concurrent decode sessions.
const DefaultWorkers = 3

// Transient decode failures are retried with jittered delays before the
// placeholder takes over.
const (
	genAttempts  = 3
	genRetryBase = 200 * time.Millisecond
	genRetryMax  = 2 * time.Second
)

// Request identifies one video FileRecord lacking a thumbnail.
type Request struct {
	Date   string
	TaskID string
	Path   string
}

// Pipeline drains observed requests under a fixed concurrency cap.
// Queue order is first-observed-first-served; a request already queued
// or in flight is not enqueued twice.
type Pipeline struct {
	gen     Generator
	store   storage.FileStore
	repo    repository.RecordRepository
	logger  *slog.Logger
	workers int

	mu      sync.Mutex
	queue   []Request
	pending map[string]bool
	closed  bool
	signal  chan struct{}
	wg      sync.WaitGroup
}

func NewPipeline(gen Generator, store storage.FileStore, repo repository.RecordRepository, logger *slog.Logger, workers int) *Pipeline {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pipeline{
		gen:     gen,
		store:   store,
		repo:    repo,
		logger:  logger,
		workers: workers,
		pending: make(map[string]bool),
		signal:  make(chan struct{}, 1),
	}
}

// Start launches the worker pool. Workers exit when ctx is done or the
// pipeline is closed.
func (p *Pipeline) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
}

// Observe is the visibility signal: a viewer saw a video placeholder
// without a thumbnail. Returns false when the request was dropped
// (closed pipeline or duplicate).
func (p *Pipeline) Observe(req Request) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.pending[req.Path] {
		return false
	}
	p.pending[req.Path] = true
	p.queue = append(p.queue, req)
	metrics.ThumbnailQueueDepth.Set(float64(len(p.queue)))
	select {
	case p.signal <- struct{}{}:
	default:
	}
	return true
}

// Close stops accepting observations and wakes idle workers. Queued
// requests already picked up run to completion.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.signal)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pipeline) run(ctx context.Context) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for {
		req, ok := p.next(ctx)
		if !ok {
			return
		}
		p.process(ctx, req, rng)
		p.mu.Lock()
		delete(p.pending, req.Path)
		p.mu.Unlock()
	}
}

func (p *Pipeline) next(ctx context.Context) (Request, bool) {
	for {
		p.mu.Lock()
		if len(p.queue) > 0 {
			req := p.queue[0]
			p.queue[0] = Request{}
			p.queue = p.queue[1:]
			metrics.ThumbnailQueueDepth.Set(float64(len(p.queue)))
			p.mu.Unlock()
			return req, true
		}
		closed := p.closed
		p.mu.Unlock()
		if closed {
			return Request{}, false
		}
		select {
		case <-ctx.Done():
			return Request{}, false
		case <-p.signal:
		}
	}
}

// process generates (or substitutes) a thumbnail and links it on the
// record. Failures degrade to the placeholder image; they never stall
// the queue.
func (p *Pipeline) process(ctx context.Context, req Request, rng *rand.Rand) {
	rec, err := p.repo.Get(ctx, req.Date)
	if err != nil {
		p.logger.Error("thumbnail backfill: load record", "date", req.Date, "err", err)
		metrics.ThumbnailGeneratedTotal.WithLabelValues("error").Inc()
		return
	}
	target, ok := rec.FindFile(req.TaskID, req.Path)
	if !ok || target.ThumbnailPath != "" || !target.IsVideo() {
		metrics.ThumbnailGeneratedTotal.WithLabelValues("skipped").Inc()
		return
	}

	name := path.Base(req.Path)
	outcome := "ok"
	data, genErr := p.generate(ctx, req.Date, name, rng)
	ext := ".jpg"
	if genErr != nil {
		// A shutdown mid-generation is not a decode failure: leave the
		// record untouched instead of linking a placeholder to a healthy
		// video.
		if ctx.Err() != nil {
			metrics.ThumbnailGeneratedTotal.WithLabelValues("skipped").Inc()
			return
		}
		p.logger.Warn("thumbnail generation failed, using placeholder",
			"date", req.Date, "path", req.Path, "err", genErr)
		data = Placeholder()
		ext = ".png"
		outcome = "placeholder"
	}

	thumbPath, saveErr := p.store.SaveThumbnail(ctx, req.Date, name+ext, data)
	if saveErr != nil {
		p.logger.Error("thumbnail backfill: save", "date", req.Date, "err", saveErr)
		metrics.ThumbnailGeneratedTotal.WithLabelValues("error").Inc()
		return
	}

	_, err = p.repo.Update(ctx, req.Date, func(rec *domain.DailyRecord) error {
		list := rec.Items[req.TaskID]
		for i := range list {
			if list[i].Path == req.Path && list[i].ThumbnailPath == "" {
				list[i].ThumbnailPath = thumbPath
				break
			}
		}
		return nil
	})
	if err != nil {
		p.logger.Error("thumbnail backfill: link record", "date", req.Date, "err", err)
		metrics.ThumbnailGeneratedTotal.WithLabelValues("error").Inc()
		return
	}
	metrics.ThumbnailGeneratedTotal.WithLabelValues(outcome).Inc()
}

// generate resolves the video bytes and decodes one frame, retrying
// transient failures before giving up.
func (p *Pipeline) generate(ctx context.Context, date, name string, rng *rand.Rand) ([]byte, error) {
	abs, err := p.store.ResolveUpload(date, name)
	if err != nil {
		return nil, err
	}
	var data []byte
	for attempt := 0; attempt < genAttempts; attempt++ {
		if attempt > 0 {
			delay := backoff.Compute("exp_full_jitter", genRetryBase, genRetryMax, attempt, rng)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		data, err = p.gen.Generate(ctx, abs)
		if err == nil {
			return data, nil
		}
	}
	return nil, err
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"studylog/pkg/domain"

	"github.com/go-redis/redis/v8"
)

// RecordRepository is the durable mapping from calendar date to
// DailyRecord. Get/All never fail on absent dates: a date with no
// uploads reads as the implicit empty record.
type RecordRepository interface {
	Get(ctx context.Context, date string) (*domain.DailyRecord, error)
	All(ctx context.Context) (map[string]*domain.DailyRecord, error)

	// Update runs mutate on the current record for date and persists the
	// result. Mutations for the same date are serialized so a concurrent
	// upload/delete pair cannot lose an update. A mutate error aborts the
	// update and nothing is persisted.
	Update(ctx context.Context, date string, mutate func(rec *domain.DailyRecord) error) (*domain.DailyRecord, error)
}

type recordRedisRepo struct {
	rdb *redis.Client
	tz  *time.Location

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRecordRepository(rdb *redis.Client, tz *time.Location) RecordRepository {
	return &recordRedisRepo{rdb: rdb, tz: tz, locks: make(map[string]*sync.Mutex)}
}

func (r *recordRedisRepo) keyRecordsHash() string { return "studylog:records" }

func (r *recordRedisRepo) dateLock(date string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[date]
	if !ok {
		l = &sync.Mutex{}
		r.locks[date] = l
	}
	return l
}

func (r *recordRedisRepo) load(ctx context.Context, date string) (*domain.DailyRecord, error) {
	js, err := r.rdb.HGet(ctx, r.keyRecordsHash(), date).Result()
	if err == redis.Nil || js == "" {
		return domain.NewDailyRecord(date), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis HGET record: %w", err)
	}
	var rec domain.DailyRecord
	if err := json.Unmarshal([]byte(js), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record %s: %w", date, err)
	}
	if rec.Items == nil {
		rec.Items = map[string][]domain.FileRecord{}
	}
	rec.Date = date
	return &rec, nil
}

func (r *recordRedisRepo) Get(ctx context.Context, date string) (*domain.DailyRecord, error) {
	return r.load(ctx, date)
}

func (r *recordRedisRepo) All(ctx context.Context) (map[string]*domain.DailyRecord, error) {
	fields, err := r.rdb.HGetAll(ctx, r.keyRecordsHash()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL records: %w", err)
	}
	out := make(map[string]*domain.DailyRecord, len(fields))
	for date, js := range fields {
		var rec domain.DailyRecord
		if err := json.Unmarshal([]byte(js), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record %s: %w", date, err)
		}
		if rec.Items == nil {
			rec.Items = map[string][]domain.FileRecord{}
		}
		rec.Date = date
		out[date] = &rec
	}
	return out, nil
}

func (r *recordRedisRepo) Update(ctx context.Context, date string, mutate func(rec *domain.DailyRecord) error) (*domain.DailyRecord, error) {
	l := r.dateLock(date)
	l.Lock()
	defer l.Unlock()

	rec, err := r.load(ctx, date)
	if err != nil {
		return nil, err
	}
	if err := mutate(rec); err != nil {
		return nil, err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record %s: %w", date, err)
	}
	if err := r.rdb.HSet(ctx, r.keyRecordsHash(), date, string(b)).Err(); err != nil {
		return nil, domain.StorageError("persist record", err)
	}
	return rec, nil
}

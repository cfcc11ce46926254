package services

import (
	"context"

	"studylog/internal/repository"
	"studylog/pkg/domain"
)

// RecordsService exposes read access to the record store.
type RecordsService interface {
	All(ctx context.Context) (map[string]*domain.DailyRecord, error)
	Get(ctx context.Context, date string) (*domain.DailyRecord, error)
}

type recordsService struct {
	repo repository.RecordRepository
}

func NewRecordsService(repo repository.RecordRepository) RecordsService {
	return &recordsService{repo: repo}
}

func (s *recordsService) All(ctx context.Context) (map[string]*domain.DailyRecord, error) {
	return s.repo.All(ctx)
}

func (s *recordsService) Get(ctx context.Context, date string) (*domain.DailyRecord, error) {
	return s.repo.Get(ctx, date)
}

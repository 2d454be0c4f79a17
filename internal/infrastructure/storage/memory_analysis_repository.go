package storage

import (
	"context"
	"sync"

	"malaria-scan/internal/domain/entity"
	"malaria-scan/internal/domain/port"
)

// MemoryAnalysisRepository хранит результаты анализов в памяти процесса
type MemoryAnalysisRepository struct {
	mu       sync.RWMutex
	analyses map[string]*entity.AnalysisResult
}

func NewMemoryAnalysisRepository() *MemoryAnalysisRepository {
	return &MemoryAnalysisRepository{
		analyses: make(map[string]*entity.AnalysisResult),
	}
}

func (r *MemoryAnalysisRepository) Save(ctx context.Context, result *entity.AnalysisResult) error {
	r.mu.Lock()
	r.analyses[result.ID] = result
	r.mu.Unlock()
	return nil
}

func (r *MemoryAnalysisRepository) Get(ctx context.Context, id string) (*entity.AnalysisResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, ok := r.analyses[id]
	if !ok {
		return nil, entity.ErrAnalysisNotFound
	}
	return result, nil
}

var _ port.AnalysisRepository = (*MemoryAnalysisRepository)(nil)

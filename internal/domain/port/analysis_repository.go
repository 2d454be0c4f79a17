package port

import (
	"context"

	"malaria-scan/internal/domain/entity"
)

// AnalysisRepository интерфейс истории анализов
type AnalysisRepository interface {
	Save(ctx context.Context, result *entity.AnalysisResult) error

	// Get возвращает entity.ErrAnalysisNotFound, если анализа нет
	Get(ctx context.Context, id string) (*entity.AnalysisResult, error)
}

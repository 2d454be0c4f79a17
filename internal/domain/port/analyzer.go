package port

import (
	"context"

	"malaria-scan/internal/domain/entity"
)

// ScanAnalyzer интерфейс конвейера анализа для транспортов
type ScanAnalyzer interface {
	// Analyze анализирует сохранённый снимок
	Analyze(ctx context.Context, scanPath string) (*entity.AnalysisResult, error)

	// Get возвращает ранее выполненный анализ
	Get(ctx context.Context, id string) (*entity.AnalysisResult, error)
}

package port

import (
	"context"

	"malaria-scan/internal/domain/entity"
)

// ResultDescriber формирует текстовое описание результата анализа
type ResultDescriber interface {
	Describe(ctx context.Context, result *entity.AnalysisResult) (string, error)
}

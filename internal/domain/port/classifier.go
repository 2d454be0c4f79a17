package port

import (
	"context"

	"malaria-scan/internal/domain/entity"
)

// CellClassifier интерфейс бинарного классификатора клеток
type CellClassifier interface {
	// Classify возвращает вероятность заражения клетки
	Classify(ctx context.Context, cell *entity.CellTensor) (float32, error)
}

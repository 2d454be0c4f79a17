package port

import (
	"context"

	"malaria-scan/internal/domain/entity"
)

// CellSegmenter интерфейс модели сегментации клеток
type CellSegmenter interface {
	// Segment возвращает маску меток и оценку типичного диаметра клетки
	Segment(ctx context.Context, img *entity.PixelImage, opts entity.SegmentOptions) (*entity.SegmentationResult, error)
}

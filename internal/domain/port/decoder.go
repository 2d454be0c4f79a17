package port

import (
	"context"

	"malaria-scan/internal/domain/entity"
)

// ScanDecoder интерфейс декодера медицинских снимков
type ScanDecoder interface {
	// Decode читает файл и возвращает двумерный массив интенсивностей
	Decode(ctx context.Context, path string) (*entity.PixelImage, error)
}

package port

import (
	"image"

	"malaria-scan/internal/domain/entity"
)

// OverlayRenderer рисует отметки заражённых клеток поверх снимка
type OverlayRenderer interface {
	Render(img *entity.PixelImage, infected []entity.Cell) (image.Image, error)
}

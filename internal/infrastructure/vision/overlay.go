//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"image"

	"gocv.io/x/gocv"

	"malaria-scan/internal/domain/entity"
	"malaria-scan/internal/domain/port"
)

// Renderer рисует окружности средствами OpenCV.
type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

// Render рисует красные окружности поверх нормализованной копии снимка.
func (Renderer) Render(img *entity.PixelImage, infected []entity.Cell) (image.Image, error) {
	if img.Empty() {
		return nil, entity.ErrEmptyImage
	}

	mat, err := gocv.ImageToMatRGB(img.RGBA())
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	for _, cell := range infected {
		m := markerFor(cell)
		gocv.Circle(&mat, m.point(), int(m.Radius+0.5), markerColor, markerThickness)
	}

	return mat.ToImage()
}

var _ port.OverlayRenderer = Renderer{}

//go:build !gocv
// +build !gocv

package vision

import (
	"image"
	"math"

	"malaria-scan/internal/domain/entity"
	"malaria-scan/internal/domain/port"
)

// Renderer рисует окружности без OpenCV: сборка без тега gocv.
type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

// Render рисует красные окружности поверх нормализованной копии снимка.
func (Renderer) Render(img *entity.PixelImage, infected []entity.Cell) (image.Image, error) {
	if img.Empty() {
		return nil, entity.ErrEmptyImage
	}

	out := img.RGBA()
	for _, cell := range infected {
		drawRing(out, markerFor(cell))
	}
	return out, nil
}

func drawRing(dst *image.RGBA, m marker) {
	half := float64(markerThickness) / 2
	reach := int(math.Ceil(m.Radius + half))
	c := m.point()
	b := dst.Bounds()

	for y := c.Y - reach; y <= c.Y+reach; y++ {
		for x := c.X - reach; x <= c.X+reach; x++ {
			if !image.Pt(x, y).In(b) {
				continue
			}
			d := math.Hypot(float64(x)-m.CX, float64(y)-m.CY)
			if math.Abs(d-m.Radius) <= half {
				dst.SetRGBA(x, y, markerColor)
			}
		}
	}
}

var _ port.OverlayRenderer = Renderer{}

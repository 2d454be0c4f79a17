package vision

import (
	"image"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"malaria-scan/internal/domain/entity"
)

var markerColor = color.RGBA{R: 255, A: 255}

const markerThickness = 2

// marker описывает окружность над заражённой клеткой.
type marker struct {
	CX, CY float64
	Radius float64
}

func markerFor(cell entity.Cell) marker {
	r := entity.Region{BBox: cell.BBox}
	cx, cy := r.Center()
	return marker{CX: cx, CY: cy, Radius: r.MarkerRadius()}
}

func (m marker) point() image.Point {
	return image.Pt(int(math.Round(m.CX)), int(math.Round(m.CY)))
}

// estimateDiameter возвращает медиану эквивалентных диаметров компонент.
func estimateDiameter(areas []int) float64 {
	if len(areas) == 0 {
		return 0
	}
	diams := make([]float64, len(areas))
	for i, a := range areas {
		diams[i] = entity.EquivalentDiameter(a)
	}
	sort.Float64s(diams)
	return stat.Quantile(0.5, stat.Empirical, diams, nil)
}

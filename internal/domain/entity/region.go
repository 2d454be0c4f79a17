package entity

import "math"

// BBox задаёт ограничивающий прямоугольник, максимальные границы не включаются.
type BBox struct {
	MinRow int `json:"min_row"`
	MinCol int `json:"min_col"`
	MaxRow int `json:"max_row"`
	MaxCol int `json:"max_col"`
}

func (b BBox) Width() int  { return b.MaxCol - b.MinCol }
func (b BBox) Height() int { return b.MaxRow - b.MinRow }

// Clip обрезает прямоугольник по границам изображения rows x cols.
func (b BBox) Clip(rows, cols int) BBox {
	return BBox{
		MinRow: clamp(b.MinRow, 0, rows),
		MinCol: clamp(b.MinCol, 0, cols),
		MaxRow: clamp(b.MaxRow, 0, rows),
		MaxCol: clamp(b.MaxCol, 0, cols),
	}
}

// Region содержит свойства одной размеченной клетки.
type Region struct {
	Label              int32
	Area               int
	BBox               BBox
	CentroidRow        float64
	CentroidCol        float64
	EquivalentDiameter float64
}

// EquivalentDiameter возвращает диаметр круга площади area.
func EquivalentDiameter(area int) float64 {
	return math.Sqrt(4 * float64(area) / math.Pi)
}

// Center возвращает центр прямоугольника в координатах (x, y).
func (r Region) Center() (x, y float64) {
	return float64(r.BBox.MinCol+r.BBox.MaxCol) / 2, float64(r.BBox.MinRow+r.BBox.MaxRow) / 2
}

// MarkerRadius возвращает половину большей стороны прямоугольника.
func (r Region) MarkerRadius() float64 {
	return float64(max(r.BBox.Height(), r.BBox.Width())) / 2
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package entity

import (
	"image"
	"image/color"
)

// ColorChannels задаёт число отсчётов цветного пикселя (R, G, B).
const ColorChannels = 3

// PixelImage хранит двумерный массив интенсивностей построчно.
// У цветных снимков Pix содержит яркость, а Color исходные отсчёты RGB.
type PixelImage struct {
	Width  int
	Height int
	Pix    []float64 // len == Width*Height
	Color  []float64 // len == Width*Height*3 или nil для монохромных
}

// NewPixelImage создаёт пустое изображение заданного размера.
func NewPixelImage(width, height int) *PixelImage {
	return &PixelImage{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// NewColorImage создаёт пустое цветное изображение.
func NewColorImage(width, height int) *PixelImage {
	img := NewPixelImage(width, height)
	img.Color = make([]float64, width*height*ColorChannels)
	return img
}

// At возвращает интенсивность в строке row и столбце col.
func (p *PixelImage) At(row, col int) float64 {
	return p.Pix[row*p.Width+col]
}

// Set записывает интенсивность в строку row и столбец col.
func (p *PixelImage) Set(row, col int, v float64) {
	p.Pix[row*p.Width+col] = v
}

// IsColor сообщает, что у снимка сохранены отсчёты RGB.
func (p *PixelImage) IsColor() bool {
	return p != nil && len(p.Color) > 0 && len(p.Color) == p.Width*p.Height*ColorChannels
}

// Empty сообщает, что в изображении нет пикселей.
func (p *PixelImage) Empty() bool {
	return p == nil || p.Width <= 0 || p.Height <= 0 || len(p.Pix) < p.Width*p.Height
}

// MinMax возвращает минимальную и максимальную интенсивность.
func (p *PixelImage) MinMax() (lo, hi float64) {
	return minMax(p.Pix)
}

func minMax(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Crop копирует прямоугольник bbox в новое изображение вместе с цветом.
func (p *PixelImage) Crop(box BBox) *PixelImage {
	box = box.Clip(p.Height, p.Width)
	out := NewPixelImage(box.Width(), box.Height())
	for r := box.MinRow; r < box.MaxRow; r++ {
		copy(out.Pix[(r-box.MinRow)*out.Width:], p.Pix[r*p.Width+box.MinCol:r*p.Width+box.MaxCol])
	}
	if !p.IsColor() {
		return out
	}
	out.Color = make([]float64, out.Width*out.Height*ColorChannels)
	for r := box.MinRow; r < box.MaxRow; r++ {
		src := (r*p.Width + box.MinCol) * ColorChannels
		dst := (r - box.MinRow) * out.Width * ColorChannels
		copy(out.Color[dst:dst+out.Width*ColorChannels], p.Color[src:])
	}
	return out
}

// Gray8 линейно растягивает яркость в 0..255: минимум в 0, максимум в 255.
// Дробная часть отбрасывается. Константное изображение целиком становится чёрным.
func (p *PixelImage) Gray8() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	lo, hi := p.MinMax()
	span := hi - lo
	if span <= 0 {
		return img
	}
	for i, v := range p.Pix {
		img.Pix[(i/p.Width)*img.Stride+i%p.Width] = scale8(v, lo, span)
	}
	return img
}

// RGBA возвращает нормализованную цветную копию снимка.
// Цветные снимки растягиваются общим минимумом и максимумом по всем каналам,
// монохромные повторяют яркость в трёх каналах.
func (p *PixelImage) RGBA() *image.RGBA {
	if !p.IsColor() {
		gray := p.Gray8()
		out := image.NewRGBA(gray.Bounds())
		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				v := gray.GrayAt(x, y).Y
				out.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
			}
		}
		return out
	}

	out := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	lo, hi := minMax(p.Color)
	span := hi - lo
	for i := 0; i < p.Width*p.Height; i++ {
		off := (i/p.Width)*out.Stride + (i%p.Width)*4
		for c := 0; c < ColorChannels; c++ {
			if span > 0 {
				out.Pix[off+c] = scale8(p.Color[i*ColorChannels+c], lo, span)
			}
		}
		out.Pix[off+3] = 255
	}
	return out
}

func scale8(v, lo, span float64) uint8 {
	return uint8((v - lo) / span * 255)
}

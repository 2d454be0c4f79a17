package app

import (
	"image"

	"github.com/nfnt/resize"

	"malaria-scan/internal/domain/entity"
)

const cellChannels = entity.ColorChannels

// PrepareCell вырезает клетку из снимка и готовит вход классификатора:
// растяжение в 0..255 общим диапазоном каналов, bicubic до size x size, деление на 255.
// Монохромный фрагмент попадает во все три канала.
func PrepareCell(img *entity.PixelImage, box entity.BBox, size int) (*entity.CellTensor, error) {
	if img.Empty() {
		return nil, entity.ErrEmptyImage
	}
	crop := img.Crop(box)
	if crop.Empty() {
		return nil, entity.ErrEmptyImage
	}

	resized := resize.Resize(uint(size), uint(size), crop.RGBA(), resize.Bicubic)

	data := make([]float32, size*size*cellChannels)
	bounds := resized.Bounds()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			px := rgbAt(resized, bounds.Min.X+x, bounds.Min.Y+y)
			i := (y*size + x) * cellChannels
			for c := 0; c < cellChannels; c++ {
				data[i+c] = float32(px[c]) / 255.0
			}
		}
	}

	return &entity.CellTensor{Size: size, Channels: cellChannels, Data: data}, nil
}

func rgbAt(img image.Image, x, y int) [cellChannels]uint8 {
	if rgba, ok := img.(*image.RGBA); ok {
		c := rgba.RGBAAt(x, y)
		return [cellChannels]uint8{c.R, c.G, c.B}
	}
	r, g, b, _ := img.At(x, y).RGBA()
	return [cellChannels]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
}

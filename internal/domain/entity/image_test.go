package entity

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPixelImage_Gray8Normalizes(t *testing.T) {
	img := &PixelImage{Width: 3, Height: 1, Pix: []float64{100, 150, 200}}
	g := img.Gray8()
	require.Equal(t, uint8(0), g.GrayAt(0, 0).Y)
	// 127.5 усекается до 127
	require.Equal(t, uint8(127), g.GrayAt(1, 0).Y)
	require.Equal(t, uint8(255), g.GrayAt(2, 0).Y)
}

func TestPixelImage_Gray8Constant(t *testing.T) {
	img := &PixelImage{Width: 2, Height: 2, Pix: []float64{7, 7, 7, 7}}
	g := img.Gray8()
	for _, v := range g.Pix {
		require.Zero(t, v)
	}
}

func TestPixelImage_Crop(t *testing.T) {
	img := NewPixelImage(4, 3)
	for i := range img.Pix {
		img.Pix[i] = float64(i)
	}
	c := img.Crop(BBox{MinRow: 1, MinCol: 1, MaxRow: 3, MaxCol: 3})
	require.Equal(t, 2, c.Width)
	require.Equal(t, 2, c.Height)
	require.Equal(t, []float64{5, 6, 9, 10}, c.Pix)
}

func TestPixelImage_EmptyAndMinMax(t *testing.T) {
	require.True(t, (*PixelImage)(nil).Empty())
	require.True(t, (&PixelImage{Width: 2, Height: 2}).Empty())

	img := &PixelImage{Width: 2, Height: 1, Pix: []float64{-3, 9}}
	lo, hi := img.MinMax()
	require.Equal(t, -3.0, lo)
	require.Equal(t, 9.0, hi)

	rgba := img.RGBA()
	require.Equal(t, uint8(255), rgba.RGBAAt(1, 0).R)
	require.Equal(t, uint8(255), rgba.RGBAAt(0, 0).A)
}

func TestPixelImage_CropKeepsColor(t *testing.T) {
	img := NewColorImage(3, 2)
	for i := range img.Color {
		img.Color[i] = float64(i)
	}
	c := img.Crop(BBox{MinRow: 1, MinCol: 1, MaxRow: 2, MaxCol: 3})
	require.True(t, c.IsColor())
	require.Equal(t, []float64{12, 13, 14, 15, 16, 17}, c.Color)
}

func TestPixelImage_RGBAColorSharedRange(t *testing.T) {
	img := NewColorImage(2, 1)
	copy(img.Color, []float64{200, 0, 100, 50, 50, 50})

	rgba := img.RGBA()
	require.Equal(t, color.RGBA{R: 255, G: 0, B: 127, A: 255}, rgba.RGBAAt(0, 0))
	require.Equal(t, color.RGBA{R: 63, G: 63, B: 63, A: 255}, rgba.RGBAAt(1, 0))
}

func TestPixelImage_RGBAConstantColorIsBlack(t *testing.T) {
	img := NewColorImage(1, 1)
	copy(img.Color, []float64{9, 9, 9})
	require.Equal(t, color.RGBA{A: 255}, img.RGBA().RGBAAt(0, 0))
}

package vision

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"malaria-scan/internal/domain/entity"
)

func TestEstimateDiameter(t *testing.T) {
	require.Zero(t, estimateDiameter(nil))

	areas := []int{
		int(math.Round(math.Pi * 4)),   // d≈4
		int(math.Round(math.Pi * 25)),  // d≈10
		int(math.Round(math.Pi * 100)), // d≈20
	}
	require.InDelta(t, 10, estimateDiameter(areas), 0.1)
}

func TestMarkerFor(t *testing.T) {
	m := markerFor(entity.Cell{BBox: entity.BBox{MinRow: 10, MinCol: 20, MaxRow: 20, MaxCol: 26}})
	require.Equal(t, 23.0, m.CX)
	require.Equal(t, 15.0, m.CY)
	require.Equal(t, 5.0, m.Radius)
}

func TestRenderer_DrawsInfectedOnly(t *testing.T) {
	img := entity.NewPixelImage(40, 40)
	for i := range img.Pix {
		img.Pix[i] = float64(i % 2)
	}
	cell := entity.Cell{BBox: entity.BBox{MinRow: 10, MinCol: 10, MaxRow: 30, MaxCol: 30}, Infected: true}

	out, err := NewRenderer().Render(img, []entity.Cell{cell})
	require.NoError(t, err)
	require.Equal(t, 40, out.Bounds().Dx())

	// верхняя точка окружности: центр (20,20), радиус 10
	r, g, b, _ := out.At(20, 10).RGBA()
	require.Equal(t, uint32(0xffff), r)
	require.Zero(t, g)
	require.Zero(t, b)

	// центр остаётся серым
	r, g, _, _ = out.At(20, 20).RGBA()
	require.Equal(t, r, g)
}

func TestRenderer_EmptyImage(t *testing.T) {
	_, err := NewRenderer().Render(&entity.PixelImage{}, nil)
	require.ErrorIs(t, err, entity.ErrEmptyImage)
}

func TestThresholdSegmenter_Defaults(t *testing.T) {
	s := NewThresholdSegmenter()
	require.Equal(t, 20, s.MinArea)
	require.True(t, s.DarkCells)
}

package app

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"malaria-scan/internal/domain/entity"
)

func maskFromRows(rows ...[]int32) *entity.LabelMask {
	m := &entity.LabelMask{Width: len(rows[0]), Height: len(rows)}
	for _, r := range rows {
		m.Labels = append(m.Labels, r...)
	}
	return m
}

func TestRegionProps(t *testing.T) {
	mask := maskFromRows(
		[]int32{0, 2, 2, 0, 0},
		[]int32{0, 2, 2, 0, 1},
		[]int32{0, 0, 0, 0, 1},
	)

	regions := RegionProps(mask)
	require.Len(t, regions, 2)

	r1 := regions[0]
	require.Equal(t, int32(1), r1.Label)
	require.Equal(t, 2, r1.Area)
	require.Equal(t, entity.BBox{MinRow: 1, MinCol: 4, MaxRow: 3, MaxCol: 5}, r1.BBox)
	require.InDelta(t, 1.5, r1.CentroidRow, 1e-9)
	require.InDelta(t, 4.0, r1.CentroidCol, 1e-9)

	r2 := regions[1]
	require.Equal(t, int32(2), r2.Label)
	require.Equal(t, 4, r2.Area)
	require.Equal(t, entity.BBox{MinRow: 0, MinCol: 1, MaxRow: 2, MaxCol: 3}, r2.BBox)
	require.InDelta(t, math.Sqrt(16/math.Pi), r2.EquivalentDiameter, 1e-9)
}

func TestRegionProps_EmptyMask(t *testing.T) {
	require.Empty(t, RegionProps(maskFromRows([]int32{0, 0}, []int32{0, 0})))
	require.Nil(t, RegionProps(nil))
}

func TestFilterBySize(t *testing.T) {
	regions := []entity.Region{
		{Label: 1, EquivalentDiameter: 4.9},
		{Label: 2, EquivalentDiameter: 5},
		{Label: 3, EquivalentDiameter: 12},
	}

	kept := FilterBySize(regions, 5)
	require.Len(t, kept, 2)
	require.Equal(t, int32(2), kept[0].Label)
	require.Equal(t, int32(3), kept[1].Label)

	require.Len(t, FilterBySize(regions, 0), 3)
}

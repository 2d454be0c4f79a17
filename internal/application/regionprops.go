package app

import (
	"sort"

	"malaria-scan/internal/domain/entity"
)

// RegionProps вычисляет свойства каждой размеченной области маски.
// Области возвращаются по возрастанию метки.
func RegionProps(mask *entity.LabelMask) []entity.Region {
	if mask == nil || mask.Width <= 0 || mask.Height <= 0 {
		return nil
	}

	type acc struct {
		region         entity.Region
		sumRow, sumCol float64
	}
	byLabel := make(map[int32]*acc)

	for row := 0; row < mask.Height; row++ {
		for col := 0; col < mask.Width; col++ {
			label := mask.At(row, col)
			if label == 0 {
				continue
			}
			a, ok := byLabel[label]
			if !ok {
				a = &acc{region: entity.Region{
					Label: label,
					BBox:  entity.BBox{MinRow: row, MinCol: col, MaxRow: row + 1, MaxCol: col + 1},
				}}
				byLabel[label] = a
			}
			b := &a.region.BBox
			b.MinRow = min(b.MinRow, row)
			b.MinCol = min(b.MinCol, col)
			b.MaxRow = max(b.MaxRow, row+1)
			b.MaxCol = max(b.MaxCol, col+1)
			a.region.Area++
			a.sumRow += float64(row)
			a.sumCol += float64(col)
		}
	}

	regions := make([]entity.Region, 0, len(byLabel))
	for _, a := range byLabel {
		r := a.region
		r.CentroidRow = a.sumRow / float64(r.Area)
		r.CentroidCol = a.sumCol / float64(r.Area)
		r.EquivalentDiameter = entity.EquivalentDiameter(r.Area)
		regions = append(regions, r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Label < regions[j].Label })
	return regions
}

// FilterBySize оставляет области с эквивалентным диаметром не меньше minDiameter.
func FilterBySize(regions []entity.Region, minDiameter float64) []entity.Region {
	kept := make([]entity.Region, 0, len(regions))
	for _, r := range regions {
		if r.EquivalentDiameter >= minDiameter {
			kept = append(kept, r)
		}
	}
	return kept
}

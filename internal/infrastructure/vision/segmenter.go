//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"image"

	"gocv.io/x/gocv"

	"malaria-scan/internal/domain/entity"
	"malaria-scan/internal/domain/port"
)

// ThresholdSegmenter заменяет Cellpose локально: порог Оцу и связные компоненты.
type ThresholdSegmenter struct {
	MinArea    int  // компоненты меньше отбрасываются как шум
	DarkCells  bool // клетки темнее фона (мазок крови в светлом поле)
	BlurKernel int
}

// NewThresholdSegmenter создаёт сегментатор с настройками для мазков крови.
func NewThresholdSegmenter() *ThresholdSegmenter {
	return &ThresholdSegmenter{
		MinArea:    20,
		DarkCells:  true,
		BlurKernel: 5,
	}
}

// Segment размечает клетки и оценивает диаметр по медиане компонент.
func (s *ThresholdSegmenter) Segment(ctx context.Context, img *entity.PixelImage, opts entity.SegmentOptions) (*entity.SegmentationResult, error) {
	if img.Empty() {
		return nil, entity.ErrEmptyImage
	}

	gray := img.Gray8()
	mat, err := gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8U, gray.Pix)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(mat, &blur, image.Pt(s.BlurKernel, s.BlurKernel), 0, 0, gocv.BorderDefault)

	typ := gocv.ThresholdBinary
	if s.DarkCells {
		typ = gocv.ThresholdBinaryInv
	}
	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(blur, &thresh, 0, 255, typ|gocv.ThresholdOtsu)

	// Убираем мелкий шум перед разметкой.
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(3, 3))
	defer kernel.Close()
	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(thresh, &opened, gocv.MorphOpen, kernel)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()
	n := gocv.ConnectedComponentsWithStats(opened, &labels, &stats, &centroids)

	// Перенумеровываем компоненты подряд, пропуская слишком мелкие.
	relabel := make([]int32, n)
	areas := make([]int, 0, n)
	for i := 1; i < n; i++ {
		area := int(stats.GetIntAt(i, int(gocv.CCStatArea)))
		if area < s.MinArea {
			continue
		}
		areas = append(areas, area)
		relabel[i] = int32(len(areas))
	}

	mask := &entity.LabelMask{Width: img.Width, Height: img.Height, Labels: make([]int32, img.Width*img.Height)}
	for row := 0; row < img.Height; row++ {
		for col := 0; col < img.Width; col++ {
			if l := labels.GetIntAt(row, col); l > 0 {
				mask.Labels[row*img.Width+col] = relabel[l]
			}
		}
	}

	diameter := opts.Diameter
	if diameter <= 0 {
		diameter = estimateDiameter(areas)
	}
	return &entity.SegmentationResult{Mask: mask, Diameter: diameter}, nil
}

var _ port.CellSegmenter = (*ThresholdSegmenter)(nil)

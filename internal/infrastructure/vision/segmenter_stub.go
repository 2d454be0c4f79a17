//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"malaria-scan/internal/domain/entity"
)

type ThresholdSegmenter struct {
	MinArea    int
	DarkCells  bool
	BlurKernel int
}

// NewThresholdSegmenter создаёт сегментатор-заглушку (без OpenCV).
func NewThresholdSegmenter() *ThresholdSegmenter {
	return &ThresholdSegmenter{
		MinArea:    20,
		DarkCells:  true,
		BlurKernel: 5,
	}
}

// Segment возвращает ошибку, если сборка без тега gocv.
func (s *ThresholdSegmenter) Segment(ctx context.Context, img *entity.PixelImage, opts entity.SegmentOptions) (*entity.SegmentationResult, error) {
	_ = ctx
	_ = img
	_ = opts
	return nil, errors.New("gocv build tag is not enabled")
}

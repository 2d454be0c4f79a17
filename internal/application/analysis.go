package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"malaria-scan/config"
	"malaria-scan/internal/domain/entity"
	"malaria-scan/internal/domain/port"
	"malaria-scan/internal/logger"
)

const component = "AnalysisService"

// AnalysisService проводит снимок через весь конвейер:
// декодирование, сегментация, фильтр по размеру, классификация, разметка.
type AnalysisService struct {
	decoder    port.ScanDecoder
	segmenter  port.CellSegmenter
	classifier port.CellClassifier
	renderer   port.OverlayRenderer
	store      port.ScanStore
	results    port.AnalysisRepository
	params     config.Pipeline
	log        logger.Logger

	now   func() time.Time
	newID func() string
}

// NewAnalysisService создаёт сервис анализа снимков.
func NewAnalysisService(
	decoder port.ScanDecoder,
	segmenter port.CellSegmenter,
	classifier port.CellClassifier,
	renderer port.OverlayRenderer,
	store port.ScanStore,
	results port.AnalysisRepository,
	params config.Pipeline,
	log logger.Logger,
) *AnalysisService {
	return &AnalysisService{
		decoder:    decoder,
		segmenter:  segmenter,
		classifier: classifier,
		renderer:   renderer,
		store:      store,
		results:    results,
		params:     params,
		log:        log,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
}

// Analyze анализирует DICOM-файл по пути scanPath внутри хранилища.
func (s *AnalysisService) Analyze(ctx context.Context, scanPath string) (*entity.AnalysisResult, error) {
	if s.decoder == nil || s.segmenter == nil || s.classifier == nil || s.renderer == nil {
		return nil, errors.New("analysis pipeline is not configured")
	}

	start := s.now()
	id := s.newID()
	fields := map[string]interface{}{"analysis_id": id, "scan": scanPath}

	path, err := s.store.Resolve(scanPath)
	if err != nil {
		return nil, err
	}

	img, err := s.decoder.Decode(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("decode scan: %w", err)
	}
	if img.Empty() {
		return nil, entity.ErrEmptyImage
	}

	initialPath, err := s.store.SaveImage(id+"_initial.png", img.RGBA())
	if err != nil {
		return nil, err
	}

	seg, err := s.segmenter.Segment(ctx, img, s.segmentOptions())
	if err != nil {
		return nil, fmt.Errorf("segment cells: %w", err)
	}
	if seg.Mask == nil || seg.Mask.Width != img.Width || seg.Mask.Height != img.Height ||
		len(seg.Mask.Labels) != img.Width*img.Height {
		return nil, entity.ErrMaskMismatch
	}

	minAllowed := s.params.MinDiameterRatio * seg.Diameter
	regions := RegionProps(seg.Mask)
	kept := FilterBySize(regions, minAllowed)

	s.log.Info(component, "cells segmented", map[string]interface{}{
		"analysis_id":          id,
		"estimated_diameter":   seg.Diameter,
		"min_allowed_diameter": minAllowed,
		"regions":              len(regions),
		"kept":                 len(kept),
	})

	cells, err := s.classifyCells(ctx, img, kept)
	if err != nil {
		return nil, err
	}

	result := &entity.AnalysisResult{
		ID:                 id,
		ScanPath:           path,
		TotalCellCount:     len(cells),
		InitialImagePath:   initialPath,
		EstimatedDiameter:  seg.Diameter,
		MinAllowedDiameter: minAllowed,
		Cells:              cells,
		CreatedAt:          start,
	}
	diameters := make([]float64, 0, len(cells))
	for _, c := range cells {
		diameters = append(diameters, c.Diameter)
		if c.Infected {
			result.InfectedCellCount++
		}
	}
	if len(diameters) > 0 {
		result.MeanCellDiameter = stat.Mean(diameters, nil)
	}
	result.PatientStatus = entity.StatusFor(result.InfectedCellCount)

	overlay, err := s.renderer.Render(img, result.InfectedCells())
	if err != nil {
		return nil, fmt.Errorf("render overlay: %w", err)
	}
	if result.ProcessedImagePath, err = s.store.SaveImage(id+"_processed.png", overlay); err != nil {
		return nil, err
	}

	result.Duration = s.now().Sub(start)
	if err := s.results.Save(ctx, result); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	fields["total_cells"] = result.TotalCellCount
	fields["infected_cells"] = result.InfectedCellCount
	fields["status"] = result.PatientStatus
	fields["duration"] = result.Duration
	s.log.Info(component, "analysis complete", fields)

	return result, nil
}

// Get возвращает сохранённый результат анализа.
func (s *AnalysisService) Get(ctx context.Context, id string) (*entity.AnalysisResult, error) {
	return s.results.Get(ctx, id)
}

func (s *AnalysisService) classifyCells(ctx context.Context, img *entity.PixelImage, regions []entity.Region) ([]entity.Cell, error) {
	threshold := float32(s.params.InfectionThreshold)
	cells := make([]entity.Cell, 0, len(regions))

	for _, r := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tensor, err := PrepareCell(img, r.BBox, s.params.InputSize)
		if err != nil {
			return nil, fmt.Errorf("prepare cell %d: %w", r.Label, err)
		}
		p, err := s.classifier.Classify(ctx, tensor)
		if err != nil {
			return nil, fmt.Errorf("classify cell %d: %w", r.Label, err)
		}

		cells = append(cells, entity.Cell{
			Label:       r.Label,
			BBox:        r.BBox,
			Diameter:    r.EquivalentDiameter,
			Probability: p,
			Infected:    p > threshold,
		})
	}
	return cells, nil
}

func (s *AnalysisService) segmentOptions() entity.SegmentOptions {
	return entity.SegmentOptions{
		ModelType:         s.params.ModelType,
		Diameter:          s.params.Diameter,
		FlowThreshold:     s.params.FlowThreshold,
		CellprobThreshold: s.params.CellprobThreshold,
		Channels:          [2]int{0, 0},
	}
}

package entity

import (
	"errors"
	"time"
)

var (
	ErrEmptyImage           = errors.New("empty image")
	ErrMaskMismatch         = errors.New("segmentation mask does not match image size")
	ErrUnsupportedPixelData = errors.New("unsupported pixel data")
	ErrAnalysisNotFound     = errors.New("analysis not found")
	ErrInvalidScanFile      = errors.New("invalid scan file")
)

// PatientStatus описывает итоговое заключение по снимку.
type PatientStatus string

const (
	StatusInfected    PatientStatus = "Infected"
	StatusNotInfected PatientStatus = "Not Infected"
)

// StatusFor возвращает заключение по числу заражённых клеток.
func StatusFor(infected int) PatientStatus {
	if infected > 0 {
		return StatusInfected
	}
	return StatusNotInfected
}

// Cell описывает классифицированную клетку.
type Cell struct {
	Label       int32   `json:"label"`
	BBox        BBox    `json:"bbox"`
	Diameter    float64 `json:"diameter"`
	Probability float32 `json:"probability"`
	Infected    bool    `json:"infected"`
}

// AnalysisResult хранит итог анализа снимка.
type AnalysisResult struct {
	ID                 string
	ScanPath           string
	TotalCellCount     int
	InfectedCellCount  int
	PatientStatus      PatientStatus
	InitialImagePath   string
	ProcessedImagePath string
	EstimatedDiameter  float64
	MinAllowedDiameter float64
	MeanCellDiameter   float64
	Cells              []Cell
	CreatedAt          time.Time
	Duration           time.Duration
}

// InfectedCells возвращает только заражённые клетки.
func (r *AnalysisResult) InfectedCells() []Cell {
	out := make([]Cell, 0, r.InfectedCellCount)
	for _, c := range r.Cells {
		if c.Infected {
			out = append(out, c)
		}
	}
	return out
}

package rest

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"malaria-scan/internal/domain/entity"
	"malaria-scan/internal/domain/port"
	"malaria-scan/internal/logger"
)

const (
	component     = "HTTPHandler"
	maxUploadSize = 50 << 20 // 50MB
)

type Handler struct {
	analyzer port.ScanAnalyzer
	store    port.ScanStore
	log      logger.Logger
	timeout  time.Duration
}

func NewHandler(analyzer port.ScanAnalyzer, store port.ScanStore, log logger.Logger, timeout time.Duration) *Handler {
	return &Handler{
		analyzer: analyzer,
		store:    store,
		log:      log,
		timeout:  timeout,
	}
}

type uploadResponse struct {
	Message  string `json:"message"`
	Filepath string `json:"filepath"`
}

type analyzeRequest struct {
	Filepath string `json:"filepath"`
}

type analysisResponse struct {
	AnalysisID         string               `json:"analysis_id"`
	TotalCellCount     int                  `json:"total_cell_count"`
	InfectedCellCount  int                  `json:"infected_cell_count"`
	PatientStatus      entity.PatientStatus `json:"patient_status"`
	InitialImagePath   string               `json:"initial_image_path"`
	ProcessedImagePath string               `json:"processed_image_path"`
	EstimatedDiameter  float64              `json:"estimated_diameter"`
	MinAllowedDiameter float64              `json:"min_allowed_diameter"`
	Cells              []entity.Cell        `json:"cells"`
}

func newAnalysisResponse(res *entity.AnalysisResult) analysisResponse {
	return analysisResponse{
		AnalysisID:         res.ID,
		TotalCellCount:     res.TotalCellCount,
		InfectedCellCount:  res.InfectedCellCount,
		PatientStatus:      res.PatientStatus,
		InitialImagePath:   res.InitialImagePath,
		ProcessedImagePath: res.ProcessedImagePath,
		EstimatedDiameter:  res.EstimatedDiameter,
		MinAllowedDiameter: res.MinAllowedDiameter,
		Cells:              res.Cells,
	}
}

// Health проверка здоровья сервиса
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, map[string]string{"status": "healthy"}, http.StatusOK)
}

// Upload принимает DICOM-файл в поле формы file
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, r, "No file part", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, "No file part", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		respondError(w, r, "No selected file", http.StatusBadRequest)
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".dcm") {
		respondError(w, r, "Invalid file format. Please upload a DICOM (.dcm) file.", http.StatusBadRequest)
		return
	}

	path, err := h.store.SaveUpload(header.Filename, file)
	if err != nil {
		h.log.Error(component, err, map[string]interface{}{"filename": header.Filename})
		respondError(w, r, "Failed to save file", http.StatusInternalServerError)
		return
	}

	h.log.Info(component, "file uploaded", map[string]interface{}{"path": path, "size": header.Size})
	respondJSON(w, r, uploadResponse{Message: "File uploaded successfully", Filepath: path}, http.StatusOK)
}

// Analyze запускает анализ ранее загруженного файла
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil || req.Filepath == "" {
		respondError(w, r, "Missing parameters", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.log.Info(component, "starting analysis", map[string]interface{}{"filepath": req.Filepath})
	res, err := h.analyzer.Analyze(ctx, req.Filepath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		respondError(w, r, "File not found", http.StatusNotFound)
		return
	case err != nil:
		h.log.Error(component, err, map[string]interface{}{"filepath": req.Filepath})
		respondError(w, r, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, r, newAnalysisResponse(res), http.StatusOK)
}

// GetAnalysis возвращает сохранённый результат по ID
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	res, err := h.analyzer.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, entity.ErrAnalysisNotFound):
		respondError(w, r, "Analysis not found", http.StatusNotFound)
		return
	case err != nil:
		h.log.Error(component, err, nil)
		respondError(w, r, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, r, newAnalysisResponse(res), http.StatusOK)
}

// DisplayImage отдаёт файл из каталога загрузок
func (h *Handler) DisplayImage(w http.ResponseWriter, r *http.Request) {
	path, err := h.store.Resolve(chi.URLParam(r, "filename"))
	if err != nil {
		respondError(w, r, "File not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}

func respondJSON(w http.ResponseWriter, r *http.Request, data interface{}, status int) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

func respondError(w http.ResponseWriter, r *http.Request, message string, status int) {
	respondJSON(w, r, map[string]string{"error": message}, status)
}

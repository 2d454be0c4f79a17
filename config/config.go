package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Доступные бэкенды сегментации.
const (
	SegmenterCellpose  = "cellpose"
	SegmenterThreshold = "threshold"
)

type Config struct {
	HTTPAddr       string
	TelegramToken  string
	UploadDir      string
	LogLevel       string
	RequestTimeout time.Duration

	Segmenter      string
	CellposeURL    string
	ClassifierPath string
	MetadataPath   string
	ONNXRuntimeLib string

	Pipeline Pipeline
}

// Pipeline задаёт параметры анализа. Любой из них можно переопределить
// YAML-файлом из PIPELINE_CONFIG.
type Pipeline struct {
	ModelType          string  `yaml:"model_type"`
	Diameter           float64 `yaml:"diameter"`
	FlowThreshold      float64 `yaml:"flow_threshold"`
	CellprobThreshold  float64 `yaml:"cellprob_threshold"`
	MinDiameterRatio   float64 `yaml:"min_diameter_ratio"`
	InfectionThreshold float64 `yaml:"infection_threshold"`
	InputSize          int     `yaml:"input_size"`
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":5000"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Segmenter:      getEnv("SEGMENTER", SegmenterCellpose),
		CellposeURL:    getEnv("CELLPOSE_URL", "http://localhost:8000/segment"),
		ClassifierPath: getEnv("CLASSIFIER_MODEL", "models/trained_resnet50_model.onnx"),
		MetadataPath:   os.Getenv("CLASSIFIER_METADATA"),
		ONNXRuntimeLib: os.Getenv("ONNXRUNTIME_LIB"),
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}

	cfg.Pipeline = DefaultPipeline()
	cfg.Pipeline.ModelType = getEnv("CELLPOSE_MODEL", cfg.Pipeline.ModelType)
	floats := []struct {
		key string
		dst *float64
	}{
		{"FLOW_THRESHOLD", &cfg.Pipeline.FlowThreshold},
		{"CELLPROB_THRESHOLD", &cfg.Pipeline.CellprobThreshold},
		{"MIN_DIAMETER_RATIO", &cfg.Pipeline.MinDiameterRatio},
		{"INFECTION_THRESHOLD", &cfg.Pipeline.InfectionThreshold},
	}
	for _, f := range floats {
		if err := getFloat(f.key, f.dst); err != nil {
			return nil, err
		}
	}
	if v := os.Getenv("CLASSIFIER_INPUT_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse CLASSIFIER_INPUT_SIZE: %w", err)
		}
		cfg.Pipeline.InputSize = n
	}

	if path := os.Getenv("PIPELINE_CONFIG"); path != "" {
		if err := cfg.Pipeline.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPipeline возвращает параметры, с которыми обучался классификатор.
func DefaultPipeline() Pipeline {
	return Pipeline{
		ModelType:          "cyto2",
		Diameter:           0,
		FlowThreshold:      0.4,
		CellprobThreshold:  0.0,
		MinDiameterRatio:   0.5,
		InfectionThreshold: 0.5,
		InputSize:          224,
	}
}

func (c *Config) Validate() error {
	switch c.Segmenter {
	case SegmenterCellpose, SegmenterThreshold:
	default:
		return fmt.Errorf("unknown segmenter %q", c.Segmenter)
	}
	if c.UploadDir == "" {
		return errors.New("UPLOAD_DIR must not be empty")
	}
	p := c.Pipeline
	if p.InputSize <= 0 {
		return fmt.Errorf("input size must be positive, got %d", p.InputSize)
	}
	if p.MinDiameterRatio < 0 {
		return fmt.Errorf("min diameter ratio must not be negative, got %v", p.MinDiameterRatio)
	}
	if p.InfectionThreshold < 0 || p.InfectionThreshold > 1 {
		return fmt.Errorf("infection threshold must be within [0,1], got %v", p.InfectionThreshold)
	}
	if p.Diameter < 0 {
		return fmt.Errorf("diameter must not be negative, got %v", p.Diameter)
	}
	return nil
}

func (p *Pipeline) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read pipeline config: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return fmt.Errorf("parse pipeline config: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getFloat(key string, dst *float64) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = f
	return nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

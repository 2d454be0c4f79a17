package onnx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"malaria-scan/internal/domain/entity"
	"malaria-scan/internal/domain/port"
)

// Metadata описывает экспортированную модель.
type Metadata struct {
	InputShape  []int64 `json:"input_shape"`
	OutputShape []int64 `json:"output_shape"`
	InputName   string  `json:"input_name"`
	OutputName  string  `json:"output_name"`
}

// DefaultMetadata описывает ResNet50 из Keras: NHWC 224x224x3, один сигмоидный выход.
func DefaultMetadata(inputSize int) Metadata {
	size := int64(inputSize)
	return Metadata{
		InputShape:  []int64{1, size, size, 3},
		OutputShape: []int64{1, 1},
	}
}

// ChannelsFirst сообщает, что модель ждёт NCHW.
func (m Metadata) ChannelsFirst() bool {
	return len(m.InputShape) == 4 && m.InputShape[1] == 3 && m.InputShape[3] != 3
}

// Classifier выполняет бинарную классификацию клеток через ONNX Runtime.
type Classifier struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	meta         Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewClassifier загружает модель. Пустой libPath
// означает системный путь по умолчанию.
func NewClassifier(modelPath, metadataPath, libPath string, inputSize int) (*Classifier, error) {
	meta, err := loadMetadata(metadataPath, inputSize)
	if err != nil {
		return nil, err
	}

	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	if meta.InputName == "" || meta.OutputName == "" {
		inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect model: %w", err)
		}
		if len(inputs) == 0 || len(outputs) == 0 {
			return nil, fmt.Errorf("model %s has no inputs or outputs", modelPath)
		}
		if meta.InputName == "" {
			meta.InputName = inputs[0].Name
		}
		if meta.OutputName == "" {
			meta.OutputName = outputs[0].Name
		}
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{meta.InputName}, []string{meta.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Classifier{
		session:      session,
		meta:         meta,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Classify возвращает вероятность заражения (первый выход модели).
func (c *Classifier) Classify(ctx context.Context, cell *entity.CellTensor) (float32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dst := c.inputTensor.GetData()
	if err := fillInput(dst, cell, c.meta.ChannelsFirst()); err != nil {
		return 0, err
	}

	if err := c.session.Run(); err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}

	out := c.outputTensor.GetData()
	if len(out) == 0 {
		return 0, fmt.Errorf("inference returned no output")
	}
	return out[0], nil
}

func (c *Classifier) Close() {
	if c.inputTensor != nil {
		c.inputTensor.Destroy()
	}
	if c.outputTensor != nil {
		c.outputTensor.Destroy()
	}
	if c.session != nil {
		c.session.Destroy()
	}
	ort.DestroyEnvironment()
}

// fillInput копирует HWC-фрагмент во входной тензор, при необходимости в CHW.
func fillInput(dst []float32, cell *entity.CellTensor, channelsFirst bool) error {
	if len(cell.Data) != len(dst) {
		return fmt.Errorf("expected %d values, got %d", len(dst), len(cell.Data))
	}
	if !channelsFirst {
		copy(dst, cell.Data)
		return nil
	}

	plane := cell.Size * cell.Size
	for i := 0; i < plane; i++ {
		for ch := 0; ch < cell.Channels; ch++ {
			dst[ch*plane+i] = cell.Data[i*cell.Channels+ch]
		}
	}
	return nil
}

func loadMetadata(path string, inputSize int) (Metadata, error) {
	meta := DefaultMetadata(inputSize)
	if path == "" {
		return meta, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return meta, fmt.Errorf("failed to read metadata: %w", err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return meta, nil
}

var _ port.CellClassifier = (*Classifier)(nil)

package onnx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"malaria-scan/internal/domain/entity"
)

func TestFillInput_ChannelsLast(t *testing.T) {
	cell := &entity.CellTensor{Size: 1, Channels: 3, Data: []float32{0.1, 0.2, 0.3}}
	dst := make([]float32, 3)
	require.NoError(t, fillInput(dst, cell, false))
	require.Equal(t, cell.Data, dst)
}

func TestFillInput_ChannelsFirst(t *testing.T) {
	cell := &entity.CellTensor{Size: 1, Channels: 3, Data: []float32{1, 2, 3}}
	dst := make([]float32, 3)
	require.NoError(t, fillInput(dst, cell, true))
	require.Equal(t, []float32{1, 2, 3}, dst)

	// 2x2 пикселя по 3 канала
	cell = &entity.CellTensor{Size: 2, Channels: 3, Data: []float32{
		1, 10, 100, 2, 20, 200,
		3, 30, 300, 4, 40, 400,
	}}
	dst = make([]float32, 12)
	require.NoError(t, fillInput(dst, cell, true))
	require.Equal(t, []float32{1, 2, 3, 4, 10, 20, 30, 40, 100, 200, 300, 400}, dst)
}

func TestFillInput_SizeMismatch(t *testing.T) {
	cell := &entity.CellTensor{Size: 1, Channels: 3, Data: []float32{1, 2, 3}}
	require.Error(t, fillInput(make([]float32, 4), cell, false))
}

func TestMetadata(t *testing.T) {
	meta, err := loadMetadata("", 224)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 224, 224, 3}, meta.InputShape)
	require.False(t, meta.ChannelsFirst())

	path := filepath.Join(t.TempDir(), "model_metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"input_shape":[1,3,224,224],"output_shape":[1,1],"input_name":"input"}`), 0o644))
	meta, err = loadMetadata(path, 224)
	require.NoError(t, err)
	require.True(t, meta.ChannelsFirst())
	require.Equal(t, "input", meta.InputName)

	_, err = loadMetadata(filepath.Join(t.TempDir(), "missing.json"), 224)
	require.Error(t, err)
}

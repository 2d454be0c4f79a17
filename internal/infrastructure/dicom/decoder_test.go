package dicom

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"malaria-scan/internal/domain/entity"
)

func TestDecodeFrame_Unsigned16(t *testing.T) {
	frame := make([]byte, 8)
	for i, v := range []uint16{0, 100, 4095, 65535} {
		binary.LittleEndian.PutUint16(frame[i*2:], v)
	}

	img, err := decodeFrame(frame, layout{Width: 2, Height: 2, SamplesPerPixel: 1, BitsAllocated: 16, BitsStored: 16})
	require.NoError(t, err)
	require.Equal(t, []float64{0, 100, 4095, 65535}, img.Pix)
	require.Equal(t, 100.0, img.At(0, 1))
}

func TestDecodeFrame_Signed12Bit(t *testing.T) {
	frame := make([]byte, 4)
	binary.LittleEndian.PutUint16(frame[0:], 0x0FFF) // -1 на 12 битах
	binary.LittleEndian.PutUint16(frame[2:], 0x07FF) // 2047

	img, err := decodeFrame(frame, layout{Width: 2, Height: 1, SamplesPerPixel: 1, BitsAllocated: 16, BitsStored: 12, PixelRepresentation: 1})
	require.NoError(t, err)
	require.Equal(t, []float64{-1, 2047}, img.Pix)
}

func TestDecodeFrame_ColorLayouts(t *testing.T) {
	tests := []struct {
		name      string
		frame     []byte
		layout    layout
		wantColor []float64
		wantLuma  []float64
	}{
		{
			name:      "interleaved rgb",
			frame:     []byte{200, 0, 0, 255, 255, 255},
			layout:    layout{Width: 2, Height: 1, SamplesPerPixel: 3, BitsAllocated: 8, Photometric: "RGB"},
			wantColor: []float64{200, 0, 0, 255, 255, 255},
			wantLuma:  []float64{59.8, 255},
		},
		{
			name:      "planar rgb",
			frame:     []byte{200, 0, 100, 0, 0, 0},
			layout:    layout{Width: 2, Height: 1, SamplesPerPixel: 3, BitsAllocated: 8, Photometric: "RGB", Planar: true},
			wantColor: []float64{200, 100, 0, 0, 0, 0},
			wantLuma:  []float64{118.5, 0},
		},
		{
			name:      "ybr full",
			frame:     []byte{100, 128, 228, 100, 128, 128},
			layout:    layout{Width: 2, Height: 1, SamplesPerPixel: 3, BitsAllocated: 8, Photometric: "YBR_FULL"},
			wantColor: []float64{240, 30, 100, 100, 100, 100},
			wantLuma:  []float64{0.299*240 + 0.587*30 + 0.114*100, 100},
		},
		{
			name:      "ybr full 422",
			frame:     []byte{50, 150, 128, 128},
			layout:    layout{Width: 2, Height: 1, SamplesPerPixel: 3, BitsAllocated: 8, Photometric: "YBR_FULL_422"},
			wantColor: []float64{50, 50, 50, 150, 150, 150},
			wantLuma:  []float64{50, 150},
		},
		{
			name:  "planar rgb 16 bit",
			frame: []byte{0x10, 0x00, 0x00, 0x00, 0x20, 0x00, 0x00, 0x00, 0x30, 0x00, 0x00, 0x00},
			layout: layout{Width: 2, Height: 1, SamplesPerPixel: 3, BitsAllocated: 16, BitsStored: 16,
				Photometric: "RGB", Planar: true},
			wantColor: []float64{16, 32, 48, 0, 0, 0},
			wantLuma:  []float64{0.299*16 + 0.587*32 + 0.114*48, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := decodeFrame(tt.frame, tt.layout)
			require.NoError(t, err)
			require.True(t, img.IsColor())
			require.Equal(t, tt.wantColor, img.Color)
			require.Len(t, img.Pix, len(tt.wantLuma))
			for i, v := range tt.wantLuma {
				require.InDelta(t, v, img.Pix[i], 1e-9)
			}
		})
	}
}

func TestDecodeFrame_BigEndian(t *testing.T) {
	frame := make([]byte, 4)
	binary.BigEndian.PutUint16(frame[0:], 258)
	binary.BigEndian.PutUint16(frame[2:], 4095)

	img, err := decodeFrame(frame, layout{Width: 2, Height: 1, SamplesPerPixel: 1, BitsAllocated: 16, BitsStored: 16,
		ByteOrder: binary.BigEndian})
	require.NoError(t, err)
	require.Equal(t, []float64{258, 4095}, img.Pix)
	require.False(t, img.IsColor())
}

func TestByteOrder(t *testing.T) {
	require.Equal(t, binary.BigEndian, byteOrder("1.2.840.10008.1.2.2"))
	require.Equal(t, binary.LittleEndian, byteOrder("1.2.840.10008.1.2.1"))
	require.Equal(t, binary.LittleEndian, byteOrder("1.2.840.10008.1.2"))
}

func TestDecodeFrame_Errors(t *testing.T) {
	_, err := decodeFrame(nil, layout{Width: 0, Height: 1, SamplesPerPixel: 1, BitsAllocated: 8})
	require.ErrorIs(t, err, entity.ErrEmptyImage)

	_, err = decodeFrame([]byte{1}, layout{Width: 2, Height: 2, SamplesPerPixel: 1, BitsAllocated: 8})
	require.ErrorIs(t, err, entity.ErrUnsupportedPixelData)

	_, err = decodeFrame(make([]byte, 16), layout{Width: 2, Height: 2, SamplesPerPixel: 1, BitsAllocated: 12})
	require.ErrorIs(t, err, entity.ErrUnsupportedPixelData)

	_, err = decodeFrame(make([]byte, 16), layout{Width: 2, Height: 2, SamplesPerPixel: 4, BitsAllocated: 8})
	require.ErrorIs(t, err, entity.ErrUnsupportedPixelData)

	_, err = decodeFrame(make([]byte, 8), layout{Width: 3, Height: 1, SamplesPerPixel: 3, BitsAllocated: 8, Photometric: "YBR_FULL_422"})
	require.ErrorIs(t, err, entity.ErrUnsupportedPixelData)

	_, err = decodeFrame(make([]byte, 12), layout{Width: 2, Height: 1, SamplesPerPixel: 3, BitsAllocated: 16, Photometric: "YBR_FULL"})
	require.ErrorIs(t, err, entity.ErrUnsupportedPixelData)

	_, err = decodeFrame(make([]byte, 5), layout{Width: 2, Height: 1, SamplesPerPixel: 3, BitsAllocated: 8, Planar: true})
	require.ErrorIs(t, err, entity.ErrUnsupportedPixelData)
}

func TestDecoder_RejectsNonDicom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.dcm")
	require.NoError(t, os.WriteFile(path, []byte("not a dicom file"), 0o644))

	_, err := NewDecoder().Decode(context.Background(), path)
	require.Error(t, err)
}

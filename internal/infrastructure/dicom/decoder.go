package dicom

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/cocosip/go-dicom/pkg/dicom/endian"
	"github.com/cocosip/go-dicom/pkg/dicom/parser"
	"github.com/cocosip/go-dicom/pkg/dicom/transfer"
	dicomimaging "github.com/cocosip/go-dicom/pkg/imaging"

	// Кодеки сжатых синтаксисов передачи
	_ "github.com/cocosip/go-dicom-codec/jpeg/baseline"
	_ "github.com/cocosip/go-dicom-codec/jpeg/extended"
	_ "github.com/cocosip/go-dicom-codec/jpeg/lossless"
	_ "github.com/cocosip/go-dicom-codec/jpeg2000/lossless"
	_ "github.com/cocosip/go-dicom-codec/jpegls/lossless"

	"malaria-scan/internal/domain/entity"
	"malaria-scan/internal/domain/port"
)

// Decoder читает первый кадр DICOM-файла в массив интенсивностей.
// Цветные кадры сохраняют отсчёты RGB.
type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

func (d *Decoder) Decode(ctx context.Context, path string) (*entity.PixelImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := parser.ParseFile(path, parser.WithReadOption(parser.ReadAll))
	if err != nil {
		return nil, fmt.Errorf("%w: parse dicom: %v", entity.ErrInvalidScanFile, err)
	}

	pd, err := dicomimaging.CreatePixelData(res.Dataset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrUnsupportedPixelData, err)
	}
	if pd.FrameCount() == 0 {
		return nil, entity.ErrEmptyImage
	}

	frame, err := pd.GetFrame(0)
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}

	info := pd.Info
	l := layout{
		Width:               int(info.Width),
		Height:              int(info.Height),
		SamplesPerPixel:     int(info.SamplesPerPixel),
		BitsAllocated:       int(info.BitsAllocated),
		BitsStored:          int(info.BitsStored),
		PixelRepresentation: int(info.PixelRepresentation),
		Planar:              info.PlanarConfiguration.IsPlanar(),
		ByteOrder:           byteOrder(info.TransferSyntaxUID),
	}
	if info.PhotometricInterpretation != nil {
		l.Photometric = info.PhotometricInterpretation.Value
	}
	return decodeFrame(frame, l)
}

func byteOrder(transferSyntaxUID string) binary.ByteOrder {
	ts, err := transfer.Parse(transferSyntaxUID)
	if err == nil && ts.Endian() == endian.Big {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Фотометрические интерпретации с отдельной яркостью и цветоразностью.
const (
	photometricYBRFull       = "YBR_FULL"
	photometricYBRFull422    = "YBR_FULL_422"
	photometricYBRPartial422 = "YBR_PARTIAL_422"
)

// layout описывает раскладку несжатого кадра.
type layout struct {
	Width               int
	Height              int
	SamplesPerPixel     int
	BitsAllocated       int
	BitsStored          int
	PixelRepresentation int // 1: знаковые значения
	Planar              bool
	Photometric         string
	ByteOrder           binary.ByteOrder // nil означает little-endian
}

// decodeFrame разбирает несжатый кадр. Цветные кадры приводятся к
// чередующимся отсчётам RGB, яркость считается по ITU-R 601.
func decodeFrame(frame []byte, l layout) (*entity.PixelImage, error) {
	if l.Width <= 0 || l.Height <= 0 {
		return nil, entity.ErrEmptyImage
	}
	if l.SamplesPerPixel != 1 && l.SamplesPerPixel != entity.ColorChannels {
		return nil, fmt.Errorf("%w: %d samples per pixel", entity.ErrUnsupportedPixelData, l.SamplesPerPixel)
	}
	bytesPerSample := l.BitsAllocated / 8
	switch l.BitsAllocated {
	case 8, 16, 32:
	default:
		return nil, fmt.Errorf("%w: %d bits allocated", entity.ErrUnsupportedPixelData, l.BitsAllocated)
	}
	if l.BitsStored <= 0 || l.BitsStored > l.BitsAllocated {
		l.BitsStored = l.BitsAllocated
	}
	if l.ByteOrder == nil {
		l.ByteOrder = binary.LittleEndian
	}

	n := l.Width * l.Height
	if l.SamplesPerPixel == entity.ColorChannels {
		var err error
		if frame, err = toInterleavedRGB(frame, l); err != nil {
			return nil, err
		}
	}
	need := n * l.SamplesPerPixel * bytesPerSample
	if len(frame) < need {
		return nil, fmt.Errorf("%w: frame has %d bytes, need %d", entity.ErrUnsupportedPixelData, len(frame), need)
	}

	if l.SamplesPerPixel == 1 {
		img := entity.NewPixelImage(l.Width, l.Height)
		for i := 0; i < n; i++ {
			img.Pix[i] = sampleAt(frame[i*bytesPerSample:(i+1)*bytesPerSample], l)
		}
		return img, nil
	}

	img := entity.NewColorImage(l.Width, l.Height)
	for i := 0; i < n; i++ {
		rgb := img.Color[i*entity.ColorChannels : (i+1)*entity.ColorChannels]
		for s := range rgb {
			off := (i*entity.ColorChannels + s) * bytesPerSample
			rgb[s] = sampleAt(frame[off:off+bytesPerSample], l)
		}
		img.Pix[i] = 0.299*rgb[0] + 0.587*rgb[1] + 0.114*rgb[2]
	}
	return img, nil
}

// toInterleavedRGB переставляет плоскостной кадр в R,G,B,R,G,B...
// и переводит YBR в RGB.
func toInterleavedRGB(frame []byte, l layout) ([]byte, error) {
	bytesPerSample := l.BitsAllocated / 8
	switch l.Photometric {
	case photometricYBRFull422, photometricYBRPartial422:
		if bytesPerSample != 1 {
			return nil, fmt.Errorf("%w: %s with %d bits", entity.ErrUnsupportedPixelData, l.Photometric, l.BitsAllocated)
		}
		if l.Photometric == photometricYBRFull422 && l.Width%2 != 0 {
			return nil, fmt.Errorf("%w: %s with odd width %d", entity.ErrUnsupportedPixelData, l.Photometric, l.Width)
		}
		// две яркости на пару Cb/Cr
		size := ((l.Width + 1) / 2) * 4 * l.Height
		if len(frame) < size {
			return nil, fmt.Errorf("%w: frame has %d bytes, need %d", entity.ErrUnsupportedPixelData, len(frame), size)
		}
		convert := dicomimaging.ConvertYBRFull422ToRGB
		if l.Photometric == photometricYBRPartial422 {
			convert = dicomimaging.ConvertYBRPartial422ToRGB
		}
		rgb, err := convert(frame[:size], l.Width)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrUnsupportedPixelData, err)
		}
		return rgb, nil
	}

	size := l.Width * l.Height * entity.ColorChannels * bytesPerSample
	if len(frame) < size {
		return nil, fmt.Errorf("%w: frame has %d bytes, need %d", entity.ErrUnsupportedPixelData, len(frame), size)
	}
	frame = frame[:size]
	if l.Planar {
		var err error
		if frame, err = dicomimaging.ConvertPlanarToInterleavedGeneric(frame, entity.ColorChannels, bytesPerSample); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrUnsupportedPixelData, err)
		}
	}
	if l.Photometric == photometricYBRFull {
		if bytesPerSample != 1 {
			return nil, fmt.Errorf("%w: %s with %d bits", entity.ErrUnsupportedPixelData, l.Photometric, l.BitsAllocated)
		}
		rgb, err := dicomimaging.ConvertYBRFullToRGB(frame)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrUnsupportedPixelData, err)
		}
		return rgb, nil
	}
	return frame, nil
}

func sampleAt(b []byte, l layout) float64 {
	var raw uint32
	switch len(b) {
	case 1:
		raw = uint32(b[0])
	case 2:
		raw = uint32(l.ByteOrder.Uint16(b))
	default:
		raw = l.ByteOrder.Uint32(b)
	}

	if l.BitsStored < 32 {
		raw &= 1<<uint(l.BitsStored) - 1
	}
	if l.PixelRepresentation == 1 && raw&(1<<uint(l.BitsStored-1)) != 0 {
		// дополнительный код на BitsStored битах
		return float64(int64(raw) - int64(1)<<uint(l.BitsStored))
	}
	return float64(raw)
}

var _ port.ScanDecoder = (*Decoder)(nil)

package cellpose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"malaria-scan/internal/domain/entity"
	"malaria-scan/internal/domain/port"
)

// Client обращается к внешнему сервису с моделью Cellpose.
type Client struct {
	segmentURL string
	httpClient *http.Client
}

func NewClient(segmentURL string, timeout time.Duration) *Client {
	return &Client{
		segmentURL: segmentURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// segmentResponse содержит маску построчно и оценка диаметра.
type segmentResponse struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Masks    []int32 `json:"masks"`
	Diameter float64 `json:"diameter"`
	Error    string  `json:"error,omitempty"`
}

// Segment отправляет снимок как 16-битный PNG и получает маску клеток.
func (c *Client) Segment(ctx context.Context, img *entity.PixelImage, opts entity.SegmentOptions) (*entity.SegmentationResult, error) {
	body := &bytes.Buffer{}
	contentType, err := writeForm(body, img, opts)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.segmentURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("segmentation failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out segmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("segmentation service: %s", out.Error)
	}
	if out.Width != img.Width || out.Height != img.Height || len(out.Masks) != img.Width*img.Height {
		return nil, fmt.Errorf("%w: got %dx%d with %d labels", entity.ErrMaskMismatch, out.Width, out.Height, len(out.Masks))
	}

	return &entity.SegmentationResult{
		Mask:     &entity.LabelMask{Width: out.Width, Height: out.Height, Labels: out.Masks},
		Diameter: out.Diameter,
	}, nil
}

// CheckHealth проверяет доступность сервиса сегментации
func (c *Client) CheckHealth(ctx context.Context) error {
	url := strings.TrimSuffix(c.segmentURL, "/segment") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("segmentation service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

// writeForm пишет multipart-форму запроса и возвращает её Content-Type.
func writeForm(w io.Writer, img *entity.PixelImage, opts entity.SegmentOptions) (string, error) {
	writer := multipart.NewWriter(w)

	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if err := png.Encode(part, toGray16(img)); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	fields := map[string]string{
		"model_type":         opts.ModelType,
		"diameter":           strconv.FormatFloat(opts.Diameter, 'f', -1, 64),
		"flow_threshold":     strconv.FormatFloat(opts.FlowThreshold, 'f', -1, 64),
		"cellprob_threshold": strconv.FormatFloat(opts.CellprobThreshold, 'f', -1, 64),
		"channels":           fmt.Sprintf("%d,%d", opts.Channels[0], opts.Channels[1]),
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	// Close дописывает завершающую границу формы
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}
	return writer.FormDataContentType(), nil
}

// toGray16 растягивает интенсивности на полный 16-битный диапазон.
// Cellpose сам нормализует вход, поэтому линейное растяжение безопасно.
func toGray16(img *entity.PixelImage) *image.Gray16 {
	out := image.NewGray16(image.Rect(0, 0, img.Width, img.Height))
	lo, hi := img.MinMax()
	span := hi - lo
	if span <= 0 {
		return out
	}
	for i, v := range img.Pix {
		g := uint16((v-lo)/span*65535 + 0.5)
		off := (i/img.Width)*out.Stride + (i%img.Width)*2
		out.Pix[off] = uint8(g >> 8)
		out.Pix[off+1] = uint8(g)
	}
	return out
}

var _ port.CellSegmenter = (*Client)(nil)

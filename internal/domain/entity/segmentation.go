package entity

// LabelMask хранит маску сегментации: 0 фон, каждое ненулевое значение отдельная клетка.
type LabelMask struct {
	Width  int
	Height int
	Labels []int32
}

// At возвращает метку в строке row и столбце col.
func (m *LabelMask) At(row, col int) int32 {
	return m.Labels[row*m.Width+col]
}

// SegmentationResult содержит результат модели сегментации.
type SegmentationResult struct {
	Mask     *LabelMask
	Diameter float64 // оценка типичного диаметра клетки в пикселях
}

// SegmentOptions задаёт параметры запуска модели сегментации.
type SegmentOptions struct {
	ModelType         string
	Diameter          float64 // 0: оценить автоматически
	FlowThreshold     float64
	CellprobThreshold float64
	Channels          [2]int
}

// CellTensor хранит подготовленный для классификатора фрагмент в порядке HWC.
type CellTensor struct {
	Size     int
	Channels int
	Data     []float32
}

package app

import (
	"context"
	"fmt"
	"strings"

	"malaria-scan/internal/domain/entity"
	"malaria-scan/internal/domain/port"
)

// TextDescriber собирает короткую сводку анализа для пользователя.
type TextDescriber struct{}

func NewTextDescriber() *TextDescriber { return &TextDescriber{} }

func (TextDescriber) Describe(ctx context.Context, result *entity.AnalysisResult) (string, error) {
	if result == nil {
		return "", entity.ErrAnalysisNotFound
	}

	var b strings.Builder
	if result.PatientStatus == entity.StatusInfected {
		b.WriteString("🦠 Обнаружены заражённые клетки.\n\n")
	} else {
		b.WriteString("✅ Заражённые клетки не обнаружены.\n\n")
	}
	fmt.Fprintf(&b, "Статус: %s\n", result.PatientStatus)
	fmt.Fprintf(&b, "Всего клеток: %d\n", result.TotalCellCount)
	fmt.Fprintf(&b, "Заражено: %d", result.InfectedCellCount)
	if result.TotalCellCount > 0 {
		fmt.Fprintf(&b, " (%.1f%%)", 100*float64(result.InfectedCellCount)/float64(result.TotalCellCount))
	}
	fmt.Fprintf(&b, "\nСредний диаметр клетки: %.1f px", result.MeanCellDiameter)
	fmt.Fprintf(&b, "\nID анализа: %s", result.ID)
	return b.String(), nil
}

var _ port.ResultDescriber = TextDescriber{}

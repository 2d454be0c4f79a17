package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"malaria-scan/internal/domain/entity"
)

func TestTextDescriber(t *testing.T) {
	d := NewTextDescriber()

	text, err := d.Describe(context.Background(), &entity.AnalysisResult{
		ID:                "a-1",
		TotalCellCount:    8,
		InfectedCellCount: 2,
		PatientStatus:     entity.StatusInfected,
		MeanCellDiameter:  31.25,
	})
	require.NoError(t, err)
	require.Contains(t, text, "Статус: Infected")
	require.Contains(t, text, "Всего клеток: 8")
	require.Contains(t, text, "Заражено: 2 (25.0%)")
	require.Contains(t, text, "a-1")

	_, err = d.Describe(context.Background(), nil)
	require.ErrorIs(t, err, entity.ErrAnalysisNotFound)
}

package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/agroview/agroview/internal/models"
)

func Test_Generator(t *testing.T) {
	t.Parallel()

	analysis := models.Analysis{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		GrainType:       "Feijão",
		TotalGrains:     512,
		HealthyGrains:   470,
		DefectiveGrains: 42,
		DefectsBreakdown: models.DefectsBreakdown{
			Broken:        16,
			Damaged:       12,
			Discolored:    9,
			ForeignMatter: 5,
		},
		PurityPercentage:   decimal.RequireFromString("91.80"),
		ImpurityPercentage: decimal.RequireFromString("8.20"),
		ImageURL:           "/uploads/images/grain-analysis-1700000000000-42.jpg",
		CreatedAt:          time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
	}

	t.Run("renders a pdf", func(t *testing.T) {
		g := NewGenerator()

		pdf, err := g.Generate(analysis)

		require.NoError(t, err)
		require.NotEmpty(t, pdf)
		require.Equal(t, "%PDF-", string(pdf[:5]), "output should start with the pdf magic")
	})

	t.Run("output is deterministic in size range", func(t *testing.T) {
		g := NewGenerator()

		first, err := g.Generate(analysis)
		require.NoError(t, err)
		second, err := g.Generate(analysis)
		require.NoError(t, err)

		require.Equal(t, len(first), len(second), "same analysis should render the same layout")
	})
}

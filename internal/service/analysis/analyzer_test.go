package analysis

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ValidGrainType(t *testing.T) {
	t.Parallel()

	for _, grain := range GrainTypes {
		assert.True(t, ValidGrainType(grain), "listed grain %q should be valid", grain)
	}

	assert.False(t, ValidGrainType("Quinoa"))
	assert.False(t, ValidGrainType("soja"), "grain names are case sensitive")
	assert.False(t, ValidGrainType(""))
}

func Test_RandomAnalyzer(t *testing.T) {
	t.Parallel()

	t.Run("result is internally consistent", func(t *testing.T) {
		// Seeded source keeps the run reproducible
		a := NewRandomAnalyzerWithRand(rand.New(rand.NewPCG(42, 0)))

		for range 100 {
			result, err := a.Analyze(t.Context(), "/uploads/images/sample.jpg", "Soja")
			require.NoError(t, err)

			assert.Equal(t, "Soja", result.GrainType)
			assert.GreaterOrEqual(t, result.TotalGrains, 200)
			assert.Less(t, result.TotalGrains, 700)
			assert.Equal(t, result.TotalGrains, result.HealthyGrains+result.DefectiveGrains, "healthy and defective should sum to total")

			b := result.DefectsBreakdown
			assert.Equal(t, result.DefectiveGrains, b.Broken+b.Damaged+b.Discolored+b.ForeignMatter, "defect categories should sum to the defective count")
			assert.GreaterOrEqual(t, b.Damaged, 0)
			assert.GreaterOrEqual(t, b.Discolored, 0)
			assert.GreaterOrEqual(t, b.ForeignMatter, 0)

			healthyShare := float64(result.HealthyGrains) / float64(result.TotalGrains)
			assert.GreaterOrEqual(t, healthyShare, 0.84, "healthy share should be around 85-95%%")
			assert.LessOrEqual(t, healthyShare, 0.96)

			assert.True(t, result.PurityPercentage.Add(result.ImpurityPercentage).Sub(decimal.NewFromInt(100)).Abs().LessThanOrEqual(decimal.NewFromFloat(0.01)),
				"purity and impurity should sum to ~100, got %s + %s", result.PurityPercentage, result.ImpurityPercentage)
		}
	})

	t.Run("percentage rounding", func(t *testing.T) {
		got := percentage(1, 3)
		require.Equal(t, "33.33", got.String())

		got = percentage(2, 3)
		require.Equal(t, "66.67", got.String())

		got = percentage(500, 500)
		require.Equal(t, "100", got.String())
	})
}

package analysis

import (
	"context"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/agroview/agroview/internal/models"
)

// GrainTypes is the canonical list of grains the platform classifies
var GrainTypes = []string{
	"Soja",
	"Milho",
	"Trigo",
	"Arroz",
	"Feijão",
	"Café",
	"Aveia",
	"Cevada",
	"Sorgo",
	"Girassol",
}

func ValidGrainType(grainType string) bool {
	for _, t := range GrainTypes {
		if t == grainType {
			return true
		}
	}
	return false
}

// Result of a single sample analysis, not yet persisted
type Result struct {
	GrainType          string
	TotalGrains        int
	HealthyGrains      int
	DefectiveGrains    int
	DefectsBreakdown   models.DefectsBreakdown
	PurityPercentage   decimal.Decimal
	ImpurityPercentage decimal.Decimal
}

// Analyzer produces quality metrics for a grain sample image.
// The stock implementation is synthetic; a real vision model can be
// plugged in without touching token or persistence code.
type Analyzer interface {
	Analyze(ctx context.Context, imageURL string, grainType string) (Result, error)
}

type rng interface {
	IntN(n int) int
	Float64() float64
}

// globalRNG delegates to the top level math/rand/v2 functions,
// which are safe for concurrent use
type globalRNG struct{}

func (globalRNG) IntN(n int) int   { return rand.IntN(n) }
func (globalRNG) Float64() float64 { return rand.Float64() }

// RandomAnalyzer simulates an analysis with realistic random numbers:
// 200-700 grains per sample, 85-95% of them healthy, defects split
// between four categories.
type RandomAnalyzer struct {
	rand rng
}

func NewRandomAnalyzer() *RandomAnalyzer {
	return &RandomAnalyzer{rand: globalRNG{}}
}

// NewRandomAnalyzerWithRand allows a deterministic source, e.g. in tests.
// Note *rand.Rand is not safe for concurrent use.
func NewRandomAnalyzerWithRand(r rng) *RandomAnalyzer {
	return &RandomAnalyzer{rand: r}
}

func (a *RandomAnalyzer) Analyze(_ context.Context, _ string, grainType string) (Result, error) {
	total := a.rand.IntN(500) + 200

	healthyShare := a.rand.Float64()*0.1 + 0.85
	healthy := int(float64(total) * healthyShare)
	defective := total - healthy

	breakdown := models.DefectsBreakdown{
		Broken:        int(float64(defective) * (a.rand.Float64()*0.3 + 0.2)),
		Damaged:       int(float64(defective) * (a.rand.Float64()*0.3 + 0.2)),
		Discolored:    int(float64(defective) * (a.rand.Float64()*0.2 + 0.1)),
		ForeignMatter: int(float64(defective) * (a.rand.Float64()*0.2 + 0.1)),
	}

	// Rounding above loses grains; fold the remainder into the broken bucket
	// so the categories always sum to the defective count
	sum := breakdown.Broken + breakdown.Damaged + breakdown.Discolored + breakdown.ForeignMatter
	breakdown.Broken += defective - sum

	return Result{
		GrainType:          grainType,
		TotalGrains:        total,
		HealthyGrains:      healthy,
		DefectiveGrains:    defective,
		DefectsBreakdown:   breakdown,
		PurityPercentage:   percentage(healthy, total),
		ImpurityPercentage: percentage(defective, total),
	}, nil
}

// percentage computes part/total as a percent with two decimal places
func percentage(part int, total int) decimal.Decimal {
	return decimal.NewFromInt(int64(part) * 100).
		DivRound(decimal.NewFromInt(int64(total)), 2)
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefectsBreakdown splits defective grains by defect category.
// Stored as jsonb, so json tags matter here.
type DefectsBreakdown struct {
	Broken        int `json:"broken"`
	Damaged       int `json:"damaged"`
	Discolored    int `json:"discolored"`
	ForeignMatter int `json:"foreignMatter"`
}

type Analysis struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	GrainType          string
	TotalGrains        int
	HealthyGrains      int
	DefectiveGrains    int
	DefectsBreakdown   DefectsBreakdown
	PurityPercentage   decimal.Decimal
	ImpurityPercentage decimal.Decimal
	ImageURL           string
	CreatedAt          time.Time
}

// AnalysisStats aggregates a user's analyses
type AnalysisStats struct {
	TotalAnalyses  int64
	AveragePurity  decimal.Decimal
	BestPurity     decimal.Decimal
	WorstPurity    decimal.Decimal
	GrainTypeStats []GrainTypeStat
}

type GrainTypeStat struct {
	GrainType     string
	Count         int64
	AveragePurity decimal.Decimal
}

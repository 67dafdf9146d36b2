package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agroview/agroview/internal/apperrors"
	"github.com/agroview/agroview/internal/models"
	"github.com/agroview/agroview/internal/repository"
)

const (
	defaultHistoryLimit = 50
	recentLimit         = 5
)

// Comparison of two or more analyses of the same user
type Comparison struct {
	Analyses []models.Analysis
	Metrics  ComparisonMetrics
}

type ComparisonMetrics struct {
	AveragePurity          decimal.Decimal
	BestPurity             decimal.Decimal
	WorstPurity            decimal.Decimal
	AverageDefectiveGrains int64
}

// Analysis service: runs the analyzer on uploaded samples and owns the
// stored analysis records
type AnalysisService struct {
	analyzer     Analyzer
	analysisRepo repository.AnalysisRepo
}

func NewService(analyzer Analyzer, analysisRepo repository.AnalysisRepo) (*AnalysisService, error) {
	if analyzer == nil {
		analyzer = NewRandomAnalyzer()
	}

	if analysisRepo == nil {
		return nil, errors.New("analysis repo must not be nil")
	}

	return &AnalysisService{
		analyzer:     analyzer,
		analysisRepo: analysisRepo,
	}, nil
}

// Process analyzes the uploaded image and persists the result.
// Returns apperrors.ErrGrainTypeInvalid for grain types outside the
// canonical list.
func (s *AnalysisService) Process(ctx context.Context, userID uuid.UUID, imageURL string, grainType string) (models.Analysis, error) {
	if !ValidGrainType(grainType) {
		return models.Analysis{}, fmt.Errorf("%w: %q", apperrors.ErrGrainTypeInvalid, grainType)
	}

	result, err := s.analyzer.Analyze(ctx, imageURL, grainType)
	if err != nil {
		return models.Analysis{}, fmt.Errorf("analyzer failed. Err: %w", err)
	}

	analysis, err := s.analysisRepo.Create(ctx, repository.CreateAnalysisParams{
		UserID:             userID,
		GrainType:          result.GrainType,
		TotalGrains:        result.TotalGrains,
		HealthyGrains:      result.HealthyGrains,
		DefectiveGrains:    result.DefectiveGrains,
		DefectsBreakdown:   result.DefectsBreakdown,
		PurityPercentage:   result.PurityPercentage,
		ImpurityPercentage: result.ImpurityPercentage,
		ImageURL:           imageURL,
	})
	if err != nil {
		return models.Analysis{}, fmt.Errorf("can't save analysis. Err: %w", err)
	}

	return analysis, nil
}

// History lists the user's analyses, newest first.
// A non-positive limit falls back to the default of 50.
func (s *AnalysisService) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.Analysis, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.analysisRepo.List(ctx, userID, limit)
}

// Recent returns the five most recent analyses
func (s *AnalysisService) Recent(ctx context.Context, userID uuid.UUID) ([]models.Analysis, error) {
	return s.analysisRepo.List(ctx, userID, recentLimit)
}

func (s *AnalysisService) ByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (models.Analysis, error) {
	return s.analysisRepo.GetByID(ctx, id, userID)
}

func (s *AnalysisService) ByGrainType(ctx context.Context, userID uuid.UUID, grainType string) ([]models.Analysis, error) {
	if !ValidGrainType(grainType) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrGrainTypeInvalid, grainType)
	}
	return s.analysisRepo.ListByGrainType(ctx, userID, grainType, defaultHistoryLimit)
}

func (s *AnalysisService) Stats(ctx context.Context, userID uuid.UUID) (models.AnalysisStats, error) {
	return s.analysisRepo.Stats(ctx, userID)
}

// Compare computes aggregate metrics over at least two analyses.
// Every requested id must exist and belong to the user.
func (s *AnalysisService) Compare(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (Comparison, error) {
	if len(ids) < 2 {
		return Comparison{}, apperrors.ErrNotEnoughAnalyses
	}

	analyses, err := s.analysisRepo.ListByIDs(ctx, userID, ids)
	if err != nil {
		return Comparison{}, err
	}
	if len(analyses) != len(ids) {
		return Comparison{}, fmt.Errorf("%w: some requested analyses are missing", apperrors.ErrAnalysisNotFound)
	}

	puritySum := decimal.Zero
	best := analyses[0].PurityPercentage
	worst := analyses[0].PurityPercentage
	var defectiveSum int64

	for _, a := range analyses {
		puritySum = puritySum.Add(a.PurityPercentage)
		if a.PurityPercentage.GreaterThan(best) {
			best = a.PurityPercentage
		}
		if a.PurityPercentage.LessThan(worst) {
			worst = a.PurityPercentage
		}
		defectiveSum += int64(a.DefectiveGrains)
	}

	count := decimal.NewFromInt(int64(len(analyses)))

	return Comparison{
		Analyses: analyses,
		Metrics: ComparisonMetrics{
			AveragePurity:          puritySum.DivRound(count, 2),
			BestPurity:             best,
			WorstPurity:            worst,
			AverageDefectiveGrains: decimal.NewFromInt(defectiveSum).DivRound(count, 0).IntPart(),
		},
	}, nil
}

func (s *AnalysisService) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	return s.analysisRepo.Delete(ctx, id, userID)
}

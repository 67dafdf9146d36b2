package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agroview/agroview/internal/apperrors"
	"github.com/agroview/agroview/internal/models"
	"github.com/agroview/agroview/internal/repository"
)

type AnalysisRepo struct {
	DB DBTX
}

const createAnalysis = `-- name: CreateAnalysis
INSERT INTO analyses (id, user_id, grain_type, total_grains, healthy_grains, defective_grains,
                      defects_breakdown, purity_percentage, impurity_percentage, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, user_id, grain_type, total_grains, healthy_grains, defective_grains,
          defects_breakdown, purity_percentage, impurity_percentage, image_url, created_at
`

func (r *AnalysisRepo) Create(ctx context.Context, arg repository.CreateAnalysisParams) (models.Analysis, error) {
	rows, _ := r.DB.Query(ctx, createAnalysis,
		uuid.New(), arg.UserID, arg.GrainType, arg.TotalGrains, arg.HealthyGrains, arg.DefectiveGrains,
		arg.DefectsBreakdown, arg.PurityPercentage, arg.ImpurityPercentage, arg.ImageURL,
	)
	analysis, err := pgx.CollectOneRow(rows, rowToAnalysis)
	if err != nil {
		return analysis, fmt.Errorf("db error: %w", err)
	}
	return analysis, nil
}

const getAnalysisByID = `-- name: GetAnalysisByID
SELECT id, user_id, grain_type, total_grains, healthy_grains, defective_grains,
       defects_breakdown, purity_percentage, impurity_percentage, image_url, created_at
FROM analyses
WHERE id = $1 AND user_id = $2
`

func (r *AnalysisRepo) GetByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (models.Analysis, error) {
	rows, _ := r.DB.Query(ctx, getAnalysisByID, id, userID)
	analysis, err := pgx.CollectOneRow(rows, rowToAnalysis)

	switch {
	case err == nil:
		return analysis, nil
	case errors.Is(err, pgx.ErrNoRows):
		return analysis, fmt.Errorf("repo error: %w", apperrors.ErrAnalysisNotFound)
	default:
		return analysis, fmt.Errorf("db error: %w", err)
	}
}

const listAnalyses = `-- name: ListAnalyses
SELECT id, user_id, grain_type, total_grains, healthy_grains, defective_grains,
       defects_breakdown, purity_percentage, impurity_percentage, image_url, created_at
FROM analyses
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`

func (r *AnalysisRepo) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Analysis, error) {
	rows, _ := r.DB.Query(ctx, listAnalyses, userID, limit)
	analyses, err := pgx.CollectRows(rows, rowToAnalysis)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return analyses, nil
}

const listAnalysesByGrainType = `-- name: ListAnalysesByGrainType
SELECT id, user_id, grain_type, total_grains, healthy_grains, defective_grains,
       defects_breakdown, purity_percentage, impurity_percentage, image_url, created_at
FROM analyses
WHERE user_id = $1 AND grain_type = $2
ORDER BY created_at DESC
LIMIT $3
`

func (r *AnalysisRepo) ListByGrainType(ctx context.Context, userID uuid.UUID, grainType string, limit int) ([]models.Analysis, error) {
	rows, _ := r.DB.Query(ctx, listAnalysesByGrainType, userID, grainType, limit)
	analyses, err := pgx.CollectRows(rows, rowToAnalysis)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return analyses, nil
}

const listAnalysesByIDs = `-- name: ListAnalysesByIDs
SELECT id, user_id, grain_type, total_grains, healthy_grains, defective_grains,
       defects_breakdown, purity_percentage, impurity_percentage, image_url, created_at
FROM analyses
WHERE user_id = $1 AND id = ANY($2)
ORDER BY created_at DESC
`

func (r *AnalysisRepo) ListByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.Analysis, error) {
	rows, _ := r.DB.Query(ctx, listAnalysesByIDs, userID, ids)
	analyses, err := pgx.CollectRows(rows, rowToAnalysis)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return analyses, nil
}

const analysisStats = `-- name: AnalysisStats
SELECT count(*),
       COALESCE(round(avg(purity_percentage), 2), 0),
       COALESCE(max(purity_percentage), 0),
       COALESCE(min(purity_percentage), 0)
FROM analyses
WHERE user_id = $1
`

const grainTypeStats = `-- name: GrainTypeStats
SELECT grain_type, count(*), COALESCE(round(avg(purity_percentage), 2), 0)
FROM analyses
WHERE user_id = $1
GROUP BY grain_type
ORDER BY count(*) DESC, grain_type
`

func (r *AnalysisRepo) Stats(ctx context.Context, userID uuid.UUID) (models.AnalysisStats, error) {
	var stats models.AnalysisStats

	row := r.DB.QueryRow(ctx, analysisStats, userID)
	err := row.Scan(&stats.TotalAnalyses, &stats.AveragePurity, &stats.BestPurity, &stats.WorstPurity)
	if err != nil {
		return stats, fmt.Errorf("db error: %w", err)
	}

	rows, _ := r.DB.Query(ctx, grainTypeStats, userID)
	stats.GrainTypeStats, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.GrainTypeStat, error) {
		var s models.GrainTypeStat
		err := row.Scan(&s.GrainType, &s.Count, &s.AveragePurity)
		return s, err
	})
	if err != nil {
		return stats, fmt.Errorf("db error: %w", err)
	}

	return stats, nil
}

const deleteAnalysis = `-- name: DeleteAnalysis
DELETE FROM analyses
WHERE id = $1 AND user_id = $2
`

func (r *AnalysisRepo) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteAnalysis, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo error: %w", apperrors.ErrAnalysisNotFound)
	}
	return nil
}

func rowToAnalysis(row pgx.CollectableRow) (models.Analysis, error) {
	var a models.Analysis
	err := row.Scan(
		&a.ID, &a.UserID, &a.GrainType, &a.TotalGrains, &a.HealthyGrains, &a.DefectiveGrains,
		&a.DefectsBreakdown, &a.PurityPercentage, &a.ImpurityPercentage, &a.ImageURL, &a.CreatedAt,
	)
	return a, err
}

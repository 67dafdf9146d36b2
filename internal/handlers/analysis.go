package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/agroview/agroview/internal/apperrors"
	"github.com/agroview/agroview/internal/handlers/render"
	"github.com/agroview/agroview/internal/handlers/userctx"
	"github.com/agroview/agroview/internal/logger"
	"github.com/agroview/agroview/internal/models"
)

type analysisResponse struct {
	ID                 string                  `json:"id"`
	GrainType          string                  `json:"grainType"`
	TotalGrains        int                     `json:"totalGrains"`
	HealthyGrains      int                     `json:"healthyGrains"`
	DefectiveGrains    int                     `json:"defectiveGrains"`
	DefectsBreakdown   models.DefectsBreakdown `json:"defectsBreakdown"`
	PurityPercentage   float64                 `json:"purityPercentage"`
	ImpurityPercentage float64                 `json:"impurityPercentage"`
	ImageURL           string                  `json:"imageUrl"`
	CreatedAt          string                  `json:"createdAt"`
}

func toAnalysisResponse(a models.Analysis) analysisResponse {
	purity, _ := a.PurityPercentage.Float64()
	impurity, _ := a.ImpurityPercentage.Float64()

	return analysisResponse{
		ID:                 a.ID.String(),
		GrainType:          a.GrainType,
		TotalGrains:        a.TotalGrains,
		HealthyGrains:      a.HealthyGrains,
		DefectiveGrains:    a.DefectiveGrains,
		DefectsBreakdown:   a.DefectsBreakdown,
		PurityPercentage:   purity,
		ImpurityPercentage: impurity,
		ImageURL:           a.ImageURL,
		CreatedAt:          a.CreatedAt.Format(time.RFC3339),
	}
}

func toAnalysisResponses(analyses []models.Analysis) []analysisResponse {
	responses := make([]analysisResponse, 0, len(analyses))
	for _, a := range analyses {
		responses = append(responses, toAnalysisResponse(a))
	}
	return responses
}

// userOr401 pulls the authenticated user from the context.
// The auth middleware guarantees it is there, the fallback guards direct handler use
func userOr401(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.Error(w, "Authentication required", render.CodeUnauthorized, http.StatusUnauthorized)
	}
	return user, ok
}

func handleAnalysisHistory(as analysisService, l logger.Logger) http.Handler {
	type response struct {
		Analyses []analysisResponse `json:"analyses"`
		Count    int                `json:"count"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userOr401(w, r)
		if !ok {
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				render.Error(w, "Query parameter 'limit' must be a positive integer", render.CodeValidation, http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		analyses, err := as.History(r.Context(), user.ID, limit)
		if err != nil {
			l.Error("failed to list analyses", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Analyses: toAnalysisResponses(analyses), Count: len(analyses)})
	})
}

func handleRecentAnalyses(as analysisService, l logger.Logger) http.Handler {
	type response struct {
		Analyses []analysisResponse `json:"analyses"`
		Count    int                `json:"count"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userOr401(w, r)
		if !ok {
			return
		}

		analyses, err := as.Recent(r.Context(), user.ID)
		if err != nil {
			l.Error("failed to list recent analyses", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Analyses: toAnalysisResponses(analyses), Count: len(analyses)})
	})
}

func handleAnalysisStats(as analysisService, l logger.Logger) http.Handler {
	type grainTypeStat struct {
		GrainType     string  `json:"grainType"`
		Count         int64   `json:"count"`
		AveragePurity float64 `json:"averagePurity"`
	}

	type response struct {
		TotalAnalyses      int64           `json:"totalAnalyses"`
		AveragePurity      float64         `json:"averagePurity"`
		BestPurity         float64         `json:"bestPurity"`
		WorstPurity        float64         `json:"worstPurity"`
		GrainTypeBreakdown []grainTypeStat `json:"grainTypeBreakdown"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userOr401(w, r)
		if !ok {
			return
		}

		stats, err := as.Stats(r.Context(), user.ID)
		if err != nil {
			l.Error("failed to compute analysis stats", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
			return
		}

		avg, _ := stats.AveragePurity.Float64()
		best, _ := stats.BestPurity.Float64()
		worst, _ := stats.WorstPurity.Float64()

		breakdown := make([]grainTypeStat, 0, len(stats.GrainTypeStats))
		for _, s := range stats.GrainTypeStats {
			typeAvg, _ := s.AveragePurity.Float64()
			breakdown = append(breakdown, grainTypeStat{
				GrainType:     s.GrainType,
				Count:         s.Count,
				AveragePurity: typeAvg,
			})
		}

		render.JSON(w, response{
			TotalAnalyses:      stats.TotalAnalyses,
			AveragePurity:      avg,
			BestPurity:         best,
			WorstPurity:        worst,
			GrainTypeBreakdown: breakdown,
		})
	})
}

func handleAnalysesByGrainType(as analysisService, l logger.Logger) http.Handler {
	type response struct {
		GrainType string             `json:"grainType"`
		Analyses  []analysisResponse `json:"analyses"`
		Count     int                `json:"count"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userOr401(w, r)
		if !ok {
			return
		}

		grainType := r.PathValue("grainType")
		analyses, err := as.ByGrainType(r.Context(), user.ID, grainType)

		switch {
		case errors.Is(err, apperrors.ErrGrainTypeInvalid):
			render.Error(w, "Unknown grain type: "+grainType, render.CodeValidation, http.StatusBadRequest)
		case err != nil:
			l.Error("failed to list analyses by grain type", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
		default:
			render.JSON(w, response{GrainType: grainType, Analyses: toAnalysisResponses(analyses), Count: len(analyses)})
		}
	})
}

func handleAnalysisByID(as analysisService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userOr401(w, r)
		if !ok {
			return
		}

		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.Error(w, "Analysis not found", render.CodeNotFound, http.StatusNotFound)
			return
		}

		analysis, err := as.ByID(r.Context(), id, user.ID)

		switch {
		case errors.Is(err, apperrors.ErrAnalysisNotFound):
			render.Error(w, "Analysis not found", render.CodeNotFound, http.StatusNotFound)
		case err != nil:
			l.Error("failed to get analysis", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
		default:
			render.JSON(w, toAnalysisResponse(analysis))
		}
	})
}

func handleAnalysisReport(as analysisService, reports reportGenerator, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userOr401(w, r)
		if !ok {
			return
		}

		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.Error(w, "Analysis not found", render.CodeNotFound, http.StatusNotFound)
			return
		}

		analysis, err := as.ByID(r.Context(), id, user.ID)
		if errors.Is(err, apperrors.ErrAnalysisNotFound) {
			render.Error(w, "Analysis not found", render.CodeNotFound, http.StatusNotFound)
			return
		}
		if err != nil {
			l.Error("failed to get analysis for report", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
			return
		}

		pdf, err := reports.Generate(analysis)
		if err != nil {
			l.Error("failed to render analysis report", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=relatorio-analise-%s.pdf", analysis.ID))
		w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
		_, _ = w.Write(pdf)
	})
}

func handleCompareAnalyses(as analysisService, l logger.Logger) http.Handler {
	type request struct {
		AnalysisIDs []string `json:"analysisIds" validate:"required,min=2,dive,uuid"`
	}

	type comparedAnalysis struct {
		AnalysisID       string  `json:"analysisId"`
		GrainType        string  `json:"grainType"`
		PurityPercentage float64 `json:"purityPercentage"`
		DefectiveGrains  int     `json:"defectiveGrains"`
		Date             string  `json:"date"`
	}

	type metrics struct {
		AveragePurity          float64 `json:"averagePurity"`
		BestPurity             float64 `json:"bestPurity"`
		WorstPurity            float64 `json:"worstPurity"`
		AverageDefectiveGrains int64   `json:"averageDefectiveGrains"`
	}

	type response struct {
		ComparedAnalyses  []comparedAnalysis `json:"comparedAnalyses"`
		ComparisonMetrics metrics            `json:"comparisonMetrics"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userOr401(w, r)
		if !ok {
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		ids := make([]uuid.UUID, 0, len(req.AnalysisIDs))
		for _, raw := range req.AnalysisIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				render.Error(w, "Invalid analysis id: "+raw, render.CodeValidation, http.StatusBadRequest)
				return
			}
			ids = append(ids, id)
		}

		comparison, err := as.Compare(r.Context(), user.ID, ids)

		switch {
		case errors.Is(err, apperrors.ErrNotEnoughAnalyses):
			render.Error(w, "At least two analyses are required for comparison", render.CodeValidation, http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrAnalysisNotFound):
			render.Error(w, "One or more analyses were not found", render.CodeNotFound, http.StatusNotFound)
		case err != nil:
			l.Error("failed to compare analyses", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
		default:
			compared := make([]comparedAnalysis, 0, len(comparison.Analyses))
			for _, a := range comparison.Analyses {
				purity, _ := a.PurityPercentage.Float64()
				compared = append(compared, comparedAnalysis{
					AnalysisID:       a.ID.String(),
					GrainType:        a.GrainType,
					PurityPercentage: purity,
					DefectiveGrains:  a.DefectiveGrains,
					Date:             a.CreatedAt.Format(time.RFC3339),
				})
			}

			avg, _ := comparison.Metrics.AveragePurity.Float64()
			best, _ := comparison.Metrics.BestPurity.Float64()
			worst, _ := comparison.Metrics.WorstPurity.Float64()

			render.JSON(w, response{
				ComparedAnalyses: compared,
				ComparisonMetrics: metrics{
					AveragePurity:          avg,
					BestPurity:             best,
					WorstPurity:            worst,
					AverageDefectiveGrains: comparison.Metrics.AverageDefectiveGrains,
				},
			})
		}
	})
}

func handleDeleteAnalysis(as analysisService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userOr401(w, r)
		if !ok {
			return
		}

		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.Error(w, "Analysis not found", render.CodeNotFound, http.StatusNotFound)
			return
		}

		err = as.Delete(r.Context(), id, user.ID)

		switch {
		case errors.Is(err, apperrors.ErrAnalysisNotFound):
			render.Error(w, "Analysis not found", render.CodeNotFound, http.StatusNotFound)
		case err != nil:
			l.Error("failed to delete analysis", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
		default:
			render.JSON(w, response{Message: "Analysis deleted"})
		}
	})
}

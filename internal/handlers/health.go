package handlers

import (
	"net/http"
	"time"

	"github.com/agroview/agroview/internal/handlers/render"
)

const apiVersion = "1.0.0"

func handleHealth(environment string) http.Handler {
	type response struct {
		Status      string `json:"status"`
		Timestamp   string `json:"timestamp"`
		Environment string `json:"environment"`
		Version     string `json:"version"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, response{
			Status:      "OK",
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			Environment: environment,
			Version:     apiVersion,
		})
	})
}

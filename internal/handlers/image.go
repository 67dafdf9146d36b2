package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/agroview/agroview/internal/apperrors"
	"github.com/agroview/agroview/internal/handlers/render"
	"github.com/agroview/agroview/internal/handlers/userctx"
	"github.com/agroview/agroview/internal/imagestore"
	"github.com/agroview/agroview/internal/logger"
)

const (
	// Images above this size are rejected
	maxUploadBytes = 5 << 20

	uploadFieldName = "image"
)

// Extensions by detected content type. Anything else is rejected
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

func handleProcessImage(as analysisService, images imagestore.Store, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, "Authentication required", render.CodeUnauthorized, http.StatusUnauthorized)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1024)

		err := r.ParseMultipartForm(maxUploadBytes)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				render.Error(w, "File exceeds the 5MB size limit", render.CodeFileTooLarge, http.StatusBadRequest)
				return
			}
			render.Error(w, "Invalid multipart form data", render.CodeValidation, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile(uploadFieldName)
		if err != nil {
			render.Error(w, "No image file uploaded", render.CodeNoFileUploaded, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxUploadBytes {
			render.Error(w, "File exceeds the 5MB size limit", render.CodeFileTooLarge, http.StatusBadRequest)
			return
		}

		// Sniff the real content type, the client supplied header is not trusted
		head := make([]byte, 512)
		n, err := io.ReadFull(file, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			l.Error("failed to read uploaded file", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
			return
		}

		contentType := http.DetectContentType(head[:n])
		ext, ok := imageExtensions[contentType]
		if !ok {
			render.Error(w, "Only JPEG and PNG images are accepted", render.CodeValidation, http.StatusBadRequest)
			return
		}

		content := io.MultiReader(bytes.NewReader(head[:n]), file)
		imageURL, err := images.Save(r.Context(), ext, contentType, content)
		if err != nil {
			l.Error("failed to store uploaded image", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
			return
		}

		grainType := r.FormValue("grainType")
		analysis, err := as.Process(r.Context(), user.ID, imageURL, grainType)

		switch {
		case errors.Is(err, apperrors.ErrGrainTypeInvalid):
			render.Error(w, "Unknown grain type: "+grainType, render.CodeValidation, http.StatusBadRequest)
		case err != nil:
			l.Error("failed to process image", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
		default:
			render.JSONWithStatus(w, toAnalysisResponse(analysis), http.StatusCreated)
		}
	})
}

func handleSupportedFormats() http.Handler {
	type response struct {
		Formats     []string `json:"formats"`
		MaxSizeMB   int      `json:"maxSizeMB"`
		UploadField string   `json:"uploadField"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, response{
			Formats:     []string{"image/jpeg", "image/png"},
			MaxSizeMB:   maxUploadBytes >> 20,
			UploadField: uploadFieldName,
		})
	})
}

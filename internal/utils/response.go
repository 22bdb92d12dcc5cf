package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"iotguardian/internal/logx"
	"iotguardian/internal/models"
)

// maxBodyBytes caps request bodies read by DecodeJSON.
const maxBodyBytes = 1 << 20

// RespondWithError sends a JSON error response using the APIError model.
func RespondWithError(writer http.ResponseWriter, apiErr models.APIError) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(apiErr.StatusCode)

	if err := json.NewEncoder(writer).Encode(apiErr); err != nil {
		logx.Error().Err(err).Msg("Failed to encode error response")
	}
}

// RespondWithJSON sends a JSON success response.
func RespondWithJSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(statusCode)
	if err := json.NewEncoder(writer).Encode(payload); err != nil {
		logx.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// RespondWithCSV sends data as a downloadable CSV file.
func RespondWithCSV(writer http.ResponseWriter, filename string, data []byte) {
	writer.Header().Set("Content-Type", "text/csv; charset=utf-8")
	writer.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writer.WriteHeader(http.StatusOK)
	if _, err := writer.Write(data); err != nil {
		logx.Error().Err(err).Msg("Failed to write CSV response")
	}
}

// DecodeJSON reads the request body into dst. On failure it writes a 400 and returns false.
func DecodeJSON(writer http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "Invalid JSON payload"
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		RespondWithError(writer, models.NewAPIError(models.ErrorCodeInvalidFormat, msg, err.Error(), http.StatusBadRequest))
		return false
	}
	return true
}

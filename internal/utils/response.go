package utils

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// JSON writes data with the given status. The status is already sent when encoding
// fails, so the failure is only logged.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		GetLogger().Warn("Failed to encode JSON response", zap.Int("status", statusCode), zap.Error(err))
	}
}

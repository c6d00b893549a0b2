package middleware

import (
	"encoding/json"
	"net/http"
)

// WriteError writes the API error envelope {"success": false, "error": msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}

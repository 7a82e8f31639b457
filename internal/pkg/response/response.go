package response

import (
	"encoding/json"
	"net/http"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Can't change response at this point, just log
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// Error writes the shared error payload shape.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

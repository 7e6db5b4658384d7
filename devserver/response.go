package devserver

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

const statusSuccess = "success"

type messageBody struct {
	Message string `json:"message"`
}

type envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageBody{Message: message})
}

// writeData wraps data in the {status, data} envelope
func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Status: statusSuccess, Data: data})
}

// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"encoding/json"
	"net/http"

	"github.com/chinyuchan/platform/log"
)

type logLevelRequest struct {
	Level string `json:"level"`
}

type logLevelResponse struct {
	CurrentLevel string `json:"currentLevel"`
}

type healthResponse struct {
	Healthy    bool   `json:"healthy"`
	Height     uint64 `json:"height"`
	Commitment string `json:"commitment"`
}

type errorResponse struct {
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func writeError(w http.ResponseWriter, errCode int, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errCode)
	json.NewEncoder(w).Encode(errorResponse{
		ErrorCode:    errCode,
		ErrorMessage: errMsg,
	})
}

func logLevelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeLogLevel(w)
		case http.MethodPost:
			var req logLevelRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			if err := log.SetLevel(req.Level); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid verbosity level")
				return
			}
			writeLogLevel(w)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func writeLogLevel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(logLevelResponse{CurrentLevel: log.Level()}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode response")
	}
}

func healthHandler(chain Chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		height, commitment, ok := chain.Version()
		response := healthResponse{
			Healthy:    ok,
			Height:     height,
			Commitment: commitment.String(),
		}
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"

	"github.com/chinyuchan/platform/platform"
	"github.com/chinyuchan/platform/tx"
	"github.com/chinyuchan/platform/txpool"
)

type nodeResponse struct {
	ChainTag   uint8  `json:"chainTag"`
	Height     uint64 `json:"height"`
	Commitment string `json:"commitment"`
}

type submitRequest struct {
	Raw string `json:"raw"`
}

type submitResponse struct {
	ID string `json:"id"`
}

type attributeJSON struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type eventJSON struct {
	Type       string          `json:"type"`
	Attributes []attributeJSON `json:"attributes"`
}

type receiptJSON struct {
	ID      string      `json:"id"`
	Height  uint64      `json:"height"`
	Code    uint32      `json:"code"`
	Status  string      `json:"status"`
	GasUsed uint64      `json:"gasUsed"`
	Events  []eventJSON `json:"events"`
	Log     string      `json:"log,omitempty"`
}

type errorResponse struct {
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, errCode int, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errCode)
	json.NewEncoder(w).Encode(errorResponse{
		ErrorCode:    errCode,
		ErrorMessage: errMsg,
	})
}

func convertReceipt(r *tx.Receipt, height uint64) *receiptJSON {
	events := make([]eventJSON, 0, len(r.Events))
	for _, e := range r.Events {
		attrs := make([]attributeJSON, 0, len(e.Attributes))
		for _, a := range e.Attributes {
			attrs = append(attrs, attributeJSON{Key: a.Key, Value: a.Value})
		}
		events = append(events, eventJSON{Type: e.Type, Attributes: attrs})
	}
	return &receiptJSON{
		ID:      r.ID.String(),
		Height:  height,
		Code:    uint32(r.Code),
		Status:  r.Code.String(),
		GasUsed: r.GasUsed,
		Events:  events,
		Log:     r.Log,
	}
}

func (a *API) handleNode(w http.ResponseWriter, _ *http.Request) {
	height, commitment, ok := a.ledger.Version()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "chain not initialized")
		return
	}
	writeJSON(w, nodeResponse{
		ChainTag:   a.ledger.ChainTag(),
		Height:     height,
		Commitment: commitment.String(),
	})
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	raw, err := hexutil.Decode(req.Raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "raw: invalid hex")
		return
	}
	env, err := tx.Decode(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "raw: "+err.Error())
		return
	}
	if err := a.pool.Add(env); err != nil {
		if code, ok := txpool.Rejection(err); ok {
			writeError(w, http.StatusUnprocessableEntity, code.String()+": "+err.Error())
			return
		}
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, submitResponse{ID: env.ID().String()})
}

func (a *API) handleReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := platform.ParseBytes32(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "id: "+err.Error())
		return
	}
	receipt, height, found, err := a.ledger.GetReceipt(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "receipt not found")
		return
	}
	writeJSON(w, convertReceipt(receipt, height))
}

func (a *API) handleBlockReceipts(w http.ResponseWriter, r *http.Request) {
	height, err := strconv.ParseUint(mux.Vars(r)["height"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "height: "+err.Error())
		return
	}
	receipts, err := a.ledger.BlockReceipts(height)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	converted := make([]*receiptJSON, 0, len(receipts))
	for _, receipt := range receipts {
		converted = append(converted, convertReceipt(receipt, height))
	}
	writeJSON(w, converted)
}

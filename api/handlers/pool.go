package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/openalpha/creditpool/api/types"
)

// PoolHandler handles pool and supplier HTTP requests
type PoolHandler struct {
	service types.PoolService
}

// NewPoolHandler creates a new pool handler
func NewPoolHandler(service types.PoolService) *PoolHandler {
	return &PoolHandler{service: service}
}

// HandlePool handles /v1/pool endpoint (GET)
func (h *PoolHandler) HandlePool(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getPool(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	}
}

// HandleSupplier handles /v1/pool/suppliers/{address} endpoint (GET)
func (h *PoolHandler) HandleSupplier(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	prefix := "/v1/pool/suppliers/"
	if !strings.HasPrefix(path, prefix) {
		writeError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
		return
	}
	address := strings.TrimPrefix(path, prefix)
	if address == "" {
		writeError(w, http.StatusBadRequest, "missing_address", "Supplier address is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getSupplier(w, r, address)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	}
}

// HandleSupply handles POST /v1/pool/supply
func (h *PoolHandler) HandleSupply(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var req types.SupplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if req.Supplier == "" {
		req.Supplier = r.Header.Get("X-Account-Address")
	}
	if req.Supplier == "" {
		writeError(w, http.StatusBadRequest, "missing_supplier", "supplier address is required")
		return
	}

	resp, err := h.service.Supply(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "supply_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleWithdraw handles POST /v1/pool/withdraw
func (h *PoolHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var req types.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if req.Supplier == "" {
		req.Supplier = r.Header.Get("X-Account-Address")
	}
	if req.Supplier == "" {
		writeError(w, http.StatusBadRequest, "missing_supplier", "supplier address is required")
		return
	}

	resp, err := h.service.Withdraw(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "withdraw_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// getPool handles GET /v1/pool
func (h *PoolHandler) getPool(w http.ResponseWriter, r *http.Request) {
	pool, err := h.service.GetPool(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_pool_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"pool": pool})
}

// getSupplier handles GET /v1/pool/suppliers/{address}
func (h *PoolHandler) getSupplier(w http.ResponseWriter, r *http.Request, address string) {
	supplier, err := h.service.GetSupplier(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_supplier_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"supplier": supplier})
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

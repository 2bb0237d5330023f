package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/openalpha/creditpool/api/types"
)

// MarketHandler handles market and borrow HTTP requests
type MarketHandler struct {
	markets   types.MarketService
	positions types.PositionService
	clearing  types.ClearingService
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(markets types.MarketService, positions types.PositionService, clearing types.ClearingService) *MarketHandler {
	return &MarketHandler{markets: markets, positions: positions, clearing: clearing}
}

// HandleMarkets handles /v1/markets endpoint (GET for list)
func (h *MarketHandler) HandleMarkets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listMarkets(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	}
}

// HandleMarket handles /v1/markets/{marketID}/* endpoints (GET)
//
// Market IDs contain a slash ("uusdc/tbond"), so the market ID is the first
// two path segments and the sub-endpoint, if any, is the third.
func (h *MarketHandler) HandleMarket(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/markets/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing_market_id", "Market ID is required")
		return
	}

	segments := strings.Split(path, "/")
	if len(segments) < 2 {
		writeError(w, http.StatusBadRequest, "invalid_market_id", "Market ID must be base/collateral")
		return
	}
	marketID := segments[0] + "/" + segments[1]
	endpoint := ""
	if len(segments) > 2 {
		endpoint = strings.Join(segments[2:], "/")
	}

	if r.Method != http.MethodGet {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	switch endpoint {
	case "":
		h.getMarket(w, r, marketID)
	case "positions":
		h.listPositions(w, r, marketID)
	case "resolution":
		h.getResolution(w, r, marketID)
	default:
		writeError(w, http.StatusNotFound, "endpoint_not_found", "Endpoint not found")
	}
}

// HandleBorrow handles POST /v1/borrow
func (h *MarketHandler) HandleBorrow(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var req types.BorrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if req.Borrower == "" {
		req.Borrower = r.Header.Get("X-Account-Address")
	}
	if req.Borrower == "" || req.MarketID == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "borrower and market_id are required")
		return
	}

	resp, err := h.markets.Borrow(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "borrow_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleRepay handles POST /v1/repay
func (h *MarketHandler) HandleRepay(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	var req types.RepayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if req.Borrower == "" {
		req.Borrower = r.Header.Get("X-Account-Address")
	}
	if req.Borrower == "" || req.MarketID == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "borrower and market_id are required")
		return
	}

	resp, err := h.markets.Repay(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "repay_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDebt handles GET /v1/debt?market_id=...&borrower=...
func (h *MarketHandler) HandleDebt(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	marketID := r.URL.Query().Get("market_id")
	borrower := r.URL.Query().Get("borrower")
	if borrower == "" {
		borrower = r.Header.Get("X-Account-Address")
	}
	if marketID == "" || borrower == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "market_id and borrower are required")
		return
	}

	breakdown, err := h.positions.GetDebtBreakdown(r.Context(), marketID, borrower)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "market_not_found", err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "debt_breakdown_failed", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"debt": breakdown})
}

// listMarkets handles GET /v1/markets
func (h *MarketHandler) listMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := h.markets.ListMarkets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_markets_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"markets": markets,
		"total":   len(markets),
	})
}

// getMarket handles GET /v1/markets/{marketID}
func (h *MarketHandler) getMarket(w http.ResponseWriter, r *http.Request, marketID string) {
	market, err := h.markets.GetMarket(r.Context(), marketID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "market_not_found", err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "get_market_failed", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"market": market})
}

// listPositions handles GET /v1/markets/{marketID}/positions
func (h *MarketHandler) listPositions(w http.ResponseWriter, r *http.Request, marketID string) {
	borrower := r.URL.Query().Get("borrower")
	if borrower != "" {
		position, err := h.positions.GetPosition(r.Context(), marketID, borrower)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "get_position_failed", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"position": position})
		return
	}

	positions, err := h.positions.GetPositions(r.Context(), marketID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_positions_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"positions": positions,
		"total":     len(positions),
	})
}

// getResolution handles GET /v1/markets/{marketID}/resolution
func (h *MarketHandler) getResolution(w http.ResponseWriter, r *http.Request, marketID string) {
	resolution, err := h.clearing.GetResolution(r.Context(), marketID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_resolution_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"resolution": resolution})
}

// HandleLiquidations handles GET /v1/liquidations
func (h *MarketHandler) HandleLiquidations(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	liquidations, err := h.clearing.ListLiquidations(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_liquidations_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"liquidations": liquidations,
		"total":        len(liquidations),
	})
}

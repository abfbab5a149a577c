package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/portfoliotracker/backend/src/logger"
	"github.com/username/portfoliotracker/backend/src/models"
	"github.com/username/portfoliotracker/backend/src/security/validation"
	"github.com/username/portfoliotracker/backend/src/services"
	"github.com/username/portfoliotracker/backend/src/utils"
)

type PortfolioHandler struct {
	portfolioService services.PortfolioService
}

func NewPortfolioHandler(portfolioService services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

func (h *PortfolioHandler) HandleListPositions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	positions, err := h.portfolioService.ListPositions(userID)
	if err != nil {
		logger.L.Error("Error listing positions", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error listing positions", http.StatusInternalServerError)
		return
	}
	if positions == nil {
		positions = []models.Position{}
	}
	utils.SendJSON(w, positions, http.StatusOK)
}

// HandleRefreshPrice applies an externally supplied price to one position.
// This is the explicit input port for current_price; the engine never sets it.
func (h *PortfolioHandler) HandleRefreshPrice(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	assetID, err := parseID(r.PathValue("assetID"))
	if err != nil {
		utils.SendJSONError(w, "Invalid asset id", http.StatusBadRequest)
		return
	}

	var payload struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	position, err := h.portfolioService.RefreshPrice(userID, assetID, payload.Price)
	if err != nil {
		var fieldErr *validation.FieldError
		switch {
		case errors.As(err, &fieldErr):
			utils.SendJSONError(w, fieldErr.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrPositionNotFound):
			utils.SendJSONError(w, "Position not found", http.StatusNotFound)
		default:
			logger.L.Error("Error refreshing price", "userID", userID, "assetID", assetID, "error", err)
			utils.SendJSONError(w, "Error refreshing price", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, position, http.StatusOK)
}

// HandleGetSummary returns the portfolio-wide PnL summary. The response
// carries an ETag; a matching If-None-Match short-circuits to 304.
func (h *PortfolioHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	summary, err := h.portfolioService.GetSummary(userID)
	if err != nil {
		logger.L.Error("Error computing portfolio summary", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error computing portfolio summary", http.StatusInternalServerError)
		return
	}

	if etag, err := utils.GenerateETag(summary); err == nil {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	utils.SendJSON(w, summary, http.StatusOK)
}

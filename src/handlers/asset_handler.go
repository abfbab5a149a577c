package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/username/portfoliotracker/backend/src/database"
	"github.com/username/portfoliotracker/backend/src/logger"
	"github.com/username/portfoliotracker/backend/src/model"
	"github.com/username/portfoliotracker/backend/src/security/validation"
	"github.com/username/portfoliotracker/backend/src/utils"
)

type AssetHandler struct {
}

func NewAssetHandler() *AssetHandler {
	return &AssetHandler{}
}

// HandleListAssets returns a page of the asset catalog. skip/limit query
// parameters follow the original API (defaults 0/100).
func (h *AssetHandler) HandleListAssets(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	assets, err := model.ListAssets(database.DB, skip, limit)
	if err != nil {
		logger.L.Error("Error listing assets", "error", err)
		utils.SendJSONError(w, "Error listing assets", http.StatusInternalServerError)
		return
	}
	if assets == nil {
		assets = []model.Asset{}
	}
	utils.SendJSON(w, assets, http.StatusOK)
}

func (h *AssetHandler) HandleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Symbol    string `json:"symbol"`
		Name      string `json:"name"`
		AssetType string `json:"asset_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateAssetInput(payload.Symbol, payload.Name, payload.AssetType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	existing, err := model.GetAssetBySymbol(database.DB, payload.Symbol)
	if err != nil {
		logger.L.Error("Error checking asset symbol", "symbol", payload.Symbol, "error", err)
		utils.SendJSONError(w, "Error creating asset", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		utils.SendJSONError(w, "Asset already exists", http.StatusConflict)
		return
	}

	asset := &model.Asset{
		Symbol:    payload.Symbol,
		Name:      payload.Name,
		AssetType: payload.AssetType,
	}
	if err := asset.CreateAsset(database.DB); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			utils.SendJSONError(w, "Asset already exists", http.StatusConflict)
			return
		}
		logger.L.Error("Error creating asset", "symbol", payload.Symbol, "error", err)
		utils.SendJSONError(w, "Error creating asset", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Asset created", "assetID", asset.ID, "symbol", asset.Symbol)
	utils.SendJSON(w, asset, http.StatusCreated)
}

// queryInt parses a non-negative integer query parameter, falling back to the
// default on absence or garbage.
func queryInt(r *http.Request, name string, fallback int) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

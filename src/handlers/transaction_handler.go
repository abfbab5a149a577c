package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/portfoliotracker/backend/src/logger"
	"github.com/username/portfoliotracker/backend/src/models"
	"github.com/username/portfoliotracker/backend/src/portfolio"
	"github.com/username/portfoliotracker/backend/src/security/validation"
	"github.com/username/portfoliotracker/backend/src/services"
	"github.com/username/portfoliotracker/backend/src/utils"
)

type TransactionHandler struct {
	portfolioService services.PortfolioService
}

func NewTransactionHandler(portfolioService services.PortfolioService) *TransactionHandler {
	return &TransactionHandler{
		portfolioService: portfolioService,
	}
}

func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	limit := queryInt(r, "limit", 100)
	transactions, err := h.portfolioService.ListTransactions(userID, limit)
	if err != nil {
		logger.L.Error("Error listing transactions", "userID", userID, "error", err)
		utils.SendJSONError(w, "Error listing transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	utils.SendJSON(w, transactions, http.StatusOK)
}

func (h *TransactionHandler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var input models.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tx, err := h.portfolioService.RecordTransaction(userID, input)
	if err != nil {
		var fieldErr *validation.FieldError
		switch {
		case errors.As(err, &fieldErr):
			utils.SendJSONError(w, fieldErr.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrAssetNotFound):
			utils.SendJSONError(w, "Asset not found", http.StatusNotFound)
		case errors.Is(err, portfolio.ErrOversell):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.L.Error("Error recording transaction", "userID", userID, "error", err)
			utils.SendJSONError(w, "Error recording transaction", http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, tx, http.StatusCreated)
}

func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	txID, err := parseID(r.PathValue("id"))
	if err != nil {
		utils.SendJSONError(w, "Invalid transaction id", http.StatusBadRequest)
		return
	}

	deleted, err := h.portfolioService.RemoveTransaction(txID, userID)
	if err != nil {
		logger.L.Error("Error deleting transaction", "userID", userID, "txID", txID, "error", err)
		utils.SendJSONError(w, "Error deleting transaction", http.StatusInternalServerError)
		return
	}
	if !deleted {
		utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
		return
	}

	utils.SendJSON(w, map[string]string{"message": "Transaction deleted successfully"}, http.StatusOK)
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/istisna/backend/src/config"
	"github.com/username/istisna/backend/src/logger"
	"github.com/username/istisna/backend/src/models"
	"github.com/username/istisna/backend/src/notifications"
	"github.com/username/istisna/backend/src/processors"
	"github.com/username/istisna/backend/src/security/validation"
	"github.com/username/istisna/backend/src/utils"
)

type IncomeHandler struct {
	ledgers *processors.LedgerSet
	feeds   *notifications.FeedSet
}

func NewIncomeHandler(ledgers *processors.LedgerSet, feeds *notifications.FeedSet) *IncomeHandler {
	return &IncomeHandler{ledgers: ledgers, feeds: feeds}
}

// GetIncomeHandler returns the user's entries, newest first.
func (h *IncomeHandler) GetIncomeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.ledgers.For(userID).Entries())
}

// CreateIncomeHandler validates the manual entry form, computes the TRY value
// once at the day's manual rate and appends the entry. Validation happens here,
// before the ledger; the ledger itself only defends its running-total
// invariant.
func (h *IncomeHandler) CreateIncomeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var payload models.NewIncomeEntry
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONDetail(w, "Geçersiz istek gövdesi.", http.StatusBadRequest)
		return
	}

	if _, err := utils.ParseBulletinDate(payload.Date); err != nil {
		utils.SendJSONDetail(w, "Tarih GG.AA.YYYY biçiminde olmalı.", http.StatusBadRequest)
		return
	}

	description, err := validation.SanitizeDescription(payload.Description)
	if err != nil {
		utils.SendJSONDetail(w, "Açıklama boş olamaz.", http.StatusBadRequest)
		return
	}

	rate, ok := processors.ManualRate(payload.Currency)
	if !ok {
		utils.SendJSONDetail(w, "Desteklenmeyen para birimi.", http.StatusBadRequest)
		return
	}

	tryValue, err := processors.Convert(payload.Amount, rate)
	if err != nil {
		switch {
		case errors.Is(err, processors.ErrInvalidAmount):
			utils.SendJSONDetail(w, "Tutar sıfırdan büyük olmalı.", http.StatusBadRequest)
		default:
			utils.SendJSONDetail(w, "Kur bilgisi geçersiz.", http.StatusBadRequest)
		}
		return
	}

	ledger := h.ledgers.For(userID)
	entry := models.IncomeEntry{
		ID:           ledger.NextID(),
		Date:         payload.Date,
		Description:  description,
		Amount:       payload.Amount,
		Currency:     payload.Currency,
		ExchangeRate: rate,
		TryValue:     tryValue,
	}

	if err := ledger.Add(entry); err != nil {
		logger.L.Error("Ledger rejected a validated entry", "error", err, "userID", userID)
		utils.SendJSONDetail(w, "Gelir kaydı eklenemedi.", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Income entry added", "userID", userID, "entryID", entry.ID,
		"currency", entry.Currency, "tryValue", entry.TryValue)
	h.feeds.For(userID).Add(notifications.TypeSuccess,
		"Gelir eklendi", utils.FormatTRY(entry.TryValue)+" tutarında gelir kaydedildi.")

	utils.WriteJSON(w, http.StatusCreated, entry)
}

// GetExemptionHandler derives the exemption progress snapshot from the ledger
// total and the configured yearly limit.
func (h *IncomeHandler) GetExemptionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	total := h.ledgers.For(userID).Total()
	state := processors.ExemptionState(total, config.Cfg.ExemptionLimit, config.Cfg.TaxYear)
	if state.Remaining < 0 {
		logger.L.Warn("Exemption limit exceeded", "userID", userID, "total", total, "limit", state.Limit)
	}
	utils.WriteJSON(w, http.StatusOK, state)
}

// GetManualRatesHandler exposes the static rate table backing the entry form.
func (h *IncomeHandler) GetManualRatesHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, processors.ManualEntryRates)
}

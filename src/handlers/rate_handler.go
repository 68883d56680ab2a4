package handlers

import (
	"errors"
	"net/http"

	"github.com/username/istisna/backend/src/logger"
	"github.com/username/istisna/backend/src/services"
	"github.com/username/istisna/backend/src/utils"
)

type RateHandler struct {
	rateService services.RateService
}

func NewRateHandler(rateService services.RateService) *RateHandler {
	return &RateHandler{rateService: rateService}
}

// GetRatesHandler serves the day's TCMB bulletin. Exhaustion of every relay is
// a bad-gateway, with the user-facing Turkish message as the error body.
func (h *RateHandler) GetRatesHandler(w http.ResponseWriter, r *http.Request) {
	table, err := h.rateService.FetchRates(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrAllSourcesExhausted) {
			utils.SendJSONError(w, services.RateUnavailableMessage, http.StatusBadGateway)
			return
		}
		logger.L.Error("Rate fetch failed", "error", err)
		utils.SendJSONError(w, "Failed to retrieve exchange rates", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, table)
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/istisna/backend/src/logger"
	"github.com/username/istisna/backend/src/services"
	"github.com/username/istisna/backend/src/utils"
)

type WizardHandler struct {
	wizardService *services.WizardService
}

func NewWizardHandler(wizardService *services.WizardService) *WizardHandler {
	return &WizardHandler{wizardService: wizardService}
}

// StartWizardHandler opens an anonymous qualification session and returns its
// id with the fixed step definitions.
func (h *WizardHandler) StartWizardHandler(w http.ResponseWriter, r *http.Request) {
	session := h.wizardService.Start()
	logger.L.Info("Wizard session started", "sessionID", session.ID)
	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"session": session,
		"steps":   h.wizardService.Steps(),
	})
}

// AnswerWizardHandler records one step's answer. Steps are answered in the
// fixed order the step list defines; the handler only validates the step key
// and option against that list.
func (h *WizardHandler) AnswerWizardHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Step   string `json:"step"`
		Option string `json:"option"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.wizardService.Answer(r.PathValue("id"), payload.Step, payload.Option)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWizardSessionNotFound):
			utils.SendJSONError(w, "Wizard session not found or expired", http.StatusNotFound)
		case errors.Is(err, services.ErrUnknownWizardStep):
			utils.SendJSONError(w, "Unknown wizard step", http.StatusBadRequest)
		case errors.Is(err, services.ErrInvalidWizardOption):
			utils.SendJSONError(w, "Invalid option for step", http.StatusBadRequest)
		default:
			logger.L.Error("Wizard answer failed", "error", err)
			utils.SendJSONError(w, "Failed to record answer", http.StatusInternalServerError)
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, session)
}

// CompleteWizardHandler closes a fully answered session and hands the answers
// to the registration form. The session is consumed.
func (h *WizardHandler) CompleteWizardHandler(w http.ResponseWriter, r *http.Request) {
	answers, err := h.wizardService.Complete(r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWizardSessionNotFound):
			utils.SendJSONError(w, "Wizard session not found or expired", http.StatusNotFound)
		case errors.Is(err, services.ErrWizardIncomplete):
			utils.SendJSONError(w, "All wizard steps must be answered first", http.StatusBadRequest)
		default:
			logger.L.Error("Wizard completion failed", "error", err)
			utils.SendJSONError(w, "Failed to complete wizard", http.StatusInternalServerError)
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"answers": answers,
		"next":    "/register",
	})
}

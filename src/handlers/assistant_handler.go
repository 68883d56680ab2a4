package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/istisna/backend/src/logger"
	"github.com/username/istisna/backend/src/services"
	"github.com/username/istisna/backend/src/utils"
)

type AssistantHandler struct {
	assistantService services.AssistantService
}

func NewAssistantHandler(assistantService services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

// SendMessageHandler forwards one user message to the assistant backend and
// returns its reply turn.
func (h *AssistantHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := GetUserIDFromContext(r.Context()); !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reply, err := h.assistantService.SendMessage(r.Context(), payload.Text)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			utils.SendJSONError(w, "Message text must not be empty", http.StatusBadRequest)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Client went away while the reply was pending.
			return
		default:
			logger.L.Error("Assistant reply failed", "error", err)
			utils.SendJSONError(w, "Assistant unavailable", http.StatusInternalServerError)
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, reply)
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/username/istisna/backend/src/database"
	"github.com/username/istisna/backend/src/logger"
	"github.com/username/istisna/backend/src/model"
	"github.com/username/istisna/backend/src/services"
	"github.com/username/istisna/backend/src/utils"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type PetitionHandler struct {
	petitionService services.PetitionService
}

func NewPetitionHandler(petitionService services.PetitionService) *PetitionHandler {
	return &PetitionHandler{petitionService: petitionService}
}

// DownloadPetitionHandler renders the exemption petition from the stored
// profile and streams it as a docx attachment. Available regardless of the
// related checklist step's state.
func (h *PetitionHandler) DownloadPetitionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			utils.SendJSONError(w, "User not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load user for petition", "error", err, "userID", userID)
		utils.SendJSONError(w, "Failed to generate petition", http.StatusInternalServerError)
		return
	}

	profile := services.PetitionProfile{
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		TcKimlikNo: user.TcKimlikNo,
		TaxID:      user.TaxID,
		TaxOffice:  user.TaxOffice,
		Address:    user.Address,
		Phone:      user.Phone,
	}

	var document []byte
	if h.petitionService == nil {
		err = services.ErrDocumentEngineUnavailable
	} else {
		document, err = h.petitionService.Build(profile)
	}
	if err != nil {
		logger.L.Error("Petition generation failed", "error", err, "userID", userID)
		if errors.Is(err, services.ErrDocumentEngineUnavailable) {
			utils.SendJSONError(w, "Document engine unavailable", http.StatusServiceUnavailable)
			return
		}
		utils.SendJSONError(w, "Failed to generate petition", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Petition generated", "userID", userID, "bytes", len(document))
	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.PetitionFileName))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(document)))
	w.WriteHeader(http.StatusOK)
	w.Write(document)
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/username/istisna/backend/src/config"
	"github.com/username/istisna/backend/src/database"
	"github.com/username/istisna/backend/src/logger"
	"github.com/username/istisna/backend/src/model"
	"github.com/username/istisna/backend/src/notifications"
	"github.com/username/istisna/backend/src/security"
	"github.com/username/istisna/backend/src/security/validation"
	"github.com/username/istisna/backend/src/services"
	"github.com/username/istisna/backend/src/utils"
)

// Context keys are typed and unexported to avoid collisions; handlers in this
// package read the user id back through GetUserIDFromContext.
type contextKey string

const userIDContextKey contextKey = "userID"

type UserHandler struct {
	authService  *security.AuthService
	emailService services.EmailService
	feeds        *notifications.FeedSet
}

func NewUserHandler(authService *security.AuthService, emailService services.EmailService, feeds *notifications.FeedSet) *UserHandler {
	return &UserHandler{
		authService:  authService,
		emailService: emailService,
		feeds:        feeds,
	}
}

// registerPayload is the signup form plus the optional wizard handoff fields.
type registerPayload struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	TcKimlikNo    string `json:"tcKimlikNo"`
	TaxID         string `json:"taxId"`
	TaxOffice     string `json:"taxOffice"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	IncomeSource  string `json:"incomeSource"`
	CompanyStatus string `json:"companyStatus"`
}

// RegisterUserHandler creates an account from the signup form. Errors use the
// {"detail": ...} shape the registration clients expect.
func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONDetail(w, "Geçersiz istek gövdesi.", http.StatusBadRequest)
		return
	}

	payload.Email = strings.TrimSpace(payload.Email)
	if err := validation.ValidateEmail(payload.Email); err != nil {
		utils.SendJSONDetail(w, "Geçerli bir e-posta adresi girin.", http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePassword(payload.Password); err != nil {
		utils.SendJSONDetail(w, "Şifre en az 6 karakter olmalı.", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateTCKN(payload.TcKimlikNo); err != nil {
		utils.SendJSONDetail(w, "T.C. Kimlik No 11 haneli olmalı.", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateTaxID(payload.TaxID); err != nil {
		utils.SendJSONDetail(w, "Vergi Kimlik No 10 haneli olmalı.", http.StatusBadRequest)
		return
	}

	exists, err := model.EmailExists(database.DB, payload.Email)
	if err != nil {
		logger.L.Error("Failed to check email existence", "error", err)
		utils.SendJSONDetail(w, "Kayıt sırasında bir hata oluştu.", http.StatusInternalServerError)
		return
	}
	if exists {
		utils.SendJSONDetail(w, "Bu e-posta adresi zaten kayıtlı.", http.StatusConflict)
		return
	}

	hashedPassword, err := h.authService.HashPassword(payload.Password)
	if err != nil {
		logger.L.Error("Failed to hash password during registration", "error", err)
		utils.SendJSONDetail(w, "Kayıt sırasında bir hata oluştu.", http.StatusInternalServerError)
		return
	}

	user := &model.User{
		Email:         payload.Email,
		Password:      hashedPassword,
		FirstName:     validation.StripUnprintable(strings.TrimSpace(payload.FirstName)),
		LastName:      validation.StripUnprintable(strings.TrimSpace(payload.LastName)),
		TcKimlikNo:    payload.TcKimlikNo,
		TaxID:         payload.TaxID,
		TaxOffice:     validation.StripUnprintable(strings.TrimSpace(payload.TaxOffice)),
		Address:       validation.StripUnprintable(strings.TrimSpace(payload.Address)),
		Phone:         validation.StripUnprintable(strings.TrimSpace(payload.Phone)),
		IncomeSource:  payload.IncomeSource,
		CompanyStatus: payload.CompanyStatus,
	}

	if err := user.CreateUser(database.DB); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			utils.SendJSONDetail(w, "Bu e-posta adresi zaten kayıtlı.", http.StatusConflict)
			return
		}
		logger.L.Error("Failed to create user", "error", err)
		utils.SendJSONDetail(w, "Kayıt sırasında bir hata oluştu.", http.StatusInternalServerError)
		return
	}

	logger.L.Info("User registered", "userID", user.ID, "email", user.Email)

	go func(email, firstName string) {
		if err := h.emailService.SendWelcomeEmail(email, firstName); err != nil {
			logger.L.Error("Failed to send welcome email", "error", err, "to", email)
		}
	}(user.Email, user.FirstName)

	h.feeds.For(user.ID).Add(notifications.TypeInfo,
		"Hoş geldiniz", "Hesabınız oluşturuldu. İstisna sürecinize görev listesinden başlayabilirsiniz.")

	utils.WriteJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByEmail(database.DB, strings.TrimSpace(credentials.Email))
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			logger.L.Error("User lookup failed during login", "error", err)
		}
		utils.SendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := user.CheckPassword(credentials.Password); err != nil {
		logger.L.Warn("Password check failed", "userID", user.ID)
		utils.SendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	userIDStr := fmt.Sprintf("%d", user.ID)
	accessToken, err := h.authService.GenerateToken(userIDStr)
	if err != nil {
		logger.L.Error("Failed to generate access token", "error", err)
		utils.SendJSONError(w, "Failed to generate access token", http.StatusInternalServerError)
		return
	}

	refreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		logger.L.Error("Failed to generate refresh token", "error", err)
		utils.SendJSONError(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}

	session := &model.Session{
		UserID:       user.ID,
		Token:        accessToken,
		RefreshToken: refreshToken,
		UserAgent:    r.UserAgent(),
		ClientIP:     r.RemoteAddr,
		IsBlocked:    false,
		ExpiresAt:    time.Now().Add(config.Cfg.RefreshTokenExpiry),
	}
	if err := model.CreateSession(database.DB, session); err != nil {
		logger.L.Error("Failed to create session", "error", err, "userID", user.ID)
		utils.SendJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	logger.L.Info("User logged in", "userID", user.ID)
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user":          user,
	})
}

// RefreshTokenHandler exchanges a live refresh token for a new token pair.
// The old session row is rotated out so a refresh token is single-use.
func (h *UserHandler) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		RefreshToken string `json:"refresh_token"`
	}

	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if requestBody.RefreshToken == "" {
		utils.SendJSONError(w, "Refresh token is required", http.StatusBadRequest)
		return
	}

	session, err := model.GetSessionByRefreshToken(database.DB, requestBody.RefreshToken)
	if err != nil {
		logger.L.Warn("Refresh token lookup failed", "error", err)
		utils.SendJSONError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}

	newAccessToken, err := h.authService.GenerateToken(fmt.Sprintf("%d", session.UserID))
	if err != nil {
		logger.L.Error("Failed to generate access token on refresh", "error", err)
		utils.SendJSONError(w, "Failed to generate new access token", http.StatusInternalServerError)
		return
	}

	newRefreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		logger.L.Error("Failed to generate refresh token on refresh", "error", err)
		utils.SendJSONError(w, "Failed to generate new refresh token", http.StatusInternalServerError)
		return
	}

	newSession := &model.Session{
		UserID:       session.UserID,
		Token:        newAccessToken,
		RefreshToken: newRefreshToken,
		UserAgent:    r.UserAgent(),
		ClientIP:     r.RemoteAddr,
		IsBlocked:    false,
		ExpiresAt:    time.Now().Add(config.Cfg.RefreshTokenExpiry),
	}
	if err := model.CreateSession(database.DB, newSession); err != nil {
		logger.L.Error("Failed to create session on refresh", "error", err, "userID", session.UserID)
		utils.SendJSONError(w, "Failed to create new session on refresh", http.StatusInternalServerError)
		return
	}

	if err := model.DeleteSessionByToken(database.DB, session.Token); err != nil {
		logger.L.Warn("Failed to remove rotated session", "error", err, "userID", session.UserID)
	}

	logger.L.Info("Token pair refreshed", "userID", session.UserID)
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token":  newAccessToken,
		"refresh_token": newRefreshToken,
	})
}

// GetProfileHandler returns the authenticated user's profile with the
// credential stripped.
func (h *UserHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
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
		logger.L.Error("Failed to load user profile", "error", err, "userID", userID)
		utils.SendJSONError(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, user)
}

// GetUserIDFromContext retrieves the userID placed by AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	return userID, ok
}

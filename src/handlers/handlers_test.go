package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/username/istisna/backend/src/config"
	"github.com/username/istisna/backend/src/database"
	"github.com/username/istisna/backend/src/logger"
	"github.com/username/istisna/backend/src/model"
	"github.com/username/istisna/backend/src/models"
	"github.com/username/istisna/backend/src/notifications"
	"github.com/username/istisna/backend/src/processors"
	"github.com/username/istisna/backend/src/security"
	"github.com/username/istisna/backend/src/services"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	config.Cfg = &config.AppConfig{
		JWTSecret:          "test-secret-key-of-at-least-32-bytes!!",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		TaxYear:            2025,
		ExemptionLimit:     1_900_000,
	}
	database.InitDB(":memory:")
	os.Exit(m.Run())
}

type testEnv struct {
	mux        *http.ServeMux
	auth       *security.AuthService
	users      *UserHandler
	feeds      *notifications.FeedSet
	checklists *processors.ChecklistSet
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	authService := security.NewAuthService(config.Cfg.JWTSecret)
	feeds := notifications.NewFeedSet()
	ledgers := processors.NewLedgerSet()
	checklists := processors.NewChecklistSet()

	userHandler := NewUserHandler(authService, &services.MockEmailService{}, feeds)
	incomeHandler := NewIncomeHandler(ledgers, feeds)
	taskHandler := NewTaskHandler(checklists, feeds)
	petitionHandler := NewPetitionHandler(services.NewPetitionService())
	assistantHandler := NewAssistantHandler(services.NewMockAssistantService(0))
	notificationHandler := NewNotificationHandler(feeds)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", userHandler.RegisterUserHandler)
	mux.HandleFunc("POST /api/login", userHandler.LoginUserHandler)
	mux.HandleFunc("POST /api/refresh", userHandler.RefreshTokenHandler)
	mux.HandleFunc("GET /api/income/rates", incomeHandler.GetManualRatesHandler)
	mux.Handle("GET /api/profile", userHandler.AuthMiddleware(http.HandlerFunc(userHandler.GetProfileHandler)))
	mux.Handle("GET /api/income", userHandler.AuthMiddleware(http.HandlerFunc(incomeHandler.GetIncomeHandler)))
	mux.Handle("POST /api/income", userHandler.AuthMiddleware(http.HandlerFunc(incomeHandler.CreateIncomeHandler)))
	mux.Handle("GET /api/exemption", userHandler.AuthMiddleware(http.HandlerFunc(incomeHandler.GetExemptionHandler)))
	mux.Handle("GET /api/tasks", userHandler.AuthMiddleware(http.HandlerFunc(taskHandler.ListTasksHandler)))
	mux.Handle("POST /api/tasks/{id}/complete", userHandler.AuthMiddleware(http.HandlerFunc(taskHandler.CompleteTaskHandler)))
	mux.Handle("GET /api/petition", userHandler.AuthMiddleware(http.HandlerFunc(petitionHandler.DownloadPetitionHandler)))
	mux.Handle("POST /api/assistant", userHandler.AuthMiddleware(http.HandlerFunc(assistantHandler.SendMessageHandler)))
	mux.Handle("GET /api/notifications", userHandler.AuthMiddleware(http.HandlerFunc(notificationHandler.ListNotificationsHandler)))
	mux.Handle("POST /api/notifications/read-all", userHandler.AuthMiddleware(http.HandlerFunc(notificationHandler.MarkAllReadHandler)))

	return &testEnv{mux: mux, auth: authService, users: userHandler, feeds: feeds, checklists: checklists}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

var userSeq int

func registerAndLogin(t *testing.T, env *testEnv) string {
	t.Helper()
	userSeq++
	email := fmt.Sprintf("ahmet%d@example.com", userSeq)

	rec := env.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"email":      email,
		"password":   "sifre123",
		"firstName":  "Ahmet",
		"lastName":   "Yılmaz",
		"tcKimlikNo": "12345678901",
		"taxOffice":  "Şişli",
		"address":    "Örnek Mah. Test Sok. No:1, İstanbul",
		"phone":      "0555 123 45 67",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotContains(t, rec.Body.String(), "sifre123")

	rec = env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    email,
		"password": "sifre123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var loginResp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.AccessToken)
	return loginResp.AccessToken
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name    string
		payload map[string]string
		detail  string
	}{
		{"bad email", map[string]string{"email": "not-an-email", "password": "sifre123"}, "Geçerli bir e-posta adresi girin."},
		{"short password", map[string]string{"email": "a@b.com", "password": "123"}, "Şifre en az 6 karakter olmalı."},
		{"bad tckn", map[string]string{"email": "a@b.com", "password": "sifre123", "tcKimlikNo": "123"}, "T.C. Kimlik No 11 haneli olmalı."},
		{"bad tax id", map[string]string{"email": "a@b.com", "password": "sifre123", "taxId": "abc"}, "Vergi Kimlik No 10 haneli olmalı."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/register", "", tc.payload)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tc.detail, body["detail"])
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	payload := map[string]string{"email": "dup@example.com", "password": "sifre123"}

	rec := env.do(t, http.MethodPost, "/api/register", "", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/register", "", payload)
	require.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Bu e-posta adresi zaten kayıtlı.", body["detail"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	registerAndLogin(t, env)

	rec := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "sifre123",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/income", "/api/exemption", "/api/tasks", "/api/petition"} {
		rec := env.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := env.do(t, http.MethodGet, "/api/income", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIncomeFlow(t *testing.T) {
	env := newTestEnv(t)
	token := registerAndLogin(t, env)

	rec := env.do(t, http.MethodPost, "/api/income", token, models.NewIncomeEntry{
		Date:        "05.11.2025",
		Description: "Danışmanlık geliri",
		Amount:      5000,
		Currency:    "USD",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.IncomeEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, 152500.0, created.TryValue)
	require.Equal(t, 30.50, created.ExchangeRate)
	require.NotZero(t, created.ID)

	rec = env.do(t, http.MethodPost, "/api/income", token, models.NewIncomeEntry{
		Date:        "06.11.2025",
		Description: "Yazılım lisansı",
		Amount:      8000,
		Currency:    "EUR",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/income", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []models.IncomeEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	require.Equal(t, "Yazılım lisansı", entries[0].Description)
	require.Equal(t, "Danışmanlık geliri", entries[1].Description)

	rec = env.do(t, http.MethodGet, "/api/exemption", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state models.ExemptionState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.Equal(t, 416500.0, state.Total)
	require.Equal(t, 1_900_000.0, state.Limit)
	require.Equal(t, 2025, state.TaxYear)
	require.InDelta(t, 21.92, state.PercentageUsed, 0.01)
	require.Equal(t, 1_483_500.0, state.Remaining)
}

func TestIncomeValidation(t *testing.T) {
	env := newTestEnv(t)
	token := registerAndLogin(t, env)

	cases := []struct {
		name    string
		payload models.NewIncomeEntry
	}{
		{"bad date", models.NewIncomeEntry{Date: "2025-11-05", Description: "x", Amount: 100, Currency: "USD"}},
		{"empty description", models.NewIncomeEntry{Date: "05.11.2025", Description: "   ", Amount: 100, Currency: "USD"}},
		{"unknown currency", models.NewIncomeEntry{Date: "05.11.2025", Description: "x", Amount: 100, Currency: "JPY"}},
		{"zero amount", models.NewIncomeEntry{Date: "05.11.2025", Description: "x", Amount: 0, Currency: "USD"}},
		{"negative amount", models.NewIncomeEntry{Date: "05.11.2025", Description: "x", Amount: -50, Currency: "USD"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/income", token, tc.payload)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, rec.Body.String(), "detail")
		})
	}

	rec := env.do(t, http.MethodGet, "/api/income", token, nil)
	var entries []models.IncomeEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Empty(t, entries)
}

func TestManualRatesEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/income/rates", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rates map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rates))
	require.Equal(t, 30.50, rates["USD"])
	require.Equal(t, 33.00, rates["EUR"])
	require.Equal(t, 38.75, rates["GBP"])
}

func TestTaskFlow(t *testing.T) {
	env := newTestEnv(t)
	token := registerAndLogin(t, env)

	rec := env.do(t, http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tasks []models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 3)
	for _, task := range tasks {
		require.False(t, task.Completed)
	}

	rec = env.do(t, http.MethodPost, "/api/tasks/2/complete", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var completed models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &completed))
	require.True(t, completed.Completed)
	require.NotEmpty(t, completed.CompletedDate)

	firstDate := completed.CompletedDate
	rec = env.do(t, http.MethodPost, "/api/tasks/2/complete", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &completed))
	require.Equal(t, firstDate, completed.CompletedDate)

	rec = env.do(t, http.MethodPost, "/api/tasks/99/complete", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/tasks/abc/complete", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPetitionDownload(t *testing.T) {
	env := newTestEnv(t)
	token := registerAndLogin(t, env)

	rec := env.do(t, http.MethodGet, "/api/petition", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, docxContentType, rec.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="Vergi_Istisnasi_Basvuru_Dilekcesi.docx"`,
		rec.Header().Get("Content-Disposition"))

	body := rec.Body.Bytes()
	require.True(t, len(body) > 4)
	require.Equal(t, []byte("PK"), body[:2])
}

func TestRefreshTokenRotation(t *testing.T) {
	env := newTestEnv(t)
	userSeq++
	email := fmt.Sprintf("refresh%d@example.com", userSeq)

	rec := env.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"email": email, "password": "sifre123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": email, "password": "sifre123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.RefreshToken)

	rec = env.do(t, http.MethodPost, "/api/refresh", "", map[string]string{
		"refresh_token": login.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var refreshed struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	require.NotEmpty(t, refreshed.AccessToken)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The new pair is live.
	rec = env.do(t, http.MethodGet, "/api/tasks", refreshed.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Refresh tokens are single-use: the rotated-out pair is dead.
	rec = env.do(t, http.MethodPost, "/api/refresh", "", map[string]string{
		"refresh_token": login.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/tasks", login.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/refresh", "", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/refresh", "", map[string]string{
		"refresh_token": "never-issued",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredSessionRejected(t *testing.T) {
	env := newTestEnv(t)
	userSeq++
	email := fmt.Sprintf("expired%d@example.com", userSeq)

	rec := env.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"email": email, "password": "sifre123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var user struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))

	// A valid JWT whose backing session row has already expired must not pass.
	token, err := env.auth.GenerateToken(fmt.Sprintf("%d", user.ID))
	require.NoError(t, err)
	require.NoError(t, model.CreateSession(database.DB, &model.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	rec = env.do(t, http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAssistantEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := registerAndLogin(t, env)

	rec := env.do(t, http.MethodPost, "/api/assistant", token, map[string]string{
		"text": "İstisna şartları nelerdir?",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reply models.ChatMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.Equal(t, "ai", reply.Sender)
	require.NotEmpty(t, reply.Text)

	rec = env.do(t, http.MethodPost, "/api/assistant", token, map[string]string{"text": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/assistant", "", map[string]string{"text": "merhaba"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPetitionUnavailableWithoutEngine(t *testing.T) {
	env := newTestEnv(t)
	token := registerAndLogin(t, env)

	handler := NewPetitionHandler(nil)
	mux := http.NewServeMux()
	mux.Handle("GET /api/petition", env.users.AuthMiddleware(http.HandlerFunc(handler.DownloadPetitionHandler)))

	req := httptest.NewRequest(http.MethodGet, "/api/petition", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "Document engine unavailable")
}

func TestNotificationFlow(t *testing.T) {
	env := newTestEnv(t)
	token := registerAndLogin(t, env)

	env.do(t, http.MethodPost, "/api/income", token, models.NewIncomeEntry{
		Date: "05.11.2025", Description: "Gelir", Amount: 1000, Currency: "GBP",
	})

	rec := env.do(t, http.MethodGet, "/api/notifications", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Notifications []models.Notification `json:"notifications"`
		Unread        int                   `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Notifications)
	require.Equal(t, len(resp.Notifications), resp.Unread)
	require.Equal(t, "Gelir eklendi", resp.Notifications[0].Title)

	rec = env.do(t, http.MethodPost, "/api/notifications/read-all", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/notifications", token, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 0, resp.Unread)
}

package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/cors"
	"github.com/username/istisna/backend/src/config"
	"github.com/username/istisna/backend/src/database"
	"github.com/username/istisna/backend/src/handlers"
	"github.com/username/istisna/backend/src/logger"
	"github.com/username/istisna/backend/src/notifications"
	"github.com/username/istisna/backend/src/processors"
	"github.com/username/istisna/backend/src/security"
	"github.com/username/istisna/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Istisna backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	sharedCache := cache.New(config.Cfg.RateCacheTTL, 2*config.Cfg.RateCacheTTL)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	emailService := services.NewEmailService()
	rateService := services.NewTCMBRateService(
		config.Cfg.TCMBRateURL,
		services.DefaultRelayChain(),
		config.Cfg.RateFetchTimeout,
		sharedCache,
		config.Cfg.RateCacheTTL,
	)
	petitionService := services.NewPetitionService()
	assistantService := services.NewMockAssistantService(config.Cfg.AssistantReplyDelay)
	wizardService := services.NewWizardService(sharedCache, 30*time.Minute)

	ledgers := processors.NewLedgerSet()
	checklists := processors.NewChecklistSet()
	feeds := notifications.NewFeedSet()

	userHandler := handlers.NewUserHandler(authService, emailService, feeds)
	incomeHandler := handlers.NewIncomeHandler(ledgers, feeds)
	rateHandler := handlers.NewRateHandler(rateService)
	taskHandler := handlers.NewTaskHandler(checklists, feeds)
	petitionHandler := handlers.NewPetitionHandler(petitionService)
	wizardHandler := handlers.NewWizardHandler(wizardService)
	assistantHandler := handlers.NewAssistantHandler(assistantService)
	notificationHandler := handlers.NewNotificationHandler(feeds)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/register", userHandler.RegisterUserHandler)
	apiRouter.HandleFunc("POST /api/login", userHandler.LoginUserHandler)
	apiRouter.HandleFunc("POST /api/refresh", userHandler.RefreshTokenHandler)

	apiRouter.HandleFunc("GET /api/rates", rateHandler.GetRatesHandler)
	apiRouter.HandleFunc("GET /api/income/rates", incomeHandler.GetManualRatesHandler)

	apiRouter.HandleFunc("POST /api/wizard", wizardHandler.StartWizardHandler)
	apiRouter.HandleFunc("POST /api/wizard/{id}/answers", wizardHandler.AnswerWizardHandler)
	apiRouter.HandleFunc("POST /api/wizard/{id}/complete", wizardHandler.CompleteWizardHandler)

	withAuth := func(handler http.HandlerFunc) http.Handler {
		return userHandler.AuthMiddleware(handler)
	}

	apiRouter.Handle("GET /api/profile", withAuth(userHandler.GetProfileHandler))
	apiRouter.Handle("GET /api/income", withAuth(incomeHandler.GetIncomeHandler))
	apiRouter.Handle("POST /api/income", withAuth(incomeHandler.CreateIncomeHandler))
	apiRouter.Handle("GET /api/exemption", withAuth(incomeHandler.GetExemptionHandler))
	apiRouter.Handle("GET /api/tasks", withAuth(taskHandler.ListTasksHandler))
	apiRouter.Handle("POST /api/tasks/{id}/complete", withAuth(taskHandler.CompleteTaskHandler))
	apiRouter.Handle("GET /api/petition", withAuth(petitionHandler.DownloadPetitionHandler))
	apiRouter.Handle("POST /api/assistant", withAuth(assistantHandler.SendMessageHandler))
	apiRouter.Handle("GET /api/notifications", withAuth(notificationHandler.ListNotificationsHandler))
	apiRouter.Handle("POST /api/notifications/read-all", withAuth(notificationHandler.MarkAllReadHandler))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Istisna backend is running"})
		} else if !strings.HasPrefix(r.URL.Path, "/api/") {
			logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	logger.L.Info("Applying global middleware...")
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   config.Cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	finalHandler := corsMiddleware.Handler(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}

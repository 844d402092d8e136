package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/vietlong-68/auth-service/internal/app"
	"github.com/vietlong-68/auth-service/internal/config"
	"github.com/vietlong-68/auth-service/internal/controllers"
	"github.com/vietlong-68/auth-service/internal/middleware"
	"github.com/vietlong-68/auth-service/internal/repositories"
	"github.com/vietlong-68/auth-service/internal/routes"
	"github.com/vietlong-68/auth-service/internal/services"
	"github.com/vietlong-68/auth-service/internal/utils"
)

// cronLogger adapts the shared logrus logger to the cron.Logger interface so
// recovered panics and skipped runs show up in the service log.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	utils.Logger.Debugf("cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	utils.Logger.WithError(err).Errorf("cron: %s %v", msg, keysAndValues)
}

func main() {
	utils.InitLogger("auth-service")
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application:", err)
	}
	defer application.Close()

	//----------------------------------------------------------------------
	// Repositories
	//----------------------------------------------------------------------
	activeRepo := repositories.NewActiveTokenRepository(application.DB)
	blacklistRepo := repositories.NewBlacklistedTokenRepository(application.DB)
	userRepo := repositories.NewUserRepository(application.DB)
	txRunner := repositories.NewLedgerTxRunner(application.DB)

	//----------------------------------------------------------------------
	// Services
	//----------------------------------------------------------------------
	ledgerService := services.NewTokenLedgerService(activeRepo, blacklistRepo, userRepo, txRunner)
	jwtService := services.NewJWTService(cfg.JWTSignerKey, cfg.TokenExpiry, ledgerService)
	authService := services.NewAuthService(userRepo, ledgerService, jwtService)
	cleanupService := services.NewTokenCleanupService(activeRepo, blacklistRepo, cfg.DeepCleanupDays)

	//----------------------------------------------------------------------
	// Controllers
	//----------------------------------------------------------------------
	authController := controllers.NewAuthController(authService, jwtService)
	adminController := controllers.NewAdminBlacklistController(ledgerService)
	healthController := controllers.NewHealthController(application)

	//----------------------------------------------------------------------
	// Router & Endpoints
	//----------------------------------------------------------------------
	router := mux.NewRouter()

	// Health
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods("GET")

	// Public auth endpoints
	router.HandleFunc(routes.AuthRegister, authController.Register).Methods("POST")
	router.HandleFunc(routes.AuthLogin, authController.Login).Methods("POST")
	router.HandleFunc(routes.AuthIntrospect, authController.Introspect).Methods("POST")

	// Protected endpoints require a valid, non-revoked token
	protected := router.PathPrefix("/api/v1/auth").Subrouter()
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.HandleFunc("/logout", authController.Logout).Methods("POST")

	// Admin endpoints additionally require the ADMIN scope
	admin := router.PathPrefix("/api/v1/admin/blacklist").Subrouter()
	admin.Use(middleware.AuthMiddleware(jwtService), middleware.AdminMiddleware())
	admin.HandleFunc("/stats", adminController.GetBlacklistStats).Methods("GET")
	admin.HandleFunc("/cleanup", adminController.ManualCleanup).Methods("POST")
	admin.HandleFunc("/cleanup-orphaned", adminController.CleanupOrphanedTokens).Methods("POST")
	admin.HandleFunc("/user/{userId}/count", adminController.GetUserBlacklistCount).Methods("GET")
	admin.HandleFunc("/user/{userId}/force-logout", adminController.ForceLogoutUser).Methods("POST")
	admin.HandleFunc("/user/{userId}/active-tokens", adminController.GetUserActiveTokens).Methods("GET")

	//----------------------------------------------------------------------
	// Reconciliation sweeps via cron
	//----------------------------------------------------------------------
	clog := cronLogger{}
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(clog),
		cron.Recover(clog),
	))

	// expired active tokens, fixed interval
	_, schErr := c.AddFunc(fmt.Sprintf("@every %s", cfg.ExpiredActiveSweepInterval), func() {
		if _, e := cleanupService.CleanupExpiredActiveTokens(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled expired-active-tokens sweep failed")
		}
	})
	if schErr != nil {
		utils.Logger.WithError(schErr).Fatal("Failed to schedule expired-active-tokens sweep")
	}

	// expired blacklisted tokens, fixed interval
	_, schErr = c.AddFunc(fmt.Sprintf("@every %s", cfg.ExpiredBlacklistSweepInterval), func() {
		if _, e := cleanupService.CleanupExpiredBlacklistedTokens(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled expired-blacklist sweep failed")
		}
	})
	if schErr != nil {
		utils.Logger.WithError(schErr).Fatal("Failed to schedule expired-blacklist sweep")
	}

	// deep cleanup, calendar schedule
	_, schErr = c.AddFunc(cfg.DeepCleanupCron, func() {
		if _, e := cleanupService.DeepCleanupOldTokens(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled deep-cleanup sweep failed")
		}
	})
	if schErr != nil {
		utils.Logger.WithError(schErr).Fatal("Failed to schedule deep-cleanup sweep")
	}

	// orphaned records, calendar schedule
	_, schErr = c.AddFunc(cfg.OrphanedCleanupCron, func() {
		if _, e := cleanupService.CleanupOrphanedTokens(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled orphaned-tokens sweep failed")
		}
	})
	if schErr != nil {
		utils.Logger.WithError(schErr).Fatal("Failed to schedule orphaned-tokens sweep")
	}

	c.Start()
	defer c.Stop()

	//----------------------------------------------------------------------
	// CORS & server
	//----------------------------------------------------------------------
	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("Failed to start server:", err)
	}
}

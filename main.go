package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"dungeonStreakAPI/handlers"
	"dungeonStreakAPI/internal/config"
	"dungeonStreakAPI/internal/db"
	"dungeonStreakAPI/internal/jobs"
	"dungeonStreakAPI/internal/notification"
	"dungeonStreakAPI/internal/store"
	"dungeonStreakAPI/middleware"
	"dungeonStreakAPI/services"

	_ "net/http/pprof"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	setupLogging(cfg)

	if err := run(cfg); err != nil {
		log.WithError(err).Fatal("Server exited with error")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stdout)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("Using in-memory store; data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(connectCtx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(connectCtx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return store.NewPostgresStore(pool), nil
}

// buildNotifier enables every channel that has credentials configured.
func buildNotifier(ctx context.Context, cfg *config.Config) notification.Notifier {
	var notifiers notification.Multi

	if cfg.NotifyWebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.NotifyWebhookURL, cfg.NotifyTimeout))
	}

	if cfg.FCMCredentialsJSON != "" || cfg.FCMCredentialsFile != "" {
		fcm, err := notification.NewFCMNotifier(ctx, cfg.FCMCredentialsJSON, cfg.FCMCredentialsFile, cfg.FCMTopic)
		if err != nil {
			log.WithError(err).Warn("Could not initialize FCM")
		} else {
			notifiers = append(notifiers, fcm)
		}
	}

	if cfg.TelegramBotToken != "" {
		tg, err := notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.WithError(err).Warn("Could not initialize Telegram")
		} else {
			notifiers = append(notifiers, tg)
		}
	}

	if cfg.MailgunDomain != "" {
		notifiers = append(notifiers, notification.NewEmailNotifier(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender, cfg.MailgunRecipients))
	}

	if len(notifiers) == 0 {
		log.Info("No notification channels configured")
		return notification.NopNotifier{}
	}
	log.WithField("channels", notifiers.Name()).Info("Notification channels initialized")
	return notifiers
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ClerkSecretKey != "" {
		clerk.SetKey(cfg.ClerkSecretKey)
		log.Info("Clerk initialized successfully")
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing store...")
		st.Close()
	}()

	middleware.InitPrometheus()
	services.InitMetrics()

	notifier := buildNotifier(ctx, cfg)
	dispatcher := services.NewNotificationDispatcher(notifier, cfg.NotifyWorkers, cfg.NotifyQueueSize, cfg.NotifyTimeout)
	defer dispatcher.Stop()

	notificationService := services.NewNotificationService(st, notifier, dispatcher)
	userService := services.NewUserService(st)
	submissionService := services.NewSubmissionService(st, cfg.Mode(), cfg.Location())
	submissionService.SetNotifications(notificationService, cfg.NotifyOnUpdatedEntry)

	if cfg.ReconcileCron != "" {
		scheduler := jobs.NewScheduler(submissionService, cfg.ReconcileCron, cfg.Location())
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go rateLimiter.CleanupVisitors(ctx)

	submissionHandler := handlers.NewSubmissionHandler(submissionService)
	webhookHandler := handlers.NewWebhookHandler(notificationService, userService, cfg.ClerkWebhookSecret)
	healthHandler := handlers.NewHealthHandler(st)

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)
	r.Use(rateLimiter.Middleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(cfg.PprofSecret)(http.DefaultServeMux))
	r.HandleFunc("/health", healthHandler.Health).Methods("GET")

	if cfg.ClerkWebhookSecret != "" {
		r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")
	}

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (CLERK BEARER TOKEN OR X-ADMIN-KEY)
	// -------------------------------------------------------------------------
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.AdminKey))

	protected.HandleFunc("/submit", submissionHandler.Submit).Methods("POST")
	protected.HandleFunc("/streaks/{userId}", submissionHandler.GetStreaks).Methods("GET")
	protected.HandleFunc("/updates/{userId}", submissionHandler.GetUpdates).Methods("GET")
	protected.HandleFunc("/webhook", webhookHandler.HandleProgressWebhook).Methods("POST")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(cfg.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.AdminKeyHeader, "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)
	recovery := gorillaHandlers.RecoveryHandler(
		gorillaHandlers.RecoveryLogger(log.StandardLogger()),
		gorillaHandlers.PrintRecoveryStack(true),
	)

	server := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      recovery(corsHandler(r)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"port": cfg.Port, "mode": cfg.Mode(), "store": cfg.StoreDriver}).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown error")
	}

	log.Info("Server shutdown complete")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"telehealth-server/internal/bkash"
	"telehealth-server/internal/cache"
	"telehealth-server/internal/config"
	"telehealth-server/internal/handlers"
	"telehealth-server/internal/logger"
	"telehealth-server/internal/media"
	"telehealth-server/internal/metrics"
	"telehealth-server/internal/models"
	"telehealth-server/internal/notify"
	"telehealth-server/internal/routes"
	"telehealth-server/internal/services"
	"telehealth-server/internal/store"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	if envErr != nil && !cfg.IsProduction() {
		log.WithError(envErr).Debug("No .env file loaded")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := models.InitDB(models.DatabaseConfig{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Debug:  cfg.LogLevel == "debug",
	})
	if err != nil {
		log.WithError(err).Fatal("Error connecting to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("Error getting database handle")
	}
	defer sqlDB.Close()

	ctx := context.Background()
	redis, err := cache.Connect(ctx, cfg.Redis, log)
	if err != nil {
		log.WithError(err).Fatal("Error connecting to redis")
	}
	defer redis.Close()

	mediaStore, err := media.New(cfg.Media)
	if err != nil {
		log.WithError(err).Fatal("Error initializing media store")
	}

	m := metrics.New()
	gateway := bkash.NewClient(cfg.Bkash, redis, log)

	accountStore := store.NewAccounts(db)
	appointmentStore := store.NewAppointments(db)
	storyStore := store.NewStories(db)

	accounts := services.NewAccountService(accountStore, mediaStore, cfg, log, m)
	booking := services.NewBookingService(accountStore, appointmentStore, cfg.DefaultAppointmentFee, log, m)
	payments := services.NewPaymentService(
		accountStore,
		appointmentStore,
		gateway,
		redis,
		notify.New(cfg.Mailer, cfg.Twilio),
		cfg.ClientURL,
		log,
		m,
	)
	stories := services.NewStoryService(storyStore, accountStore, log)

	checks := map[string]handlers.Pinger{"database": handlers.PingFunc(sqlDB.PingContext)}
	if redis.Enabled() {
		checks["redis"] = redis
	}

	deps := routes.Deps{
		Auth:          handlers.NewAuthHandler(accounts, cfg),
		Users:         handlers.NewUserHandler(accounts, booking),
		Appointments:  handlers.NewAppointmentHandler(booking),
		Payments:      handlers.NewPaymentHandler(payments),
		Stories:       handlers.NewStoryHandler(stories),
		Health:        handlers.NewHealthHandler(checks, log),
		Authenticator: accounts,
		Metrics:       m,
		Log:           log,
	}
	if local, ok := mediaStore.(*media.Local); ok {
		deps.UploadsDir = local.Root()
		deps.UploadsPath = "/uploads"
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Origin, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shut down")
	}
	payments.Wait()
}

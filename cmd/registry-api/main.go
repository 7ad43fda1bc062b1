package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"blue-carbon-registry/registry-backend/internal/admin"
	"blue-carbon-registry/registry-backend/internal/auth"
	"blue-carbon-registry/registry-backend/internal/config"
	"blue-carbon-registry/registry-backend/internal/dashboard"
	"blue-carbon-registry/registry-backend/internal/notifications"
	"blue-carbon-registry/registry-backend/internal/projects"
	"blue-carbon-registry/registry-backend/internal/registry"
	"blue-carbon-registry/registry-backend/internal/reports"
	"blue-carbon-registry/registry-backend/pkg/logger"
	"blue-carbon-registry/registry-backend/pkg/storage"
)

func main() {
	// Load .env before anything reads the environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Server.Environment)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Connect to MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("MongoDB ping failed", zap.Error(err))
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.Mongo.Database)
	log.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	// Shared clients
	pinner := storage.NewPinataClient(storage.PinataConfig{
		APIKey:     cfg.Pinata.APIKey,
		SecretKey:  cfg.Pinata.SecretKey,
		APIURL:     cfg.Pinata.APIURL,
		GatewayURL: cfg.Pinata.GatewayURL,
	})
	if !pinner.Configured() {
		log.Warn("Pinata credentials missing, pinning runs in local placeholder mode")
	}

	archive, err := storage.NewS3Store(ctx, storage.S3Config{
		Region: cfg.Storage.S3Region,
		Bucket: cfg.Storage.S3Bucket,
	})
	if err != nil {
		log.Fatal("Failed to initialize photo archive", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Storage.UploadsDir, 0o755); err != nil {
		log.Fatal("Failed to create uploads directory", zap.Error(err))
	}

	// Modules
	snapshotStore := registry.NewFileSnapshotStore(cfg.Storage.SnapshotFile)

	authRepo := auth.NewRepository(db)
	authService := auth.NewService(authRepo, cfg.Security.JWTSecret, cfg.Security.TokenTTL, log)
	authHandler := auth.NewHandler(authService, log)

	hub := notifications.NewHub(log)
	defer hub.Close()

	projectRepo := projects.NewRepository(db)
	projectService := projects.NewService(projectRepo, pinner, archive, hub, log)
	projectHandler := projects.NewHandler(projectService, cfg.Storage.UploadsDir, log)

	builder := registry.NewBuilder(projectRepo, pinner, snapshotStore, log)
	registryHandler := registry.NewHandler(builder, snapshotStore, log)

	adminService := admin.NewService(projectRepo, builder, hub, log)
	adminHandler := admin.NewHandler(adminService, authService, log)

	reconciler := dashboard.NewReconciler(projectRepo, snapshotStore, cfg.Registry.GatewayTimeout, log)
	poller := dashboard.NewPoller(reconciler, cfg.Registry.PollInterval, log)
	poller.Start()
	defer poller.Stop()
	dashboardHandler := dashboard.NewHandler(reconciler, poller)

	reportService := reports.NewService(projectRepo, log)
	reportHandler := reports.NewHandler(reportService, log)

	// Nightly snapshot re-sync keeps the public registry fresh even when no
	// review activity triggers a publish.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Registry.ResyncSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := builder.BuildAndPublish(ctx); err != nil {
			log.Error("Scheduled registry sync failed", zap.Error(err))
		}
	}); err != nil {
		log.Fatal("Invalid resync schedule", zap.String("schedule", cfg.Registry.ResyncSchedule), zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.Static("/uploads", cfg.Storage.UploadsDir)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	api := router.Group("/api")
	{
		authHandler.RegisterRoutes(api.Group("/auth"))

		projectGroup := api.Group("/projects", authService.RequireAuth())
		projectHandler.RegisterRoutes(projectGroup)

		adminGroup := api.Group("/admin", authService.RequireAuth(),
			auth.RequireRole(auth.RoleAdmin, auth.RoleVerifier))
		adminHandler.RegisterRoutes(adminGroup)
		registryHandler.RegisterRoutes(adminGroup)
		dashboardHandler.RegisterRoutes(adminGroup)
		reportHandler.RegisterRoutes(adminGroup)
		adminGroup.GET("/feed", hub.Serve)
	}

	// Start Server
	srv := &http.Server{
		Addr:    cfg.Server.GetServerAddr(),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()
	log.Info("Server started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exiting")
}

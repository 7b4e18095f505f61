package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"citycare-be/config"
	"citycare-be/controllers"
	"citycare-be/lifecycle"
	"citycare-be/mailer"
	"citycare-be/repository"
	"citycare-be/routes"
	"citycare-be/storage"
	"citycare-be/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(context.Background())
	logger.Info("MongoDB connection established successfully!", zap.String("database", cfg.MongoDB))

	if err := repository.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal("Failed to create indexes", zap.Error(err))
	}

	policy, err := lifecycle.ParseStatusPolicy(cfg.StatusTransitions)
	if err != nil {
		logger.Fatal("Invalid STATUS_TRANSITIONS", zap.Error(err))
	}

	tokens, err := utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Fatal("Invalid token configuration", zap.Error(err))
	}

	images, uploadDir := buildImageStore(ctx, cfg, logger)
	notifier := mailer.NewNotifier(buildMailSender(ctx, cfg, logger), logger)

	users := repository.NewUserStore(db)
	issues := repository.NewIssueStore(db)
	comments := repository.NewCommentStore(db)

	router := routes.NewRouter(routes.Options{
		Logger:         logger,
		Tokens:         tokens,
		Users:          users,
		CORSOrigins:    cfg.CORSOrigins,
		UploadDir:      uploadDir,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
		Health:         func(ctx context.Context) error { return client.Ping(ctx, nil) },
	}, routes.Handlers{
		Auth:     controllers.NewAuthController(users, tokens, notifier, cfg.OTPTTL, logger),
		Issues:   controllers.NewIssueController(issues, users, images, notifier, policy, logger),
		Comments: controllers.NewCommentController(comments, issues, users, logger),
		Admin:    controllers.NewAdminController(issues, users, logger),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.Port))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// buildMailSender prefers the Redis queue, then direct SMTP.
func buildMailSender(ctx context.Context, cfg *config.Config, logger *zap.Logger) mailer.Sender {
	var sender mailer.Sender = mailer.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		smtpSender, err := mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			sender = smtpSender
		}
	}

	redisClient, err := config.ConnectRedis(ctx, cfg.MailConfig)
	if err != nil {
		logger.Warn("redis unavailable, sending mail directly", zap.Error(err))
		return sender
	}
	if redisClient == nil {
		return sender
	}
	logger.Info("mail queued on redis", zap.String("key", cfg.MailQueueKey))
	return mailer.NewQueueSender(redisClient, cfg.MailQueueKey)
}

// buildImageStore returns the upload dir to serve when images live on disk.
func buildImageStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.ImageStore, string) {
	if cfg.MinioEndpoint != "" {
		store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			logger.Fatal("Failed to initialise object storage", zap.Error(err))
		}
		return store, ""
	}

	store, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal("Failed to prepare upload directory", zap.Error(err))
	}
	return store, store.Dir()
}

// Command mailrelay delivers the mail the API enqueues on Redis.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"citycare-be/config"
	"citycare-be/mailer"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.LoadMailConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger, err := config.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RedisAddr == "" {
		logger.Fatal("REDIS_ADDR is required for the mail relay")
	}
	client, err := config.ConnectRedis(ctx, *cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer client.Close()

	sender, err := mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
	if err != nil {
		logger.Fatal("smtp sender init failed", zap.Error(err))
	}

	logger.Info("mail relay started", zap.String("key", cfg.MailQueueKey))
	if err := mailer.NewRelay(client, cfg.MailQueueKey, sender, logger).Run(ctx); err != nil {
		logger.Fatal("mail relay stopped", zap.Error(err))
	}
	logger.Info("mail relay stopped")
}

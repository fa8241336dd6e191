/*
Package main is the entry point of the dmchat server.

It loads configuration (seeding the environment from a .env file when present),
initializes logging, wires the user and message stores, file storage, services
and realtime gateway, serves HTTP, and shuts everything down in order on
SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dmchat/internal/app/chat"
	"dmchat/internal/app/db"
	"dmchat/internal/app/memstore"
	"dmchat/internal/app/message"
	"dmchat/internal/app/storage"
	"dmchat/internal/app/user"
	"dmchat/internal/configs"
	"dmchat/internal/handler"
	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/logx"
	"dmchat/internal/pkg/pow"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env file is fine; real deployments set the environment directly.
	envFileErr := godotenv.Load()

	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	if envFileErr != nil {
		logx.Debug("No .env file loaded", "error", envFileErr)
	}
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("pow_difficulty", cfg.PowDifficulty).
		Str("store_driver", cfg.StoreDriver).
		Str("file_storage", cfg.FileStorage).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		userStore    user.Store
		messageStore message.Store
	)

	switch cfg.StoreDriver {
	case configs.StoreDriverMemory:
		logx.Warn("Using in-memory store; data is lost on restart")
		userStore = memstore.NewUserStore()
		messageStore = memstore.NewMessageStore()

	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to initialize database")
		}
		defer pool.Close()

		userStore = db.NewUserStore(pool)
		messageStore = db.NewMessageStore(pool)
	}

	fileStore, err := storage.NewFileStore(ctx, storage.ServiceConfig{
		Backend:           cfg.FileStorage,
		MediaDir:          cfg.MediaDir,
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize file storage")
	}

	tokens := jwt.NewTokenService(cfg.JWTSecret, cfg.JWTExpiration)
	users := user.NewService(userStore, tokens)
	messages := message.NewService(messageStore)
	gateway := chat.NewGateway(users, messages, tokens)

	deps := &handler.AppDeps{
		Config:   cfg,
		Tokens:   tokens,
		Users:    users,
		Messages: messages,
		Files:    storage.NewService(fileStore),
		Gateway:  gateway,
		Pow:      pow.NewManager(ctx, cfg.PowDifficulty),
	}

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           handler.Router(ctx, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info("dmchat server starting", "addr", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	// Drain realtime sends and close sockets before the stores go away.
	if err := gateway.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Realtime gateway did not drain in time")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}

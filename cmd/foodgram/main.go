package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/foodgram/internal/database"
	"github.com/dukerupert/foodgram/internal/logging"
	"github.com/dukerupert/foodgram/internal/media"
	"github.com/dukerupert/foodgram/internal/server"
	"github.com/dukerupert/foodgram/internal/shopping"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(os.Getenv("FOODGRAM_LOG_LEVEL"), os.Getenv("FOODGRAM_LOG_FORMAT"))

	port := getenv("FOODGRAM_PORT", "8080")
	dbPath := getenv("FOODGRAM_DB_PATH", "foodgram.db")
	baseURL := strings.TrimRight(getenv("FOODGRAM_BASE_URL", fmt.Sprintf("http://localhost:%s", port)), "/")

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	storage, err := openStorage(baseURL, logger)
	if err != nil {
		slog.Error("failed to set up media storage", "error", err)
		os.Exit(1)
	}

	cfg := server.Config{
		BaseURL:     baseURL,
		CORSOrigins: splitList(getenv("FOODGRAM_CORS_ORIGINS", "*")),
		PDF:         shopping.PDFOptions{FontPath: os.Getenv("FOODGRAM_PDF_FONT")},
	}
	srv := server.New(db, storage, cfg, logger)

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.TokenStore().DeleteExpired(cleanupCtx); err != nil {
					slog.Error("cleanup expired tokens", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired tokens", "count", n)
				}
				if n := srv.RateLimiter().Cleanup(); n > 0 {
					slog.Debug("cleaned up rate limit buckets", "count", n)
				}
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("foodgram starting", "addr", ":"+port, "base_url", baseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// openStorage picks S3 when a bucket and credentials are configured, the
// local media directory otherwise.
func openStorage(baseURL string, logger *slog.Logger) (media.Storage, error) {
	s3cfg := media.S3Config{
		Endpoint:  os.Getenv("FOODGRAM_S3_ENDPOINT"),
		Bucket:    os.Getenv("FOODGRAM_S3_BUCKET"),
		Region:    getenv("FOODGRAM_S3_REGION", "us-east-1"),
		AccessKey: os.Getenv("FOODGRAM_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("FOODGRAM_S3_SECRET_KEY"),
		PublicURL: os.Getenv("FOODGRAM_S3_PUBLIC_URL"),
	}
	if s3cfg.Enabled() {
		logger.Info("storing images in s3", "bucket", s3cfg.Bucket, "endpoint", s3cfg.Endpoint)
		return media.NewS3Storage(s3cfg), nil
	}
	if s3cfg.Bucket != "" {
		logger.Warn("s3 bucket set without credentials, falling back to disk")
	}

	dir := getenv("FOODGRAM_MEDIA_DIR", "media")
	logger.Info("storing images on disk", "dir", dir)
	return media.NewDiskStorage(dir, baseURL)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

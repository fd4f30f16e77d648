// Command foodgram-load imports ingredients and tags and can promote an
// admin account. Safe to run repeatedly.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dukerupert/foodgram/internal/database"
	"github.com/dukerupert/foodgram/internal/loader"
	"github.com/dukerupert/foodgram/internal/logging"
	"github.com/dukerupert/foodgram/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	dbPath := flag.String("db", getenv("FOODGRAM_DB_PATH", "foodgram.db"), "SQLite database path")
	ingredients := flag.String("ingredients", "", "ingredients file (.json or .csv)")
	tags := flag.String("tags", "", "tags file (.json)")
	adminEmail := flag.String("admin-email", "", "create or promote this user to admin")
	adminUsername := flag.String("admin-username", "admin", "username for a newly created admin")
	adminPassword := flag.String("admin-password", os.Getenv("FOODGRAM_ADMIN_PASSWORD"), "password for a newly created admin")
	flag.Parse()

	logger := logging.Setup(os.Getenv("FOODGRAM_LOG_LEVEL"), os.Getenv("FOODGRAM_LOG_FORMAT"))

	if *ingredients == "" && *tags == "" && *adminEmail == "" {
		flag.Usage()
		os.Exit(2)
	}

	db, err := database.Open(*dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := run(ctx, db, *ingredients, *tags, logger); err != nil {
		logger.Error("load failed", "error", err)
		os.Exit(1)
	}

	if *adminEmail != "" {
		created, err := loader.EnsureAdmin(ctx, store.NewUserStore(db), *adminEmail, *adminUsername, *adminPassword)
		if err != nil {
			logger.Error("admin setup failed", "error", err)
			os.Exit(1)
		}
		logger.Info("admin ready", "email", *adminEmail, "created", created)
	}
}

func run(ctx context.Context, db *sql.DB, ingredientsPath, tagsPath string, logger *slog.Logger) error {
	if ingredientsPath != "" {
		f, err := os.Open(ingredientsPath)
		if err != nil {
			return fmt.Errorf("open ingredients: %w", err)
		}
		defer f.Close()

		is := store.NewIngredientStore(db)
		var res loader.Result
		switch strings.ToLower(filepath.Ext(ingredientsPath)) {
		case ".csv":
			res, err = loader.IngredientsCSV(ctx, is, f)
		case ".json":
			res, err = loader.IngredientsJSON(ctx, is, f)
		default:
			return fmt.Errorf("ingredients file must be .json or .csv: %s", ingredientsPath)
		}
		if err != nil {
			return err
		}
		logger.Info("ingredients loaded", "added", res.Added, "skipped", res.Skipped)
	}

	if tagsPath != "" {
		f, err := os.Open(tagsPath)
		if err != nil {
			return fmt.Errorf("open tags: %w", err)
		}
		defer f.Close()

		res, err := loader.TagsJSON(ctx, store.NewTagStore(db), f)
		if err != nil {
			return err
		}
		logger.Info("tags loaded", "added", res.Added, "skipped", res.Skipped)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

package main

import (
	"context"
	"fmt"
	"kiriboka_backend/internal/config"
	"kiriboka_backend/internal/model"
	"kiriboka_backend/internal/repository"
	"kiriboka_backend/internal/service"
	"kiriboka_backend/pkg/database"
	"kiriboka_backend/pkg/logger"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var configDir string

func main() {
	root := &cobra.Command{
		Use:   "kiriboka-import",
		Short: "Import words or sentences from .xlsx/.csv into the Kiriboka database",
	}
	root.PersistentFlags().StringVarP(&configDir, "config", "c", "configs", "config directory")

	root.AddCommand(importCommand(model.KindWord, "words"), importCommand(model.KindSentence, "sentences"))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func importCommand(kind model.ItemKind, use string) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   use + " <file>",
		Short: fmt.Sprintf("Import %s (columns: text, translation, level, day%s)", use, readingHint(kind)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), kind, args[0], migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run schema migration before importing")
	return cmd
}

func readingHint(kind model.ItemKind) string {
	if kind == model.KindWord {
		return ", reading"
	}
	return ""
}

func runImport(ctx context.Context, kind model.ItemKind, path string, migrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database, false)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if migrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	svc := service.NewContentService(db, repository.NewContentRepository(db))
	result, err := svc.Import(ctx, kind, path, f)
	if err != nil {
		return err
	}

	fmt.Printf("processed=%d created=%d skipped=%d\n", result.Processed, result.Created, result.Skipped)
	if len(result.Errors) > 0 {
		fmt.Println(strings.Join(result.Errors, "\n"))
	}
	return nil
}

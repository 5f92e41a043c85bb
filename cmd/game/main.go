package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tatianab/ancient-cities/internal/assets"
	"github.com/tatianab/ancient-cities/internal/config"
	"github.com/tatianab/ancient-cities/internal/engine"
	"github.com/tatianab/ancient-cities/internal/models"
	"github.com/tatianab/ancient-cities/internal/storage"
	"github.com/tatianab/ancient-cities/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	var store models.StateStore
	if cfg.DBPath != "" {
		sqlStore, err := storage.Open(cfg.DBPath)
		if err != nil {
			fmt.Printf("Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer sqlStore.Close()
		store = sqlStore
	} else {
		fileStore, err := models.NewFileStore(cfg.SaveDir)
		if err != nil {
			fmt.Printf("Error opening save directory: %v\n", err)
			os.Exit(1)
		}
		store = fileStore
	}

	eng, err := engine.NewEngine(ctx, cfg.GeminiAPIKey, cfg.TextModel, cfg.ImageModel)
	if err != nil {
		fmt.Printf("Error creating engine: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	if err := tui.Run(eng, store, assets.Dir(cfg.AssetsDir), cfg.SaveDir); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

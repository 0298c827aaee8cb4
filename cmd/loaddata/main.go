package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	kind := flag.String("type", "", "fixture type: ingredients, users, recipes or all")
	dir := flag.String("dir", "data", "directory holding <type>.json or <type>.yaml")
	flag.Parse()

	log := logger.NewStderr("info", config.IsDevelopment())

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()
	db, err := database.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	kinds := []string{*kind}
	if *kind == "all" {
		// users before recipes, which reference authors and ingredients
		kinds = []string{service.KindIngredients, service.KindUsers, service.KindRecipes}
	}

	loader := service.NewLoader(db, log)
	for _, k := range kinds {
		path, err := findFixture(*dir, k)
		if err != nil {
			log.Fatal().Err(err).Str("type", k).Msg("fixture not found")
		}
		if _, err := loader.LoadFile(ctx, k, path); err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("failed to load fixture")
		}
	}
}

func findFixture(dir, kind string) (string, error) {
	if kind == "" {
		return "", fmt.Errorf("-type is required")
	}
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(dir, kind+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no %s fixture in %s", kind, dir)
}

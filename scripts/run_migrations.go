package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/safar/go-food-order/internal/config"
	"github.com/safar/go-food-order/internal/database"
	"github.com/safar/go-food-order/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/run_migrations.go [up|down]")
	}

	direction := os.Args[1]
	if direction != "up" && direction != "down" {
		log.Fatal("Direction must be 'up' or 'down'")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	logg, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("Init logger: %v", err)
	}
	defer logg.Sync()

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logg.Fatalw("connect to database", "error", err)
	}
	defer db.Close()

	migrationDir := "migrations"
	files, err := os.ReadDir(migrationDir)
	if err != nil {
		logg.Fatalw("read migration directory", "dir", migrationDir, "error", err)
	}

	var migrationFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), fmt.Sprintf(".%s.sql", direction)) {
			migrationFiles = append(migrationFiles, file.Name())
		}
	}

	sort.Strings(migrationFiles)
	if direction == "down" {
		for i, j := 0, len(migrationFiles)-1; i < j; i, j = i+1, j-1 {
			migrationFiles[i], migrationFiles[j] = migrationFiles[j], migrationFiles[i]
		}
	}

	for _, filename := range migrationFiles {
		content, err := os.ReadFile(filepath.Join(migrationDir, filename))
		if err != nil {
			logg.Fatalw("read migration file", "file", filename, "error", err)
		}

		logg.Infow("running migration", "file", filename)
		if _, err := db.Exec(string(content)); err != nil {
			logg.Fatalw("execute migration", "file", filename, "error", err)
		}
	}

	logg.Infow("migrations complete", "count", len(migrationFiles), "direction", direction)
}

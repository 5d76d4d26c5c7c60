package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/facturio/facturio/controller"
	"github.com/facturio/facturio/model"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pelletier/go-toml/v2"
)

func loadConfig(path string) (*model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &model.Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// runMigrations applies the SQL migrations for the configured database.
// Requires a build with -tags sqlite or -tags postgres.
func runMigrations(cfg *model.Config) error {
	m, err := migrate.New("file://"+migrationsDir(), migrateDSN(cfg))
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func run() error {
	configPath := flag.String("config", "config.toml", "chemin du fichier de configuration")
	migrateOnly := flag.Bool("migrate", false, "appliquer les migrations SQL puis quitter")
	maintenanceOnly := flag.Bool("maintenance", false, "exécuter les tâches de maintenance puis quitter")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *migrateOnly {
		return runMigrations(cfg)
	}
	store, err := model.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if *maintenanceOnly {
		return model.RunMaintenance(context.Background(), store)
	}

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := model.RunMaintenance(context.Background(), store); err != nil {
				log.Printf("maintenance: %v", err)
			}
		}
	}()

	return controller.NewController(store)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

package model

import (
	"fmt"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the main entry point of the model. All persistence goes
// through it; queries are always owner-scoped.
type Store struct {
	db     *gorm.DB
	Config *Config
}

type Config struct {
	Basedir                  string
	CookieSecret             string
	Currency                 string
	DefaultLocale            string
	MailAPIKey               string
	MailSecret               string
	Mode                     string
	Port                     int
	PublishingServerAddress  string
	PublishingServerUsername string
	RegistrationAllowed      bool
	Servers                  map[string]server
	SP                       string
	XMLDir                   string
}

type server struct {
	Database   string
	DBName     string
	DBUser     string
	DBPassword string
	DBHost     string
	DBLogger   string
}

// shared helper for GORM logger
func gormLoggerFor(cfg *Config, svr server) *gorm.Config {
	gormConfig := &gorm.Config{}
	switch svr.DBLogger {
	case "info":
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	case "silent":
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	default:
		if cfg.Mode == "development" {
			gormConfig.Logger = logger.Default.LogMode(logger.Info)
		} else {
			gormConfig.Logger = logger.Default.LogMode(logger.Silent)
		}
	}
	return gormConfig
}

func (store *Store) autoMigrate() error {
	var err error
	if err = store.db.AutoMigrate(&Client{}); err != nil {
		return err
	}
	if err = store.db.AutoMigrate(&Invoice{}); err != nil {
		return err
	}
	if err = store.db.AutoMigrate(&InvoiceItem{}); err != nil {
		return err
	}
	if err = store.db.AutoMigrate(&InvoiceImage{}); err != nil {
		return err
	}
	if err = store.db.AutoMigrate(&CompanyProfile{}); err != nil {
		return err
	}
	if err = store.db.AutoMigrate(&User{}); err != nil {
		return err
	}
	if err = store.db.AutoMigrate(&SignupToken{}); err != nil {
		return err
	}
	if err = store.db.AutoMigrate(&RecentView{}); err != nil {
		return err
	}
	if err = store.db.AutoMigrate(&APIToken{}); err != nil {
		return err
	}
	store.db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_recent_user_entity
         ON recent_views(user_id, entity_type, entity_id)`)
	store.db.Exec(`CREATE INDEX IF NOT EXISTS idx_recent_user_viewed_at
         ON recent_views(user_id, viewed_at DESC)`)
	store.db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_invoice_owner_number
         ON invoices(owner_id, number) WHERE deleted_at IS NULL`)
	return nil
}

// InitDatabase opens the configured database and migrates the schema.
func InitDatabase(cfg *Config) (*Store, error) {
	var err error

	store := &Store{Config: cfg}
	svr := cfg.Servers[cfg.Mode]
	gormConfig := gormLoggerFor(cfg, svr)

	switch svr.Database {
	case "sqlite3":
		filename := filepath.Join("db", svr.DBName)
		fmt.Println("Use server sqlite3 and database", filename)
		store.db, err = gorm.Open(sqlite.Open(filename), gormConfig)
		if err != nil {
			return nil, err
		}
	case "postgresql":
		fmt.Println("Use server postgresql and database", svr.DBName)
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=5432 sslmode=disable TimeZone=UTC",
			svr.DBHost, svr.DBUser, svr.DBPassword, svr.DBName)
		store.db, err = gorm.Open(postgres.Open(dsn), gormConfig)
	default:
		return nil, fmt.Errorf("not implemented yet")
	}
	if err = store.autoMigrate(); err != nil {
		return nil, err
	}
	return store, nil
}

// OpenTestStore opens an in-memory sqlite store with a migrated schema.
// Intended for tests; production code goes through InitDatabase.
func OpenTestStore() (*Store, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	// A second pooled connection would see a fresh empty memory database.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	store := &Store{
		db: db,
		Config: &Config{
			Mode:          "test",
			Currency:      "FCFA",
			DefaultLocale: "fr",
		},
	}
	if err := store.autoMigrate(); err != nil {
		return nil, err
	}
	return store, nil
}

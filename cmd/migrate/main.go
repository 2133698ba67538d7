package main

import (
	"database/sql"
	"errors"
	"flag"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"

	"creator-payments/internal/config"
	"creator-payments/internal/database"
	"creator-payments/internal/logger"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps to apply, 0 applies all")
	dir := flag.String("path", "migrations", "directory holding the SQL migrations")
	auto := flag.Bool("auto", false, "use gorm AutoMigrate instead of the SQL migrations")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	logger.Setup(cfg.Env, cfg.LogLevel)

	if *auto {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logrus.Fatal(err)
		}
		if err := database.Migrate(db); err != nil {
			logrus.Fatal(err)
		}
		return
	}

	sqlDB, err := sql.Open("mysql", cfg.Database.DSN()+"&multiStatements=true")
	if err != nil {
		logrus.Fatalf("failed to open database: %v", err)
	}
	defer sqlDB.Close()

	driver, err := mysql.WithInstance(sqlDB, &mysql.Config{})
	if err != nil {
		logrus.Fatalf("migration driver error: %v", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+*dir, "mysql", driver)
	if err != nil {
		logrus.Fatalf("migration setup error: %v", err)
	}

	switch {
	case *steps != 0 && *direction == "down":
		err = m.Steps(-*steps)
	case *steps != 0:
		err = m.Steps(*steps)
	case *direction == "down":
		err = m.Down()
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logrus.Fatalf("migration error: %v", err)
	}

	version, dirty, _ := m.Version()
	logrus.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Migrations completed successfully")
}

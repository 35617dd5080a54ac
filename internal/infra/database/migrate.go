package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationTable = "leadmail_migrations"

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sql.DB, log logrus.FieldLogger) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLogger{log: log})
	goose.SetTableName(migrationTable)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

type gooseLogger struct {
	log logrus.FieldLogger
}

func (g *gooseLogger) Printf(format string, args ...any) {
	g.log.Infof(format, args...)
}

// Fatalf only logs; goose returns the error to Migrate.
func (g *gooseLogger) Fatalf(format string, args ...any) {
	g.log.Errorf(format, args...)
}

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/arklim/taskboard-auth/internal/repository/postgres/migrations"
)

// gooseUp is a seam for tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

var gooseRun = func(ctx context.Context, command string, db *sql.DB, dir string, args ...string) error {
	return goose.RunContext(ctx, command, db, dir, args...)
}

func prepareGoose(log *zap.Logger) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(zapGooseLogger{log: log.Sugar()})
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// RunMigrations applies the embedded schema migrations through db.
func RunMigrations(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	if err := prepareGoose(log); err != nil {
		return err
	}

	if err := gooseUp(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	log.Info("database migrations applied")
	return nil
}

// RunMigrationCommand runs a goose command such as "up", "down", "status" or "version"
// against the embedded migrations.
func RunMigrationCommand(ctx context.Context, db *sql.DB, log *zap.Logger, command string, args ...string) error {
	if err := prepareGoose(log); err != nil {
		return err
	}
	if err := gooseRun(ctx, command, db, ".", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigratePool runs migrations over a database/sql handle borrowed from pool.
func MigratePool(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return RunMigrations(ctx, db, log)
}

type zapGooseLogger struct {
	log *zap.SugaredLogger
}

func (l zapGooseLogger) Fatalf(format string, v ...any) { l.log.Fatalf(format, v...) }
func (l zapGooseLogger) Printf(format string, v ...any) { l.log.Infof(format, v...) }

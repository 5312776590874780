// Command migrate applies the embedded schema migrations.
//
//	migrate [up|down|status|version|redo|reset|up-to N|down-to N]
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arklim/taskboard-auth/internal/infra/config"
	"github.com/arklim/taskboard-auth/internal/infra/database"
	"github.com/arklim/taskboard-auth/internal/infra/logger"
)

func main() {
	_ = godotenv.Load()

	command := "up"
	var args []string
	if len(os.Args) > 1 {
		command = os.Args[1]
		args = os.Args[2:]
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := sql.Open("pgx", database.DSN(cfg.Postgres))
	if err != nil {
		zl.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		zl.Fatal("database unreachable", zap.String("host", cfg.Postgres.Host), zap.Error(err))
	}

	if err := database.RunMigrationCommand(ctx, db, zl, command, args...); err != nil {
		zl.Fatal("migration failed", zap.String("command", command), zap.Error(err))
	}
}

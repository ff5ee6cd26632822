package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/orchestra-mcp/portal/internal/config"
	"github.com/orchestra-mcp/portal/internal/lib/sl"
	userservice "github.com/orchestra-mcp/portal/internal/services/user"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// Утилита первоначальной настройки: создает супер-администратора или
// повышает до него существующего пользователя по email.
func main() {
	var (
		name  = flag.String("name", "", "name for the new user")
		email = flag.String("email", "", "email of the user to create or promote")
		pass  = flag.String("password", "", "password for the new user")
	)
	flag.Parse()

	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if *email == "" {
		logger.Error("email is required")
		os.Exit(1)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		logger.Error("failed to connect to storage", sl.Err(err))
		os.Exit(1)
	}
	defer func() {
		_ = db.DB.Close()
	}()

	svc := userservice.New(logger, db)
	uid, err := svc.MakeSuperAdmin(context.Background(), *name, *email, *pass)
	if err != nil {
		logger.Error("failed to make super admin", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("super admin ready",
		slog.String("user_uid", uid),
		slog.String("email", *email))
}

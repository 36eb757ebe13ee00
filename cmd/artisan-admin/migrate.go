package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/prakritea/artisan-studio/internal/bootstrap"
	"github.com/prakritea/artisan-studio/internal/migrate"
)

func runMigrations(cmdCtx *commandContext, args []string) error {
	timeout, err := parseTimeoutFlag("migrate", args, defaultMigrationTimeout)
	if err != nil {
		return err
	}
	dbCfg := cmdCtx.Config.DevBackend.Database
	if dbCfg.URL == "" {
		return errors.New("DEVBACKEND_DATABASE_URL is not set")
	}

	ctx, cancel := withTimeout(cmdCtx.Ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: dbCfg, Logger: cmdCtx.Logger})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	cmdCtx.Logger.Info("running database migrations")
	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return migrateErr
	}
	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

func runListMigrations(cmdCtx *commandContext, _ []string) error {
	return printMigrations(cmdCtx.Out)
}

func printMigrations(w io.Writer) error {
	migrations, err := migrate.List()
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if err := writef(w, "%s\t%s\n", m.Version, m.File); err != nil {
			return err
		}
	}
	return nil
}

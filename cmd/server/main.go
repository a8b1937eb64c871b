package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"krishi/app"
	"krishi/config"
	"krishi/database"
	"krishi/pkg/logger"
)

var (
	cfg config.AppConfig
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "krishi",
	Short:         "Krishi AI farmer dashboard API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		if log, err = logger.New(cfg.Env, cfg.LogLevel); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  serve,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations and exit",
	RunE: func(*cobra.Command, []string) error {
		db, err := database.OpenSQLite(cfg.DBPath)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("schema up to date", zap.String("db", cfg.DBPath))
		return nil
	},
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "krishi:", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-schedule-api/internal/app"
	"github.com/noah-isme/campus-schedule-api/internal/models"
	"github.com/noah-isme/campus-schedule-api/pkg/config"
	"github.com/noah-isme/campus-schedule-api/pkg/database"
	"github.com/noah-isme/campus-schedule-api/pkg/logger"
)

type cliEnv struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadEnv() (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &cliEnv{cfg: cfg, logger: logr}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "schedule-import",
		Short:         "Reconcile extracted timetables into the schedule database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newJSONCmd(), newPDFCmd(), newMigrateCmd())
	return root
}

func newJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "json <file>",
		Short: "Import an already extracted schedule payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(args[0])
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			return withApp(ctx, func(a *app.App) error {
				result, err := a.Imports.Import(ctx, payload)
				if err != nil {
					return err
				}
				return writeResult(cmd.OutOrStdout(), result)
			})
		},
	}
}

func newPDFCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pdf <file>",
		Short: "Send a timetable document to the extraction service and import the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open document: %w", err)
			}
			defer file.Close() //nolint:errcheck

			ctx := commandContext(cmd)
			return withApp(ctx, func(a *app.App) error {
				result, err := a.Imports.ImportDocument(ctx, filepath.Base(args[0]), file)
				if err != nil {
					return err
				}
				return writeResult(cmd.OutOrStdout(), result)
			})
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadEnv()
			if err != nil {
				return err
			}
			defer rt.logger.Sync() //nolint:errcheck

			db, err := database.NewPostgres(commandContext(cmd), rt.cfg.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close() //nolint:errcheck

			if err := database.RunMigrations(db.DB, rt.logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func withApp(ctx context.Context, fn func(a *app.App) error) error {
	rt, err := loadEnv()
	if err != nil {
		return err
	}
	defer rt.logger.Sync() //nolint:errcheck

	a, err := app.New(ctx, rt.cfg, rt.logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func readPayload(path string) (models.SchedulePayload, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	var payload models.SchedulePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode payload %s: %w", filepath.Base(path), err)
	}
	if payload == nil {
		return nil, fmt.Errorf("payload %s is null", filepath.Base(path))
	}
	return payload, nil
}

func writeResult(w io.Writer, result *models.ImportResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/danielhkuo/truevote/cliparse"
	"github.com/danielhkuo/truevote/db"
)

const programName = "truevote"

func slogPrintf(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), "component", programName)
}

// commonRun parses the flags after any positional args and installs the
// JSON logger.
func commonRun(args []string) (cliparse.Config, *slog.Logger, error) {
	cfg, err := cliparse.ParseFlags(args)
	if err != nil {
		return cliparse.Config{}, nil, err
	}

	logLevel := slog.LevelInfo
	addSource := false
	if cfg.Debug {
		logLevel = slog.LevelDebug
		addSource = true
	}
	logger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: addSource,
			Level:     logLevel,
		}),
	)
	slog.SetDefault(logger)

	if _, err := maxprocs.Set(maxprocs.Logger(slogPrintf)); err != nil {
		return cliparse.Config{}, nil, fmt.Errorf("failed to set GOMAXPROCS: %w", err)
	}
	return cfg, logger, nil
}

// openDB connects and makes sure the schema exists.
func openDB(ctx context.Context, cfg cliparse.Config) (*sql.DB, error) {
	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("schema creation failed: %w", err)
	}
	return conn, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "TrueVote election backend",
		// Flags belong to cliparse; run `truevote serve -h` for the list
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(statsCommand())
	rootCmd.AddCommand(accountCommand())
	rootCmd.AddCommand(tokenCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

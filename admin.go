package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/truevote/accounts"
	"github.com/danielhkuo/truevote/audit"
	"github.com/danielhkuo/truevote/auth"
	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/projection"
	"github.com/danielhkuo/truevote/store"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:                "migrate [flags]",
		Short:              "Create the database schema and exit",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := commonRun(args)
			if err != nil {
				return err
			}
			conn, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()
			logger.Info("Database schema ready", "type", cfg.DatabaseType)
			return nil
		},
	}
}

func statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:                "stats [flags]",
		Short:              "Print totals across all polls and accounts",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := commonRun(args)
			if err != nil {
				return err
			}
			conn, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			stats, err := projection.New(store.New(conn, logger), nil).AdminStats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "polls:      %s\n", humanize.Comma(int64(stats.TotalPollsCreated)))
			fmt.Fprintf(out, "votes:      %s\n", humanize.Comma(int64(stats.TotalVotes)))
			fmt.Fprintf(out, "moderators: %s\n", humanize.Comma(int64(stats.TotalModerators)))
			fmt.Fprintf(out, "voters:     %s\n", humanize.Comma(int64(stats.TotalVoters)))
			return nil
		},
	}
}

func accountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage staff accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:                "add <admin|moderator> <name> <email> [flags]",
		Short:              "Create an admin or moderator account",
		DisableFlagParsing: true,
		Args:               cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := commonRun(args[3:])
			if err != nil {
				return err
			}
			conn, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			svc := accounts.NewService(store.New(conn, logger), audit.NewLedger(logger), logger)
			account, err := svc.CreateStaff(cmd.Context(), models.Role(args[0]), args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s created with id %s\n",
				account.AccountRole(), account.AccountEmail(), account.AccountID())
			return nil
		},
	})
	return cmd
}

func tokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:                "token <email> [flags]",
		Short:              "Issue a bearer token for an existing account",
		DisableFlagParsing: true,
		Args:               cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := commonRun(args[1:])
			if err != nil {
				return err
			}
			conn, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			account, err := store.New(conn, logger).GetAccountByEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !account.IsActive() {
				return fmt.Errorf("account %s is deleted", args[0])
			}

			now := time.Now()
			token, err := auth.IssueToken(models.ActorFor(account), cfg.TokenSecret, auth.DefaultTTL, now)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			logger.Info("token issued", "account_id", account.AccountID(), "expires", humanize.Time(now.Add(auth.DefaultTTL)))
			return nil
		},
	}
}

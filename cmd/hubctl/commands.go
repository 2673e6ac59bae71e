package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/openbook/hub/internal/account"
	"github.com/openbook/hub/internal/auth"
	"github.com/openbook/hub/internal/community"
	"github.com/openbook/hub/internal/db"
	"github.com/openbook/hub/internal/events"
)

// migrateCmd creates or updates the schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.New(&cfg.Database, cfg.Logging.Level)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.Migrate(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

// userCmd groups user management
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.New(&cfg.Database, cfg.Logging.Level)
		if err != nil {
			return err
		}
		defer database.Close()

		user, err := account.NewService(db.NewRepository(database.DB), nil).Create(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (id %d)\n", user.Username, user.ID)
		return nil
	},
}

var tokenTTL time.Duration

// tokenCmd issues an access token without going through the identity provider
var tokenCmd = &cobra.Command{
	Use:   "token <username>",
	Short: "Issue a development access token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.New(&cfg.Database, cfg.Logging.Level)
		if err != nil {
			return err
		}
		defer database.Close()

		user, err := account.NewService(db.NewRepository(database.DB), nil).GetByUsername(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		authCfg := cfg.Auth
		if tokenTTL > 0 {
			authCfg.TokenTTL = tokenTTL
		}
		token, err := auth.NewTokens(&authCfg).Issue(user.ID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var (
	logsAs    string
	logsCount int
	logsMaxID int64
)

// logsCmd prints the audit log of a community
var logsCmd = &cobra.Command{
	Use:   "logs <community>",
	Short: "Print the audit log of a community",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.New(&cfg.Database, cfg.Logging.Level)
		if err != nil {
			return err
		}
		defer database.Close()

		repo := db.NewRepository(database.DB)
		actor, err := account.NewService(repo, nil).GetByUsername(cmd.Context(), logsAs)
		if err != nil {
			return err
		}

		svc := community.NewService(repo, nil, events.NopPublisher{}, cfg.Limits)
		entries, err := svc.ListLogs(cmd.Context(), actor, args[0], logsMaxID, logsCount)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tACTION\tSOURCE\tTARGET\tAT")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", e.ID, e.ActionType.Name(), e.SourceUserID, e.TargetUserID, e.CreatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd)

	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to the configured jwt_ttl)")

	logsCmd.Flags().StringVar(&logsAs, "as", "", "username of a staff member to read the log as")
	logsCmd.Flags().IntVar(&logsCount, "count", 0, "number of entries")
	logsCmd.Flags().Int64Var(&logsMaxID, "max-id", 0, "only entries older than this id")
	_ = logsCmd.MarkFlagRequired("as")
}

/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/newshub/apiserver/config"
	"github.com/newshub/apiserver/internal/db"
	"github.com/newshub/apiserver/internal/store"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage stored sessions",
}

// sessionsPruneCmd deletes expired postgres sessions. Redis sessions expire on their own.
var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.Session.Backend != config.SessionBackendPostgres {
			return fmt.Errorf("prune is only supported for the %s session backend", config.SessionBackendPostgres)
		}

		conn, err := db.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()

		n, err := store.NewSessionRepository(conn).DeleteExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired sessions\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsPruneCmd)
}

/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/raycity/authserver/config"
	"github.com/raycity/authserver/internal/store"
	"github.com/spf13/cobra"
)

// initCmd represents the init command. It prepares the configured
// backend: the unique username index for MongoDB, the header row for the
// Sheets backend.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Prepare the configured storage backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		credStore, err := store.New(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("select backend failed: %w", err)
		}
		defer func() {
			_ = credStore.Close(context.Background())
		}()

		if err := credStore.Init(cmd.Context()); err != nil {
			return fmt.Errorf("init %s backend failed: %w", cfg.AuthBackend, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/boa/internal/config"
	"github.com/gyaneshwarpardhi/boa/internal/store"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write all stored run records as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			return err
		}
		db, err := store.Open(cfg.Server.DataPath)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Dump(cmd.OutOrStdout())
	},
}

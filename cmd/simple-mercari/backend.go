package main

import (
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"simple-mercari-web/internal/backend"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Run the development backend (sqlite + local images)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := backend.OpenStore(cfg.Backend.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer store.Close()

		srv, err := backend.NewServer(store, cfg.Backend.ImageDir)
		if err != nil {
			return err
		}

		log.Infof("Database: %s", cfg.Backend.DBPath)
		log.Infof("Images: %s", cfg.Backend.ImageDir)
		log.Infof("Starting development backend on %s", cfg.Backend.Addr)
		return serve(cmd.Context(), srv.Echo(cfg.Backend.FrontURL), cfg.Backend.Addr)
	},
}

package main

import (
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"simple-mercari-web/internal/web"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the marketplace page over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Infof("Items API: %s", cfg.Endpoints.ItemsURL)
		log.Infof("Search API: %s", cfg.Endpoints.SearchURL)
		log.Infof("Images: %s", cfg.Endpoints.ImageURL)
		log.Infof("Starting web front end on %s", cfg.Web.Addr)

		e := web.NewServer(newClient()).Echo()
		return serve(cmd.Context(), e, cfg.Web.Addr)
	},
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"simple-mercari-web/internal/api"
	"simple-mercari-web/internal/config"
)

const shutdownTimeout = 10 * time.Second

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "simple-mercari",
	Short:         "Simple Mercari marketplace front ends",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		c, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		lvl, _ := config.ParseLevel(c.LogLevel)
		log.SetLevel(lvl)
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML config file")
	rootCmd.AddCommand(webCmd, tuiCmd, backendCmd)
}

func newClient() *api.Client {
	return api.New(cfg.Endpoints, &http.Client{Timeout: cfg.HTTPTimeout})
}

// serve runs e on addr until ctx is done, then shuts it down.
func serve(ctx context.Context, e *echo.Echo, addr string) error {
	lvl, _ := config.ParseLevel(cfg.LogLevel)
	e.Logger.SetLevel(lvl)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

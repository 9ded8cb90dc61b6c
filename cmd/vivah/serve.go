package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sangamhq/vivah"
	"github.com/sangamhq/vivah/internal/config"
	"github.com/sangamhq/vivah/internal/logging"
	"github.com/sangamhq/vivah/internal/metrics"
	"github.com/sangamhq/vivah/pkg/adapters/httpapi"
	redisAdapter "github.com/sangamhq/vivah/pkg/adapters/redis"
	"github.com/sangamhq/vivah/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wizard HTTP API",
	Long:  `Starts the registration wizard as a JSON API over HTTP, with the progress store and hosted backend taken from the configuration file.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		logger := logging.New(logging.ParseLevel(cfg.LogLevel))

		store, redisClient, err := buildStore(cfg)
		if err != nil {
			fmt.Printf("Error building store: %v\n", err)
			os.Exit(1)
		}

		m := metrics.New()
		if err := m.Register(prometheus.DefaultRegisterer); err != nil {
			logger.Warn("metrics registration failed", "err", err)
		}

		engine, err := vivah.New(
			vivah.WithStore(store),
			vivah.WithBackend(buildBackend(cfg)),
			vivah.WithLogger(logger),
			vivah.WithLifecycleHooks(m.Hooks()),
			vivah.WithEffectTimeout(cfg.Effects.Timeout),
		)
		if err != nil {
			fmt.Printf("Error initializing vivah: %v\n", err)
			os.Exit(1)
		}

		var sessionOpts []session.Option
		if redisClient != nil {
			sessionOpts = append(sessionOpts, session.WithLocker(
				redisAdapter.NewLocker(redisClient, "vivah:wizard:"),
			))
		}

		handler := httpapi.NewHandler(engine.Sessions(sessionOpts...), logger, m)

		srv := &http.Server{
			Addr:    cfg.Listen,
			Handler: handler,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting wizard API", "addr", srv.Addr, "store", cfg.Store.Kind)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "err", err)
				}
			}
			logger.Info("wizard API stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

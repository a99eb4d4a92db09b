package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/api"
	"github.com/username/holiday-api/internal/chat"
	"github.com/username/holiday-api/internal/config"
	"github.com/username/holiday-api/internal/daemon"
)

func serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with scheduled dataset refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}

			c, err := initializeComponents(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			var watch []string
			if cfg.Refresh.WatchFiles {
				watch = daemon.WatchPaths(c.source)
			}
			d := daemon.NewDaemon(c.source, c.store, daemon.Options{
				Schedule:   cfg.Refresh.Schedule,
				WatchPaths: watch,
			}, logger)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Initial load must succeed; later failures keep the last good snapshot
			info, err := d.Reload(ctx)
			if err != nil {
				return fmt.Errorf("initial dataset load failed: %w", err)
			}
			fmt.Printf("✅ Loaded %d holidays for %d countries from %s\n", info.Holidays, info.Countries, info.Source)

			var answerer api.Answerer
			if cfg.Chat.Enabled() {
				client := chat.NewClient(cfg.Chat.Endpoint, cfg.Chat.APIKey, cfg.Chat.Model, logger,
					chat.WithRetries(cfg.Chat.Retries, cfg.Chat.GetRetryDelay()))
				answerer = chat.NewProxy(client, c.resolver, c.calendar, chat.Options{
					DefaultCountry:  cfg.Chat.DefaultCountry,
					DefaultLanguage: cfg.Chat.DefaultLanguage,
					Timeout:         cfg.Chat.GetTimeout(),
				}, logger)
				logger.Info("Chat enabled", zap.String("model", cfg.Chat.Model))
			} else {
				logger.Info("Chat disabled: chat.endpoint is not set")
			}

			if cfg.Admin.Enabled() {
				logger.Info("Admin endpoints enabled", zap.String("username", cfg.Admin.Username))
			} else {
				logger.Info("Admin endpoints disabled: admin.username or admin.password_hash is not set")
			}

			server := api.NewServer(c.resolver, c.calendar, answerer, d, api.Options{
				Listen:            cfg.Server.Listen,
				ReadTimeout:       cfg.Server.GetReadTimeout(),
				WriteTimeout:      cfg.Server.GetWriteTimeout(),
				RequestTimeout:    cfg.Server.GetRequestTimeout(),
				AllowedOrigins:    cfg.Server.AllowedOrigins,
				AdminUser:         cfg.Admin.Username,
				AdminPasswordHash: cfg.Admin.PasswordHash,
				DefaultLanguage:   cfg.Chat.DefaultLanguage,
			}, logger)

			// Handle signals
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigCh
				logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
				cancel()
			}()

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Refresh daemon stopped", zap.Error(err))
				}
			}()

			fmt.Printf("🚀 Listening on %s (Ctrl+C to stop)\n", cfg.Server.Listen)
			err = server.Start(ctx)
			cancel()
			wg.Wait()

			if err != nil {
				return err
			}
			fmt.Println("👋 Stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Override server.listen")

	return cmd
}

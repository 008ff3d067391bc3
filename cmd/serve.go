package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/askdoc/askdoc/internal/server"
)

var allowAllOrigins bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP question-answering server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := buildApp(cfg)
		if err != nil {
			return err
		}

		srv := server.New(server.Config{
			Port:      cfg.Port,
			AuthToken: cfg.AuthToken,
			AllowAll:  allowAllOrigins,
		}, a.engine)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			a.close()
			return err
		case sig := <-sigCh:
			log.Printf("serve: received %s, shutting down", sig)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("serve: shutdown: %v", err)
		}

		if err := a.close(); err != nil {
			return fmt.Errorf("closing: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&allowAllOrigins, "allow-all-origins", false, "allow all CORS origins (dev mode)")
	rootCmd.AddCommand(serveCmd)
}

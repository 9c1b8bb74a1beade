package main

import (
	"fmt"
	"os"
	"time"

	"veo-console/internal/backend"
	"veo-console/internal/config"
	"veo-console/internal/logging"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// rootOptions regroupe les flags communs à toutes les commandes
type rootOptions struct {
	backendURL string
	timeout    time.Duration
	logLevel   string
}

func main() {
	_ = godotenv.Load()

	if err := newRootCommand(config.Load()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "veoctl",
		Short:         "Submit and follow video generations from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.backendURL, "backend", cfg.Backend.URL, "generation backend base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", cfg.Backend.Timeout, "backend request timeout")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newSubmitCommand(cfg, opts),
		newStatusCommand(cfg, opts),
		newDownloadCommand(cfg, opts),
	)
	return root
}

func (o *rootOptions) client(cfg *config.Config) *backend.Client {
	return backend.NewClient(backend.Config{
		BaseURL:      o.backendURL,
		Timeout:      o.timeout,
		FastModel:    cfg.Backend.FastModel,
		QualityModel: cfg.Backend.QualityModel,
	})
}

// logger écrit sur stderr pour laisser stdout aux résultats
func (o *rootOptions) logger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(logging.ParseLevel(o.logLevel)).
		With().Timestamp().Str("service", "veoctl").Logger()
}

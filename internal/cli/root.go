// Package cli implements the mailroom command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/mailroom-dev/mailroom/internal/app"
	"github.com/mailroom-dev/mailroom/internal/config"
	"github.com/mailroom-dev/mailroom/internal/crypto"
	"github.com/mailroom-dev/mailroom/internal/provider/gmail"
	"github.com/mailroom-dev/mailroom/internal/store/sqlite"
)

var configPath string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mailroom",
		Short:         "Email ingestion, sanitization, and search backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config",
		filepath.Join(config.ConfigDir(), "config.toml"), "path to config file")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newSeedCmd())
	return cmd
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// runtime holds the wired dependencies shared by the commands.
type runtime struct {
	cfg    *config.Config
	store  *sqlite.DB
	syncer *app.Syncer
	box    *crypto.Box
	logger *slog.Logger
}

func newRuntime() (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	st, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	key, err := crypto.LoadKey(cfg.EncryptionKey)
	if err != nil {
		st.Close()
		return nil, err
	}
	box, err := crypto.New(key)
	if err != nil {
		st.Close()
		return nil, err
	}

	oauthCfg := gmail.OAuthConfig(cfg.Gmail.ClientID, cfg.Gmail.ClientSecret, cfg.Gmail.RedirectURL)
	syncer := app.NewSyncer(st, box, oauthCfg, cfg.Sync.MaxResults, logger)

	return &runtime{cfg: cfg, store: st, syncer: syncer, box: box, logger: logger}, nil
}

func (r *runtime) close() {
	if err := r.store.Close(); err != nil {
		r.logger.Warn("failed to close store", "error", err)
	}
}

func setupLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
		})
	}
	return slog.New(handler)
}

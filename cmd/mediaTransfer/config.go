package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/rescp17/mediaTransfer/pkg/transfer"
)

// Config is read from the environment, after an optional .env file.
type Config struct {
	// ServerURL of the media service. Empty means look it up with mDNS.
	ServerURL   string `env:"MEDIA_SERVER_URL"`
	DownloadDir string `env:"MEDIA_DOWNLOAD_DIR,default=downloads"`
	DataDir     string `env:"MEDIA_DATA_DIR,default=data"`
	ListenAddr  string `env:"MEDIA_LISTEN_ADDR,default=:8080"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	// LogFile receives the logs while a progress view owns the terminal.
	LogFile string `env:"MEDIA_LOG_FILE,default=debug.log"`
}

func loadConfig() (Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config loading failed: %w", err)
	}
	return cfg, nil
}

// transferConfig builds the transfer settings, with the download root made
// absolute since files are accessed through a filesystem rooted at "/".
func (c Config) transferConfig() (*transfer.TransferConfig, error) {
	root, err := filepath.Abs(c.DownloadDir)
	if err != nil {
		return nil, err
	}
	tc := transfer.DefaultTransferConfig()
	tc.DownloadRoot = root
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return tc, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogger installs the default logger. With toFile set, output goes to
// the configured log file so it does not tear through the progress view.
func setupLogger(cfg Config, toFile bool) (*slog.Logger, func()) {
	var (
		w       io.Writer = os.Stderr
		closeFn           = func() {}
	)
	if toFile {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			w = f
			closeFn = func() {
				if err := f.Close(); err != nil {
					slog.Warn("failed to close log file", "error", err)
				}
			}
		} else {
			w = io.Discard
		}
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)
	return logger, closeFn
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := fang.Execute(context.Background(), newRootCmd(&cfg)); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "mediaTransfer",
		Short:        "Move media between the local disk and a media service",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "media service URL (looked up with mDNS when empty)")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	cmd.AddCommand(
		newDecodeCmd(),
		newEncodeCmd(),
		newDownloadCmd(cfg),
		newUploadCmd(cfg),
		newSendCmd(cfg),
		newServeCmd(cfg),
		newDiscoverCmd(cfg),
	)
	return cmd
}

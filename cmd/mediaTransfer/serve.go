package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rescp17/mediaTransfer/api"
	"github.com/rescp17/mediaTransfer/pkg/discovery"
	"github.com/rescp17/mediaTransfer/pkg/remote"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 5 * time.Second
	gcInterval      = 10 * time.Minute
)

func newServeCmd(cfg *Config) *cobra.Command {
	var (
		name       string
		noAnnounce bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a media service backed by a local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog := setupLogger(*cfg, false)
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := badger.DefaultOptions(cfg.DataDir).WithLoggingLevel(badger.WARNING)
			db, err := badger.Open(opts)
			if err != nil {
				return fmt.Errorf("open database %s: %w", cfg.DataDir, err)
			}
			defer db.Close()

			svc, err := remote.NewService(db, log)
			if err != nil {
				return err
			}
			defer svc.Close()

			ln, err := net.Listen("tcp", cfg.ListenAddr)
			if err != nil {
				return err
			}
			srv := &http.Server{
				Handler:           api.NewAPI(svc, log),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			g.Go(func() error {
				collectGarbage(gctx, db, log)
				return nil
			})

			port := ln.Addr().(*net.TCPAddr).Port
			if !noAnnounce {
				g.Go(func() error {
					err := (&discovery.MDNSAdapter{}).Announce(gctx, discovery.ServiceInfo{
						Name:   name,
						Type:   discovery.DefaultServerType,
						Domain: discovery.DefaultDomain,
						Port:   port,
						Text:   map[string]string{"path": "/rpc"},
					})
					if err != nil {
						log.Warn("mDNS announce failed", "error", err)
					}
					return nil
				})
			}

			log.Info("Media service listening", "addr", ln.Addr().String(), "data", cfg.DataDir, "announce", !noAnnounce)
			return g.Wait()
		},
	}

	host, _ := os.Hostname()
	if host == "" {
		host = "media-service"
	}
	cmd.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "address to listen on")
	cmd.Flags().StringVar(&cfg.DataDir, "data", cfg.DataDir, "database directory")
	cmd.Flags().StringVar(&name, "name", host, "instance name announced with mDNS")
	cmd.Flags().BoolVar(&noAnnounce, "no-announce", false, "do not announce the service with mDNS")
	return cmd
}

// collectGarbage reclaims value log space until ctx is done. Uploaded parts
// are deleted once committed, so the log fills with stale entries.
func collectGarbage(ctx context.Context, db *badger.DB, log *slog.Logger) {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				if err := db.RunValueLogGC(0.5); err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						log.Debug("Value log GC stopped", "error", err)
					}
					break
				}
			}
		}
	}
}

func newDiscoverCmd(cfg *Config) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List media services on the local network",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(*cfg, false)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			seen := make(map[string]discovery.ServiceInfo)
			results := (&discovery.MDNSAdapter{}).Discover(ctx,
				discovery.ServiceName(discovery.DefaultServerType, discovery.DefaultDomain))
			for result := range results {
				if result.Error != nil {
					return result.Error
				}
				for _, s := range result.Services {
					seen[s.Name] = s
				}
			}

			if len(seen) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No media services found")
				return nil
			}
			for _, s := range seen {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", s.Name, s.URL())
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", discoverTimeout, "how long to listen for announcements")
	return cmd
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"picup/internal/agent"
	"picup/internal/daemon"
	"picup/internal/db"
	"picup/internal/dispatcher"
	"picup/internal/logger"
	"picup/internal/metrics"
	"picup/internal/notify"
	"picup/internal/repository"
	"picup/internal/resolver"
	"picup/internal/uploader"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Start the agent and upload every new file in the watch directory",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	defer logger.Sync()
	defer func() {
		_ = db.Close()
	}()

	stats := daemon.NewStats()
	up := uploader.New(cfg.EndpointURL, uploader.WithTimeout(cfg.UploadTimeout))

	var d *dispatcher.Dispatcher
	m := metrics.New(
		func() int { return d.InFlight() },
		func() int { return d.Queued() },
	)
	d = dispatcher.New(up, cfg.MaxConcurrentUploads, cfg.QueueSize,
		stats, repository.NewHistoryRepository(), m)

	notifier := notify.NewLogNotifier()
	res := resolver.Chain(
		resolver.Static(cfg.WatchPath),
		resolver.LatestImage(cfg.MediaRoot),
	)

	a := agent.New(agent.Options{
		DefaultWatchPath:  cfg.DefaultWatchPath,
		KeepAliveInterval: cfg.KeepAliveInterval,
		IgnoreList:        cfg.IgnoreList,
		LockPath:          cfg.LockPath,
	}, res, notifier, d)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		return err
	}

	srv := daemon.NewServer(a, stats, cfg.DaemonPort,
		daemon.WithMetrics(m.Handler()),
		daemon.WithKeepAlive(notifier.Last))
	srv.Start()

	logger.Log.Info("picup daemon started",
		zap.String("dir", a.WatchPath()),
		zap.String("endpoint", up.Endpoint()),
		zap.Int("workers", cfg.MaxConcurrentUploads),
		zap.Int("port", cfg.DaemonPort))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

loop:
	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Log.Info("restart requested",
					zap.String("signal", sig.String()))
				if err := a.Restart(ctx); err != nil {
					logger.Log.Error("restart failed", zap.Error(err))
				}
				continue
			}

			logger.Log.Info("shutting down",
				zap.String("signal", sig.String()))
			break loop
		case <-srv.StopCh():
			logger.Log.Info("stop requested via API")
			break loop
		}
	}

	a.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

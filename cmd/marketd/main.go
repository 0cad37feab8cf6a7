package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nftmarket/internal/app"
	"nftmarket/internal/engine"
	"nftmarket/internal/infra"
	"nftmarket/internal/infra/feed"
	"nftmarket/internal/service"

	"github.com/ethereum/go-ethereum/common"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	// Pprof server, localhost only.
	go func() {
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("pprof server failed", slog.Any("error", err))
		}
	}()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := bootstrap.Config
	seq := engine.NewSequencer(cfg.Market.InboxSize, bootstrap.Marketplace, bootstrap.Journal, bootstrap.HandleCommit)

	// The command loop MUST stay on a single goroutine.
	go seq.Run(ctx)
	slog.Info("sequencer started", slog.Int("inbox", cfg.Market.InboxSize))

	reads := service.NewMarketService(seq, bootstrap.Journal)
	for _, f := range cfg.Contracts.Fungibles {
		reads.RegisterDecimals(common.HexToAddress(f.Address), f.Decimals)
	}
	go reportState(ctx, reads)

	if recs, err := bootstrap.Journal.ActiveListings(); err == nil && len(recs) > 0 {
		slog.Info("journal carries listings from a previous run", slog.Int("count", len(recs)))
	}

	if cfg.Feed.ListenAddr != "" {
		go func() {
			if err := feed.Serve(ctx, cfg.Feed.ListenAddr, bootstrap.Hub); err != nil {
				slog.Error("feed server failed", slog.Any("error", err))
			}
		}()
	}

	slog.Info("marketd operational")
	<-ctx.Done()
	slog.Info("shutting down gracefully")
}

// reportState logs a periodic summary of the live marketplace.
func reportState(ctx context.Context, reads *service.MarketService) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := infra.GlobalMetrics.Snapshot()
			slog.Info("marketplace state",
				slog.Int("active_listings", len(reads.ActiveListings())),
				slog.String("fee_balance", reads.FeeBalance().String()),
				slog.Uint64("commands", snap.CommandsProcessed),
				slog.Uint64("sales", snap.SalesSettled),
				slog.Uint64("rejections", snap.RejectionsTotal))
		}
	}
}

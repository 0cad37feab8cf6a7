package app

import (
	"fmt"
	"log/slog"
	"strings"

	"nftmarket/internal/authority"
	"nftmarket/internal/domain"
	"nftmarket/internal/event"
	"nftmarket/internal/infra"
	"nftmarket/internal/infra/feed"
	"nftmarket/internal/infra/media"
	"nftmarket/internal/infra/storage"
	"nftmarket/internal/market"
	"nftmarket/internal/token"

	"github.com/ethereum/go-ethereum/common"
)

// Bootstrap orchestrates the daemon startup sequence and holds the wired
// components for main to run.
type Bootstrap struct {
	Config      *infra.Config
	Journal     *storage.Journal
	Media       *media.ThumbnailCache
	Registry    *token.Registry
	Marketplace *market.Marketplace
	Hub         *feed.Hub

	// Bounds concurrent thumbnail downloads.
	mediaSem chan struct{}
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{mediaSem: make(chan struct{}, 5)}
}

// Initialize loads configuration and wires every component short of the
// engine, which main owns together with the run loop.
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("bootstrapping marketd")

	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	slog.SetDefault(infra.NewLogger(cfg))

	journal, err := storage.NewJournal(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Journal = journal
	slog.Info("journal database initialized", slog.String("path", cfg.Storage.Path))

	cache, err := media.NewThumbnailCache(cfg.Media.Dir, cfg.Media.ThumbnailSize)
	if err != nil {
		return err
	}
	b.Media = cache

	verifier, err := b.buildVerifier()
	if err != nil {
		return err
	}
	slog.Info("trusted authority configured", slog.String("address", verifier.Authority().Hex()))

	b.Registry = b.buildRegistry()

	fee, _ := cfg.ListingFee() // validated by LoadConfig
	b.Marketplace = market.NewMarketplace(
		common.HexToAddress(cfg.Market.Address),
		common.HexToAddress(cfg.Market.Owner),
		fee,
		verifier,
		b.Registry,
	)

	b.Hub = feed.NewHub()
	return nil
}

// buildVerifier resolves the trusted authority address, preferring a dev
// signer key from the environment over the configured address.
func (b *Bootstrap) buildVerifier() (*authority.Verifier, error) {
	if key := b.Config.Market.AuthorityKey; key != "" {
		signer, err := authority.NewSigner(key)
		if err != nil {
			return nil, fmt.Errorf("authority key from environment: %w", err)
		}
		return authority.NewVerifier(signer.Address()), nil
	}
	return authority.NewVerifier(common.HexToAddress(b.Config.Market.Authority)), nil
}

// buildRegistry instantiates the configured token ledgers.
func (b *Bootstrap) buildRegistry() *token.Registry {
	reg := token.NewRegistry()
	for _, f := range b.Config.Contracts.Fungibles {
		addr := common.HexToAddress(f.Address)
		reg.RegisterFungible(addr, token.NewFungible(addr, f.Symbol, f.Decimals))
		slog.Info("fungible token registered", slog.String("address", addr.Hex()), slog.String("symbol", f.Symbol))
	}
	for _, a := range b.Config.Contracts.Assets {
		addr := common.HexToAddress(a.Address)
		switch strings.ToLower(a.Kind) {
		case "rentable":
			reg.RegisterAsset(addr, token.NewRentable(addr, a.Name, a.Symbol))
		case "multi":
			reg.RegisterAsset(addr, token.NewRentableMulti(addr, a.Name))
		default:
			reg.RegisterAsset(addr, token.NewNonFungible(addr, a.Name, a.Symbol))
		}
		slog.Info("asset contract registered",
			slog.String("address", addr.Hex()),
			slog.String("kind", a.Kind),
			slog.String("name", a.Name))
	}
	return reg
}

// HandleCommit is the engine's commit callback: broadcast to the feed, and
// for fresh listings warm the thumbnail cache in the background.
func (b *Bootstrap) HandleCommit(ev *event.MarketEvent) {
	b.Hub.Broadcast(ev)

	if ev.Type != event.TypeListed {
		return
	}
	go b.fetchThumbnail(ev.Contract, ev.TokenID)
}

func (b *Bootstrap) fetchThumbnail(contract common.Address, tokenID uint64) {
	b.mediaSem <- struct{}{}
	defer func() { <-b.mediaSem }()

	asset, err := b.Registry.Asset(contract)
	if err != nil {
		return
	}
	meta, ok := asset.(domain.MetadataProvider)
	if !ok {
		return
	}
	url, ok := meta.TokenImageURL(tokenID)
	if !ok {
		return
	}

	if _, err := b.Media.Fetch(contract, tokenID, url); err != nil {
		slog.Warn("thumbnail fetch failed",
			slog.String("contract", contract.Hex()),
			slog.Uint64("token", tokenID),
			slog.Any("error", err))
	}
}

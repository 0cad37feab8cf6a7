package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"sync"
	"time"

	"nftmarket/internal/domain"
	"nftmarket/internal/event"
	"nftmarket/internal/infra"
	"nftmarket/internal/market"

	"github.com/ethereum/go-ethereum/common"
)

// Journal persists committed marketplace events. A failing journal halts the
// engine: state that cannot be recorded must not keep advancing.
type Journal interface {
	SaveEvent(ctx context.Context, ev *event.MarketEvent) error
}

// submission pairs a command with the channel its caller waits on.
type submission struct {
	cmd    event.Command
	result chan error
}

// Sequencer is the single-threaded marketplace executor. It owns all mutable
// state and processes commands strictly in inclusion order, which is the only
// concurrency control the protocol needs: two racing buyers resolve into a
// winner and a NotListed rejection, never a torn state.
type Sequencer struct {
	inbox    chan submission
	market   *market.Marketplace
	nextSeq  uint64
	journal  Journal
	onCommit func(*event.MarketEvent)

	mu sync.RWMutex // guards state for external snapshot reads
}

// NewSequencer creates a sequencer over the given marketplace. journal and
// onCommit may be nil.
func NewSequencer(inboxSize int, m *market.Marketplace, journal Journal, onCommit func(*event.MarketEvent)) *Sequencer {
	return &Sequencer{
		inbox:    make(chan submission, inboxSize),
		market:   m,
		nextSeq:  1,
		journal:  journal,
		onCommit: onCommit,
	}
}

// Run starts the main command loop. This MUST run in a single goroutine.
func (s *Sequencer) Run(ctx context.Context) {
	slog.Info("marketplace sequencer started")

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState("panic_dump.json")
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("marketplace sequencer stopping")
			return
		case sub := <-s.inbox:
			sub.result <- s.process(sub.cmd)
		}
	}
}

// Submit sends a command to the engine and waits for its outcome. The
// returned error is nil on commit or one of the domain rejection reasons.
func (s *Sequencer) Submit(ctx context.Context, cmd event.Command) error {
	sub := submission{cmd: cmd, result: make(chan error, 1)}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.inbox <- sub:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-sub.result:
		return err
	}
}

// process executes one command to completion. Rejections leave state
// untouched; commits are journaled before the submitter hears back.
func (s *Sequencer) process(cmd event.Command) error {
	start := time.Now()

	s.mu.Lock()
	ev, err := s.dispatch(cmd)
	if err == nil {
		ev.Seq = s.nextSeq
		ev.Ts = time.Now().Unix()
		s.nextSeq++
	}
	s.mu.Unlock()

	infra.GlobalMetrics.RecordCommand(time.Since(start).Nanoseconds())
	if err != nil {
		infra.GlobalMetrics.RecordRejection()
		if !domain.IsRejection(err) {
			slog.Error("command failed outside the rejection taxonomy",
				slog.String("cmd", cmd.ID()), slog.Any("error", err))
		}
		return err
	}

	// Journal-or-halt: a committed transition that cannot be persisted is a
	// fatal divergence between memory and disk.
	if s.journal != nil {
		if jerr := s.journal.SaveEvent(context.Background(), ev); jerr != nil {
			panic(fmt.Sprintf("PERSISTENCE_FAILURE: %v", jerr))
		}
	}

	if s.onCommit != nil {
		s.onCommit(ev)
	}

	slog.Debug("command committed",
		slog.Uint64("seq", ev.Seq),
		slog.String("type", string(ev.Type)),
		slog.String("cmd", cmd.ID()))
	return nil
}

// dispatch routes a command into the protocol and shapes the committed event.
// Caller holds s.mu.
func (s *Sequencer) dispatch(cmd event.Command) (*event.MarketEvent, error) {
	switch c := cmd.(type) {
	case *event.ListCommand:
		if err := s.market.List(c.Caller, market.ListRequest{
			Contract:     c.Contract,
			TokenID:      c.TokenID,
			PaymentToken: c.PaymentToken,
			Price:        c.Price,
			Signature:    c.Signature,
			Value:        c.Value,
		}); err != nil {
			return nil, err
		}
		infra.GlobalMetrics.RecordListing()
		return &event.MarketEvent{
			Type:         event.TypeListed,
			Contract:     c.Contract,
			TokenID:      c.TokenID,
			Seller:       c.Caller,
			PaymentToken: c.PaymentToken,
			Price:        c.Price.String(),
			Value:        c.Value.String(),
		}, nil

	case *event.BuyCommand:
		sale, err := s.market.Buy(c.Caller, c.Contract, c.TokenID)
		if err != nil {
			return nil, err
		}
		infra.GlobalMetrics.RecordSale()
		return &event.MarketEvent{
			Type:         event.TypeSold,
			Contract:     c.Contract,
			TokenID:      c.TokenID,
			Seller:       sale.Seller,
			Buyer:        sale.Buyer,
			PaymentToken: sale.PaymentToken,
			Price:        sale.Price.String(),
		}, nil

	case *event.RentCommand:
		rental, err := s.market.Rent(c.Caller, c.Contract, c.TokenID, c.Duration, c.Amount)
		if err != nil {
			return nil, err
		}
		infra.GlobalMetrics.RecordSale()
		return &event.MarketEvent{
			Type:         event.TypeRented,
			Contract:     c.Contract,
			TokenID:      c.TokenID,
			Seller:       rental.Seller,
			Buyer:        rental.Renter,
			PaymentToken: rental.PaymentToken,
			Price:        rental.Price.String(),
			Expires:      rental.Expires,
			Amount:       rental.Amount,
		}, nil

	case *event.DelistCommand:
		if err := s.market.Delist(c.Caller, c.Contract, c.TokenID); err != nil {
			return nil, err
		}
		return &event.MarketEvent{
			Type:     event.TypeDelisted,
			Contract: c.Contract,
			TokenID:  c.TokenID,
			Seller:   c.Caller,
		}, nil

	case *event.WithdrawCommand:
		drained, err := s.market.WithdrawFees(c.Caller)
		if err != nil {
			return nil, err
		}
		return &event.MarketEvent{
			Type:  event.TypeFeesWithdrawn,
			Buyer: c.Caller,
			Value: drained.String(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown command kind %q", cmd.Kind())
	}
}

// GetListing returns a snapshot of the active listing (external read).
func (s *Sequencer) GetListing(contract common.Address, tokenID uint64) (domain.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.market.GetListing(contract, tokenID)
}

// ActiveListings returns snapshots of every active listing (external read).
func (s *Sequencer) ActiveListings() []market.ActiveEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.market.ActiveListings()
}

// FeeBalance returns the fee sink balance (external read).
func (s *Sequencer) FeeBalance() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.market.FeeBalance()
}

// DumpState writes the visible marketplace state to a file (post-mortem).
func (s *Sequencer) DumpState(filename string) {
	slog.Info("dumping marketplace state", slog.String("file", filename))

	s.mu.RLock()
	data := struct {
		NextSeq  uint64               `json:"next_seq"`
		Fees     string               `json:"fee_balance"`
		Listings []market.ActiveEntry `json:"listings"`
	}{
		NextSeq:  s.nextSeq,
		Fees:     s.market.FeeBalance().String(),
		Listings: s.market.ActiveListings(),
	}
	s.mu.RUnlock()

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("failed to marshal state", slog.Any("error", err))
		return
	}
	if err := os.WriteFile(filename, b, 0644); err != nil {
		slog.Error("failed to write state dump", slog.Any("error", err))
	}
}

// Package storage persists the engine's committed events to SQLite. It is a
// write-behind journal of what the in-memory marketplace already decided:
// listings, sales, rentals and fee movements, queryable for the read side.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"nftmarket/internal/event"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ListingRecord mirrors the registry entry for one (contract, token) key.
// Active flips false when the listing is sold, rented or delisted.
type ListingRecord struct {
	Contract     string `gorm:"primaryKey;size:42" json:"contract"`
	TokenID      uint64 `gorm:"primaryKey" json:"token_id"`
	Seller       string `json:"seller"`
	PaymentToken string `json:"payment_token"`
	Price        string `json:"price"`
	Active       bool   `gorm:"index" json:"active"`
	Seq          uint64 `json:"seq"`
	UpdatedAt    time.Time
}

// SaleRecord is one settled purchase or rental.
type SaleRecord struct {
	Seq          uint64 `gorm:"primaryKey" json:"seq"`
	Contract     string `gorm:"index:idx_sales_key" json:"contract"`
	TokenID      uint64 `gorm:"index:idx_sales_key" json:"token_id"`
	Seller       string `json:"seller"`
	Buyer        string `json:"buyer"`
	PaymentToken string `json:"payment_token"`
	Price        string `json:"price"`
	Rental       bool   `json:"rental"`
	Expires      int64  `json:"expires,omitempty"`
	Amount       uint64 `json:"amount,omitempty"`
	Ts           int64  `json:"ts"`
}

// FeeEntry is one fee sink movement: a collected listing fee or a withdrawal.
type FeeEntry struct {
	Seq   uint64 `gorm:"primaryKey" json:"seq"`
	Kind  string `gorm:"index" json:"kind"` // "collected" | "withdrawn"
	Value string `json:"value"`
	Ts    int64  `json:"ts"`
}

const (
	FeeCollected = "collected"
	FeeWithdrawn = "withdrawn"
)

// Journal is the SQLite-backed event store.
type Journal struct {
	db *gorm.DB
}

// NewJournal opens (or creates) the journal database at path.
func NewJournal(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&ListingRecord{}, &SaleRecord{}, &FeeEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Journal{db: db}, nil
}

// SaveEvent persists one committed marketplace event. Each event type maps to
// its own record shapes inside a single transaction.
func (j *Journal) SaveEvent(ctx context.Context, ev *event.MarketEvent) error {
	return j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch ev.Type {
		case event.TypeListed:
			if err := tx.Save(&ListingRecord{
				Contract:     ev.Contract.Hex(),
				TokenID:      ev.TokenID,
				Seller:       ev.Seller.Hex(),
				PaymentToken: ev.PaymentToken.Hex(),
				Price:        ev.Price,
				Active:       true,
				Seq:          ev.Seq,
			}).Error; err != nil {
				return err
			}
			return tx.Create(&FeeEntry{Seq: ev.Seq, Kind: FeeCollected, Value: ev.Value, Ts: ev.Ts}).Error

		case event.TypeSold, event.TypeRented:
			if err := j.deactivate(tx, ev); err != nil {
				return err
			}
			return tx.Create(&SaleRecord{
				Seq:          ev.Seq,
				Contract:     ev.Contract.Hex(),
				TokenID:      ev.TokenID,
				Seller:       ev.Seller.Hex(),
				Buyer:        ev.Buyer.Hex(),
				PaymentToken: ev.PaymentToken.Hex(),
				Price:        ev.Price,
				Rental:       ev.Type == event.TypeRented,
				Expires:      ev.Expires,
				Amount:       ev.Amount,
				Ts:           ev.Ts,
			}).Error

		case event.TypeDelisted:
			return j.deactivate(tx, ev)

		case event.TypeFeesWithdrawn:
			return tx.Create(&FeeEntry{Seq: ev.Seq, Kind: FeeWithdrawn, Value: ev.Value, Ts: ev.Ts}).Error

		default:
			return fmt.Errorf("unknown event type %q", ev.Type)
		}
	})
}

func (j *Journal) deactivate(tx *gorm.DB, ev *event.MarketEvent) error {
	return tx.Model(&ListingRecord{}).
		Where("contract = ? AND token_id = ?", ev.Contract.Hex(), ev.TokenID).
		Updates(map[string]interface{}{"active": false, "seq": ev.Seq}).Error
}

// ======================================================================================
// Read side
// ======================================================================================

// GetListing retrieves the journaled listing for one key, nil when unknown.
func (j *Journal) GetListing(contract string, tokenID uint64) (*ListingRecord, error) {
	var rec ListingRecord
	err := j.db.First(&rec, "contract = ? AND token_id = ?", contract, tokenID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &rec, err
}

// ActiveListings returns all journaled active listings.
func (j *Journal) ActiveListings() ([]ListingRecord, error) {
	var recs []ListingRecord
	err := j.db.Where("active = ?", true).Order("contract, token_id").Find(&recs).Error
	return recs, err
}

// SalesFor returns the settlement history of one key, newest first.
func (j *Journal) SalesFor(contract string, tokenID uint64) ([]SaleRecord, error) {
	var recs []SaleRecord
	err := j.db.Where("contract = ? AND token_id = ?", contract, tokenID).
		Order("seq desc").Find(&recs).Error
	return recs, err
}

// RecentSales returns the latest settlements across all keys.
func (j *Journal) RecentSales(limit int) ([]SaleRecord, error) {
	var recs []SaleRecord
	err := j.db.Order("seq desc").Limit(limit).Find(&recs).Error
	return recs, err
}

// FeeEntries returns all fee movements of one kind, oldest first.
func (j *Journal) FeeEntries(kind string) ([]FeeEntry, error) {
	var recs []FeeEntry
	err := j.db.Where("kind = ?", kind).Order("seq").Find(&recs).Error
	return recs, err
}

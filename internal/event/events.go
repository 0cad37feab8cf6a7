// Package event defines the commands submitted to the marketplace engine and
// the committed events it emits to the journal and the feed.
package event

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Kind discriminates command types.
type Kind string

const (
	KindList     Kind = "LIST"
	KindBuy      Kind = "BUY"
	KindRent     Kind = "RENT"
	KindDelist   Kind = "DELIST"
	KindWithdraw Kind = "WITHDRAW"
)

// Command is one call into the marketplace. The engine executes commands
// strictly in submission order; each either fully commits or fully rejects.
type Command interface {
	ID() string
	Kind() Kind
}

// BaseCommand carries the identity every command shares.
type BaseCommand struct {
	CmdID  string
	Caller common.Address
}

// NewBaseCommand stamps a fresh command id for caller.
func NewBaseCommand(caller common.Address) BaseCommand {
	return BaseCommand{CmdID: uuid.NewString(), Caller: caller}
}

func (b BaseCommand) ID() string { return b.CmdID }

// ListCommand publishes an asset for sale. Value is the attached native
// amount covering the listing fee.
type ListCommand struct {
	BaseCommand
	Contract     common.Address
	TokenID      uint64
	PaymentToken common.Address
	Price        *big.Int
	Signature    []byte
	Value        *big.Int
}

func (ListCommand) Kind() Kind { return KindList }

// BuyCommand purchases a listed asset outright.
type BuyCommand struct {
	BaseCommand
	Contract common.Address
	TokenID  uint64
}

func (BuyCommand) Kind() Kind { return KindBuy }

// RentCommand purchases time-bounded usage rights on a listed rentable asset.
type RentCommand struct {
	BaseCommand
	Contract common.Address
	TokenID  uint64
	Duration time.Duration
	Amount   uint64
}

func (RentCommand) Kind() Kind { return KindRent }

// DelistCommand cancels the caller's own listing.
type DelistCommand struct {
	BaseCommand
	Contract common.Address
	TokenID  uint64
}

func (DelistCommand) Kind() Kind { return KindDelist }

// WithdrawCommand drains the fee sink to the marketplace owner.
type WithdrawCommand struct {
	BaseCommand
}

func (WithdrawCommand) Kind() Kind { return KindWithdraw }

// Type discriminates committed marketplace events.
type Type string

const (
	TypeListed        Type = "LISTED"
	TypeSold          Type = "SOLD"
	TypeRented        Type = "RENTED"
	TypeDelisted      Type = "DELISTED"
	TypeFeesWithdrawn Type = "FEES_WITHDRAWN"
)

// MarketEvent is the committed effect of one successful command, in the form
// the journal persists and the feed broadcasts. Amounts travel as decimal
// strings so the record survives any uint256-scale value.
type MarketEvent struct {
	Seq          uint64         `json:"seq"`
	Ts           int64          `json:"ts"` // unix seconds
	Type         Type           `json:"type"`
	Contract     common.Address `json:"contract"`
	TokenID      uint64         `json:"token_id"`
	Seller       common.Address `json:"seller,omitempty"`
	Buyer        common.Address `json:"buyer,omitempty"`
	PaymentToken common.Address `json:"payment_token,omitempty"`
	Price        string         `json:"price,omitempty"`
	Value        string         `json:"value,omitempty"` // native amount moved
	Expires      int64          `json:"expires,omitempty"`
	Amount       uint64         `json:"amount,omitempty"`
}

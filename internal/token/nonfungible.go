package token

import (
	"nftmarket/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

// NonFungible is an ERC-721 shaped ownership ledger: one owner per token id,
// per-token approvals and per-owner operator approvals.
type NonFungible struct {
	address common.Address
	name    string
	symbol  string

	owners    map[uint64]common.Address
	approved  map[uint64]common.Address                 // one approvee per token, cleared on transfer
	operators map[common.Address]map[common.Address]bool // owner -> operator -> approved
	imageURLs map[uint64]string
}

// NewNonFungible creates an empty NFT ledger at the given address.
func NewNonFungible(address common.Address, name, symbol string) *NonFungible {
	return &NonFungible{
		address:   address,
		name:      name,
		symbol:    symbol,
		owners:    make(map[uint64]common.Address),
		approved:  make(map[uint64]common.Address),
		operators: make(map[common.Address]map[common.Address]bool),
		imageURLs: make(map[uint64]string),
	}
}

func (n *NonFungible) Address() common.Address { return n.address }
func (n *NonFungible) Name() string            { return n.name }
func (n *NonFungible) Symbol() string          { return n.symbol }

// Mint assigns a fresh token id to `to`.
func (n *NonFungible) Mint(to common.Address, tokenID uint64) error {
	if _, exists := n.owners[tokenID]; exists {
		return domain.ErrTokenExists
	}
	n.owners[tokenID] = to
	return nil
}

// SetImageURL attaches a display image to a token (metadata, not ownership).
func (n *NonFungible) SetImageURL(tokenID uint64, url string) {
	n.imageURLs[tokenID] = url
}

// TokenImageURL implements domain.MetadataProvider.
func (n *NonFungible) TokenImageURL(tokenID uint64) (string, bool) {
	url, ok := n.imageURLs[tokenID]
	return url, ok
}

// OwnerOf returns the current owner of tokenID.
func (n *NonFungible) OwnerOf(tokenID uint64) (common.Address, error) {
	owner, ok := n.owners[tokenID]
	if !ok {
		return common.Address{}, domain.ErrUnknownToken
	}
	return owner, nil
}

// Approve authorizes approvee to transfer exactly this token.
func (n *NonFungible) Approve(owner common.Address, approvee common.Address, tokenID uint64) error {
	current, ok := n.owners[tokenID]
	if !ok {
		return domain.ErrUnknownToken
	}
	if current != owner && !n.isOperator(current, owner) {
		return domain.ErrNotApproved
	}
	n.approved[tokenID] = approvee
	return nil
}

// SetApprovalForAll authorizes (or revokes) operator over every token of owner.
func (n *NonFungible) SetApprovalForAll(owner, operator common.Address, approved bool) {
	book, ok := n.operators[owner]
	if !ok {
		book = make(map[common.Address]bool)
		n.operators[owner] = book
	}
	book[operator] = approved
}

func (n *NonFungible) isOperator(owner, operator common.Address) bool {
	if book, ok := n.operators[owner]; ok {
		return book[operator]
	}
	return false
}

// canMove reports whether caller may transfer tokenID on behalf of its owner.
func (n *NonFungible) canMove(caller, owner common.Address, tokenID uint64) bool {
	return caller == owner || n.approved[tokenID] == caller || n.isOperator(owner, caller)
}

// TransferFrom moves tokenID from `from` to `to`. The per-token approval is
// consumed by the transfer.
func (n *NonFungible) TransferFrom(caller, from, to common.Address, tokenID uint64) error {
	owner, ok := n.owners[tokenID]
	if !ok {
		return domain.ErrUnknownToken
	}
	if owner != from {
		return domain.ErrNotApproved
	}
	if !n.canMove(caller, owner, tokenID) {
		return domain.ErrNotApproved
	}

	delete(n.approved, tokenID)
	n.owners[tokenID] = to
	return nil
}

var (
	_ domain.AssetLedger      = (*NonFungible)(nil)
	_ domain.MetadataProvider = (*NonFungible)(nil)
)

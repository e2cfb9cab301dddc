package application

import (
	"github.com/tdex-network/descwallet/internal/core/domain"
	"github.com/tdex-network/descwallet/pkg/descriptor"
)

// AddressInfo contains info about an address derived from a wallet
// descriptor.
type AddressInfo struct {
	Keychain descriptor.Keychain
	Index    uint32
	Address  string
	Script   string
	// Full derivation path from the master key, set only for single-key
	// descriptors.
	DerivationPath string
}

func addressInfoFromDomain(addr domain.Address, path string) AddressInfo {
	return AddressInfo{
		Keychain:       addr.Keychain,
		Index:          addr.Index,
		Address:        addr.Address,
		Script:         addr.Script,
		DerivationPath: path,
	}
}

// BalanceInfo holds the sum of the balances of a set of scripts, in sats.
type BalanceInfo struct {
	ConfirmedBalance   uint64
	UnconfirmedBalance int64
}

func (b BalanceInfo) TotalBalance() int64 {
	return int64(b.ConfirmedBalance) + b.UnconfirmedBalance
}

// SyncResult reports the outcome of a wallet sync.
type SyncResult struct {
	Balance BalanceInfo
	// Index of the last used address per keychain, nil if none is used.
	LastUsedExternal *uint32
	LastUsedInternal *uint32
	NumTxs           int
	NumNewTxs        int
	BlockHeight      uint32
}

// WalletInfo contains info about the wallet.
type WalletInfo struct {
	ID                string
	Network           string
	Descriptor        string
	ChangeDescriptor  string
	IsRange           bool
	NextExternalIndex uint32
	NextInternalIndex uint32
	NumAddresses      int
	LastSyncedHeight  uint32
}

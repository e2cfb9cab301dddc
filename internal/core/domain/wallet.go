package domain

import (
	"sort"
	"time"

	"github.com/tdex-network/descwallet/pkg/descriptor"
	"github.com/tdex-network/descwallet/pkg/network"
)

// Address is a script revealed by a wallet for one of its keychains.
type Address struct {
	Keychain descriptor.Keychain
	Index    uint32
	Address  string
	// Hex encoded output script.
	Script string
}

// Wallet defines the entity data structure for a descriptor based wallet.
// The only mutable state is the next derivation index of each keychain and
// the list of addresses revealed so far.
type Wallet struct {
	// Checksum of the external descriptor, eventually joined with the one of
	// the internal descriptor.
	ID string
	// Public form of the descriptors, always with checksum.
	ExternalDescriptor string
	InternalDescriptor string
	Network            string
	NextExternalIndex  uint32
	NextInternalIndex  uint32
	Addresses          []Address
	LastSyncedHeight   uint32
	CreatedAt          int64
}

// NewWallet returns a new wallet for the given descriptors. The internal
// descriptor is optional.
func NewWallet(
	id, externalDescriptor, internalDescriptor, net string,
) (*Wallet, error) {
	if id == "" {
		return nil, ErrWalletMissingID
	}
	if externalDescriptor == "" {
		return nil, ErrWalletMissingDescriptor
	}
	if _, err := network.Parse(net); err != nil {
		return nil, ErrWalletInvalidNetwork
	}

	return &Wallet{
		ID:                 id,
		ExternalDescriptor: externalDescriptor,
		InternalDescriptor: internalDescriptor,
		Network:            net,
		Addresses:          make([]Address, 0),
		CreatedAt:          time.Now().Unix(),
	}, nil
}

// HasInternalDescriptor returns whether the wallet has a dedicated descriptor
// for change addresses.
func (w *Wallet) HasInternalDescriptor() bool {
	return w.InternalDescriptor != ""
}

// Descriptor returns the descriptor used for the given keychain. The
// external one is used for change when the wallet has no internal
// descriptor.
func (w *Wallet) Descriptor(keychain descriptor.Keychain) string {
	if keychain == descriptor.KeychainInternal && w.HasInternalDescriptor() {
		return w.InternalDescriptor
	}
	return w.ExternalDescriptor
}

// NextIndex returns the next unrevealed derivation index of a keychain.
func (w *Wallet) NextIndex(keychain descriptor.Keychain) uint32 {
	if keychain == descriptor.KeychainInternal {
		return w.NextInternalIndex
	}
	return w.NextExternalIndex
}

// RevealAddress adds the given address to the list of those revealed and
// moves the next index of its keychain past it. Revealing an address twice
// is a no-op.
func (w *Wallet) RevealAddress(addr Address) error {
	if addr.Address == "" || addr.Script == "" {
		return ErrWalletInvalidAddress
	}
	if _, ok := w.GetAddress(addr.Keychain, addr.Index); ok {
		return nil
	}

	w.Addresses = append(w.Addresses, addr)
	sort.SliceStable(w.Addresses, func(i, j int) bool {
		a, b := w.Addresses[i], w.Addresses[j]
		if a.Keychain != b.Keychain {
			return a.Keychain < b.Keychain
		}
		return a.Index < b.Index
	})
	w.advanceIndex(addr.Keychain, addr.Index+1)
	return nil
}

// GetAddress returns the revealed address at the given keychain and index.
func (w *Wallet) GetAddress(
	keychain descriptor.Keychain, index uint32,
) (Address, bool) {
	for _, addr := range w.Addresses {
		if addr.Keychain == keychain && addr.Index == index {
			return addr, true
		}
	}
	return Address{}, false
}

// AddressesByKeychain returns the revealed addresses of a keychain, sorted
// by index.
func (w *Wallet) AddressesByKeychain(keychain descriptor.Keychain) []Address {
	addresses := make([]Address, 0)
	for _, addr := range w.Addresses {
		if addr.Keychain == keychain {
			addresses = append(addresses, addr)
		}
	}
	return addresses
}

// SetSynced records the height of the chain tip at the last sync.
func (w *Wallet) SetSynced(height uint32) {
	w.LastSyncedHeight = height
}

func (w *Wallet) advanceIndex(keychain descriptor.Keychain, next uint32) {
	if keychain == descriptor.KeychainInternal {
		if next > w.NextInternalIndex {
			w.NextInternalIndex = next
		}
		return
	}
	if next > w.NextExternalIndex {
		w.NextExternalIndex = next
	}
}

package bip32

import (
	"github.com/tdex-network/descwallet/pkg/network"
	"github.com/tyler-smith/go-bip39"
)

// NewMnemonic returns a new BIP-39 mnemonic. A zero entropy size defaults
// to 128 bits (12 words).
func NewMnemonic(entropySize int) (string, error) {
	if entropySize == 0 {
		entropySize = 128
	}
	if entropySize < 128 || entropySize > 256 || entropySize%32 != 0 {
		return "", ErrInvalidEntropySize
	}

	entropy, err := bip39.NewEntropy(entropySize)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// IsMnemonicValid ...
func IsMnemonicValid(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// NewMasterFromMnemonic returns the master extended private key for the
// BIP-39 seed of the given mnemonic and optional passphrase.
func NewMasterFromMnemonic(
	mnemonic, passphrase string, net network.Network,
) (ExtendedKey, error) {
	if !IsMnemonicValid(mnemonic) {
		return ExtendedKey{}, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	return NewMaster(seed, net)
}

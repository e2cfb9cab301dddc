package bip32

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tdex-network/descwallet/pkg/network"
)

const (
	// HardenedKeyStart is the offset added to a child index to mark it as
	// hardened in the serialized form.
	HardenedKeyStart uint32 = hdkeychain.HardenedKeyStart
	// MaxIndex is the greatest index usable for both hardened and
	// non-hardened steps.
	MaxIndex = HardenedKeyStart - 1

	// MinSeedBytes ...
	MinSeedBytes = hdkeychain.MinSeedBytes
	// MaxSeedBytes ...
	MaxSeedBytes = hdkeychain.MaxSeedBytes
)

type keyVersions struct {
	private [4]byte
	public  [4]byte
	test    bool
}

var knownVersions = []keyVersions{
	{
		chaincfg.MainNetParams.HDPrivateKeyID,
		chaincfg.MainNetParams.HDPublicKeyID,
		false,
	},
	{
		chaincfg.TestNet3Params.HDPrivateKeyID,
		chaincfg.TestNet3Params.HDPublicKeyID,
		true,
	},
}

func lookupVersion(version []byte) (keyVersions, bool, bool) {
	for _, v := range knownVersions {
		if bytes.Equal(v.private[:], version) {
			return v, true, true
		}
		if bytes.Equal(v.public[:], version) {
			return v, false, true
		}
	}
	return keyVersions{}, false, false
}

// ExtendedKey is a BIP-32 extended key, either private or public. It is an
// immutable value: every derivation returns a new ExtendedKey.
type ExtendedKey struct {
	key *hdkeychain.ExtendedKey
}

// newExtendedKey wraps k. The public key is cached eagerly so that the
// wrapped key is never written after construction and can be shared
// between goroutines.
func newExtendedKey(k *hdkeychain.ExtendedKey) ExtendedKey {
	_, _ = k.ECPubKey()
	return ExtendedKey{k}
}

// NewMaster creates the master extended private key of the given network
// from a seed.
func NewMaster(seed []byte, net network.Network) (ExtendedKey, error) {
	key, err := hdkeychain.NewMaster(seed, net.Params())
	if err != nil {
		switch {
		case errors.Is(err, hdkeychain.ErrInvalidSeedLen):
			return ExtendedKey{}, ErrInvalidSeedLen
		case errors.Is(err, hdkeychain.ErrUnusableSeed):
			return ExtendedKey{}, ErrUnusableSeed
		default:
			return ExtendedKey{}, err
		}
	}
	return newExtendedKey(key), nil
}

// NewExtendedKeyFromString parses a base58 serialized extended key
// (xprv, xpub, tprv or tpub).
func NewExtendedKeyFromString(str string) (ExtendedKey, error) {
	key, err := hdkeychain.NewKeyFromString(str)
	if err != nil {
		switch {
		case errors.Is(err, hdkeychain.ErrInvalidKeyLen):
			return ExtendedKey{}, ErrInvalidKeyLen
		case errors.Is(err, hdkeychain.ErrBadChecksum):
			return ExtendedKey{}, ErrBadChecksum
		case errors.Is(err, hdkeychain.ErrUnusableSeed):
			return ExtendedKey{}, fmt.Errorf(
				"%w: private key out of range", ErrInvalidKeyData,
			)
		default:
			return ExtendedKey{}, fmt.Errorf("%w: %s", ErrInvalidKeyData, err)
		}
	}

	_, isPrivate, ok := lookupVersion(key.Version())
	if !ok {
		return ExtendedKey{}, ErrUnknownVersion
	}
	if isPrivate != key.IsPrivate() {
		return ExtendedKey{}, fmt.Errorf(
			"%w: key data does not match the version", ErrInvalidKeyData,
		)
	}
	if key.Depth() == 0 && (key.ChildIndex() != 0 || key.ParentFingerprint() != 0) {
		return ExtendedKey{}, fmt.Errorf(
			"%w: zero depth with non-zero parent fingerprint or index",
			ErrInvalidKeyData,
		)
	}

	return newExtendedKey(key), nil
}

// String returns the base58 serialization of the extended key.
func (k ExtendedKey) String() string {
	if k.key == nil {
		return "zeroed extended key"
	}
	return k.key.String()
}

// IsZero returns whether k is the zero value.
func (k ExtendedKey) IsZero() bool {
	return k.key == nil
}

// IsPrivate returns whether the extended key holds private key material.
func (k ExtendedKey) IsPrivate() bool {
	return k.key != nil && k.key.IsPrivate()
}

// IsForNet returns whether the serialization version of the key belongs to
// the given network. Testnet, regtest and signet share the same versions.
func (k ExtendedKey) IsForNet(net network.Network) bool {
	if k.key == nil {
		return false
	}
	v, _, ok := lookupVersion(k.key.Version())
	return ok && v.test == net.IsTest()
}

// Version returns the 4-byte serialization version.
func (k ExtendedKey) Version() [4]byte {
	var version [4]byte
	if k.key != nil {
		copy(version[:], k.key.Version())
	}
	return version
}

// Depth returns the number of derivation steps from the master key.
func (k ExtendedKey) Depth() uint8 {
	if k.key == nil {
		return 0
	}
	return k.key.Depth()
}

// ChildIndex returns the serialized child number, hardened bit included.
func (k ExtendedKey) ChildIndex() uint32 {
	if k.key == nil {
		return 0
	}
	return k.key.ChildIndex()
}

// ParentFingerprint returns the fingerprint of the parent key.
func (k ExtendedKey) ParentFingerprint() [4]byte {
	var fp [4]byte
	if k.key != nil {
		binary.BigEndian.PutUint32(fp[:], k.key.ParentFingerprint())
	}
	return fp
}

// ChainCode returns a copy of the chain code.
func (k ExtendedKey) ChainCode() []byte {
	if k.key == nil {
		return nil
	}
	return append([]byte{}, k.key.ChainCode()...)
}

// PubKeyBytes returns the compressed public key.
func (k ExtendedKey) PubKeyBytes() []byte {
	pubKey, err := k.PublicKey()
	if err != nil {
		return nil
	}
	return pubKey.SerializeCompressed()
}

// PublicKey returns the public key of the extended key.
func (k ExtendedKey) PublicKey() (*btcec.PublicKey, error) {
	if k.key == nil {
		return nil, ErrInvalidKeyData
	}
	return k.key.ECPubKey()
}

// PrivateKey returns the private key of the extended key, if any.
func (k ExtendedKey) PrivateKey() (*btcec.PrivateKey, error) {
	if !k.IsPrivate() {
		return nil, ErrNotPrivate
	}
	return k.key.ECPrivKey()
}

// Fingerprint returns the first 4 bytes of the HASH160 of the public key.
func (k ExtendedKey) Fingerprint() [4]byte {
	var fp [4]byte
	copy(fp[:], btcutil.Hash160(k.PubKeyBytes())[:4])
	return fp
}

// Neuter returns the public counterpart of a private extended key. Public
// keys are returned unchanged.
func (k ExtendedKey) Neuter() ExtendedKey {
	if !k.IsPrivate() {
		return k
	}
	// The version was checked against the known ones at construction.
	pub, err := k.key.Neuter()
	if err != nil {
		return ExtendedKey{}
	}
	return newExtendedKey(pub)
}

package bip32

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDerivation is the error kind every failing derivation step
	// wraps, whatever the actual cause.
	ErrInvalidDerivation = errors.New("invalid derivation")
	// ErrIndexOutOfRange is returned when a child index already carries the
	// hardened bit. Hardened steps are requested through the dedicated flag.
	ErrIndexOutOfRange = fmt.Errorf(
		"%w: child index must be lower than 2^31", ErrInvalidDerivation,
	)
	// ErrDeriveHardFromPublic ...
	ErrDeriveHardFromPublic = fmt.Errorf(
		"%w: cannot derive a hardened key from a public key", ErrInvalidDerivation,
	)
	// ErrDeriveBeyondMaxDepth ...
	ErrDeriveBeyondMaxDepth = fmt.Errorf(
		"%w: cannot derive a key with more than 255 indices in its path",
		ErrInvalidDerivation,
	)
	// ErrInvalidChild is returned for the (astronomically rare) child indexes
	// that BIP-32 declares unusable.
	ErrInvalidChild = fmt.Errorf(
		"%w: the extended key at this index is invalid", ErrInvalidDerivation,
	)

	// ErrInvalidKeyLen ...
	ErrInvalidKeyLen = errors.New(
		"the provided serialized extended key length is invalid",
	)
	// ErrBadChecksum ...
	ErrBadChecksum = errors.New("bad extended key checksum")
	// ErrUnknownVersion ...
	ErrUnknownVersion = errors.New("unknown extended key version")
	// ErrInvalidKeyData ...
	ErrInvalidKeyData = errors.New("invalid extended key material")
	// ErrNotPrivate ...
	ErrNotPrivate = errors.New("extended key is not a private key")

	// ErrInvalidSeedLen ...
	ErrInvalidSeedLen = fmt.Errorf(
		"seed length must be between %d and %d bytes", MinSeedBytes, MaxSeedBytes,
	)
	// ErrUnusableSeed ...
	ErrUnusableSeed = errors.New("unusable seed")
	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)

	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New(
		"path must not start or end with a '/' and " +
			"can optionally start with 'm/' for absolute paths",
	)
)

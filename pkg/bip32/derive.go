package bip32

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DeriveChild derives the child of parent at the given index. The index must
// be lower than 2^31; the hardened flag selects hardened derivation, which
// is only possible from a private key.
func DeriveChild(parent ExtendedKey, index uint32, hardened bool) (ExtendedKey, error) {
	return parent.DeriveChild(index, hardened)
}

// DerivePath derives the key at the end of path starting from root.
func DerivePath(root ExtendedKey, path DerivationPath) (ExtendedKey, error) {
	return root.DerivePath(path)
}

// DeriveChild derives the child key at the given index. Private keys derive
// private children, public keys derive public children.
func (k ExtendedKey) DeriveChild(index uint32, hardened bool) (ExtendedKey, error) {
	if index >= HardenedKeyStart {
		return ExtendedKey{}, fmt.Errorf(
			"%w (got %d, hardened=%t)", ErrIndexOutOfRange, index, hardened,
		)
	}
	if k.key == nil {
		return ExtendedKey{}, fmt.Errorf("%w: zeroed key", ErrInvalidDerivation)
	}

	childNum := index
	if hardened {
		childNum += HardenedKeyStart
	}

	child, err := k.key.Derive(childNum)
	if err != nil {
		return ExtendedKey{}, derivationError(err)
	}
	return newExtendedKey(child), nil
}

// DerivePath applies every step of path from left to right. It fails on the
// first failing step without returning any intermediate key.
func (k ExtendedKey) DerivePath(path DerivationPath) (ExtendedKey, error) {
	current := k
	for i, step := range path {
		child, err := current.DeriveChild(step.Index, step.Hardened)
		if err != nil {
			return ExtendedKey{}, fmt.Errorf("step %d (%s): %w", i, step, err)
		}
		current = child
	}
	return current, nil
}

func derivationError(err error) error {
	switch {
	case errors.Is(err, hdkeychain.ErrDeriveHardFromPublic):
		return ErrDeriveHardFromPublic
	case errors.Is(err, hdkeychain.ErrDeriveBeyondMaxDepth):
		return ErrDeriveBeyondMaxDepth
	case errors.Is(err, hdkeychain.ErrInvalidChild):
		return ErrInvalidChild
	default:
		return fmt.Errorf("%w: %s", ErrInvalidDerivation, err)
	}
}

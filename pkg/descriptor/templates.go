package descriptor

import (
	"encoding/hex"
	"fmt"

	"github.com/tdex-network/descwallet/pkg/bip32"
	"github.com/tdex-network/descwallet/pkg/network"
)

// Keychain selects the external (receive) or internal (change) branch of a
// standard derivation template.
type Keychain uint8

const (
	KeychainExternal Keychain = iota
	KeychainInternal
)

func (k Keychain) String() string {
	if k == KeychainInternal {
		return "internal"
	}
	return "external"
}

// ParseKeychain ...
func ParseKeychain(str string) (Keychain, error) {
	switch str {
	case "external", "receive", "0":
		return KeychainExternal, nil
	case "internal", "change", "1":
		return KeychainInternal, nil
	default:
		return 0, fmt.Errorf("unknown keychain %q", str)
	}
}

// Purpose is the BIP-43 purpose of a standard derivation template.
type Purpose uint32

const (
	PurposeBip44 Purpose = 44
	PurposeBip49 Purpose = 49
	PurposeBip84 Purpose = 84
	PurposeBip86 Purpose = 86
)

var purposeFormats = map[Purpose]string{
	PurposeBip44: "pkh(%s)",
	PurposeBip49: "sh(wpkh(%s))",
	PurposeBip84: "wpkh(%s)",
	PurposeBip86: "tr(%s)",
}

// Bip44 returns pkh(key/44h/coinh/0h/keychain/*).
func Bip44(
	master bip32.ExtendedKey, keychain Keychain, net network.Network,
) (*Descriptor, error) {
	return NewTemplate(PurposeBip44, master, keychain, net)
}

// Bip49 returns sh(wpkh(key/49h/coinh/0h/keychain/*)).
func Bip49(
	master bip32.ExtendedKey, keychain Keychain, net network.Network,
) (*Descriptor, error) {
	return NewTemplate(PurposeBip49, master, keychain, net)
}

// Bip84 returns wpkh(key/84h/coinh/0h/keychain/*).
func Bip84(
	master bip32.ExtendedKey, keychain Keychain, net network.Network,
) (*Descriptor, error) {
	return NewTemplate(PurposeBip84, master, keychain, net)
}

// Bip86 returns tr(key/86h/coinh/0h/keychain/*).
func Bip86(
	master bip32.ExtendedKey, keychain Keychain, net network.Network,
) (*Descriptor, error) {
	return NewTemplate(PurposeBip86, master, keychain, net)
}

// NewTemplate builds the standard single-key descriptor for the purpose,
// using account 0 of the network coin type. The master key must be a
// private key serialized for net.
func NewTemplate(
	purpose Purpose, master bip32.ExtendedKey, keychain Keychain,
	net network.Network,
) (*Descriptor, error) {
	format, ok := purposeFormats[purpose]
	if !ok {
		return nil, fmt.Errorf("%w: purpose %d", ErrUnsupportedTemplate, purpose)
	}
	if !master.IsPrivate() {
		return nil, bip32.ErrNotPrivate
	}
	if !master.IsForNet(net) {
		return nil, fmt.Errorf("%w: master key is not a %s key", ErrNetworkMismatch, net)
	}

	key := fmt.Sprintf(
		"%s/%dh/%dh/0h/%d/*", master, purpose, net.CoinType(), keychain,
	)
	return Parse(fmt.Sprintf(format, key))
}

// NewPublicTemplate builds the standard single-key descriptor for the
// purpose from an account-level extended public key and the fingerprint of
// its master key, recorded as key origin.
func NewPublicTemplate(
	purpose Purpose, accountKey bip32.ExtendedKey, fingerprint [4]byte,
	keychain Keychain, net network.Network,
) (*Descriptor, error) {
	format, ok := purposeFormats[purpose]
	if !ok {
		return nil, fmt.Errorf("%w: purpose %d", ErrUnsupportedTemplate, purpose)
	}
	if !accountKey.IsForNet(net) {
		return nil, fmt.Errorf("%w: account key is not a %s key", ErrNetworkMismatch, net)
	}

	key := fmt.Sprintf(
		"[%s/%dh/%dh/0h]%s/%d/*",
		hex.EncodeToString(fingerprint[:]), purpose, net.CoinType(),
		accountKey.Neuter(), keychain,
	)
	return Parse(fmt.Sprintf(format, key))
}

package network

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

// Network identifies the bitcoin chain addresses and keys are produced for.
// It is immutable and fixed at wallet construction.
type Network uint8

const (
	// Mainnet is the bitcoin main network
	Mainnet Network = iota
	// Testnet is the bitcoin test network (testnet3)
	Testnet
	// Regtest is the bitcoin regression test network
	Regtest
	// Signet is the bitcoin default signet
	Signet
)

var (
	// ErrUnknownNetwork ...
	ErrUnknownNetwork = fmt.Errorf("unknown network")

	names = map[Network]string{
		Mainnet: "bitcoin",
		Testnet: "testnet",
		Regtest: "regtest",
		Signet:  "signet",
	}
)

// Parse maps a network name to its Network. Both "bitcoin" and "mainnet"
// select the main network.
func Parse(name string) (Network, error) {
	switch strings.ToLower(name) {
	case "bitcoin", "mainnet", "main":
		return Mainnet, nil
	case "testnet", "testnet3", "test":
		return Testnet, nil
	case "regtest":
		return Regtest, nil
	case "signet":
		return Signet, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownNetwork, name)
	}
}

// MustParse is like Parse but panics on unknown names.
func MustParse(name string) Network {
	n, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return n
}

func (n Network) String() string {
	if name, ok := names[n]; ok {
		return name
	}
	return fmt.Sprintf("network(%d)", uint8(n))
}

// IsValid returns whether n is one of the supported networks.
func (n Network) IsValid() bool {
	_, ok := names[n]
	return ok
}

// Params returns the chain parameters of the network.
func (n Network) Params() *chaincfg.Params {
	switch n {
	case Testnet:
		return &chaincfg.TestNet3Params
	case Regtest:
		return &chaincfg.RegressionNetParams
	case Signet:
		return &chaincfg.SigNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

// IsTest returns true for every network that shares the testnet key
// serialization versions (tprv/tpub).
func (n Network) IsTest() bool {
	return n != Mainnet
}

// CoinType is the BIP-44 coin type used by the standard derivation
// templates: 0 for mainnet, 1 for every test network.
func (n Network) CoinType() uint32 {
	if n.IsTest() {
		return 1
	}
	return 0
}

// Bech32HRP returns the human-readable part of segwit addresses.
func (n Network) Bech32HRP() string {
	return n.Params().Bech32HRPSegwit
}

// PubKeyHashAddrID returns the base58 version byte of P2PKH addresses.
func (n Network) PubKeyHashAddrID() byte {
	return n.Params().PubKeyHashAddrID
}

// ScriptHashAddrID returns the base58 version byte of P2SH addresses.
func (n Network) ScriptHashAddrID() byte {
	return n.Params().ScriptHashAddrID
}

// All returns the supported networks in declaration order.
func All() []Network {
	return []Network{Mainnet, Testnet, Regtest, Signet}
}

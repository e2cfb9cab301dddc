package address

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/tdex-network/descwallet/pkg/network"
	"github.com/tdex-network/descwallet/pkg/script"
)

const (
	maxWitnessVersion = 16
	minProgramLen     = 2
	maxProgramLen     = 40
)

var (
	// ErrUnsupportedWitnessVersion ...
	ErrUnsupportedWitnessVersion = errors.New(
		"witness version must be in range [0, 16]",
	)
	// ErrInvalidWitnessProgram ...
	ErrInvalidWitnessProgram = errors.New("invalid witness program length")
	// ErrNoAddressForm is returned for scripts that can't be represented as
	// an address, like bare multisig or P2PK.
	ErrNoAddressForm = errors.New("script has no address form")
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("invalid address")
	// ErrNetworkMismatch ...
	ErrNetworkMismatch = errors.New("address is not for the given network")
)

// Encode returns the address of the given output script for the network.
// P2PKH and P2SH are base58check encoded, segwit programs use bech32 for
// version 0 and bech32m for later versions.
func Encode(s script.OutputScript, net network.Network) (string, error) {
	switch s.Type() {
	case script.P2PKH:
		return base58.CheckEncode(s.Hash160(), net.PubKeyHashAddrID()), nil
	case script.P2SH:
		return base58.CheckEncode(s.Hash160(), net.ScriptHashAddrID()), nil
	}

	if !s.IsWitness() {
		return "", fmt.Errorf("%w (%s)", ErrNoAddressForm, s.Type())
	}
	version, program, err := s.WitnessProgram()
	if err != nil {
		return "", err
	}
	return EncodeWitness(version, program, net)
}

// EncodeWitness encodes a segwit program with the network human readable
// part.
func EncodeWitness(
	version int, program []byte, net network.Network,
) (string, error) {
	if err := validateWitnessProgram(version, program); err != nil {
		return "", err
	}

	converted, err := bech32.ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", err
	}
	data := append([]byte{byte(version)}, converted...)

	if version == 0 {
		return bech32.Encode(net.Bech32HRP(), data)
	}
	return bech32.EncodeM(net.Bech32HRP(), data)
}

// Decode returns the output script locked by the given address. Testnet and
// signet addresses share the same encoding, therefore either network
// accepts both.
func Decode(addr string, net network.Network) (script.OutputScript, error) {
	hrp := net.Bech32HRP()
	if len(addr) > len(hrp) && strings.EqualFold(addr[:len(hrp)+1], hrp+"1") {
		return decodeSegwit(addr, net)
	}

	payload, version, err := base58.CheckDecode(addr)
	if err != nil {
		if isSegwitForOtherNetwork(addr) {
			return nil, ErrNetworkMismatch
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	if len(payload) != 20 {
		return nil, fmt.Errorf("%w: invalid hash length", ErrInvalidAddress)
	}

	switch version {
	case net.PubKeyHashAddrID():
		return script.PayToPubKeyHashFromHash(payload)
	case net.ScriptHashAddrID():
		return script.PayToScriptHashFromHash(payload)
	default:
		for _, other := range network.All() {
			if version == other.PubKeyHashAddrID() ||
				version == other.ScriptHashAddrID() {
				return nil, ErrNetworkMismatch
			}
		}
		return nil, fmt.Errorf(
			"%w: unknown version byte %#02x", ErrInvalidAddress, version,
		)
	}
}

func decodeSegwit(addr string, net network.Network) (script.OutputScript, error) {
	hrp, data, encoding, err := bech32.DecodeGeneric(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	if hrp != net.Bech32HRP() {
		return nil, ErrNetworkMismatch
	}
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: missing witness version", ErrInvalidAddress)
	}

	version := int(data[0])
	if version > maxWitnessVersion {
		return nil, ErrUnsupportedWitnessVersion
	}
	if (version == 0 && encoding != bech32.Version0) ||
		(version > 0 && encoding != bech32.VersionM) {
		return nil, fmt.Errorf(
			"%w: wrong checksum variant for witness version %d",
			ErrInvalidAddress, version,
		)
	}

	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	if err := validateWitnessProgram(version, program); err != nil {
		return nil, err
	}
	return script.PayToWitnessProgram(version, program)
}

func validateWitnessProgram(version int, program []byte) error {
	if version < 0 || version > maxWitnessVersion {
		return fmt.Errorf("%w (got %d)", ErrUnsupportedWitnessVersion, version)
	}
	if len(program) < minProgramLen || len(program) > maxProgramLen {
		return fmt.Errorf("%w (got %d)", ErrInvalidWitnessProgram, len(program))
	}
	if version == 0 && len(program) != 20 && len(program) != 32 {
		return fmt.Errorf(
			"%w: version 0 programs must be 20 or 32 bytes (got %d)",
			ErrInvalidWitnessProgram, len(program),
		)
	}
	return nil
}

func isSegwitForOtherNetwork(addr string) bool {
	for _, net := range network.All() {
		prefix := net.Bech32HRP() + "1"
		if len(addr) > len(prefix) && strings.EqualFold(addr[:len(prefix)], prefix) {
			return true
		}
	}
	return false
}

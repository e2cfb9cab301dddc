package address_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/descwallet/pkg/address"
	"github.com/tdex-network/descwallet/pkg/network"
	"github.com/tdex-network/descwallet/pkg/script"
)

var (
	pubKey0, _  = hex.DecodeString("02363ad03c10024e1b597a5b01b9982807fb638e00b06f3b2d4a89707de3b93c37")
	multisig, _ = hex.DecodeString("5221026b49260472182749bb1dfc5c41501e9aa5846fdf35521ca5e9097adaf3d3230a2102363ad03c10024e1b597a5b01b9982807fb638e00b06f3b2d4a89707de3b93c3752ae")
)

func TestEncode(t *testing.T) {
	p2pkh, _ := script.PayToPubKeyHash(pubKey0)
	p2sh, _ := script.PayToScriptHash(multisig)
	p2wpkh, _ := script.PayToWitnessPubKeyHash(pubKey0)
	p2wsh, _ := script.PayToWitnessScriptHash(multisig)
	p2tr, _ := script.PayToTaproot(pubKey0)

	tests := []struct {
		name     string
		script   script.OutputScript
		net      network.Network
		expected string
	}{
		{"p2pkh mainnet", p2pkh, network.Mainnet, "1FQELpQqVwP18Lojbb5jsy64mDKvxuVzFP"},
		{"p2pkh testnet", p2pkh, network.Testnet, "muvBdsVpJxpFuTHMKA47htJPdCvdt4F9DP"},
		{"p2pkh regtest", p2pkh, network.Regtest, "muvBdsVpJxpFuTHMKA47htJPdCvdt4F9DP"},
		{"p2sh mainnet", p2sh, network.Mainnet, "3MK54gcRp6P4yhaEVCRQN28s999c4YyzdT"},
		{"p2sh testnet", p2sh, network.Testnet, "2NCsH8RYTRYtRBVCnAL3Gyy88MVMmr5uhHx"},
		{"p2wpkh mainnet", p2wpkh, network.Mainnet, "bc1qnhm8w9fhc8cxzgqsmqdf9fyjccyvc0glrux9s4"},
		{"p2wpkh testnet", p2wpkh, network.Testnet, "tb1qnhm8w9fhc8cxzgqsmqdf9fyjccyvc0glf6aktx"},
		{"p2wpkh signet", p2wpkh, network.Signet, "tb1qnhm8w9fhc8cxzgqsmqdf9fyjccyvc0glf6aktx"},
		{"p2wpkh regtest", p2wpkh, network.Regtest, "bcrt1qnhm8w9fhc8cxzgqsmqdf9fyjccyvc0gltnymu0"},
		{"p2wsh mainnet", p2wsh, network.Mainnet, "bc1q9exznq94tx2kws2zstrzjkxk68rgttmgdent5hvcyhphaujddn9s684c6q"},
		{"p2tr mainnet", p2tr, network.Mainnet, "bc1pszunk3m6q4u9yrlakvf43g6dm0j6fuftywrjsganmfk0uhetn29q0uha3y"},
		{"p2tr regtest", p2tr, network.Regtest, "bcrt1pszunk3m6q4u9yrlakvf43g6dm0j6fuftywrjsganmfk0uhetn29q4dt573"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := address.Encode(tt.script, tt.net)
			require.NoError(t, err)
			require.Equal(t, tt.expected, addr)

			decoded, err := address.Decode(addr, tt.net)
			require.NoError(t, err)
			require.Equal(t, tt.script, decoded)
		})
	}
}

func TestEncodeWitness(t *testing.T) {
	program, _ := hex.DecodeString("751e")
	addr, err := address.EncodeWitness(16, program, network.Mainnet)
	require.NoError(t, err)
	require.Equal(t, "bc1sw50qgdz25j", addr)

	program = make([]byte, 40)
	for i := range program {
		program[i] = byte(i)
	}
	addr, err = address.EncodeWitness(2, program, network.Testnet)
	require.NoError(t, err)
	require.Equal(
		t,
		"tb1zqqqsyqcyq5rqwzqfpg9scrgwpugpzysnzs23v9ccrydpk8qarc0jqgfzyvjz2f38jvtxem",
		addr,
	)

	decoded, err := address.Decode(strings.ToUpper(addr), network.Testnet)
	require.NoError(t, err)
	version, decodedProgram, err := decoded.WitnessProgram()
	require.NoError(t, err)
	require.Equal(t, 2, version)
	require.Equal(t, program, decodedProgram)
}

func TestEncodeFailure(t *testing.T) {
	tests := []struct {
		name    string
		version int
		program []byte
		err     error
	}{
		{"version 17", 17, make([]byte, 32), address.ErrUnsupportedWitnessVersion},
		{"negative version", -1, make([]byte, 32), address.ErrUnsupportedWitnessVersion},
		{"short program", 1, make([]byte, 1), address.ErrInvalidWitnessProgram},
		{"long program", 1, make([]byte, 41), address.ErrInvalidWitnessProgram},
		{"v0 with 21 bytes", 0, make([]byte, 21), address.ErrInvalidWitnessProgram},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := address.EncodeWitness(tt.version, tt.program, network.Mainnet)
			require.ErrorIs(t, err, tt.err)
		})
	}

	p2pk, _ := script.PayToPubKey(pubKey0)
	_, err := address.Encode(p2pk, network.Mainnet)
	require.ErrorIs(t, err, address.ErrNoAddressForm)

	_, err = address.Encode(multisig, network.Mainnet)
	require.ErrorIs(t, err, address.ErrNoAddressForm)
}

func TestDecodeFailure(t *testing.T) {
	tests := []struct {
		name string
		addr string
		net  network.Network
		err  error
	}{
		{"segwit for other network", "tb1qnhm8w9fhc8cxzgqsmqdf9fyjccyvc0glf6aktx", network.Mainnet, address.ErrNetworkMismatch},
		{"regtest on mainnet", "bcrt1qnhm8w9fhc8cxzgqsmqdf9fyjccyvc0gltnymu0", network.Mainnet, address.ErrNetworkMismatch},
		{"base58 for other network", "1FQELpQqVwP18Lojbb5jsy64mDKvxuVzFP", network.Testnet, address.ErrNetworkMismatch},
		{"bad bech32 checksum", "bc1qnhm8w9fhc8cxzgqsmqdf9fyjccyvc0glrux9s5", network.Mainnet, address.ErrInvalidAddress},
		{"bad base58 checksum", "1FQELpQqVwP18Lojbb5jsy64mDKvxuVzFQ", network.Mainnet, address.ErrInvalidAddress},
		// v1 program encoded with bech32 instead of bech32m, from BIP-350
		{"wrong checksum variant", "bc1p0xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqh2y7hd", network.Mainnet, address.ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := address.Decode(tt.addr, tt.net)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

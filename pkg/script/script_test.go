package script_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/descwallet/pkg/script"
)

var (
	pubKey0, _ = hex.DecodeString("02363ad03c10024e1b597a5b01b9982807fb638e00b06f3b2d4a89707de3b93c37")
	pubKey1, _ = hex.DecodeString("026b49260472182749bb1dfc5c41501e9aa5846fdf35521ca5e9097adaf3d3230a")
	// uncompressed form of pubKey0
	uncompressedPubKey0, _ = hex.DecodeString("04363ad03c10024e1b597a5b01b9982807fb638e00b06f3b2d4a89707de3b93c37ed099c46ac6deca1e6339104214eb36573471fd2b6fa9e3d9e3a1f50e6c22628")
)

const (
	multisigHex       = "5221026b49260472182749bb1dfc5c41501e9aa5846fdf35521ca5e9097adaf3d3230a2102363ad03c10024e1b597a5b01b9982807fb638e00b06f3b2d4a89707de3b93c3752ae"
	sortedMultisigHex = "522102363ad03c10024e1b597a5b01b9982807fb638e00b06f3b2d4a89707de3b93c3721026b49260472182749bb1dfc5c41501e9aa5846fdf35521ca5e9097adaf3d3230a52ae"
)

func TestOutputScripts(t *testing.T) {
	multisig, _ := hex.DecodeString(multisigHex)

	tests := []struct {
		name         string
		build        func() (script.OutputScript, error)
		expectedHex  string
		expectedType script.Type
	}{
		{
			name:         "p2pk",
			build:        func() (script.OutputScript, error) { return script.PayToPubKey(pubKey0) },
			expectedHex:  "2102363ad03c10024e1b597a5b01b9982807fb638e00b06f3b2d4a89707de3b93c37ac",
			expectedType: script.P2PK,
		},
		{
			name:         "p2pkh",
			build:        func() (script.OutputScript, error) { return script.PayToPubKeyHash(pubKey0) },
			expectedHex:  "76a9149df6771537c1f0612010d81a92a492c608cc3d1f88ac",
			expectedType: script.P2PKH,
		},
		{
			name:         "p2wpkh",
			build:        func() (script.OutputScript, error) { return script.PayToWitnessPubKeyHash(pubKey0) },
			expectedHex:  "00149df6771537c1f0612010d81a92a492c608cc3d1f",
			expectedType: script.P2WPKH,
		},
		{
			name:         "p2sh",
			build:        func() (script.OutputScript, error) { return script.PayToScriptHash(multisig) },
			expectedHex:  "a914d73bfc66d604f48dcf9f898041481d1780c1fb9387",
			expectedType: script.P2SH,
		},
		{
			name:         "p2wsh",
			build:        func() (script.OutputScript, error) { return script.PayToWitnessScriptHash(multisig) },
			expectedHex:  "00202e4c2980b5599567414282c62958d6d1c685af686e66ba5d9825c37ef24d6ccb",
			expectedType: script.P2WSH,
		},
		{
			name:         "p2tr",
			build:        func() (script.OutputScript, error) { return script.PayToTaproot(pubKey0) },
			expectedHex:  "512080b93b477a0578520ffdb31358a34ddbe5a4f12b23872823b3da6cfe5f2b9a8a",
			expectedType: script.P2TR,
		},
		{
			name:         "p2tr from x-only key",
			build:        func() (script.OutputScript, error) { return script.PayToTaproot(pubKey0[1:]) },
			expectedHex:  "512080b93b477a0578520ffdb31358a34ddbe5a4f12b23872823b3da6cfe5f2b9a8a",
			expectedType: script.P2TR,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.build()
			require.NoError(t, err)
			require.Equal(t, tt.expectedHex, s.Hex())
			require.Equal(t, tt.expectedType, s.Type())
		})
	}
}

func TestMultisigScript(t *testing.T) {
	keys := [][]byte{pubKey1, pubKey0}

	s, err := script.MultisigScript(2, keys, false)
	require.NoError(t, err)
	require.Equal(t, multisigHex, hex.EncodeToString(s))
	require.Equal(t, script.Multisig, script.OutputScript(s).Type())

	s, err = script.MultisigScript(2, keys, true)
	require.NoError(t, err)
	require.Equal(t, sortedMultisigHex, hex.EncodeToString(s))
	// the given slice is left untouched
	require.Equal(t, pubKey1, keys[0])

	_, err = script.MultisigScript(0, keys, false)
	require.ErrorIs(t, err, script.ErrInvalidThreshold)
	_, err = script.MultisigScript(3, keys, false)
	require.ErrorIs(t, err, script.ErrInvalidThreshold)

	tooMany := make([][]byte, script.MaxMultisigKeys+1)
	for i := range tooMany {
		tooMany[i] = pubKey0
	}
	_, err = script.MultisigScript(1, tooMany, false)
	require.ErrorIs(t, err, script.ErrTooManyKeys)
}

func TestSegwitRejectsUncompressedKeys(t *testing.T) {
	require.Len(t, uncompressedPubKey0, script.PubKeyBytesLenUncompressed)
	require.True(t, script.IsUncompressedPubKey(uncompressedPubKey0))
	require.False(t, script.IsUncompressedPubKey(pubKey0))

	_, err := script.PayToWitnessPubKeyHash(uncompressedPubKey0)
	require.ErrorIs(t, err, script.ErrUncompressedPubKey)

	_, err = script.PayToTaproot(uncompressedPubKey0)
	require.ErrorIs(t, err, script.ErrUncompressedPubKey)

	s, err := script.PayToPubKeyHash(uncompressedPubKey0)
	require.NoError(t, err)
	require.Equal(t, script.P2PKH, s.Type())
}

func TestWitnessProgram(t *testing.T) {
	s, err := script.PayToWitnessPubKeyHash(pubKey0)
	require.NoError(t, err)
	require.True(t, s.IsWitness())

	version, program, err := s.WitnessProgram()
	require.NoError(t, err)
	require.Equal(t, 0, version)
	require.Equal(t, "9df6771537c1f0612010d81a92a492c608cc3d1f", hex.EncodeToString(program))
	require.Equal(t, program, s.Hash160())
	require.Equal(
		t,
		"4a3c8c6dbeb1c2899007314a7d9de12aa30f700b8f7c0c1d3fec67659cca9dc1",
		s.ScriptHash(),
	)

	unknown, err := script.PayToWitnessProgram(2, program)
	require.NoError(t, err)
	require.Equal(t, script.WitnessUnknown, unknown.Type())
	require.Equal(t, "5214"+hex.EncodeToString(program), unknown.Hex())
}

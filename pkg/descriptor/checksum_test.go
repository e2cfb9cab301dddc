package descriptor_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/descwallet/pkg/descriptor"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		desc     string
		checksum string
	}{
		{"raw(deadbeef)", "89f8spxm"},
		{fixtureDescriptor, "r7njlexz"},
		{"wpkh(" + fixtureTprv + "/84'/0'/0'/0/*)", "0nuk78hs"},
		{"wpkh(" + fixtureTprv + "/84h/0h/0h/0/*h)", "4n7z20wk"},
		{"wpkh(" + pubKey0Hex + ")", "ycjmwsw8"},
		{"tr(" + pubKey0Hex + ")", "lf2p33jl"},
	}

	for _, tt := range tests {
		checksum, err := descriptor.Checksum(tt.desc)
		require.NoError(t, err)
		require.Equal(t, tt.checksum, checksum)

		withChecksum, err := descriptor.AddChecksum(tt.desc)
		require.NoError(t, err)
		require.Equal(t, tt.desc+"#"+tt.checksum, withChecksum)
	}

	_, err := descriptor.Checksum("wpkh(ñ)")
	require.ErrorIs(t, err, descriptor.ErrDescriptorSyntax)
}

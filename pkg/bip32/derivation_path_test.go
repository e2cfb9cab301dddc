package bip32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDerivationPath(t *testing.T) {
	tests := []struct {
		input  string
		output DerivationPath
		err    error
	}{
		// Plain absolute derivation paths
		{"m/84'/0'/0'/0", DerivationPath{{84, true}, {0, true}, {0, true}, {0, false}}, nil},
		{"m/84'/0'/0'/128", DerivationPath{{84, true}, {0, true}, {0, true}, {128, false}}, nil},
		{"m/84h/0h/0h/0h", DerivationPath{{84, true}, {0, true}, {0, true}, {0, true}}, nil},
		{"m/84'/0h/0'/128h", DerivationPath{{84, true}, {0, true}, {0, true}, {128, true}}, nil},
		{"m/2147483647/2147483647h", DerivationPath{{MaxIndex, false}, {MaxIndex, true}}, nil},

		// Relative derivation paths
		{"84'/0'/0/0", DerivationPath{{84, true}, {0, true}, {0, false}, {0, false}}, nil},
		{"0h/0/0", DerivationPath{{0, true}, {0, false}, {0, false}}, nil},
		{"0/0", DerivationPath{{0, false}, {0, false}}, nil},
		{"0", DerivationPath{{0, false}}, nil},

		// Master key only
		{"m", DerivationPath{}, nil},

		// Invalid derivation paths
		{"", nil, ErrNullDerivationPath},                  // Empty relative derivation path
		{"m/", nil, ErrMalformedDerivationPath},           // Missing last derivation component
		{"/84'/0'/0'/0", nil, ErrMalformedDerivationPath}, // Absolute path without m prefix, might be user error
		{"m/84h//0", nil, ErrMalformedDerivationPath},     // Empty middle component
		{"m/2147483648", nil, nil},                        // Carries the hardened bit (dynamic values on error, not constant)
		{"m/2147483648'", nil, nil},                       // Overflows hardened range
		{"m/-1'", nil, nil},                               // Cannot contain negative number
		{"m/0x54'", nil, nil},                             // Only decimal indexes
		{"m/84H", nil, nil},                               // Uppercase marker
		{"m/ 84", nil, nil},                               // Whitespace
		{"m/h", nil, nil},                                 // Marker without index
	}
	for _, tt := range tests {
		path, err := ParseDerivationPath(tt.input)
		if tt.output == nil {
			assert.Error(t, err, tt.input)
		}
		if err != nil {
			if tt.err != nil {
				assert.Equal(t, tt.err, err)
			}
		}
		assert.Equal(t, tt.output, path, tt.input)
	}
}

func TestDerivationPathString(t *testing.T) {
	path, err := ParseDerivationPath("m/84'/1'/0'/0")
	assert.NoError(t, err)
	assert.Equal(t, "m/84h/1h/0h/0", path.String())
	assert.Equal(t, "84h/1h/0h/0", path.Relative())
	assert.True(t, path.HasHardenedStep())
	assert.Equal(
		t,
		[]uint32{HardenedKeyStart + 84, HardenedKeyStart + 1, HardenedKeyStart, 0},
		path.ChildNums(),
	)

	assert.Equal(t, "m", DerivationPath{}.String())
	assert.False(t, DerivationPath{{0, false}}.HasHardenedStep())

	extended := path.Append(Normal(7))
	assert.Len(t, path, 4)
	assert.Equal(t, "m/84h/1h/0h/0/7", extended.String())
}

func TestNewChildStep(t *testing.T) {
	assert.Equal(t, ChildStep{0, false}, NewChildStep(0))
	assert.Equal(t, ChildStep{MaxIndex, false}, NewChildStep(MaxIndex))
	assert.Equal(t, ChildStep{0, true}, NewChildStep(HardenedKeyStart))
	assert.Equal(t, ChildStep{MaxIndex, true}, NewChildStep(^uint32(0)))
	assert.Equal(t, "5h", Hardened(5).String())
	assert.Equal(t, "5", Normal(5).String())
}

package descriptor_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/descwallet/pkg/bip32"
	"github.com/tdex-network/descwallet/pkg/descriptor"
	"github.com/tdex-network/descwallet/pkg/network"
	"github.com/tdex-network/descwallet/pkg/script"
)

func TestFixtureAddress(t *testing.T) {
	desc, err := descriptor.Parse(fixtureDescriptor)
	require.NoError(t, err)

	addr, err := descriptor.Address(desc, network.Testnet, 0)
	require.NoError(t, err)
	require.Equal(t, "tb1qkmvk2nadgplmd57ztld8nf8v2yxkzmdvvztyse", addr)
}

func TestDeriveAddresses(t *testing.T) {
	multi := func(name, k1, k2 string) string {
		return name + "(2," + fixtureTprv + "/" + k1 + "/*," + fixtureTprv + "/" + k2 + "/*)"
	}

	tests := []struct {
		name     string
		desc     string
		net      network.Network
		index    uint32
		expected string
		typ      script.Type
	}{
		{"wpkh index 0", fixtureDescriptor, network.Testnet, 0, "tb1qkmvk2nadgplmd57ztld8nf8v2yxkzmdvvztyse", script.P2WPKH},
		{"wpkh index 1", fixtureDescriptor, network.Testnet, 1, "tb1qx0v6zgfwe50m4kqc58cqzcyem7ay2sflnp4dqg", script.P2WPKH},
		{"wpkh index 2", fixtureDescriptor, network.Testnet, 2, "tb1q4h7fq9zhxst6e69p3n882nfj649l7w9gntp47g", script.P2WPKH},
		{"wpkh max index", fixtureDescriptor, network.Testnet, bip32.MaxIndex, "tb1qfgqt8qu63uzyck40rtjql3wwadtg9j0fsxhws0", script.P2WPKH},
		{"wpkh regtest", fixtureDescriptor, network.Regtest, 0, "bcrt1qkmvk2nadgplmd57ztld8nf8v2yxkzmdvwtjf8s", script.P2WPKH},
		{"wpkh signet", fixtureDescriptor, network.Signet, 0, "tb1qkmvk2nadgplmd57ztld8nf8v2yxkzmdvvztyse", script.P2WPKH},
		{"wpkh hardened wildcard", "wpkh(" + fixtureTprv + "/84h/0h/0h/0/*h)", network.Testnet, 0, "tb1qjk8j7esg9ydxsf2k8n92jjm0m28lcvxqyevjzc", script.P2WPKH},
		{"wpkh from account tpub", "wpkh([34b00776/84h/0h/0h]" + accountTpub + "/0/*)#hem8zhlj", network.Testnet, 0, "tb1qkmvk2nadgplmd57ztld8nf8v2yxkzmdvvztyse", script.P2WPKH},
		{"wpkh fixed key", "wpkh(" + fixtureTprv + "/84h/0h/0h/0/5)#qch5uzek", network.Testnet, 0, "tb1qx8x98ajpf7am7xfmye56z7ksm7h8fdu3cley8u", script.P2WPKH},
		{"wpkh hex key", "wpkh(" + pubKey0Hex + ")#ycjmwsw8", network.Testnet, 0, "tb1qnhm8w9fhc8cxzgqsmqdf9fyjccyvc0glf6aktx", script.P2WPKH},
		{"wpkh wif key", "wpkh(" + privKey0WIF + ")", network.Testnet, 0, "tb1qnhm8w9fhc8cxzgqsmqdf9fyjccyvc0glf6aktx", script.P2WPKH},
		{"pkh", "pkh(" + fixtureTprv + "/44h/1h/0h/0/*)#hkgc27xz", network.Testnet, 0, "mqmr4eHUvvb3eBvtL3UV3mQNHosbbbVAjU", script.P2PKH},
		{"pkh uncompressed", "pkh(" + pubKey0Uncomp + ")", network.Testnet, 0, "n432j8YvPyg9ZBUZyoh8q9xoWf5J4Fvg6N", script.P2PKH},
		{"sh wpkh", "sh(wpkh(" + fixtureTprv + "/49h/1h/0h/0/*))#y3ctev0z", network.Testnet, 0, "2ND1gVM5zW6wC9PvxRTcHDwq3qu8HvfTrve", script.P2SH},
		{"tr", "tr(" + fixtureTprv + "/86h/1h/0h/0/*)#negu5tuj", network.Testnet, 0, "tb1pzrsqxw596r6skqpr6d4qrjl7ncdjy8wu6tstu53fdgvk2eg4ce6szhclw0", script.P2TR},
		{"tr x-only key", "tr(" + pubKey0Hex[2:] + ")", network.Testnet, 0, "tb1pszunk3m6q4u9yrlakvf43g6dm0j6fuftywrjsganmfk0uhetn29qc5pjtt", script.P2TR},
		{"tr compressed key", "tr(" + pubKey0Hex + ")#lf2p33jl", network.Testnet, 0, "tb1pszunk3m6q4u9yrlakvf43g6dm0j6fuftywrjsganmfk0uhetn29qc5pjtt", script.P2TR},
		{"wsh multi", "wsh(" + multi("multi", "0", "1") + ")#unfkyggq", network.Testnet, 0, "tb1qtqdzyaf992sc7m85wcgq5ymmuj0dcdw7622254wuw4kxr8wqyhhq2u9urd", script.P2WSH},
		{"wsh multi reversed", "wsh(" + multi("multi", "1", "0") + ")#lnerpvun", network.Testnet, 0, "tb1q9exznq94tx2kws2zstrzjkxk68rgttmgdent5hvcyhphaujddn9sd0rhq0", script.P2WSH},
		{"wsh multi reversed index 1", "wsh(" + multi("multi", "1", "0") + ")", network.Testnet, 1, "tb1qeyuphcn0e58yk80ae864wk3vyhxzc2lscvwfp7wdy8v8d7eu0exqxhwvq3", script.P2WSH},
		{"wsh sortedmulti", "wsh(" + multi("sortedmulti", "0", "1") + ")#8hyff86q", network.Testnet, 0, "tb1qtqdzyaf992sc7m85wcgq5ymmuj0dcdw7622254wuw4kxr8wqyhhq2u9urd", script.P2WSH},
		{"wsh sortedmulti reversed", "wsh(" + multi("sortedmulti", "1", "0") + ")#yh5uvrwn", network.Testnet, 0, "tb1qtqdzyaf992sc7m85wcgq5ymmuj0dcdw7622254wuw4kxr8wqyhhq2u9urd", script.P2WSH},
		{"wsh sortedmulti reversed index 1", "wsh(" + multi("sortedmulti", "1", "0") + ")", network.Testnet, 1, "tb1qmrzn8lwgcl4djzus8g8cgufnglvl3acaefevxr43crh6uslz2f3sgtmqh4", script.P2WSH},
		{"sh wsh multi", "sh(wsh(" + multi("multi", "0", "1") + "))#ytcgtxks", network.Testnet, 0, "2NELuCr59kyRZDE6Jfe4z8y8f5LtGswuc7o", script.P2SH},
		{"sh multi", "sh(" + multi("multi", "0", "1") + ")#euk9524r", network.Testnet, 0, "2N2tiiYcmHERC4aNJk92oGrPo9a1WdCUvBM", script.P2SH},
		{"wsh pkh", "wsh(pkh(" + pubKey0Hex + "))", network.Testnet, 0, "tb1q8mhfzjr7ayea62yv3v4mnr0gedae56q00uws8w622a7w8dme9xtq48pml4", script.P2WSH},
		{"wsh pk", "wsh(pk(" + pubKey0Hex + "))", network.Testnet, 0, "tb1q975d4vepq9dhp468n0tfz50wvwa9arsa3lpzkpmh68hvf0h74aysglcy80", script.P2WSH},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := descriptor.Parse(tt.desc)
			require.NoError(t, err)

			s, err := descriptor.Derive(desc, tt.net, tt.index)
			require.NoError(t, err)
			require.Equal(t, tt.typ, s.Type())

			addr, err := desc.Address(tt.net, tt.index)
			require.NoError(t, err)
			require.Equal(t, tt.expected, addr)
		})
	}
}

func TestDeriveFailure(t *testing.T) {
	tests := []struct {
		name  string
		desc  string
		net   network.Network
		index uint32
		err   error
	}{
		{"index on fixed key", "wpkh(" + pubKey0Hex + ")", network.Testnet, 1, descriptor.ErrIndexNotApplicable},
		{"index on fixed extended key", "wpkh(" + fixtureTprv + "/84h/0h/0h/0/5)", network.Testnet, 3, descriptor.ErrIndexNotApplicable},
		{"index with hardened bit", fixtureDescriptor, network.Testnet, bip32.HardenedKeyStart, descriptor.ErrInvalidDerivation},
		{"hardened wildcard after xpub", "wpkh(" + accountTpub + "/0/*h)", network.Testnet, 0, descriptor.ErrInvalidDerivation},
		{"hardened step after xpub", "wpkh(" + accountTpub + "/0h/*)", network.Testnet, 0, descriptor.ErrInvalidDerivation},
		{"uncompressed key in wpkh", "wpkh(" + pubKey0Uncomp + ")", network.Testnet, 0, descriptor.ErrInvalidDerivation},
		{"uncompressed key in wsh", "wsh(pk(" + pubKey0Uncomp + "))", network.Testnet, 0, descriptor.ErrInvalidDerivation},
		{"uncompressed key in tr", "tr(" + pubKey0Uncomp + ")", network.Testnet, 0, descriptor.ErrInvalidDerivation},
		{"testnet key on mainnet", fixtureDescriptor, network.Mainnet, 0, descriptor.ErrNetworkMismatch},
		{"testnet wif on mainnet", "wpkh(" + privKey0WIF + ")", network.Mainnet, 0, descriptor.ErrNetworkMismatch},
		{"pk", "pk(" + pubKey0Hex + ")", network.Testnet, 0, descriptor.ErrUnsupportedTemplate},
		{"combo", "combo(" + pubKey0Hex + ")", network.Testnet, 0, descriptor.ErrUnsupportedTemplate},
		{"rawtr", "rawtr(" + pubKey0Hex[2:] + ")", network.Testnet, 0, descriptor.ErrUnsupportedTemplate},
		{"bare multi", "multi(1," + pubKey0Hex + ")", network.Testnet, 0, descriptor.ErrUnsupportedTemplate},
		{"tr with script tree", "tr(" + pubKey0Hex + ",pk(" + pubKey0Hex[2:] + "))", network.Testnet, 0, descriptor.ErrUnsupportedTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := descriptor.Parse(tt.desc)
			require.NoError(t, err)

			s, err := desc.Derive(tt.net, tt.index)
			require.ErrorIs(t, err, tt.err)
			require.Nil(t, s)

			addr, err := desc.Address(tt.net, tt.index)
			require.ErrorIs(t, err, tt.err)
			require.Empty(t, addr)
		})
	}
}

func TestDeriveRange(t *testing.T) {
	desc := descriptor.MustParse(fixtureDescriptor)

	scripts, err := descriptor.DeriveRange(desc, network.Testnet, 0, 3)
	require.NoError(t, err)
	require.Len(t, scripts, 3)

	seen := make(map[string]bool)
	for i, s := range scripts {
		expected, err := desc.Derive(network.Testnet, uint32(i))
		require.NoError(t, err)
		require.Equal(t, expected, s)
		require.False(t, seen[s.Hex()])
		seen[s.Hex()] = true
	}

	_, err = desc.DeriveRange(network.Testnet, bip32.MaxIndex, 2)
	require.ErrorIs(t, err, descriptor.ErrInvalidDerivation)
}

func TestDeriveConcurrently(t *testing.T) {
	desc := descriptor.MustParse(fixtureDescriptor)
	expected, err := desc.Address(network.Testnet, 0)
	require.NoError(t, err)

	wg := &sync.WaitGroup{}
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = desc.Address(network.Testnet, 0)
		}(i)
	}
	wg.Wait()

	for _, addr := range results {
		require.Equal(t, expected, addr)
	}
}

func TestDeriveExtendedKey(t *testing.T) {
	desc := descriptor.MustParse("wpkh([34b00776/84h/0h/0h]" + accountTpub + "/0/*)")
	key := desc.Keys()[0]

	child, err := key.DeriveExtendedKey(7)
	require.NoError(t, err)
	require.Equal(t, uint8(5), child.Depth())
	require.Equal(t, uint32(7), child.ChildIndex())

	fixed := descriptor.MustParse("wpkh(" + pubKey0Hex + ")").Keys()[0]
	_, err = fixed.DeriveExtendedKey(0)
	require.ErrorIs(t, err, descriptor.ErrInvalidDerivation)
}

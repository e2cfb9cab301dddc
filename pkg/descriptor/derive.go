package descriptor

import (
	"fmt"

	"github.com/tdex-network/descwallet/pkg/address"
	"github.com/tdex-network/descwallet/pkg/bip32"
	"github.com/tdex-network/descwallet/pkg/network"
	"github.com/tdex-network/descwallet/pkg/script"
)

// Derive returns the output script of the descriptor at the given index.
// Descriptors without wildcards only accept index 0.
func Derive(
	desc *Descriptor, net network.Network, index uint32,
) (script.OutputScript, error) {
	return desc.Derive(net, index)
}

// Address derives the output script at the given index and returns its
// address for the network.
func Address(
	desc *Descriptor, net network.Network, index uint32,
) (string, error) {
	return desc.Address(net, index)
}

// DeriveRange derives count consecutive output scripts starting at index
// from. A failure at any index aborts the whole range.
func DeriveRange(
	desc *Descriptor, net network.Network, from, count uint32,
) ([]script.OutputScript, error) {
	return desc.DeriveRange(net, from, count)
}

// CheckNetwork returns ErrNetworkMismatch if any key of the descriptor is
// serialized for a network other than net.
func (d *Descriptor) CheckNetwork(net network.Network) error {
	for i, key := range d.Keys() {
		switch key.Kind {
		case KeyExtended:
			if !key.ExtendedKey.IsForNet(net) {
				return fmt.Errorf(
					"%w: key %d is not a %s key", ErrNetworkMismatch, i, net,
				)
			}
		case KeyWIF:
			if !key.WIF.IsForNet(net.Params()) {
				return fmt.Errorf(
					"%w: key %d is not a %s key", ErrNetworkMismatch, i, net,
				)
			}
		}
	}
	return nil
}

// Derive returns the output script of the descriptor at the given index.
func (d *Descriptor) Derive(
	net network.Network, index uint32,
) (script.OutputScript, error) {
	if !d.IsRange() && index != 0 {
		return nil, fmt.Errorf("%w (got index %d)", ErrIndexNotApplicable, index)
	}
	if d.TapTree != "" {
		return nil, fmt.Errorf("%w: tr() with script tree", ErrUnsupportedTemplate)
	}
	switch d.Template {
	case TemplatePk, TemplateCombo, TemplateRawTr, TemplateBareMulti:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTemplate, d.Template)
	}
	if err := d.CheckNetwork(net); err != nil {
		return nil, err
	}

	switch d.Template {
	case TemplatePkh:
		pubKey, err := d.Key.derivePubKey(index)
		if err != nil {
			return nil, err
		}
		return script.PayToPubKeyHash(pubKey)

	case TemplateWpkh:
		return d.deriveWitnessPubKeyHash(index)

	case TemplateShWpkh:
		redeemScript, err := d.deriveWitnessPubKeyHash(index)
		if err != nil {
			return nil, err
		}
		return script.PayToScriptHash(redeemScript)

	case TemplateSh:
		redeemScript, err := d.Script.derive(index, false)
		if err != nil {
			return nil, err
		}
		return script.PayToScriptHash(redeemScript)

	case TemplateWsh:
		witnessScript, err := d.Script.derive(index, true)
		if err != nil {
			return nil, err
		}
		return script.PayToWitnessScriptHash(witnessScript)

	case TemplateShWsh:
		witnessScript, err := d.Script.derive(index, true)
		if err != nil {
			return nil, err
		}
		redeemScript, err := script.PayToWitnessScriptHash(witnessScript)
		if err != nil {
			return nil, err
		}
		return script.PayToScriptHash(redeemScript)

	case TemplateTr:
		pubKey, err := d.Key.derivePubKey(index)
		if err != nil {
			return nil, err
		}
		if script.IsUncompressedPubKey(pubKey) {
			return nil, errUncompressedInSegwit(d.Template)
		}
		return script.PayToTaproot(pubKey)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTemplate, d.Template)
	}
}

// Address derives the output script at the given index and returns its
// address for the network.
func (d *Descriptor) Address(net network.Network, index uint32) (string, error) {
	s, err := d.Derive(net, index)
	if err != nil {
		return "", err
	}
	return address.Encode(s, net)
}

// DeriveRange derives count consecutive output scripts starting at from.
func (d *Descriptor) DeriveRange(
	net network.Network, from, count uint32,
) ([]script.OutputScript, error) {
	scripts := make([]script.OutputScript, 0, count)
	for i := uint32(0); i < count; i++ {
		s, err := d.Derive(net, from+i)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}
	return scripts, nil
}

func (d *Descriptor) deriveWitnessPubKeyHash(
	index uint32,
) (script.OutputScript, error) {
	pubKey, err := d.Key.derivePubKey(index)
	if err != nil {
		return nil, err
	}
	if script.IsUncompressedPubKey(pubKey) {
		return nil, errUncompressedInSegwit(d.Template)
	}
	return script.PayToWitnessPubKeyHash(pubKey)
}

func (s *InnerScript) derive(index uint32, segwit bool) ([]byte, error) {
	pubKeys := make([][]byte, 0, len(s.Keys))
	for _, key := range s.Keys {
		pubKey, err := key.derivePubKey(index)
		if err != nil {
			return nil, err
		}
		if segwit && script.IsUncompressedPubKey(pubKey) {
			return nil, errUncompressedInSegwit(TemplateWsh)
		}
		pubKeys = append(pubKeys, pubKey)
	}

	switch s.Kind {
	case ScriptPk:
		return script.PayToPubKey(pubKeys[0])
	case ScriptPkh:
		return script.PayToPubKeyHash(pubKeys[0])
	default:
		return script.MultisigScript(
			s.Threshold, pubKeys, s.Kind == ScriptSortedMulti,
		)
	}
}

// derivePubKey returns the serialized public key of the key expression at
// the given index. Keys without wildcard ignore the index.
func (k KeyExpression) derivePubKey(index uint32) ([]byte, error) {
	switch k.Kind {
	case KeyPublic, KeyXOnly:
		return append([]byte{}, k.PubKey...), nil
	case KeyWIF:
		return k.WIF.SerializePubKey(), nil
	}

	child, err := k.ExtendedKey.DerivePath(k.fullPath(index))
	if err != nil {
		return nil, err
	}
	return child.PubKeyBytes(), nil
}

// DeriveExtendedKey returns the extended key at the end of the key
// expression path for the given index, wildcard included.
func (k KeyExpression) DeriveExtendedKey(index uint32) (bip32.ExtendedKey, error) {
	if k.Kind != KeyExtended {
		return bip32.ExtendedKey{}, fmt.Errorf(
			"%w: not an extended key", ErrInvalidDerivation,
		)
	}
	if !k.IsRange() && index != 0 {
		return bip32.ExtendedKey{}, ErrIndexNotApplicable
	}
	return k.ExtendedKey.DerivePath(k.fullPath(index))
}

func (k KeyExpression) fullPath(index uint32) bip32.DerivationPath {
	switch k.Wildcard {
	case WildcardNormal:
		return k.Path.Append(bip32.Normal(index))
	case WildcardHardened:
		return k.Path.Append(bip32.Hardened(index))
	default:
		return k.Path
	}
}

func errUncompressedInSegwit(t Template) error {
	return fmt.Errorf(
		"%w: uncompressed keys are not allowed in %s", ErrInvalidDerivation, t,
	)
}

package descriptor

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/tdex-network/descwallet/pkg/bip32"
)

// Template is the top-level shape of a descriptor.
type Template uint8

const (
	TemplatePkh Template = iota
	TemplateWpkh
	TemplateShWpkh
	TemplateSh
	TemplateWsh
	TemplateShWsh
	TemplateTr
	// The following templates are recognized but can't be derived.
	TemplatePk
	TemplateCombo
	TemplateRawTr
	TemplateBareMulti
)

var templateNames = map[Template]string{
	TemplatePkh:       "pkh",
	TemplateWpkh:      "wpkh",
	TemplateShWpkh:    "sh(wpkh)",
	TemplateSh:        "sh",
	TemplateWsh:       "wsh",
	TemplateShWsh:     "sh(wsh)",
	TemplateTr:        "tr",
	TemplatePk:        "pk",
	TemplateCombo:     "combo",
	TemplateRawTr:     "rawtr",
	TemplateBareMulti: "multi",
}

func (t Template) String() string {
	return templateNames[t]
}

// IsSegwit returns whether the outputs of the template are witness programs.
func (t Template) IsSegwit() bool {
	switch t {
	case TemplateWpkh, TemplateShWpkh, TemplateWsh, TemplateShWsh, TemplateTr:
		return true
	default:
		return false
	}
}

// ScriptKind is the kind of script nested in sh(), wsh() and sh(wsh()).
type ScriptKind uint8

const (
	ScriptPk ScriptKind = iota
	ScriptPkh
	ScriptMulti
	ScriptSortedMulti
)

var scriptKindNames = map[ScriptKind]string{
	ScriptPk:          "pk",
	ScriptPkh:         "pkh",
	ScriptMulti:       "multi",
	ScriptSortedMulti: "sortedmulti",
}

func (k ScriptKind) String() string {
	return scriptKindNames[k]
}

// InnerScript is the script wrapped by sh(), wsh() or sh(wsh()), or a bare
// multisig.
type InnerScript struct {
	Kind      ScriptKind
	Threshold int
	Keys      []KeyExpression
}

func (s InnerScript) String() string {
	return s.render(false)
}

func (s InnerScript) render(public bool) string {
	keys := make([]string, 0, len(s.Keys))
	for _, k := range s.Keys {
		keys = append(keys, k.render(public))
	}
	if s.Kind == ScriptMulti || s.Kind == ScriptSortedMulti {
		return fmt.Sprintf(
			"%s(%d,%s)", s.Kind, s.Threshold, strings.Join(keys, ","),
		)
	}
	return fmt.Sprintf("%s(%s)", s.Kind, strings.Join(keys, ","))
}

// Wildcard is the optional final step of a key expression.
type Wildcard uint8

const (
	WildcardNone Wildcard = iota
	WildcardNormal
	WildcardHardened
)

func (w Wildcard) String() string {
	switch w {
	case WildcardNormal:
		return "/*"
	case WildcardHardened:
		return "/*h"
	default:
		return ""
	}
}

// KeyKind identifies the key material of a key expression.
type KeyKind uint8

const (
	KeyExtended KeyKind = iota
	KeyPublic
	KeyXOnly
	KeyWIF
)

// KeyOrigin is the optional [fingerprint/path] prefix of a key expression.
type KeyOrigin struct {
	Fingerprint [4]byte
	Path        bip32.DerivationPath
}

func (o KeyOrigin) String() string {
	str := hex.EncodeToString(o.Fingerprint[:])
	if len(o.Path) > 0 {
		str += "/" + o.Path.Relative()
	}
	return "[" + str + "]"
}

// KeyExpression is a key of a descriptor with its optional origin, the
// fixed path applied to an extended key, and the optional wildcard.
type KeyExpression struct {
	Origin      *KeyOrigin
	Kind        KeyKind
	ExtendedKey bip32.ExtendedKey
	// PubKey is the serialized public key for KeyPublic and KeyXOnly keys.
	PubKey   []byte
	WIF      *btcutil.WIF
	Path     bip32.DerivationPath
	Wildcard Wildcard
}

// IsRange returns whether the key has a wildcard.
func (k KeyExpression) IsRange() bool {
	return k.Wildcard != WildcardNone
}

// IsPrivate returns whether the key carries private key material.
func (k KeyExpression) IsPrivate() bool {
	switch k.Kind {
	case KeyExtended:
		return k.ExtendedKey.IsPrivate()
	case KeyWIF:
		return true
	default:
		return false
	}
}

func (k KeyExpression) String() string {
	return k.render(false)
}

func (k KeyExpression) render(public bool) string {
	var b strings.Builder
	if k.Origin != nil {
		b.WriteString(k.Origin.String())
	}

	switch k.Kind {
	case KeyExtended:
		key := k.ExtendedKey
		if public {
			key = key.Neuter()
		}
		b.WriteString(key.String())
	case KeyPublic, KeyXOnly:
		b.WriteString(hex.EncodeToString(k.PubKey))
	case KeyWIF:
		if public {
			b.WriteString(hex.EncodeToString(k.WIF.SerializePubKey()))
		} else {
			b.WriteString(k.WIF.String())
		}
	}

	for _, step := range k.Path {
		b.WriteString("/" + step.String())
	}
	b.WriteString(k.Wildcard.String())
	return b.String()
}

// Descriptor is a parsed output script descriptor. It is immutable once
// returned by Parse and safe for concurrent use.
type Descriptor struct {
	Template Template
	// Key is set for single-key templates (pkh, wpkh, sh(wpkh), tr, pk,
	// combo, rawtr).
	Key *KeyExpression
	// Script is set for sh(), wsh(), sh(wsh()) and bare multisig.
	Script *InnerScript
	// TapTree holds the verbatim script tree of a tr() descriptor.
	TapTree string
}

// Keys returns every key expression of the descriptor.
func (d *Descriptor) Keys() []KeyExpression {
	if d.Key != nil {
		return []KeyExpression{*d.Key}
	}
	if d.Script != nil {
		return d.Script.Keys
	}
	return nil
}

// IsRange returns whether any key of the descriptor has a wildcard.
func (d *Descriptor) IsRange() bool {
	for _, k := range d.Keys() {
		if k.IsRange() {
			return true
		}
	}
	return false
}

// IsPrivate returns whether any key of the descriptor carries private
// key material.
func (d *Descriptor) IsPrivate() bool {
	for _, k := range d.Keys() {
		if k.IsPrivate() {
			return true
		}
	}
	return false
}

// String returns the canonical text of the descriptor, hardened steps
// marked with 'h' and hex keys in lowercase, without checksum.
func (d *Descriptor) String() string {
	return d.render(false)
}

// PublicString is like String but renders every private key as its public
// counterpart.
func (d *Descriptor) PublicString() string {
	return d.render(true)
}

// Checksum returns the checksum of the canonical text.
func (d *Descriptor) Checksum() string {
	// the canonical text only contains characters of the checksum charset
	sum, _ := Checksum(d.String())
	return sum
}

// StringWithChecksum returns the canonical text followed by its checksum.
func (d *Descriptor) StringWithChecksum() string {
	return d.String() + "#" + d.Checksum()
}

func (d *Descriptor) render(public bool) string {
	switch d.Template {
	case TemplateShWpkh:
		return fmt.Sprintf("sh(wpkh(%s))", d.Key.render(public))
	case TemplateSh:
		return fmt.Sprintf("sh(%s)", d.Script.render(public))
	case TemplateWsh:
		return fmt.Sprintf("wsh(%s)", d.Script.render(public))
	case TemplateShWsh:
		return fmt.Sprintf("sh(wsh(%s))", d.Script.render(public))
	case TemplateBareMulti:
		return d.Script.render(public)
	case TemplateTr:
		if d.TapTree != "" {
			return fmt.Sprintf("tr(%s,%s)", d.Key.render(public), d.TapTree)
		}
		return fmt.Sprintf("tr(%s)", d.Key.render(public))
	default:
		return fmt.Sprintf("%s(%s)", d.Template, d.Key.render(public))
	}
}

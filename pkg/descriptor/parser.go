package descriptor

import (
	"encoding/hex"
	"strconv"
	"strings"
	"unicode"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/tdex-network/descwallet/pkg/bip32"
	"github.com/tdex-network/descwallet/pkg/script"
)

const maxBareMultisigKeys = 3

type scriptCtx uint8

const (
	ctxTop scriptCtx = iota
	ctxSh
	ctxWsh
	ctxTr
)

func (c scriptCtx) String() string {
	switch c {
	case ctxSh:
		return "sh()"
	case ctxWsh:
		return "wsh()"
	case ctxTr:
		return "tr()"
	default:
		return "top level"
	}
}

func (c scriptCtx) maxMultisigKeys() int {
	switch c {
	case ctxSh:
		return script.MaxLegacyMultisigKeys
	case ctxWsh:
		return script.MaxMultisigKeys
	default:
		return maxBareMultisigKeys
	}
}

var extendedKeyPrefixes = []string{"xpub", "xprv", "tpub", "tprv"}

// Parse parses a descriptor, optionally followed by '#' and its checksum,
// in which case the checksum is verified. Keywords are lowercase and no
// whitespace is allowed anywhere. Every failure is a *SyntaxError.
func Parse(text string) (*Descriptor, error) {
	for i, r := range text {
		if unicode.IsSpace(r) {
			return nil, newSyntaxError(i, "whitespace is not allowed")
		}
	}

	body, _, err := splitChecksum(text)
	if err != nil {
		return nil, err
	}

	p := &parser{text: body}
	desc, err := p.parseTop()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, newSyntaxError(p.pos, "unexpected trailing input %q", p.rest())
	}
	return desc, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) *Descriptor {
	desc, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return desc
}

type parser struct {
	text string
	pos  int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.text)
}

func (p *parser) rest() string {
	return p.text[p.pos:]
}

func (p *parser) expect(c byte) error {
	if p.eof() {
		return newSyntaxError(p.pos, "expected '%c' but reached end of input", c)
	}
	if p.text[p.pos] != c {
		return newSyntaxError(
			p.pos, "expected '%c' but found '%c'", c, p.text[p.pos],
		)
	}
	p.pos++
	return nil
}

// keyword consumes a run of letters and returns it with its position.
func (p *parser) keyword() (string, int, error) {
	start := p.pos
	for !p.eof() && isLetter(p.text[p.pos]) {
		p.pos++
	}
	kw := p.text[start:p.pos]
	if kw == "" {
		if p.eof() {
			return "", start, newSyntaxError(start, "unexpected end of input")
		}
		return "", start, newSyntaxError(start, "expected keyword")
	}
	if lower := strings.ToLower(kw); lower != kw {
		return "", start, newSyntaxError(
			start, "keywords must be lowercase, got %q", kw,
		)
	}
	return kw, start, nil
}

func (p *parser) parseTop() (*Descriptor, error) {
	kw, start, err := p.keyword()
	if err != nil {
		return nil, err
	}

	switch kw {
	case "pkh", "wpkh", "pk", "combo", "rawtr":
		ctx := ctxTop
		if kw == "rawtr" {
			ctx = ctxTr
		}
		key, err := p.parseWrappedKey(ctx)
		if err != nil {
			return nil, err
		}
		templates := map[string]Template{
			"pkh":   TemplatePkh,
			"wpkh":  TemplateWpkh,
			"pk":    TemplatePk,
			"combo": TemplateCombo,
			"rawtr": TemplateRawTr,
		}
		return &Descriptor{Template: templates[kw], Key: key}, nil

	case "sh":
		return p.parseSh()

	case "wsh":
		s, err := p.parseWrappedScript(ctxWsh)
		if err != nil {
			return nil, err
		}
		return &Descriptor{Template: TemplateWsh, Script: s}, nil

	case "tr":
		return p.parseTr()

	case "multi", "sortedmulti":
		p.pos = start
		s, err := p.parseScript(ctxTop)
		if err != nil {
			return nil, err
		}
		return &Descriptor{Template: TemplateBareMulti, Script: s}, nil

	default:
		return nil, newSyntaxError(start, "unknown descriptor %q", kw)
	}
}

func (p *parser) parseSh() (*Descriptor, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}

	kw, start, err := p.keyword()
	if err != nil {
		return nil, err
	}

	var desc *Descriptor
	switch kw {
	case "wpkh":
		key, err := p.parseWrappedKey(ctxSh)
		if err != nil {
			return nil, err
		}
		desc = &Descriptor{Template: TemplateShWpkh, Key: key}
	case "wsh":
		s, err := p.parseWrappedScript(ctxWsh)
		if err != nil {
			return nil, err
		}
		desc = &Descriptor{Template: TemplateShWsh, Script: s}
	case "pk", "pkh", "multi", "sortedmulti":
		p.pos = start
		s, err := p.parseScript(ctxSh)
		if err != nil {
			return nil, err
		}
		desc = &Descriptor{Template: TemplateSh, Script: s}
	default:
		return nil, newSyntaxError(start, "%q can't be used inside sh()", kw)
	}

	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return desc, nil
}

func (p *parser) parseTr() (*Descriptor, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	key, err := p.parseKey(ctxTr)
	if err != nil {
		return nil, err
	}

	desc := &Descriptor{Template: TemplateTr, Key: key}
	if !p.eof() && p.text[p.pos] == ',' {
		p.pos++
		tree, err := p.parseTapTree()
		if err != nil {
			return nil, err
		}
		desc.TapTree = tree
	}

	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return desc, nil
}

// parseTapTree consumes a script tree up to the closing parenthesis of the
// enclosing tr(), checking only that brackets are balanced.
func (p *parser) parseTapTree() (string, error) {
	start := p.pos
	stack := make([]byte, 0)
	for ; !p.eof(); p.pos++ {
		c := p.text[p.pos]
		switch c {
		case '(', '{':
			stack = append(stack, c)
		case ')', '}':
			if len(stack) == 0 {
				if c == ')' {
					if p.pos == start {
						return "", newSyntaxError(start, "missing script tree")
					}
					return p.text[start:p.pos], nil
				}
				return "", newSyntaxError(p.pos, "unbalanced '}'")
			}
			open := stack[len(stack)-1]
			if (open == '(' && c != ')') || (open == '{' && c != '}') {
				return "", newSyntaxError(p.pos, "mismatched '%c'", c)
			}
			stack = stack[:len(stack)-1]
		}
	}
	return "", newSyntaxError(p.pos, "unbalanced script tree")
}

// parseWrappedKey parses '(' KEY ')'.
func (p *parser) parseWrappedKey(ctx scriptCtx) (*KeyExpression, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	key, err := p.parseKey(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return key, nil
}

// parseWrappedScript parses '(' SCRIPT ')'.
func (p *parser) parseWrappedScript(ctx scriptCtx) (*InnerScript, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	s, err := p.parseScript(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *parser) parseScript(ctx scriptCtx) (*InnerScript, error) {
	kw, start, err := p.keyword()
	if err != nil {
		return nil, err
	}

	switch kw {
	case "pk", "pkh":
		key, err := p.parseWrappedKey(ctx)
		if err != nil {
			return nil, err
		}
		kind := ScriptPk
		if kw == "pkh" {
			kind = ScriptPkh
		}
		return &InnerScript{Kind: kind, Keys: []KeyExpression{*key}}, nil

	case "multi", "sortedmulti":
		kind := ScriptMulti
		if kw == "sortedmulti" {
			kind = ScriptSortedMulti
		}
		return p.parseMultisig(kind, ctx, start)

	default:
		return nil, newSyntaxError(start, "%q can't be used inside %s", kw, ctx)
	}
}

func (p *parser) parseMultisig(
	kind ScriptKind, ctx scriptCtx, start int,
) (*InnerScript, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}

	thresholdPos := p.pos
	for !p.eof() && isDigit(p.text[p.pos]) {
		p.pos++
	}
	digits := p.text[thresholdPos:p.pos]
	if digits == "" {
		return nil, newSyntaxError(thresholdPos, "missing multisig threshold")
	}
	threshold, err := strconv.Atoi(digits)
	if err != nil {
		return nil, newSyntaxError(thresholdPos, "invalid multisig threshold %q", digits)
	}

	keys := make([]KeyExpression, 0)
	for !p.eof() && p.text[p.pos] == ',' {
		p.pos++
		key, err := p.parseKey(ctx)
		if err != nil {
			return nil, err
		}
		keys = append(keys, *key)
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return nil, newSyntaxError(start, "multisig requires at least one key")
	}
	if maxKeys := ctx.maxMultisigKeys(); len(keys) > maxKeys {
		return nil, newSyntaxError(
			start, "%s allows at most %d keys in %s, got %d",
			kind, maxKeys, ctx, len(keys),
		)
	}
	if threshold < 1 || threshold > len(keys) {
		return nil, newSyntaxError(
			thresholdPos, "multisig threshold must be in range [1, %d], got %d",
			len(keys), threshold,
		)
	}
	return &InnerScript{Kind: kind, Threshold: threshold, Keys: keys}, nil
}

// parseKey consumes a key expression, which extends up to the next ',' or
// parenthesis.
func (p *parser) parseKey(ctx scriptCtx) (*KeyExpression, error) {
	start := p.pos
	for !p.eof() && strings.IndexByte(",()", p.text[p.pos]) < 0 {
		p.pos++
	}
	if p.pos == start {
		return nil, newSyntaxError(start, "missing key expression")
	}
	return parseKeyExpression(p.text[start:p.pos], start, ctx)
}

func parseKeyExpression(
	str string, offset int, ctx scriptCtx,
) (*KeyExpression, error) {
	key := &KeyExpression{}

	if strings.HasPrefix(str, "[") {
		end := strings.IndexByte(str, ']')
		if end < 0 {
			return nil, newSyntaxError(offset, "key origin is missing ']'")
		}
		origin, err := parseKeyOrigin(str[1:end], offset+1)
		if err != nil {
			return nil, err
		}
		key.Origin = origin
		str = str[end+1:]
		offset += end + 1
	}

	elems := strings.Split(str, "/")
	keyData := elems[0]
	if keyData == "" {
		return nil, newSyntaxError(offset, "missing key material")
	}
	if err := decodeKeyData(key, keyData, offset, ctx); err != nil {
		return nil, err
	}

	pathElems := elems[1:]
	if len(pathElems) > 0 && key.Kind != KeyExtended {
		return nil, newSyntaxError(
			offset+len(keyData),
			"derivation steps are only allowed after extended keys",
		)
	}

	pos := offset + len(keyData) + 1
	path := make(bip32.DerivationPath, 0, len(pathElems))
	for i, elem := range pathElems {
		switch elem {
		case "*", "*h", "*'":
			if i != len(pathElems)-1 {
				return nil, newSyntaxError(
					pos, "wildcard must be the final path element",
				)
			}
			key.Wildcard = WildcardNormal
			if elem != "*" {
				key.Wildcard = WildcardHardened
			}
		default:
			step, err := bip32.ParseChildStep(elem)
			if err != nil {
				return nil, newSyntaxError(pos, "%s", err)
			}
			path = append(path, step)
		}
		pos += len(elem) + 1
	}
	if len(path) > 0 {
		key.Path = path
	}
	return key, nil
}

func parseKeyOrigin(str string, offset int) (*KeyOrigin, error) {
	elems := strings.Split(str, "/")
	fingerprint := elems[0]
	if len(fingerprint) != 8 || !isHex(fingerprint) {
		return nil, newSyntaxError(
			offset, "key origin fingerprint must be 8 hex characters",
		)
	}

	origin := &KeyOrigin{}
	fp, _ := hex.DecodeString(fingerprint)
	copy(origin.Fingerprint[:], fp)

	pos := offset + len(fingerprint) + 1
	for _, elem := range elems[1:] {
		step, err := bip32.ParseChildStep(elem)
		if err != nil {
			return nil, newSyntaxError(pos, "%s", err)
		}
		origin.Path = append(origin.Path, step)
		pos += len(elem) + 1
	}
	return origin, nil
}

func decodeKeyData(
	key *KeyExpression, data string, offset int, ctx scriptCtx,
) error {
	if isHex(data) {
		buf, _ := hex.DecodeString(data)
		switch {
		case len(buf) == schnorr.PubKeyBytesLen:
			if ctx != ctxTr {
				return newSyntaxError(offset, "x-only keys are only allowed in tr()")
			}
			if _, err := schnorr.ParsePubKey(buf); err != nil {
				return newSyntaxError(offset, "invalid x-only key: %s", err)
			}
			key.Kind = KeyXOnly
		case len(buf) == btcec.PubKeyBytesLenCompressed &&
			(buf[0] == 0x02 || buf[0] == 0x03),
			len(buf) == script.PubKeyBytesLenUncompressed && buf[0] == 0x04:
			if _, err := btcec.ParsePubKey(buf); err != nil {
				return newSyntaxError(offset, "invalid public key: %s", err)
			}
			key.Kind = KeyPublic
		default:
			return newSyntaxError(offset, "invalid public key length")
		}
		key.PubKey = buf
		return nil
	}

	for _, prefix := range extendedKeyPrefixes {
		if strings.HasPrefix(data, prefix) {
			xkey, err := bip32.NewExtendedKeyFromString(data)
			if err != nil {
				return newSyntaxError(offset, "invalid extended key: %s", err)
			}
			key.Kind = KeyExtended
			key.ExtendedKey = xkey
			return nil
		}
	}

	wif, err := btcutil.DecodeWIF(data)
	if err != nil {
		return newSyntaxError(offset, "unrecognized key material")
	}
	key.Kind = KeyWIF
	key.WIF = wif
	return nil
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(s string) bool {
	if len(s) == 0 || len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && !(c >= 'a' && c <= 'f') && !(c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

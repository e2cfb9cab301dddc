package script

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
)

const (
	// MaxMultisigKeys is the max number of keys of a multisig script used
	// within a witness script.
	MaxMultisigKeys = 20
	// MaxLegacyMultisigKeys is the max number of keys of a multisig script
	// used as a P2SH redeem script, bounded by the 520-byte push limit.
	MaxLegacyMultisigKeys = 15
	// PubKeyBytesLenUncompressed is the length of a 0x04 prefixed
	// uncompressed public key.
	PubKeyBytesLenUncompressed = 65
)

var (
	// ErrInvalidPubKey ...
	ErrInvalidPubKey = errors.New("invalid public key")
	// ErrUncompressedPubKey ...
	ErrUncompressedPubKey = errors.New(
		"uncompressed public keys are not allowed in segwit scripts",
	)
	// ErrInvalidHashLen ...
	ErrInvalidHashLen = errors.New("hash must be 20 bytes long")
	// ErrInvalidThreshold ...
	ErrInvalidThreshold = errors.New("multisig threshold out of range")
	// ErrTooManyKeys ...
	ErrTooManyKeys = fmt.Errorf(
		"multisig scripts can have at most %d keys", MaxMultisigKeys,
	)
)

// Type identifies the shape of an output script.
type Type uint8

const (
	NonStandard Type = iota
	P2PK
	P2PKH
	P2SH
	P2WPKH
	P2WSH
	P2TR
	Multisig
	WitnessUnknown
	NullData
)

var typeNames = map[Type]string{
	NonStandard:    "nonstandard",
	P2PK:           "p2pk",
	P2PKH:          "p2pkh",
	P2SH:           "p2sh",
	P2WPKH:         "p2wpkh",
	P2WSH:          "p2wsh",
	P2TR:           "p2tr",
	Multisig:       "multisig",
	WitnessUnknown: "witness_unknown",
	NullData:       "nulldata",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return typeNames[NonStandard]
}

// OutputScript is a serialized output locking script.
type OutputScript []byte

// NewOutputScriptFromHex ...
func NewOutputScriptFromHex(str string) (OutputScript, error) {
	b, err := hex.DecodeString(str)
	if err != nil {
		return nil, err
	}
	return OutputScript(b), nil
}

// Hex ...
func (s OutputScript) Hex() string {
	return hex.EncodeToString(s)
}

// Type classifies the script.
func (s OutputScript) Type() Type {
	switch txscript.GetScriptClass(s) {
	case txscript.PubKeyTy:
		return P2PK
	case txscript.PubKeyHashTy:
		return P2PKH
	case txscript.ScriptHashTy:
		return P2SH
	case txscript.WitnessV0PubKeyHashTy:
		return P2WPKH
	case txscript.WitnessV0ScriptHashTy:
		return P2WSH
	case txscript.WitnessV1TaprootTy:
		return P2TR
	case txscript.MultiSigTy:
		return Multisig
	case txscript.NullDataTy:
		return NullData
	}
	if txscript.IsWitnessProgram(s) {
		return WitnessUnknown
	}
	return NonStandard
}

// IsWitness returns whether the script is a segwit program of any version.
func (s OutputScript) IsWitness() bool {
	return txscript.IsWitnessProgram(s)
}

// WitnessProgram returns the witness version and program of a segwit
// output script.
func (s OutputScript) WitnessProgram() (int, []byte, error) {
	return txscript.ExtractWitnessProgramInfo(s)
}

// Hash160 returns the 20-byte hash committed by a P2PKH, P2SH or P2WPKH
// script, nil otherwise.
func (s OutputScript) Hash160() []byte {
	switch s.Type() {
	case P2PKH:
		return append([]byte{}, s[3:23]...)
	case P2SH:
		return append([]byte{}, s[2:22]...)
	case P2WPKH:
		return append([]byte{}, s[2:22]...)
	default:
		return nil
	}
}

// ScriptHash returns the electrum-style script hash of the script, that is
// the reversed SHA256 rendered as hex.
func (s OutputScript) ScriptHash() string {
	h := chainhash.HashH(s)
	return h.String()
}

// PayToPubKey returns the P2PK script for the given serialized public key.
func PayToPubKey(pubKey []byte) (OutputScript, error) {
	if err := validatePubKey(pubKey); err != nil {
		return nil, err
	}
	return txscript.NewScriptBuilder().
		AddData(pubKey).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// PayToPubKeyHash returns the P2PKH script for the given serialized public
// key.
func PayToPubKeyHash(pubKey []byte) (OutputScript, error) {
	if err := validatePubKey(pubKey); err != nil {
		return nil, err
	}
	return payToPubKeyHash(btcutil.Hash160(pubKey))
}

// PayToPubKeyHashFromHash returns the P2PKH script for the given 20-byte
// public key hash.
func PayToPubKeyHashFromHash(pubKeyHash []byte) (OutputScript, error) {
	if len(pubKeyHash) != 20 {
		return nil, ErrInvalidHashLen
	}
	return payToPubKeyHash(pubKeyHash)
}

// PayToScriptHash returns the P2SH script committing to the given redeem
// script.
func PayToScriptHash(redeemScript []byte) (OutputScript, error) {
	return PayToScriptHashFromHash(btcutil.Hash160(redeemScript))
}

// PayToScriptHashFromHash returns the P2SH script for the given 20-byte
// script hash.
func PayToScriptHashFromHash(scriptHash []byte) (OutputScript, error) {
	if len(scriptHash) != 20 {
		return nil, ErrInvalidHashLen
	}
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).
		AddData(scriptHash).
		AddOp(txscript.OP_EQUAL).
		Script()
}

// PayToWitnessPubKeyHash returns the P2WPKH script for the given compressed
// public key.
func PayToWitnessPubKeyHash(pubKey []byte) (OutputScript, error) {
	if err := validateCompressedPubKey(pubKey); err != nil {
		return nil, err
	}
	return payToWitnessProgram(0, btcutil.Hash160(pubKey))
}

// PayToWitnessScriptHash returns the P2WSH script committing to the given
// witness script.
func PayToWitnessScriptHash(witnessScript []byte) (OutputScript, error) {
	h := chainhash.HashB(witnessScript)
	return payToWitnessProgram(0, h)
}

// PayToTaproot returns the key-path-only P2TR script for the given internal
// key. The output key is tweaked as described in BIP-86.
func PayToTaproot(internalKey []byte) (OutputScript, error) {
	pubKey, err := parseTaprootInternalKey(internalKey)
	if err != nil {
		return nil, err
	}
	outputKey := txscript.ComputeTaprootKeyNoScript(pubKey)
	return payToWitnessProgram(1, schnorr.SerializePubKey(outputKey))
}

// MultisigScript returns a bare threshold-of-n CHECKMULTISIG script. When
// sorted is true the keys are sorted lexicographically first, without
// modifying the given slice.
func MultisigScript(
	threshold int, pubKeys [][]byte, sorted bool,
) ([]byte, error) {
	if len(pubKeys) > MaxMultisigKeys {
		return nil, ErrTooManyKeys
	}
	if threshold < 1 || threshold > len(pubKeys) {
		return nil, fmt.Errorf(
			"%w: got %d with %d keys", ErrInvalidThreshold, threshold, len(pubKeys),
		)
	}

	keys := make([][]byte, 0, len(pubKeys))
	for _, key := range pubKeys {
		if err := validatePubKey(key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if sorted {
		sort.Slice(keys, func(i, j int) bool {
			return bytes.Compare(keys[i], keys[j]) < 0
		})
	}

	builder := txscript.NewScriptBuilder().AddInt64(int64(threshold))
	for _, key := range keys {
		builder.AddData(key)
	}
	return builder.
		AddInt64(int64(len(keys))).
		AddOp(txscript.OP_CHECKMULTISIG).
		Script()
}

// PayToWitnessProgram returns the segwit output script for the given
// version and program.
func PayToWitnessProgram(version int, program []byte) (OutputScript, error) {
	return payToWitnessProgram(version, program)
}

// IsUncompressedPubKey ...
func IsUncompressedPubKey(pubKey []byte) bool {
	return len(pubKey) == PubKeyBytesLenUncompressed
}

func payToPubKeyHash(pubKeyHash []byte) (OutputScript, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(pubKeyHash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

func payToWitnessProgram(version int, program []byte) (OutputScript, error) {
	versionOp := byte(txscript.OP_0)
	if version > 0 {
		versionOp = byte(txscript.OP_1 + version - 1)
	}
	return txscript.NewScriptBuilder().
		AddOp(versionOp).
		AddData(program).
		Script()
}

func validatePubKey(pubKey []byte) error {
	if _, err := btcec.ParsePubKey(pubKey); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPubKey, err)
	}
	return nil
}

func validateCompressedPubKey(pubKey []byte) error {
	if IsUncompressedPubKey(pubKey) {
		return ErrUncompressedPubKey
	}
	if len(pubKey) != btcec.PubKeyBytesLenCompressed {
		return fmt.Errorf("%w: invalid length %d", ErrInvalidPubKey, len(pubKey))
	}
	return validatePubKey(pubKey)
}

// parseTaprootInternalKey accepts both 33-byte compressed and 32-byte x-only
// keys.
func parseTaprootInternalKey(key []byte) (*btcec.PublicKey, error) {
	switch len(key) {
	case schnorr.PubKeyBytesLen:
		pubKey, err := schnorr.ParsePubKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPubKey, err)
		}
		return pubKey, nil
	case btcec.PubKeyBytesLenCompressed:
		pubKey, err := btcec.ParsePubKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPubKey, err)
		}
		return pubKey, nil
	case PubKeyBytesLenUncompressed:
		return nil, ErrUncompressedPubKey
	default:
		return nil, fmt.Errorf("%w: invalid length %d", ErrInvalidPubKey, len(key))
	}
}

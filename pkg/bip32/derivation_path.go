package bip32

import (
	"fmt"
	"strconv"
	"strings"
)

// ChildStep is a single derivation step. Index is always lower than 2^31,
// the hardened bit is carried by the Hardened flag.
type ChildStep struct {
	Index    uint32
	Hardened bool
}

// NewChildStep decodes a serialized child number (hardened bit included).
func NewChildStep(childNum uint32) ChildStep {
	if childNum >= HardenedKeyStart {
		return ChildStep{childNum - HardenedKeyStart, true}
	}
	return ChildStep{childNum, false}
}

// Hardened returns the hardened step at the given index.
func Hardened(index uint32) ChildStep {
	return ChildStep{index, true}
}

// Normal returns the non-hardened step at the given index.
func Normal(index uint32) ChildStep {
	return ChildStep{index, false}
}

// ChildNum returns the serialized child number of the step.
func (s ChildStep) ChildNum() uint32 {
	if s.Hardened {
		return s.Index + HardenedKeyStart
	}
	return s.Index
}

func (s ChildStep) String() string {
	if s.Hardened {
		return fmt.Sprintf("%dh", s.Index)
	}
	return strconv.FormatUint(uint64(s.Index), 10)
}

// DerivationPath is an ordered list of derivation steps.
type DerivationPath []ChildStep

// ParseChildStep parses a single path element: a decimal index optionally
// followed by a hardened marker (' or h).
func ParseChildStep(elem string) (ChildStep, error) {
	var hardened bool
	if strings.HasSuffix(elem, "'") || strings.HasSuffix(elem, "h") {
		hardened = true
		elem = elem[:len(elem)-1]
	}
	if len(elem) == 0 || strings.IndexFunc(elem, isNotDigit) >= 0 {
		return ChildStep{}, fmt.Errorf("invalid elem '%s' in path", elem)
	}

	value, err := strconv.ParseUint(elem, 10, 32)
	if err != nil || value > uint64(MaxIndex) {
		return ChildStep{}, fmt.Errorf(
			"elem %s must be in range [0, %d]", elem, MaxIndex,
		)
	}
	return ChildStep{uint32(value), hardened}, nil
}

// ParseDerivationPath converts a derivation path string like m/84'/0'/0'/0
// or 84h/0h/0h/0 to the internal representation.
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	if strPath == "" {
		return nil, ErrNullDerivationPath
	}

	elems := strings.Split(strPath, "/")
	if elems[0] == "m" {
		elems = elems[1:]
		if len(elems) == 0 {
			return DerivationPath{}, nil
		}
	}
	if containsEmptyString(elems) {
		return nil, ErrMalformedDerivationPath
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		step, err := ParseChildStep(elem)
		if err != nil {
			return nil, err
		}
		path = append(path, step)
	}
	return path, nil
}

// String converts a derivation path to its canonical absolute
// representation.
func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return "m"
	}
	return "m/" + path.Relative()
}

// Relative renders the path without the "m/" prefix, as it appears after a
// key in a descriptor.
func (path DerivationPath) Relative() string {
	elems := make([]string, 0, len(path))
	for _, step := range path {
		elems = append(elems, step.String())
	}
	return strings.Join(elems, "/")
}

// Append returns a new path made of path followed by steps. The receiver is
// never modified.
func (path DerivationPath) Append(steps ...ChildStep) DerivationPath {
	out := make(DerivationPath, 0, len(path)+len(steps))
	out = append(out, path...)
	return append(out, steps...)
}

// ChildNums returns the serialized child numbers of the path.
func (path DerivationPath) ChildNums() []uint32 {
	nums := make([]uint32, 0, len(path))
	for _, step := range path {
		nums = append(nums, step.ChildNum())
	}
	return nums
}

// HasHardenedStep returns whether any step of the path is hardened.
func (path DerivationPath) HasHardenedStep() bool {
	for _, step := range path {
		if step.Hardened {
			return true
		}
	}
	return false
}

func containsEmptyString(composedPath []string) bool {
	for _, s := range composedPath {
		if s == "" {
			return true
		}
	}
	return false
}

func isNotDigit(r rune) bool {
	return r < '0' || r > '9'
}

package descriptor

import (
	"errors"
	"fmt"

	"github.com/tdex-network/descwallet/pkg/bip32"
)

var (
	// ErrDescriptorSyntax is the error kind of every parsing failure. The
	// concrete error is a *SyntaxError carrying the position of the failure.
	ErrDescriptorSyntax = errors.New("descriptor syntax error")
	// ErrInvalidDerivation is returned when a key of the descriptor can't be
	// derived at the requested index.
	ErrInvalidDerivation = bip32.ErrInvalidDerivation
	// ErrIndexNotApplicable is returned when deriving a descriptor without
	// wildcards at an index other than 0.
	ErrIndexNotApplicable = errors.New(
		"index not applicable: descriptor has no wildcard",
	)
	// ErrUnsupportedTemplate is returned when deriving a known descriptor
	// whose template can't produce a single output script.
	ErrUnsupportedTemplate = errors.New("unsupported descriptor template")
	// ErrNetworkMismatch is returned when a key of the descriptor belongs to
	// a network other than the requested one.
	ErrNetworkMismatch = errors.New("descriptor key does not match network")
)

// SyntaxError reports where and why a descriptor failed to parse.
type SyntaxError struct {
	Pos    int
	Reason string
}

func newSyntaxError(pos int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{pos, fmt.Sprintf(format, args...)}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at position %d: %s", ErrDescriptorSyntax, e.Pos, e.Reason)
}

// Is makes errors.Is(err, ErrDescriptorSyntax) hold for every *SyntaxError.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrDescriptorSyntax
}

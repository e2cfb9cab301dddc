package dbbadger

import "errors"

var (
	// ErrWalletInvalidRequest ...
	ErrWalletInvalidRequest = errors.New("requested wallet is null")
)

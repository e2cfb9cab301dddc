package domain

import "errors"

var (
	// ErrWalletMissingID ...
	ErrWalletMissingID = errors.New("missing wallet id")
	// ErrWalletMissingDescriptor ...
	ErrWalletMissingDescriptor = errors.New("missing wallet descriptor")
	// ErrWalletInvalidNetwork ...
	ErrWalletInvalidNetwork = errors.New("invalid wallet network")
	// ErrWalletInvalidAddress is returned when revealing an address without
	// either its encoded form or its script
	ErrWalletInvalidAddress = errors.New("invalid wallet address")
	// ErrWalletNotFound ...
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrWalletAlreadyExists ...
	ErrWalletAlreadyExists = errors.New("wallet already exists")
	// ErrTransactionInvalidTxID ...
	ErrTransactionInvalidTxID = errors.New("invalid transaction id")
	// ErrTransactionNotFound ...
	ErrTransactionNotFound = errors.New("transaction not found")
)

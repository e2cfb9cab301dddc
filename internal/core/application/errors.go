package application

import "errors"

var (
	// ErrSyncInProgress is returned when starting a sync while another one is
	// running for the same wallet.
	ErrSyncInProgress = errors.New("wallet sync already in progress")
	// ErrBlockchainNotConfigured is returned by operations that need to
	// query the blockchain when the service runs offline.
	ErrBlockchainNotConfigured = errors.New("blockchain service not configured")
	// ErrInvalidTransaction ...
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrWalletNetworkMismatch is returned when the stored wallet has been
	// created for a different network.
	ErrWalletNetworkMismatch = errors.New("wallet network mismatch")
	// ErrMissingRepoManager ...
	ErrMissingRepoManager = errors.New("missing repository manager")
	// ErrUnknownBlockchainConfig ...
	ErrUnknownBlockchainConfig = errors.New("unknown blockchain config")
	// ErrUnknownDatabaseConfig ...
	ErrUnknownDatabaseConfig = errors.New("unknown database config")
)

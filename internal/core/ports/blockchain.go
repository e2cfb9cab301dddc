package ports

import "context"

// BlockchainService is the abstraction for any kind of indexer service able
// to return history and balance of output scripts.
type BlockchainService interface {
	// GetHistory returns the list of txs that touched the given script.
	GetHistory(ctx context.Context, script []byte) ([]TxHistory, error)
	// GetBalance returns the confirmed and unconfirmed balance of a script.
	GetBalance(ctx context.Context, script []byte) (Balance, error)
	// BroadcastTransaction publishes the given tx and returns its id.
	BroadcastTransaction(ctx context.Context, txHex string) (string, error)
	// GetBlockHeight returns the height of the chain tip.
	GetBlockHeight(ctx context.Context) (uint32, error)
	Close()
}

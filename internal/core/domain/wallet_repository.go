package domain

import "context"

// WalletRepository is the abstraction for any kind of database intended to
// persist Wallets.
type WalletRepository interface {
	// AddWallet adds a new wallet to the repository.
	AddWallet(ctx context.Context, wallet *Wallet) error
	// GetWallet returns the wallet with the given id.
	GetWallet(ctx context.Context, walletID string) (*Wallet, error)
	// UpdateWallet updates the state of a wallet. The closure function let's
	// to commit multiple changes to a certain wallet in a transactional way.
	UpdateWallet(
		ctx context.Context,
		walletID string, updateFn func(w *Wallet) (*Wallet, error),
	) error
	// ListWallets returns all wallets.
	ListWallets(ctx context.Context) ([]Wallet, error)
}

// TransactionRepository is the abstraction for any kind of database intended
// to cache the transaction history of wallets.
type TransactionRepository interface {
	// AddTransactions adds the given transactions to the repository, updating
	// those already stored. Returns the number of newly added entries.
	AddTransactions(ctx context.Context, txs ...Transaction) (int, error)
	// GetTransaction returns the wallet transaction with the given txid.
	GetTransaction(
		ctx context.Context, walletID, txid string,
	) (*Transaction, error)
	// ListTransactions returns all transactions of a wallet, most recent
	// first.
	ListTransactions(
		ctx context.Context, walletID string,
	) ([]Transaction, error)
}

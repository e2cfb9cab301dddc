package domain

import (
	"sort"
	"time"
)

// Transaction is a cache entry for a transaction touching any of the
// addresses revealed by a wallet.
type Transaction struct {
	TxID     string
	WalletID string
	// Zero or negative for transactions still in mempool.
	Height int64
	// Scripts (hex) of the wallet addresses involved in the transaction.
	Scripts   []string
	UpdatedAt int64
}

// NewTransaction returns a new cache entry.
func NewTransaction(
	walletID, txid string, height int64, scripts ...string,
) (*Transaction, error) {
	if walletID == "" {
		return nil, ErrWalletMissingID
	}
	if len(txid) != 64 {
		return nil, ErrTransactionInvalidTxID
	}
	return &Transaction{
		TxID:      txid,
		WalletID:  walletID,
		Height:    height,
		Scripts:   uniqueStrings(scripts),
		UpdatedAt: time.Now().Unix(),
	}, nil
}

// IsConfirmed returns whether the transaction has been included in a block.
func (t Transaction) IsConfirmed() bool {
	return t.Height > 0
}

// Merge updates the entry with the given one, preserving the scripts of
// both.
func (t *Transaction) Merge(other Transaction) {
	t.Height = other.Height
	t.Scripts = uniqueStrings(append(t.Scripts, other.Scripts...))
	if other.UpdatedAt > t.UpdatedAt {
		t.UpdatedAt = other.UpdatedAt
	}
}

// SortTransactions sorts the given list with unconfirmed txs first, then by
// descending height. Ties are broken by txid.
func SortTransactions(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if a.IsConfirmed() != b.IsConfirmed() {
			return !a.IsConfirmed()
		}
		if a.IsConfirmed() && a.Height != b.Height {
			return a.Height > b.Height
		}
		return a.TxID < b.TxID
	})
}

func uniqueStrings(list []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(list))
	for _, s := range list {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

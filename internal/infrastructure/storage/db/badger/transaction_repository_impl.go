package dbbadger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/descwallet/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type transactionRepositoryImpl struct {
	store *badgerhold.Store
}

// NewTransactionRepositoryImpl initialize a badger implementation of the
// domain.TransactionRepository
func NewTransactionRepositoryImpl(
	store *badgerhold.Store,
) domain.TransactionRepository {
	return &transactionRepositoryImpl{store}
}

func (r *transactionRepositoryImpl) AddTransactions(
	_ context.Context, txs ...domain.Transaction,
) (int, error) {
	count := 0
	err := r.store.Badger().Update(func(tx *badger.Txn) error {
		count = 0
		for _, t := range txs {
			key := txKey(t.WalletID, t.TxID)

			var prevTx domain.Transaction
			err := r.store.TxGet(tx, key, &prevTx)
			if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
				return err
			}
			if err == nil {
				prevTx.Merge(t)
				if err := r.store.TxUpdate(tx, key, prevTx); err != nil {
					return err
				}
				continue
			}

			if err := r.store.TxInsert(tx, key, t); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *transactionRepositoryImpl) GetTransaction(
	_ context.Context, walletID, txid string,
) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := r.store.Get(txKey(walletID, txid), &tx); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepositoryImpl) ListTransactions(
	_ context.Context, walletID string,
) ([]domain.Transaction, error) {
	query := badgerhold.Where("WalletID").Eq(walletID)

	var txs []domain.Transaction
	if err := r.store.Find(&txs, query); err != nil {
		return nil, err
	}
	if txs == nil {
		txs = make([]domain.Transaction, 0)
	}
	domain.SortTransactions(txs)
	return txs, nil
}

func txKey(walletID, txid string) string {
	return fmt.Sprintf("%s:%s", walletID, txid)
}

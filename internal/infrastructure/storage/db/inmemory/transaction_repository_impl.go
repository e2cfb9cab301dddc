package inmemory

import (
	"context"
	"sync"

	"github.com/tdex-network/descwallet/internal/core/domain"
)

type txInmemoryStore struct {
	txsByWallet map[string]map[string]domain.Transaction
	locker      *sync.RWMutex
}

type transactionRepositoryImpl struct {
	store *txInmemoryStore
}

// NewTransactionRepositoryImpl returns a new inmemory TransactionRepository
// implementation.
func NewTransactionRepositoryImpl() domain.TransactionRepository {
	return &transactionRepositoryImpl{&txInmemoryStore{
		txsByWallet: map[string]map[string]domain.Transaction{},
		locker:      &sync.RWMutex{},
	}}
}

func (r *transactionRepositoryImpl) AddTransactions(
	_ context.Context, txs ...domain.Transaction,
) (int, error) {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	count := 0
	for _, tx := range txs {
		walletTxs, ok := r.store.txsByWallet[tx.WalletID]
		if !ok {
			walletTxs = make(map[string]domain.Transaction)
			r.store.txsByWallet[tx.WalletID] = walletTxs
		}

		if prevTx, ok := walletTxs[tx.TxID]; ok {
			prevTx.Merge(tx)
			walletTxs[tx.TxID] = copyTx(prevTx)
			continue
		}
		walletTxs[tx.TxID] = copyTx(tx)
		count++
	}
	return count, nil
}

func (r *transactionRepositoryImpl) GetTransaction(
	_ context.Context, walletID, txid string,
) (*domain.Transaction, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	tx, ok := r.store.txsByWallet[walletID][txid]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	tx = copyTx(tx)
	return &tx, nil
}

func (r *transactionRepositoryImpl) ListTransactions(
	_ context.Context, walletID string,
) ([]domain.Transaction, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	txs := make([]domain.Transaction, 0, len(r.store.txsByWallet[walletID]))
	for _, tx := range r.store.txsByWallet[walletID] {
		txs = append(txs, copyTx(tx))
	}
	domain.SortTransactions(txs)
	return txs, nil
}

func copyTx(tx domain.Transaction) domain.Transaction {
	scripts := make([]string, len(tx.Scripts))
	copy(scripts, tx.Scripts)
	tx.Scripts = scripts
	return tx
}

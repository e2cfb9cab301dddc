package dbbadger

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/descwallet/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type walletRepositoryImpl struct {
	store *badgerhold.Store
	lock  *sync.Mutex
}

// NewWalletRepositoryImpl initialize a badger implementation of the
// domain.WalletRepository
func NewWalletRepositoryImpl(store *badgerhold.Store) domain.WalletRepository {
	return &walletRepositoryImpl{store, &sync.Mutex{}}
}

func (r *walletRepositoryImpl) AddWallet(
	_ context.Context, wallet *domain.Wallet,
) error {
	if wallet == nil {
		return ErrWalletInvalidRequest
	}

	if err := r.store.Insert(wallet.ID, *wallet); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.ErrWalletAlreadyExists
		}
		return err
	}
	return nil
}

func (r *walletRepositoryImpl) GetWallet(
	_ context.Context, walletID string,
) (*domain.Wallet, error) {
	var wallet domain.Wallet
	if err := r.store.Get(walletID, &wallet); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *walletRepositoryImpl) UpdateWallet(
	_ context.Context,
	walletID string,
	updateFn func(w *domain.Wallet) (*domain.Wallet, error),
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.store.Badger().Update(func(tx *badger.Txn) error {
		var wallet domain.Wallet
		if err := r.store.TxGet(tx, walletID, &wallet); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return domain.ErrWalletNotFound
			}
			return err
		}

		updatedWallet, err := updateFn(&wallet)
		if err != nil {
			return err
		}

		return r.store.TxUpdate(tx, walletID, *updatedWallet)
	})
}

func (r *walletRepositoryImpl) ListWallets(
	_ context.Context,
) ([]domain.Wallet, error) {
	var wallets []domain.Wallet
	if err := r.store.Find(&wallets, nil); err != nil {
		return nil, err
	}
	sort.SliceStable(wallets, func(i, j int) bool {
		return wallets[i].CreatedAt < wallets[j].CreatedAt
	})
	return wallets, nil
}

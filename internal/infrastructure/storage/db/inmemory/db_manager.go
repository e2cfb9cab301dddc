package inmemory

import (
	"github.com/tdex-network/descwallet/internal/core/domain"
	"github.com/tdex-network/descwallet/internal/core/ports"
)

type RepoManager struct {
	walletRepository      domain.WalletRepository
	transactionRepository domain.TransactionRepository
}

func NewRepoManager() ports.RepoManager {
	walletRepo := NewWalletRepositoryImpl()
	txRepo := NewTransactionRepositoryImpl()

	return &RepoManager{
		walletRepository:      walletRepo,
		transactionRepository: txRepo,
	}
}

func (d *RepoManager) WalletRepository() domain.WalletRepository {
	return d.walletRepository
}

func (d *RepoManager) TransactionRepository() domain.TransactionRepository {
	return d.transactionRepository
}

func (d *RepoManager) Close() {}

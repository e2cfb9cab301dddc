package ports

import (
	"github.com/tdex-network/descwallet/internal/core/domain"
)

// RepoManager interface defines the methods for accessing wallet and
// transaction repositories.
type RepoManager interface {
	WalletRepository() domain.WalletRepository
	TransactionRepository() domain.TransactionRepository

	Close()
}

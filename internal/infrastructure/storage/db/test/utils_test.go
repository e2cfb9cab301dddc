package db_test

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/descwallet/internal/core/domain"
	"github.com/tdex-network/descwallet/internal/core/ports"
	dbbadger "github.com/tdex-network/descwallet/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/descwallet/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/tdex-network/descwallet/internal/infrastructure/storage/db/pg"
	"github.com/tdex-network/descwallet/pkg/descriptor"
)

const (
	pgDsnEnvVar        = "DESCWALLET_PG_TEST_DSN"
	migrationSourceURL = "file://../pg/migration"
	testDescriptor     = "wpkh([34b00776/84h/1h/0h]tpubDD9A9r18sJyyMPGaEMp1LMkv4cy43Kmb7kuP6kcdrMmuDvj7oxLrMe8Bk6pCvPihgddJmJ8GU3WLPgCCYXu2HZ2JAgMH5dbP1zvZm7QzcPt/0/*)"
)

type repoManager struct {
	Name string
	ports.RepoManager
}

func createRepoManagers(t *testing.T) []repoManager {
	badgerRepoManager, err := dbbadger.NewRepoManager(t.TempDir(), nil)
	require.NoError(t, err)
	badgerInMemoryRepoManager, err := dbbadger.NewRepoManager("", nil)
	require.NoError(t, err)

	repoManagers := []repoManager{
		{"inmemory", inmemory.NewRepoManager()},
		{"badger", badgerRepoManager},
		{"badger_inmemory", badgerInMemoryRepoManager},
	}

	if dsn := os.Getenv(pgDsnEnvVar); len(dsn) > 0 {
		pgRepoManager, err := postgresdb.NewRepoManager(postgresdb.DbConfig{
			DataSourceURL:      dsn,
			MigrationSourceURL: migrationSourceURL,
		})
		require.NoError(t, err)
		repoManagers = append(repoManagers, repoManager{"postgres", pgRepoManager})
	}

	t.Cleanup(func() {
		for _, r := range repoManagers {
			r.Close()
		}
	})
	return repoManagers
}

func makeRandomWallet(t *testing.T) *domain.Wallet {
	wallet, err := domain.NewWallet(
		randomHex(8), testDescriptor, "", "testnet",
	)
	require.NoError(t, err)
	return wallet
}

func makeRandomAddresses(
	keychain descriptor.Keychain, from, num uint32,
) []domain.Address {
	addresses := make([]domain.Address, 0, num)
	for i := from; i < from+num; i++ {
		addresses = append(addresses, domain.Address{
			Keychain: keychain,
			Index:    i,
			Address:  fmt.Sprintf("tb1q%s", randomHex(20)),
			Script:   fmt.Sprintf("0014%s", randomHex(20)),
		})
	}
	return addresses
}

func makeRandomTransactions(
	t *testing.T, walletID string, num int,
) []domain.Transaction {
	txs := make([]domain.Transaction, 0, num)
	for i := 0; i < num; i++ {
		tx, err := domain.NewTransaction(
			walletID, randomHex(32), int64(i+1), fmt.Sprintf("0014%s", randomHex(20)),
		)
		require.NoError(t, err)
		txs = append(txs, *tx)
	}
	return txs
}

func randomHex(len int) string {
	return hex.EncodeToString(randomBytes(len))
}

func randomBytes(len int) []byte {
	b := make([]byte, len)
	//nolint
	rand.Read(b)
	return b
}

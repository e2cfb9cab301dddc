package dbbadger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/tdex-network/descwallet/internal/core/domain"
	"github.com/tdex-network/descwallet/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

const (
	walletsDir      = "wallets"
	transactionsDir = "transactions"
)

type repoManager struct {
	walletStore *badgerhold.Store
	txStore     *badgerhold.Store

	walletRepository      domain.WalletRepository
	transactionRepository domain.TransactionRepository
}

// NewRepoManager opens (or creates if not exists) the badger stores on disk.
// It expects a base data dir and an optional logger. An empty data dir makes
// the stores live in memory.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var walletDbDir, txDbDir string
	if len(baseDbDir) > 0 {
		walletDbDir = filepath.Join(baseDbDir, walletsDir)
		txDbDir = filepath.Join(baseDbDir, transactionsDir)
	}

	walletDb, err := createDb(walletDbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening wallet db: %w", err)
	}

	txDb, err := createDb(txDbDir, logger)
	if err != nil {
		walletDb.Close()
		return nil, fmt.Errorf("opening transaction db: %w", err)
	}

	return &repoManager{
		walletStore:           walletDb,
		txStore:               txDb,
		walletRepository:      NewWalletRepositoryImpl(walletDb),
		transactionRepository: NewTransactionRepositoryImpl(txDb),
	}, nil
}

func (d *repoManager) WalletRepository() domain.WalletRepository {
	return d.walletRepository
}

func (d *repoManager) TransactionRepository() domain.TransactionRepository {
	return d.transactionRepository
}

func (d *repoManager) Close() {
	d.walletStore.Close()
	d.txStore.Close()
}

// JSONEncode is a custom JSON based encoder for badger
func JSONEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer

	en := json.NewEncoder(&buff)

	err := en.Encode(value)
	if err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

// JSONDecode is a custom JSON based decoder for badger
func JSONDecode(data []byte, value interface{}) error {
	return json.NewDecoder(bytes.NewReader(data)).Decode(value)
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}

package application

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/descwallet/internal/core/ports"
	"github.com/tdex-network/descwallet/internal/infrastructure/blockchain/electrum"
	"github.com/tdex-network/descwallet/internal/infrastructure/blockchain/esplora"
	dbbadger "github.com/tdex-network/descwallet/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/descwallet/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/tdex-network/descwallet/internal/infrastructure/storage/db/pg"
)

const (
	DBInMemory = "inmemory"
	DBBadger   = "badger"
	DBPostgres = "postgres"

	BlockchainElectrum = "electrum"
	BlockchainEsplora  = "esplora"
)

var (
	SupportedDBType = map[string]struct{}{
		DBInMemory: {},
		DBBadger:   {},
		DBPostgres: {},
	}
	SupportedBlockchainType = map[string]struct{}{
		BlockchainElectrum: {},
		BlockchainEsplora:  {},
	}
)

// ElectrumConfig selects an Electrum server as blockchain service.
type ElectrumConfig struct {
	// tcp://host:port or ssl://host:port
	URL string
	// Optional host:port of a SOCKS5 proxy.
	Socks5 *string
	Retry  uint8
	// Optional request timeout in seconds.
	Timeout        *uint8
	StopGap        uint64
	ValidateDomain bool
}

// EsploraConfig selects an Esplora REST API as blockchain service.
type EsploraConfig struct {
	BaseURL string
	// Optional http(s) or socks5 proxy URL.
	Proxy *string
	// Optional max number of requests in flight.
	Concurrency *uint8
	// Optional request timeout in seconds.
	Timeout           *uint64
	StopGap           uint64
	Retry             uint8
	RequestsPerSecond int
}

// MemoryConfig selects the in-memory repositories.
type MemoryConfig struct{}

// BadgerConfig selects the badger repositories. An empty datadir makes
// badger run in memory.
type BadgerConfig struct {
	Datadir string
}

// PostgresConfig selects the postgres repositories.
type PostgresConfig struct {
	DSN                string
	MigrationSourceURL string
}

// Config wires the application services. DBConfig is one of MemoryConfig,
// BadgerConfig or PostgresConfig. BlockchainConfig is either an
// ElectrumConfig or an EsploraConfig, or nil to run the wallet offline.
type Config struct {
	Descriptor       string
	ChangeDescriptor string
	Network          string
	DBConfig         interface{}
	BlockchainConfig interface{}

	repo       ports.RepoManager
	blockchain ports.BlockchainService
	wallet     WalletService
}

func (c *Config) Validate() error {
	if _, err := c.repoManager(); err != nil {
		return err
	}
	if _, err := c.blockchainService(); err != nil {
		return err
	}
	if _, err := c.walletService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RepoManager() ports.RepoManager {
	svc, _ := c.repoManager()
	return svc
}

func (c *Config) BlockchainService() ports.BlockchainService {
	svc, _ := c.blockchainService()
	return svc
}

func (c *Config) WalletService() WalletService {
	svc, _ := c.walletService()
	return svc
}

// Close releases the connections to the db and to the blockchain service.
func (c *Config) Close() {
	if c.blockchain != nil {
		c.blockchain.Close()
	}
	if c.repo != nil {
		c.repo.Close()
	}
}

func (c *Config) stopGap() uint64 {
	switch cfg := c.BlockchainConfig.(type) {
	case ElectrumConfig:
		return cfg.StopGap
	case EsploraConfig:
		return cfg.StopGap
	default:
		return 0
	}
}

func (c *Config) repoManager() (ports.RepoManager, error) {
	if c.repo == nil {
		switch cfg := c.DBConfig.(type) {
		case MemoryConfig:
			c.repo = inmemory.NewRepoManager()
		case BadgerConfig:
			repoManager, err := dbbadger.NewRepoManager(cfg.Datadir, log.New())
			if err != nil {
				return nil, err
			}
			c.repo = repoManager
		case PostgresConfig:
			repoManager, err := postgresdb.NewRepoManager(postgresdb.DbConfig{
				DataSourceURL:      cfg.DSN,
				MigrationSourceURL: cfg.MigrationSourceURL,
			})
			if err != nil {
				return nil, err
			}
			c.repo = repoManager
		default:
			return nil, fmt.Errorf("%w: %T", ErrUnknownDatabaseConfig, c.DBConfig)
		}
	}
	return c.repo, nil
}

func (c *Config) blockchainService() (ports.BlockchainService, error) {
	if c.blockchain == nil {
		switch cfg := c.BlockchainConfig.(type) {
		case nil:
			return nil, nil
		case ElectrumConfig:
			args := electrum.ServiceArgs{
				URL:            cfg.URL,
				Retry:          cfg.Retry,
				ValidateDomain: cfg.ValidateDomain,
			}
			if cfg.Socks5 != nil {
				args.Socks5 = *cfg.Socks5
			}
			if cfg.Timeout != nil {
				args.Timeout = time.Duration(*cfg.Timeout) * time.Second
			}
			svc, err := electrum.NewService(args)
			if err != nil {
				return nil, err
			}
			c.blockchain = svc
		case EsploraConfig:
			args := esplora.ServiceArgs{
				BaseURL:           cfg.BaseURL,
				RequestsPerSecond: cfg.RequestsPerSecond,
				Retry:             cfg.Retry,
			}
			if cfg.Proxy != nil {
				args.Proxy = *cfg.Proxy
			}
			if cfg.Concurrency != nil {
				args.Concurrency = *cfg.Concurrency
			}
			if cfg.Timeout != nil {
				args.Timeout = time.Duration(*cfg.Timeout) * time.Second
			}
			svc, err := esplora.NewService(args)
			if err != nil {
				return nil, err
			}
			c.blockchain = svc
		default:
			return nil, fmt.Errorf(
				"%w: %T", ErrUnknownBlockchainConfig, c.BlockchainConfig,
			)
		}
	}
	return c.blockchain, nil
}

func (c *Config) walletService() (WalletService, error) {
	if c.wallet == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		blockchain, err := c.blockchainService()
		if err != nil {
			return nil, err
		}
		wallet, err := NewWalletService(WalletServiceArgs{
			Descriptor:       c.Descriptor,
			ChangeDescriptor: c.ChangeDescriptor,
			Network:          c.Network,
			StopGap:          c.stopGap(),
			RepoManager:      repo,
			Blockchain:       blockchain,
		})
		if err != nil {
			return nil, err
		}
		c.wallet = wallet
	}
	return c.wallet, nil
}

package postgresdb

import (
	"context"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/descwallet/internal/core/domain"
	"github.com/tdex-network/descwallet/internal/core/ports"
)

const (
	postgresDriver = "pgx"
)

type execTxFunc func(ctx context.Context, txBody func(pgx.Tx) error) error

type repoManager struct {
	pgxPool *pgxpool.Pool

	walletRepository      domain.WalletRepository
	transactionRepository domain.TransactionRepository
}

type DbConfig struct {
	DataSourceURL      string
	MigrationSourceURL string
}

func NewRepoManager(dbConfig DbConfig) (ports.RepoManager, error) {
	pgxPool, err := connect(dbConfig.DataSourceURL)
	if err != nil {
		return nil, err
	}

	if err = migrateDb(
		dbConfig.DataSourceURL, dbConfig.MigrationSourceURL,
	); err != nil {
		pgxPool.Close()
		return nil, err
	}

	rm := &repoManager{
		pgxPool: pgxPool,
	}

	rm.walletRepository = NewWalletRepositoryImpl(pgxPool, rm.execTx)
	rm.transactionRepository = NewTransactionRepositoryImpl(pgxPool, rm.execTx)

	return rm, nil
}

func (r *repoManager) WalletRepository() domain.WalletRepository {
	return r.walletRepository
}

func (r *repoManager) TransactionRepository() domain.TransactionRepository {
	return r.transactionRepository
}

func (r *repoManager) Close() {
	r.pgxPool.Close()
}

func (r *repoManager) execTx(
	ctx context.Context,
	txBody func(pgx.Tx) error,
) error {
	conn, err := r.pgxPool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	// Rollback is safe to call even if the tx is already closed, so if
	// the tx commits successfully, this is a no-op.
	defer func() {
		err := tx.Rollback(ctx)
		switch {
		// If the tx was already closed (it was successfully executed)
		// we do not need to log that error.
		case errors.Is(err, pgx.ErrTxClosed):
			return

		// If this is an unexpected error, log it.
		case err != nil:
			log.Errorf("unable to rollback db tx: %v", err)
		}
	}()

	if err := txBody(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func connect(dataSource string) (*pgxpool.Pool, error) {
	return pgxpool.Connect(context.Background(), dataSource)
}

func migrateDb(dataSource, migrationSourceUrl string) error {
	pg := postgres.Postgres{}

	d, err := pg.Open(dataSource)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationSourceUrl,
		postgresDriver,
		d,
	)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

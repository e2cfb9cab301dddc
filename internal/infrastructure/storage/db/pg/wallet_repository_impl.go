package postgresdb

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/tdex-network/descwallet/internal/core/domain"
	"github.com/tdex-network/descwallet/pkg/descriptor"
)

const (
	insertWalletQuery = `INSERT INTO wallet (
		id, external_descriptor, internal_descriptor, network,
		next_external_index, next_internal_index, last_synced_height, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING`
	selectWalletQuery = `SELECT
		id, external_descriptor, internal_descriptor, network,
		next_external_index, next_internal_index, last_synced_height, created_at
	FROM wallet WHERE id = $1`
	selectWalletForUpdateQuery = selectWalletQuery + ` FOR UPDATE`
	selectWalletsQuery         = `SELECT
		id, external_descriptor, internal_descriptor, network,
		next_external_index, next_internal_index, last_synced_height, created_at
	FROM wallet ORDER BY created_at, id`
	updateWalletQuery = `UPDATE wallet SET
		next_external_index = $2, next_internal_index = $3,
		last_synced_height = $4
	WHERE id = $1`
	insertAddressQuery = `INSERT INTO wallet_address (
		wallet_id, keychain, derivation_index, address, script
	) VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`
	selectAddressesQuery = `SELECT keychain, derivation_index, address, script
	FROM wallet_address WHERE wallet_id = $1
	ORDER BY keychain, derivation_index`
)

type walletRepositoryImpl struct {
	pool   *pgxpool.Pool
	execTx execTxFunc
}

func NewWalletRepositoryImpl(
	pool *pgxpool.Pool, execTx execTxFunc,
) domain.WalletRepository {
	return &walletRepositoryImpl{pool, execTx}
}

func (r *walletRepositoryImpl) AddWallet(
	ctx context.Context, wallet *domain.Wallet,
) error {
	txBody := func(tx pgx.Tx) error {
		res, err := tx.Exec(
			ctx, insertWalletQuery,
			wallet.ID, wallet.ExternalDescriptor, wallet.InternalDescriptor,
			wallet.Network, int64(wallet.NextExternalIndex),
			int64(wallet.NextInternalIndex), int64(wallet.LastSyncedHeight),
			wallet.CreatedAt,
		)
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			return domain.ErrWalletAlreadyExists
		}
		return insertAddresses(ctx, tx, wallet.ID, wallet.Addresses)
	}

	return r.execTx(ctx, txBody)
}

func (r *walletRepositoryImpl) GetWallet(
	ctx context.Context, walletID string,
) (*domain.Wallet, error) {
	var wallet *domain.Wallet
	txBody := func(tx pgx.Tx) error {
		w, err := getWallet(ctx, tx, selectWalletQuery, walletID)
		if err != nil {
			return err
		}
		wallet = w
		return nil
	}

	if err := r.execTx(ctx, txBody); err != nil {
		return nil, err
	}
	return wallet, nil
}

func (r *walletRepositoryImpl) UpdateWallet(
	ctx context.Context,
	walletID string,
	updateFn func(w *domain.Wallet) (*domain.Wallet, error),
) error {
	txBody := func(tx pgx.Tx) error {
		wallet, err := getWallet(ctx, tx, selectWalletForUpdateQuery, walletID)
		if err != nil {
			return err
		}

		updatedWallet, err := updateFn(wallet)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(
			ctx, updateWalletQuery, walletID,
			int64(updatedWallet.NextExternalIndex),
			int64(updatedWallet.NextInternalIndex),
			int64(updatedWallet.LastSyncedHeight),
		); err != nil {
			return err
		}
		return insertAddresses(ctx, tx, walletID, updatedWallet.Addresses)
	}

	return r.execTx(ctx, txBody)
}

func (r *walletRepositoryImpl) ListWallets(
	ctx context.Context,
) ([]domain.Wallet, error) {
	wallets := make([]domain.Wallet, 0)
	txBody := func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectWalletsQuery)
		if err != nil {
			return err
		}
		for rows.Next() {
			w, err := scanWallet(rows)
			if err != nil {
				rows.Close()
				return err
			}
			wallets = append(wallets, *w)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for i := range wallets {
			addresses, err := getAddresses(ctx, tx, wallets[i].ID)
			if err != nil {
				return err
			}
			wallets[i].Addresses = addresses
		}
		return nil
	}

	if err := r.execTx(ctx, txBody); err != nil {
		return nil, err
	}
	return wallets, nil
}

func getWallet(
	ctx context.Context, tx pgx.Tx, query, walletID string,
) (*domain.Wallet, error) {
	wallet, err := scanWallet(tx.QueryRow(ctx, query, walletID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}

	addresses, err := getAddresses(ctx, tx, walletID)
	if err != nil {
		return nil, err
	}
	wallet.Addresses = addresses
	return wallet, nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	var nextExternal, nextInternal, lastSync int64
	if err := row.Scan(
		&w.ID, &w.ExternalDescriptor, &w.InternalDescriptor, &w.Network,
		&nextExternal, &nextInternal, &lastSync, &w.CreatedAt,
	); err != nil {
		return nil, err
	}
	w.NextExternalIndex = uint32(nextExternal)
	w.NextInternalIndex = uint32(nextInternal)
	w.LastSyncedHeight = uint32(lastSync)
	return &w, nil
}

func getAddresses(
	ctx context.Context, tx pgx.Tx, walletID string,
) ([]domain.Address, error) {
	rows, err := tx.Query(ctx, selectAddressesQuery, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	addresses := make([]domain.Address, 0)
	for rows.Next() {
		var (
			keychain int16
			index    int64
			addr     domain.Address
		)
		if err := rows.Scan(
			&keychain, &index, &addr.Address, &addr.Script,
		); err != nil {
			return nil, err
		}
		addr.Keychain = descriptor.Keychain(keychain)
		addr.Index = uint32(index)
		addresses = append(addresses, addr)
	}
	return addresses, rows.Err()
}

func insertAddresses(
	ctx context.Context, tx pgx.Tx, walletID string, addresses []domain.Address,
) error {
	if len(addresses) <= 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, addr := range addresses {
		batch.Queue(
			insertAddressQuery, walletID, int16(addr.Keychain),
			int64(addr.Index), addr.Address, addr.Script,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range addresses {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	return br.Close()
}

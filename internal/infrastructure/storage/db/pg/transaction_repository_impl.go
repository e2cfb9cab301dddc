package postgresdb

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/tdex-network/descwallet/internal/core/domain"
)

const (
	selectTransactionQuery = `SELECT wallet_id, tx_id, height, scripts, updated_at
	FROM wallet_transaction WHERE wallet_id = $1 AND tx_id = $2`
	selectTransactionForUpdateQuery = selectTransactionQuery + ` FOR UPDATE`
	selectTransactionsQuery         = `SELECT wallet_id, tx_id, height, scripts, updated_at
	FROM wallet_transaction WHERE wallet_id = $1`
	insertTransactionQuery = `INSERT INTO wallet_transaction (
		wallet_id, tx_id, height, scripts, updated_at
	) VALUES ($1, $2, $3, $4, $5)`
	updateTransactionQuery = `UPDATE wallet_transaction
	SET height = $3, scripts = $4, updated_at = $5
	WHERE wallet_id = $1 AND tx_id = $2`
)

type transactionRepositoryImpl struct {
	pool   *pgxpool.Pool
	execTx execTxFunc
}

func NewTransactionRepositoryImpl(
	pool *pgxpool.Pool, execTx execTxFunc,
) domain.TransactionRepository {
	return &transactionRepositoryImpl{pool, execTx}
}

func (r *transactionRepositoryImpl) AddTransactions(
	ctx context.Context, txs ...domain.Transaction,
) (int, error) {
	count := 0
	txBody := func(tx pgx.Tx) error {
		count = 0
		for _, t := range txs {
			prevTx, err := scanTransaction(tx.QueryRow(
				ctx, selectTransactionForUpdateQuery, t.WalletID, t.TxID,
			))
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return err
			}

			if err == nil {
				prevTx.Merge(t)
				if _, err := tx.Exec(
					ctx, updateTransactionQuery, prevTx.WalletID, prevTx.TxID,
					prevTx.Height, prevTx.Scripts, prevTx.UpdatedAt,
				); err != nil {
					return err
				}
				continue
			}

			if _, err := tx.Exec(
				ctx, insertTransactionQuery, t.WalletID, t.TxID,
				t.Height, t.Scripts, t.UpdatedAt,
			); err != nil {
				return err
			}
			count++
		}
		return nil
	}

	if err := r.execTx(ctx, txBody); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *transactionRepositoryImpl) GetTransaction(
	ctx context.Context, walletID, txid string,
) (*domain.Transaction, error) {
	tx, err := scanTransaction(
		r.pool.QueryRow(ctx, selectTransactionQuery, walletID, txid),
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

func (r *transactionRepositoryImpl) ListTransactions(
	ctx context.Context, walletID string,
) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, selectTransactionsQuery, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	domain.SortTransactions(txs)
	return txs, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := row.Scan(
		&tx.WalletID, &tx.TxID, &tx.Height, &tx.Scripts, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tx, nil
}

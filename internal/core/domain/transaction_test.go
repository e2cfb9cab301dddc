package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/descwallet/internal/core/domain"
)

func TestNewTransaction(t *testing.T) {
	t.Parallel()

	txid := strings.Repeat("a", 64)
	tx, err := domain.NewTransaction(walletID, txid, 0, "s1", "s2", "s1")
	require.NoError(t, err)
	require.Equal(t, []string{"s1", "s2"}, tx.Scripts)
	require.False(t, tx.IsConfirmed())

	tx.Merge(domain.Transaction{Height: 10, Scripts: []string{"s2", "s3"}})
	require.True(t, tx.IsConfirmed())
	require.Equal(t, []string{"s1", "s2", "s3"}, tx.Scripts)

	_, err = domain.NewTransaction("", txid, 0)
	require.ErrorIs(t, err, domain.ErrWalletMissingID)

	_, err = domain.NewTransaction(walletID, "abcd", 0)
	require.ErrorIs(t, err, domain.ErrTransactionInvalidTxID)
}

func TestSortTransactions(t *testing.T) {
	t.Parallel()

	txs := []domain.Transaction{
		{TxID: "c", Height: 5},
		{TxID: "b", Height: 0},
		{TxID: "a", Height: 10},
		{TxID: "d", Height: 5},
		{TxID: "a", Height: -1},
	}
	domain.SortTransactions(txs)

	got := make([]string, 0, len(txs))
	for _, tx := range txs {
		got = append(got, tx.TxID)
	}
	require.Equal(t, []string{"a", "b", "a", "c", "d"}, got)
}

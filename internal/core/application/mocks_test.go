package application_test

import (
	"context"
	"encoding/hex"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/descwallet/internal/core/ports"
)

// **** Blockchain ****

// mockBlockchain matches scripts by their hex encoding.
type mockBlockchain struct {
	mock.Mock
}

func (m *mockBlockchain) GetHistory(
	_ context.Context, script []byte,
) ([]ports.TxHistory, error) {
	args := m.Called(hex.EncodeToString(script))

	var res []ports.TxHistory
	if a := args.Get(0); a != nil {
		res = a.([]ports.TxHistory)
	}
	return res, args.Error(1)
}

func (m *mockBlockchain) GetBalance(
	_ context.Context, script []byte,
) (ports.Balance, error) {
	args := m.Called(hex.EncodeToString(script))

	var res ports.Balance
	if a := args.Get(0); a != nil {
		res = a.(ports.Balance)
	}
	return res, args.Error(1)
}

func (m *mockBlockchain) BroadcastTransaction(
	_ context.Context, txHex string,
) (string, error) {
	args := m.Called(txHex)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockBlockchain) GetBlockHeight(_ context.Context) (uint32, error) {
	args := m.Called()

	var res uint32
	if a := args.Get(0); a != nil {
		res = a.(uint32)
	}
	return res, args.Error(1)
}

func (m *mockBlockchain) Close() {}

// **** Types ****

type mockBalance struct {
	confirmed   uint64
	unconfirmed int64
}

func (b mockBalance) GetConfirmedBalance() uint64 {
	return b.confirmed
}

func (b mockBalance) GetUnconfirmedBalance() int64 {
	return b.unconfirmed
}

func (b mockBalance) GetTotalBalance() int64 {
	return int64(b.confirmed) + b.unconfirmed
}

type mockTxHistory struct {
	txid   string
	height int64
}

func (h mockTxHistory) GetTxid() string {
	return h.txid
}

func (h mockTxHistory) GetHeight() int64 {
	return h.height
}

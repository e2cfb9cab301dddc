package esplora_test

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/descwallet/internal/infrastructure/blockchain/esplora"
	"github.com/tdex-network/descwallet/pkg/script"
)

const (
	scriptHex  = "0014b6d9654fad407fb6d3c25fda79a4ec510d616dac"
	tipHeight  = 2500000
	rejectedTx = "00"
)

var ctx = context.Background()

type fakeEsplora struct {
	scriptHash  string
	numRequests int32
	numFailures int32
}

func (f *fakeEsplora) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := atomic.AddInt32(&f.numRequests, 1)
	if n <= atomic.LoadInt32(&f.numFailures) {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	path := r.URL.Path
	switch {
	case path == "/blocks/tip/height":
		fmt.Fprintf(w, "%d", tipHeight)
	case path == "/tx" && r.Method == http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		if string(body) == rejectedTx {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "sendrawtransaction RPC error: TX decode failed")
			return
		}
		fmt.Fprint(w, strings.Repeat("ab", 32))
	case path == fmt.Sprintf("/scripthash/%s/txs", f.scriptHash):
		txs := []map[string]interface{}{makeTx("mempool", false, 0)}
		for i := 0; i < 25; i++ {
			txs = append(txs, makeTx(fmt.Sprintf("c%d", i), true, int64(tipHeight-i)))
		}
		//nolint
		json.NewEncoder(w).Encode(txs)
	case path == fmt.Sprintf("/scripthash/%s/txs/chain/%s", f.scriptHash, "c24"):
		txs := []map[string]interface{}{}
		for i := 25; i < 28; i++ {
			txs = append(txs, makeTx(fmt.Sprintf("c%d", i), true, int64(tipHeight-i)))
		}
		//nolint
		json.NewEncoder(w).Encode(txs)
	case path == fmt.Sprintf("/scripthash/%s", f.scriptHash):
		fmt.Fprint(w, `{
			"chain_stats": {"funded_txo_sum": 150000, "spent_txo_sum": 50000},
			"mempool_stats": {"funded_txo_sum": 1000, "spent_txo_sum": 21000}
		}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "not found")
	}
}

func makeTx(txid string, confirmed bool, height int64) map[string]interface{} {
	status := map[string]interface{}{"confirmed": confirmed}
	if confirmed {
		status["block_height"] = height
	}
	return map[string]interface{}{"txid": txid, "status": status}
}

func newTestService(t *testing.T, numFailures int32) (*fakeEsplora, string) {
	s, err := hex.DecodeString(scriptHex)
	require.NoError(t, err)

	fake := &fakeEsplora{
		scriptHash:  script.OutputScript(s).ScriptHash(),
		numFailures: numFailures,
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, srv.URL
}

func TestService(t *testing.T) {
	_, url := newTestService(t, 0)

	svc, err := esplora.NewService(esplora.ServiceArgs{BaseURL: url})
	require.NoError(t, err)
	defer svc.Close()

	s, _ := hex.DecodeString(scriptHex)

	t.Run("get_block_height", func(t *testing.T) {
		height, err := svc.GetBlockHeight(ctx)
		require.NoError(t, err)
		require.Equal(t, uint32(tipHeight), height)
	})

	t.Run("get_history", func(t *testing.T) {
		history, err := svc.GetHistory(ctx, s)
		require.NoError(t, err)
		require.Len(t, history, 29)
		require.Equal(t, "mempool", history[0].GetTxid())
		require.Zero(t, history[0].GetHeight())
		require.Equal(t, "c27", history[28].GetTxid())
		require.Equal(t, int64(tipHeight-27), history[28].GetHeight())
	})

	t.Run("get_balance", func(t *testing.T) {
		balance, err := svc.GetBalance(ctx, s)
		require.NoError(t, err)
		require.Equal(t, uint64(100000), balance.GetConfirmedBalance())
		require.Equal(t, int64(-20000), balance.GetUnconfirmedBalance())
		require.Equal(t, int64(80000), balance.GetTotalBalance())
	})

	t.Run("broadcast", func(t *testing.T) {
		txid, err := svc.BroadcastTransaction(ctx, "0200")
		require.NoError(t, err)
		require.Equal(t, strings.Repeat("ab", 32), txid)

		txid, err = svc.BroadcastTransaction(ctx, rejectedTx)
		require.ErrorIs(t, err, esplora.ErrBroadcastRejected)
		require.Empty(t, txid)
	})
}

func TestServiceRetry(t *testing.T) {
	fake, url := newTestService(t, 2)

	svc, err := esplora.NewService(esplora.ServiceArgs{BaseURL: url, Retry: 2})
	require.NoError(t, err)
	defer svc.Close()
	require.Equal(t, int32(3), atomic.LoadInt32(&fake.numRequests))

	_, url = newTestService(t, 2)
	_, err = esplora.NewService(esplora.ServiceArgs{BaseURL: url, Retry: 1})
	require.Error(t, err)
}

func TestNewServiceInvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args esplora.ServiceArgs
	}{
		{"missing_url", esplora.ServiceArgs{}},
		{"invalid_scheme", esplora.ServiceArgs{BaseURL: "tcp://localhost:3000"}},
		{"invalid_proxy", esplora.ServiceArgs{
			BaseURL: "http://localhost:3000", Proxy: "ftp://localhost:21",
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc, err := esplora.NewService(tt.args)
			require.Error(t, err)
			require.Nil(t, svc)
		})
	}
}

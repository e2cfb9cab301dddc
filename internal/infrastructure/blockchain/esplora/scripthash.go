package esplora

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tdex-network/descwallet/internal/core/ports"
	"github.com/tdex-network/descwallet/pkg/script"
)

// Max number of confirmed txs returned by a single page.
const confirmedTxsPageSize = 25

func (e *esplora) GetHistory(
	ctx context.Context, outputScript []byte,
) ([]ports.TxHistory, error) {
	scriptHash := script.OutputScript(outputScript).ScriptHash()

	resp, err := e.request(
		ctx, http.MethodGet, fmt.Sprintf("/scripthash/%s/txs", scriptHash), "",
	)
	if err != nil {
		return nil, err
	}
	txs, err := parseTxs(resp)
	if err != nil {
		return nil, err
	}

	history := make([]ports.TxHistory, 0, len(txs))
	numConfirmed := 0
	lastConfirmed := ""
	for _, t := range txs {
		history = append(history, t)
		if t.Status.Confirmed {
			numConfirmed++
			lastConfirmed = t.TxID
		}
	}

	for numConfirmed >= confirmedTxsPageSize {
		path := fmt.Sprintf(
			"/scripthash/%s/txs/chain/%s", scriptHash, lastConfirmed,
		)
		resp, err := e.request(ctx, http.MethodGet, path, "")
		if err != nil {
			return nil, err
		}
		txs, err := parseTxs(resp)
		if err != nil {
			return nil, err
		}

		numConfirmed = len(txs)
		for _, t := range txs {
			history = append(history, t)
			lastConfirmed = t.TxID
		}
	}

	return history, nil
}

func (e *esplora) GetBalance(
	ctx context.Context, outputScript []byte,
) (ports.Balance, error) {
	scriptHash := script.OutputScript(outputScript).ScriptHash()

	resp, err := e.request(
		ctx, http.MethodGet, fmt.Sprintf("/scripthash/%s", scriptHash), "",
	)
	if err != nil {
		return nil, err
	}

	stats := scriptHashStats{}
	if err := json.Unmarshal([]byte(resp), &stats); err != nil {
		return nil, fmt.Errorf("invalid scripthash stats: %w", err)
	}

	confirmed := stats.ChainStats.FundedTxoSum - stats.ChainStats.SpentTxoSum
	if confirmed < 0 {
		confirmed = 0
	}
	unconfirmed := stats.MempoolStats.FundedTxoSum - stats.MempoolStats.SpentTxoSum

	return balance{uint64(confirmed), unconfirmed}, nil
}

func parseTxs(resp string) ([]tx, error) {
	txs := make([]tx, 0)
	if err := json.Unmarshal([]byte(resp), &txs); err != nil {
		return nil, fmt.Errorf("invalid txs JSON: %w", err)
	}
	return txs, nil
}

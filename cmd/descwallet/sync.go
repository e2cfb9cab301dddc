package main

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/descwallet/internal/config"
	"github.com/tdex-network/descwallet/internal/core/application"
	"github.com/tdex-network/descwallet/pkg/stats"
	"github.com/urfave/cli/v2"
)

const satsPrecision = 8

var (
	sync = cli.Command{
		Name:   "sync",
		Usage:  "scan the blockchain for used addresses and cache the wallet history",
		Action: syncAction,
	}
	balance = cli.Command{
		Name:   "balance",
		Usage:  "get the balance of all revealed addresses",
		Action: balanceAction,
	}
	transactions = cli.Command{
		Name:   "transactions",
		Usage:  "list the cached transactions of the wallet, most recent first",
		Action: transactionsAction,
	}
)

type balanceResponse struct {
	Confirmed   string `json:"confirmed"`
	Unconfirmed string `json:"unconfirmed"`
	Total       string `json:"total"`
}

func newBalanceResponse(b application.BalanceInfo) balanceResponse {
	return balanceResponse{
		Confirmed:   satsToBTC(int64(b.ConfirmedBalance)),
		Unconfirmed: satsToBTC(b.UnconfirmedBalance),
		Total:       satsToBTC(b.TotalBalance()),
	}
}

func satsToBTC(sats int64) string {
	return decimal.New(sats, -satsPrecision).StringFixed(satsPrecision)
}

func syncAction(ctx *cli.Context) error {
	walletSvc, cleanup, err := getWalletService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if config.GetBool(config.EnableStatsKey) {
		statsCtx, cancel := context.WithCancel(ctx.Context)
		defer cancel()
		interval := time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
		stats.EnableMemoryStatistics(statsCtx, interval)
	}

	result, err := walletSvc.Sync(ctx.Context)
	if err != nil {
		return err
	}

	resp := map[string]interface{}{
		"block_height": result.BlockHeight,
		"balance":      newBalanceResponse(result.Balance),
		"num_txs":      result.NumTxs,
		"num_new_txs":  result.NumNewTxs,
	}
	if result.LastUsedExternal != nil {
		resp["last_used_external"] = *result.LastUsedExternal
	}
	if result.LastUsedInternal != nil {
		resp["last_used_internal"] = *result.LastUsedInternal
	}
	printJSON(resp)
	return nil
}

func balanceAction(ctx *cli.Context) error {
	walletSvc, cleanup, err := getWalletService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	b, err := walletSvc.GetBalance(ctx.Context)
	if err != nil {
		return err
	}

	printJSON(newBalanceResponse(*b))
	return nil
}

func transactionsAction(ctx *cli.Context) error {
	walletSvc, cleanup, err := getWalletService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	txs, err := walletSvc.ListTransactions(ctx.Context)
	if err != nil {
		return err
	}

	resp := make([]map[string]interface{}, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, map[string]interface{}{
			"txid":      tx.TxID,
			"height":    tx.Height,
			"confirmed": tx.IsConfirmed(),
			"scripts":   tx.Scripts,
		})
	}
	printJSON(resp)
	return nil
}

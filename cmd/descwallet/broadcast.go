package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var broadcast = cli.Command{
	Name:      "broadcast",
	Usage:     "publish a signed transaction",
	ArgsUsage: "<tx hex>",
	Action:    broadcastAction,
}

func broadcastAction(ctx *cli.Context) error {
	txHex := ctx.Args().First()
	if len(txHex) <= 0 {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	walletSvc, cleanup, err := getWalletService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	txid, err := walletSvc.Broadcast(ctx.Context, txHex)
	if err != nil {
		return err
	}

	fmt.Println(txid)
	return nil
}

package main

import (
	"github.com/tdex-network/descwallet/internal/core/application"
	"github.com/tdex-network/descwallet/pkg/descriptor"
	"github.com/urfave/cli/v2"
)

var (
	keychainFlag = &cli.StringFlag{
		Name:  "keychain",
		Usage: "either external (receive) or internal (change)",
		Value: descriptor.KeychainExternal.String(),
	}

	getnewaddress = cli.Command{
		Name:   "getnewaddress",
		Usage:  "reveal the next receiving address",
		Action: getNewAddressAction,
	}
	getchangeaddress = cli.Command{
		Name:   "getchangeaddress",
		Usage:  "reveal the next change address",
		Action: getChangeAddressAction,
	}
	peek = cli.Command{
		Name:  "peek",
		Usage: "derive the address at the given index without revealing it",
		Flags: []cli.Flag{
			keychainFlag,
			&cli.UintFlag{
				Name:     "index",
				Usage:    "derivation index",
				Required: true,
			},
		},
		Action: peekAction,
	}
	list = cli.Command{
		Name:   "list",
		Usage:  "list all revealed addresses of a keychain",
		Flags:  []cli.Flag{keychainFlag},
		Action: listAction,
	}
	info = cli.Command{
		Name:   "info",
		Usage:  "get info about the wallet",
		Action: infoAction,
	}
)

type addressResponse struct {
	Keychain       string `json:"keychain"`
	Index          uint32 `json:"index"`
	Address        string `json:"address"`
	Script         string `json:"script"`
	DerivationPath string `json:"derivation_path,omitempty"`
}

func newAddressResponse(addr application.AddressInfo) addressResponse {
	return addressResponse{
		Keychain:       addr.Keychain.String(),
		Index:          addr.Index,
		Address:        addr.Address,
		Script:         addr.Script,
		DerivationPath: addr.DerivationPath,
	}
}

func getNewAddressAction(ctx *cli.Context) error {
	walletSvc, cleanup, err := getWalletService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	addr, err := walletSvc.GetNewAddress(ctx.Context)
	if err != nil {
		return err
	}

	printJSON(newAddressResponse(addr))
	return nil
}

func getChangeAddressAction(ctx *cli.Context) error {
	walletSvc, cleanup, err := getWalletService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	addr, err := walletSvc.GetNewChangeAddress(ctx.Context)
	if err != nil {
		return err
	}

	printJSON(newAddressResponse(addr))
	return nil
}

func peekAction(ctx *cli.Context) error {
	keychain, err := descriptor.ParseKeychain(ctx.String(keychainFlag.Name))
	if err != nil {
		return err
	}

	walletSvc, cleanup, err := getWalletService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	addr, err := walletSvc.PeekAddress(
		ctx.Context, keychain, uint32(ctx.Uint("index")),
	)
	if err != nil {
		return err
	}

	printJSON(newAddressResponse(addr))
	return nil
}

func listAction(ctx *cli.Context) error {
	keychain, err := descriptor.ParseKeychain(ctx.String(keychainFlag.Name))
	if err != nil {
		return err
	}

	walletSvc, cleanup, err := getWalletService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	addresses, err := walletSvc.ListAddresses(ctx.Context, keychain)
	if err != nil {
		return err
	}

	resp := make([]addressResponse, 0, len(addresses))
	for _, addr := range addresses {
		resp = append(resp, newAddressResponse(addr))
	}
	printJSON(resp)
	return nil
}

func infoAction(ctx *cli.Context) error {
	walletSvc, cleanup, err := getWalletService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	walletInfo, err := walletSvc.Info(ctx.Context)
	if err != nil {
		return err
	}

	printJSON(map[string]interface{}{
		"id":                  walletInfo.ID,
		"network":             walletInfo.Network,
		"descriptor":          walletInfo.Descriptor,
		"change_descriptor":   walletInfo.ChangeDescriptor,
		"is_range":            walletInfo.IsRange,
		"next_external_index": walletInfo.NextExternalIndex,
		"next_internal_index": walletInfo.NextInternalIndex,
		"num_addresses":       walletInfo.NumAddresses,
		"last_synced_height":  walletInfo.LastSyncedHeight,
	})
	return nil
}

package main

import (
	"fmt"

	"github.com/tdex-network/descwallet/internal/config"
	"github.com/tdex-network/descwallet/pkg/bip32"
	"github.com/tdex-network/descwallet/pkg/descriptor"
	"github.com/urfave/cli/v2"
)

var generate = cli.Command{
	Name:  "generate",
	Usage: "generate a mnemonic and its standard descriptors",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "mnemonic",
			Usage: "use the given mnemonic instead of generating a new one",
		},
		&cli.StringFlag{
			Name:  "passphrase",
			Usage: "optional BIP-39 passphrase",
		},
		&cli.IntFlag{
			Name:  "entropy",
			Usage: "entropy size in bits of the new mnemonic",
			Value: 128,
		},
		&cli.UintFlag{
			Name:  "purpose",
			Usage: "BIP-43 purpose of the descriptors, one of 44, 49, 84 or 86",
			Value: uint(descriptor.PurposeBip84),
		},
		&cli.BoolFlag{
			Name:  "public",
			Usage: "print the descriptors with the account public key",
		},
	},
	Action: generateAction,
}

type generateResponse struct {
	Mnemonic         string `json:"mnemonic"`
	Descriptor       string `json:"descriptor"`
	ChangeDescriptor string `json:"change_descriptor"`
}

func generateAction(ctx *cli.Context) error {
	mnemonic := ctx.String("mnemonic")
	if len(mnemonic) <= 0 {
		var err error
		mnemonic, err = bip32.NewMnemonic(ctx.Int("entropy"))
		if err != nil {
			return err
		}
	}

	net := config.GetNetwork()
	master, err := bip32.NewMasterFromMnemonic(
		mnemonic, ctx.String("passphrase"), net,
	)
	if err != nil {
		return err
	}

	purpose := descriptor.Purpose(ctx.Uint("purpose"))
	descriptors := make([]string, 0, 2)
	for _, keychain := range []descriptor.Keychain{
		descriptor.KeychainExternal, descriptor.KeychainInternal,
	} {
		desc, err := makeTemplate(purpose, master, keychain, ctx.Bool("public"))
		if err != nil {
			return err
		}
		descriptors = append(descriptors, desc)
	}

	printJSON(generateResponse{
		Mnemonic:         mnemonic,
		Descriptor:       descriptors[0],
		ChangeDescriptor: descriptors[1],
	})
	return nil
}

func makeTemplate(
	purpose descriptor.Purpose, master bip32.ExtendedKey,
	keychain descriptor.Keychain, public bool,
) (string, error) {
	net := config.GetNetwork()
	if !public {
		desc, err := descriptor.NewTemplate(purpose, master, keychain, net)
		if err != nil {
			return "", err
		}
		return desc.StringWithChecksum(), nil
	}

	accountKey, err := master.DerivePath(bip32.DerivationPath{
		bip32.Hardened(uint32(purpose)),
		bip32.Hardened(net.CoinType()),
		bip32.Hardened(0),
	})
	if err != nil {
		return "", err
	}
	desc, err := descriptor.NewPublicTemplate(
		purpose, accountKey, master.Fingerprint(), keychain, net,
	)
	if err != nil {
		return "", fmt.Errorf("failed to build public descriptor: %w", err)
	}
	return desc.StringWithChecksum(), nil
}

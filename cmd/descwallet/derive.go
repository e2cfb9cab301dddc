package main

import (
	"github.com/tdex-network/descwallet/internal/config"
	"github.com/tdex-network/descwallet/pkg/address"
	"github.com/tdex-network/descwallet/pkg/descriptor"
	"github.com/urfave/cli/v2"
)

var derive = cli.Command{
	Name:      "derive",
	Usage:     "derive a range of addresses from a descriptor without storing them",
	ArgsUsage: "[descriptor]",
	Flags: []cli.Flag{
		&cli.UintFlag{
			Name:  "from",
			Usage: "first derivation index",
		},
		&cli.UintFlag{
			Name:  "count",
			Usage: "number of addresses to derive",
			Value: 1,
		},
	},
	Action: deriveAction,
}

type derivedAddress struct {
	Index   uint32 `json:"index"`
	Address string `json:"address"`
	Script  string `json:"script"`
}

func deriveAction(ctx *cli.Context) error {
	text := ctx.Args().First()
	if len(text) <= 0 {
		text = config.GetString(config.DescriptorKey)
	}
	if len(text) <= 0 {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	desc, err := descriptor.Parse(text)
	if err != nil {
		return err
	}

	net := config.GetNetwork()
	from, count := uint32(ctx.Uint("from")), uint32(ctx.Uint("count"))
	scripts, err := descriptor.DeriveRange(desc, net, from, count)
	if err != nil {
		return err
	}

	addresses := make([]derivedAddress, 0, len(scripts))
	for i, s := range scripts {
		addr, err := address.Encode(s, net)
		if err != nil {
			return err
		}
		addresses = append(addresses, derivedAddress{
			Index:   from + uint32(i),
			Address: addr,
			Script:  s.Hex(),
		})
	}

	printJSON(addresses)
	return nil
}

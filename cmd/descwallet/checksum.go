package main

import (
	"fmt"

	"github.com/tdex-network/descwallet/pkg/descriptor"
	"github.com/urfave/cli/v2"
)

var checksum = cli.Command{
	Name:      "checksum",
	Usage:     "validate a descriptor and print it in canonical form with checksum",
	ArgsUsage: "<descriptor>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "public",
			Usage: "print the public form of the descriptor",
		},
	},
	Action: checksumAction,
}

func checksumAction(ctx *cli.Context) error {
	text := ctx.Args().First()
	if len(text) <= 0 {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	desc, err := descriptor.Parse(text)
	if err != nil {
		return err
	}

	if ctx.Bool("public") {
		str, err := descriptor.AddChecksum(desc.PublicString())
		if err != nil {
			return err
		}
		fmt.Println(str)
		return nil
	}

	fmt.Println(desc.StringWithChecksum())
	return nil
}

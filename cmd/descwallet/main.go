package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/descwallet/internal/config"
	"github.com/tdex-network/descwallet/internal/core/application"
	"github.com/tdex-network/descwallet/pkg/stats"
	"github.com/urfave/cli/v2"
)

var (
	datadirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "data directory of the wallet",
	}
	networkFlag = &cli.StringFlag{
		Name:  "network",
		Usage: "bitcoin network, one of bitcoin, testnet, regtest or signet",
	}
	descriptorFlag = &cli.StringFlag{
		Name:  "descriptor",
		Usage: "output descriptor of the receiving addresses",
	}
	changeDescriptorFlag = &cli.StringFlag{
		Name:  "change-descriptor",
		Usage: "optional output descriptor of the change addresses",
	}
	dbFlag = &cli.StringFlag{
		Name:  "db",
		Usage: "database type, one of inmemory, badger or postgres",
	}
	blockchainFlag = &cli.StringFlag{
		Name:  "blockchain",
		Usage: "blockchain service, either electrum or esplora",
	}
	electrumURLFlag = &cli.StringFlag{
		Name:  "electrum-url",
		Usage: "electrum server url in the form tcp://host:port or ssl://host:port",
	}
	esploraURLFlag = &cli.StringFlag{
		Name:  "esplora-url",
		Usage: "esplora REST API base url",
	}
	stopGapFlag = &cli.Uint64Flag{
		Name:  "stop-gap",
		Usage: "number of consecutive unused addresses to stop a sync",
	}
	logLevelFlag = &cli.IntFlag{
		Name:  "log-level",
		Usage: "logrus log level, from 0 (panic) to 6 (trace)",
	}

	flagKeys = map[string]string{
		datadirFlag.Name:          config.DatadirKey,
		networkFlag.Name:          config.NetworkKey,
		descriptorFlag.Name:       config.DescriptorKey,
		changeDescriptorFlag.Name: config.ChangeDescriptorKey,
		dbFlag.Name:               config.DBTypeKey,
		blockchainFlag.Name:       config.BlockchainTypeKey,
		electrumURLFlag.Name:      config.ElectrumURLKey,
		esploraURLFlag.Name:       config.EsploraURLKey,
		stopGapFlag.Name:          config.StopGapKey,
		logLevelFlag.Name:         config.LogLevelKey,
	}
)

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "descwallet"
	app.Usage = "Descriptor based bitcoin wallet"
	app.Flags = []cli.Flag{
		datadirFlag,
		networkFlag,
		descriptorFlag,
		changeDescriptorFlag,
		dbFlag,
		blockchainFlag,
		electrumURLFlag,
		esploraURLFlag,
		stopGapFlag,
		logLevelFlag,
	}
	app.Before = initConfig
	app.After = dumpStats
	app.Commands = append(
		app.Commands,
		&derive,
		&checksum,
		&generate,
		&getnewaddress,
		&getchangeaddress,
		&peek,
		&list,
		&info,
		&sync,
		&balance,
		&transactions,
		&broadcast,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func initConfig(ctx *cli.Context) error {
	overrides := make(map[string]interface{})
	for flag, key := range flagKeys {
		if ctx.IsSet(flag) {
			overrides[key] = ctx.Value(flag)
		}
	}

	if err := config.InitConfig(overrides); err != nil {
		return err
	}

	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))
	return nil
}

func dumpStats(_ *cli.Context) error {
	if !config.GetBool(config.EnableStatsKey) {
		return nil
	}
	return stats.DumpPrometheusDefaults(
		filepath.Join(config.GetDatadir(), config.StatsLocation),
	)
}

// getWalletService wires the wallet service from the current config. The
// returned cleanup func closes db and blockchain connections.
func getWalletService(
	ctx *cli.Context,
) (application.WalletService, func(), error) {
	if len(config.GetString(config.DescriptorKey)) <= 0 {
		return nil, nil, &invalidUsageError{ctx, ctx.Command.Name}
	}

	appConfig, err := config.GetApplicationConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := appConfig.Validate(); err != nil {
		appConfig.Close()
		return nil, nil, err
	}

	return appConfig.WalletService(), appConfig.Close, nil
}

func printJSON(resp interface{}) {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}

	fmt.Println(string(jsonBytes))
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[descwallet] %v\n", err)
	}
	os.Exit(1)
}

//
// main.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Command duet runs one party of a two-party set operation or
// register machine computation.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/markkurossi/duet/env"
	"github.com/markkurossi/duet/p2p"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile string
	flags      = env.DefaultFile()
	log        = env.NewLogger()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "configuration file")
	pf.IntVarP(&flags.Party, "party", "p", flags.Party, "party ID (0 or 1)")
	pf.StringVar(&flags.Listen, "listen", flags.Listen,
		"listen address of the party 0")
	pf.StringVar(&flags.Peer, "peer", flags.Peer,
		"peer address for the party 1")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", flags.Verbose,
		"verbose output")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "log level")

	rootCmd.AddCommand(psiCmd)
	rootCmd.AddCommand(pjcCmd)
	rootCmd.AddCommand(mulCmd)
	rootCmd.AddCommand(opsCmd)
}

var rootCmd = &cobra.Command{
	Use:          "duet",
	Short:        "Two-party secure computation",
	SilenceUsage: true,
}

// loadConfig returns the effective configuration. Values from the
// configuration file are overridden by explicitly set flags.
func loadConfig(cmd *cobra.Command) (*env.File, error) {
	if len(configFile) == 0 {
		return flags, nil
	}
	file, err := env.LoadFile(configFile)
	if err != nil {
		return nil, err
	}
	pf := cmd.Flags()
	if pf.Changed("party") {
		file.Party = flags.Party
	}
	if pf.Changed("listen") {
		file.Listen = flags.Listen
	}
	if pf.Changed("peer") {
		file.Peer = flags.Peer
	}
	if pf.Changed("verbose") {
		file.Verbose = flags.Verbose
	}
	if pf.Changed("log-level") {
		file.LogLevel = flags.LogLevel
	}
	return file, nil
}

// session loads the configuration and connects to the peer.
func session(cmd *cobra.Command) (*env.File, *env.Config, *p2p.Conn, error) {
	file, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	config := file.Config()
	if logger, ok := config.Logger.(*logrus.Logger); ok {
		log = logger
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	conn, err := p2p.Connect(ctx, file.Party, file.Listen, file.Peer, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return file, config, conn, nil
}

//
// iotest.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"os"

	"github.com/markkurossi/duet/ot"
	"github.com/markkurossi/duet/p2p"
	"github.com/markkurossi/duet/setops"
	"github.com/spf13/cobra"
)

var ioSize uint64

func init() {
	iotestCmd.Flags().Uint64Var(&ioSize, "size", 100*1000*1000,
		"number of bytes the party 0 sends")
	rootCmd.AddCommand(iotestCmd)
}

var iotestCmd = &cobra.Command{
	Use:   "iotest",
	Short: "Test the connection throughput",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _, conn, err := session(cmd)
		if err != nil {
			return err
		}
		defer conn.Close()

		timing := setops.NewTiming()
		var n uint64
		if file.Party == 0 {
			n, err = sendLabels(conn, ioSize)
		} else {
			n, err = receiveLabels(conn)
		}
		if err != nil {
			return err
		}
		timing.Sample("Xfer", []string{setops.FileSize(n).String()})
		timing.Print(os.Stdout, conn.Stats)
		return nil
	},
}

// sendLabels sends at least size bytes of labels and returns the
// number of label bytes sent.
func sendLabels(conn *p2p.Conn, size uint64) (uint64, error) {
	var label ot.Label
	var labelData ot.LabelData

	count := (size + uint64(len(labelData)) - 1) / uint64(len(labelData))
	if err := conn.SendUint64(count); err != nil {
		return 0, err
	}
	for i := uint64(0); i < count; i++ {
		label.D1 = i
		if err := conn.SendLabel(label, &labelData); err != nil {
			return 0, err
		}
	}
	if err := conn.Flush(); err != nil {
		return 0, err
	}
	return count * uint64(len(labelData)), nil
}

// receiveLabels receives the labels and returns the number of label
// bytes received.
func receiveLabels(conn *p2p.Conn) (uint64, error) {
	var label ot.Label
	var labelData ot.LabelData

	count, err := conn.ReceiveUint64()
	if err != nil {
		return 0, err
	}
	for i := uint64(0); i < count; i++ {
		if err := conn.ReceiveLabel(&label, &labelData); err != nil {
			return 0, err
		}
	}
	return count * uint64(len(labelData)), nil
}

//
// psi.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"fmt"

	"github.com/markkurossi/duet/setops"
	"github.com/spf13/cobra"
)

var (
	psiScheme string
	psiObtain bool
	pjcScheme string
)

func init() {
	psiCmd.Flags().StringVarP(&psiScheme, "scheme", "s", "",
		"PSI scheme (ecdh, kkrt)")
	psiCmd.Flags().BoolVar(&psiObtain, "obtain", true,
		"obtain the intersection")
	pjcCmd.Flags().StringVarP(&pjcScheme, "scheme", "s", "",
		"PJC scheme (ecdh)")
}

var psiCmd = &cobra.Command{
	Use:   "psi [file]",
	Short: "Private set intersection of input lines",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readInput(args, readSet)
		if err != nil {
			return err
		}
		file, config, conn, err := session(cmd)
		if err != nil {
			return err
		}
		defer conn.Close()

		name := file.PSIScheme
		if len(psiScheme) > 0 {
			name = psiScheme
		}
		scheme, err := setops.ParsePSIScheme(name)
		if err != nil {
			return err
		}
		result, err := setops.PSI(conn, input, file.Party, psiObtain,
			file.Verbose, scheme, config)
		if err != nil {
			return err
		}
		for _, v := range result {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return nil
	},
}

var pjcCmd = &cobra.Command{
	Use:   "pjc [file]",
	Short: "Private join and compute of key,feature... CSV rows",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tab, err := readInput(args, readTable)
		if err != nil {
			return err
		}
		file, config, conn, err := session(cmd)
		if err != nil {
			return err
		}
		defer conn.Close()

		name := file.PJCScheme
		if len(pjcScheme) > 0 {
			name = pjcScheme
		}
		scheme, err := setops.ParsePJCScheme(name)
		if err != nil {
			return err
		}
		result, err := setops.PJC(conn, tab.keys, tab.features, file.Party,
			file.Verbose, scheme, config)
		if err != nil {
			return err
		}
		for r := 0; r < result.Rows; r++ {
			for c := 0; c < result.Cols; c++ {
				if c > 0 {
					fmt.Fprint(cmd.OutOrStdout(), ",")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d", uint64(result.At(r, c)))
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	},
}

//
// mul.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"fmt"

	"github.com/markkurossi/duet/matrix"
	"github.com/markkurossi/duet/vm"
	"github.com/spf13/cobra"
)

var mulCmd = &cobra.Command{
	Use:   "mul [file]",
	Short: "Element-wise product of the parties' private CSV matrices",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := readInput(args, readMatrix)
		if err != nil {
			return err
		}
		input, err := matrix.FromRows(rows)
		if err != nil {
			return err
		}
		file, config, conn, err := session(cmd)
		if err != nil {
			return err
		}
		defer conn.Close()

		machine, err := vm.New(conn, file.Party, config)
		if err != nil {
			return err
		}
		result, err := mul(machine, matrix.ToArray(input))
		if err != nil {
			return err
		}
		for r := 0; r < result.Shape[0]; r++ {
			for c := 0; c < result.Shape[1]; c++ {
				if c > 0 {
					fmt.Fprint(cmd.OutOrStdout(), ",")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%g", result.At(r, c))
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	},
}

// mul computes the element-wise product of the parties' inputs and
// reveals it to both parties.
func mul(machine *vm.VM, input matrix.Array[float64]) (
	matrix.Array[float64], error) {

	var empty matrix.Array[float64]
	var shares [2]vm.Address
	for party := 0; party < 2; party++ {
		priv, err := machine.NewPrivateDoubleMatrix(party)
		if err != nil {
			return empty, err
		}
		if err := machine.SetPrivateDoubleMatrix(priv, input); err != nil {
			return empty, err
		}
		shares[party] = machine.NewArithShareMatrix()
		err = machine.Exec(vm.NewInstruction("share",
			vm.PrivateDoubleMatrix, vm.ArithShareMatrix), priv, shares[party])
		if err != nil {
			return empty, err
		}
		if err := machine.Delete(priv); err != nil {
			return empty, err
		}
	}
	err := machine.Exec(vm.NewInstruction("mul", vm.ArithShareMatrix,
		vm.ArithShareMatrix, vm.ArithShareMatrix),
		shares[0], shares[1], shares[0])
	if err != nil {
		return empty, err
	}
	pub := machine.NewPublicDoubleMatrix()
	err = machine.Exec(vm.NewInstruction("reveal", vm.ArithShareMatrix,
		vm.PublicDoubleMatrix), shares[0], pub)
	if err != nil {
		return empty, err
	}
	return machine.GetPublicDoubleMatrix(pub)
}

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List the register machine instructions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, inst := range vm.Instructions() {
			fmt.Fprintln(cmd.OutOrStdout(), inst)
		}
	},
}

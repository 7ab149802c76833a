//
// product.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package vm

import (
	"github.com/markkurossi/duet/ot"
)

// The cross products of shares are computed with oblivious transfer
// (Gilboa). For x held by the sender and y held by the receiver, the
// sender offers (r_k, r_k + x·2^k) for each bit k of y, and the
// receiver selects with y_k. The sum of the received values minus
// the sum of r_k is x·y mod 2^64.

func (vm *VM) newOT() ot.OT {
	return ot.NewCO(vm.config.GetRandom())
}

// transfer sends the wires with a fresh OT instance.
func (vm *VM) transfer(wires []ot.Wire) error {
	o := vm.newOT()
	if err := o.InitSender(vm.conn); err != nil {
		return err
	}
	return o.Send(wires)
}

// choose receives the labels selected by flags with a fresh OT
// instance.
func (vm *VM) choose(flags []bool, labels []ot.Label) error {
	o := vm.newOT()
	if err := o.InitReceiver(vm.conn); err != nil {
		return err
	}
	return o.Receive(flags, labels)
}

// productSend runs the sender side of the cross product of x with the
// peer's values. It returns the local additive shares of the
// products.
func (vm *VM) productSend(x []uint64) ([]uint64, error) {
	masks, err := vm.randomUint64s(len(x) * 64)
	if err != nil {
		return nil, err
	}
	wires := make([]ot.Wire, len(masks))
	shares := make([]uint64, len(x))
	for i, v := range x {
		for k := 0; k < 64; k++ {
			r := masks[i*64+k]
			wires[i*64+k] = ot.Wire{
				L0: ot.NewUint64(r),
				L1: ot.NewUint64(r + v<<k),
			}
			shares[i] -= r
		}
	}
	if err := vm.transfer(wires); err != nil {
		return nil, err
	}
	return shares, nil
}

// productReceive runs the receiver side of the cross product of y
// with the peer's values.
func (vm *VM) productReceive(y []uint64) ([]uint64, error) {
	flags := make([]bool, len(y)*64)
	for i, v := range y {
		for k := 0; k < 64; k++ {
			flags[i*64+k] = (v>>k)&1 == 1
		}
	}
	labels := make([]ot.Label, len(flags))
	if err := vm.choose(flags, labels); err != nil {
		return nil, err
	}
	shares := make([]uint64, len(y))
	for i := range y {
		for k := 0; k < 64; k++ {
			shares[i] += labels[i*64+k].Uint64()
		}
	}
	return shares, nil
}

// andSend runs the sender side of the cross AND of bits x with the
// peer's bits.
func (vm *VM) andSend(x []uint64) ([]uint64, error) {
	masks, err := vm.randomUint64s(len(x))
	if err != nil {
		return nil, err
	}
	wires := make([]ot.Wire, len(x))
	shares := make([]uint64, len(x))
	for i, v := range x {
		r := masks[i] & 1
		wires[i] = ot.Wire{
			L0: ot.NewUint64(r),
			L1: ot.NewUint64(r ^ (v & 1)),
		}
		shares[i] = r
	}
	if err := vm.transfer(wires); err != nil {
		return nil, err
	}
	return shares, nil
}

// andReceive runs the receiver side of the cross AND of bits y with
// the peer's bits.
func (vm *VM) andReceive(y []uint64) ([]uint64, error) {
	flags := make([]bool, len(y))
	for i, v := range y {
		flags[i] = v&1 == 1
	}
	labels := make([]ot.Label, len(flags))
	if err := vm.choose(flags, labels); err != nil {
		return nil, err
	}
	shares := make([]uint64, len(y))
	for i := range labels {
		shares[i] = labels[i].Uint64() & 1
	}
	return shares, nil
}

// cross computes the shares of the cross terms a_0·b_1 + a_1·b_0
// between the parties. The party 0 acts first as the sender and then
// as the receiver; the party 1 does the opposite.
func (vm *VM) cross(a, b []uint64,
	send, receive func([]uint64) ([]uint64, error),
	combine func(x, y uint64) uint64) ([]uint64, error) {

	var first, second []uint64
	var err error

	if vm.party == 0 {
		first, err = send(a)
		if err != nil {
			return nil, err
		}
		second, err = receive(b)
	} else {
		first, err = receive(b)
		if err != nil {
			return nil, err
		}
		second, err = send(a)
	}
	if err != nil {
		return nil, err
	}
	for i := range first {
		first[i] = combine(first[i], second[i])
	}
	return first, nil
}

//
// vm.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package vm implements the two-party register machine. The VM holds
// private, public, and secret shared values in registers that are
// named by opaque addresses.
//
// Both parties execute the same sequence of VM calls. A private
// register is visible only to its owner party: on the other party,
// setting a private register is a silent no-op and getting it returns
// an empty 0x0 result. Callers must check the result shape, not an
// error, to detect values they are not allowed to see. The same rule
// applies to shape queries, blocks, and stacks of private registers.
//
// The VM is not safe for concurrent use. If multiple goroutines use
// the same VM, they must serialize all calls with a single mutex.
package vm

import (
	"github.com/google/uuid"
	"github.com/markkurossi/duet"
	"github.com/markkurossi/duet/env"
	"github.com/markkurossi/duet/matrix"
	"github.com/markkurossi/duet/p2p"
	"github.com/markkurossi/text/superscript"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// NumParties defines the number of parties in a session.
const NumParties = 2

// Address is an opaque register handle. Addresses are unique within
// a VM and never reused.
type Address uint64

// register implements a register value. The kind selects which of the
// value fields is used.
type register struct {
	kind  Kind
	owner int
	f     *matrix.Matrix[float64]
	i     *matrix.Matrix[int64]
	d     float64
	n     int64
}

func newRegister(kind Kind, owner int) *register {
	r := &register{
		kind:  kind,
		owner: owner,
	}
	switch kind {
	case PrivateDoubleMatrix, PublicDoubleMatrix:
		r.f = matrix.New[float64](0, 0)
	case PrivateBoolMatrix, PublicBoolMatrix, ArithShareMatrix,
		BoolShareMatrix:
		r.i = matrix.New[int64](0, 0)
	}
	return r
}

// visible tests if the register contents are visible to the party.
func (r *register) visible(party int) bool {
	return !r.kind.Private() || r.owner == party
}

func (r *register) shape() (int, int) {
	if r.kind.Float() {
		return r.f.Shape()
	}
	return r.i.Shape()
}

// VM implements the register machine of one party.
type VM struct {
	conn    *p2p.Conn
	party   int
	session uuid.UUID
	config  *env.Config
	log     logrus.FieldLogger
	next    Address
	regs    map[Address]*register
}

// New creates a new VM for the party. The connection is the channel
// to the peer party. The config can be nil for default settings.
func New(conn *p2p.Conn, party int, config *env.Config) (*VM, error) {
	if party < 0 || party >= NumParties {
		return nil, errors.Wrapf(duet.ErrInvalidArgument,
			"party ID %d not in [0, %d)", party, NumParties)
	}
	session := uuid.New()
	return &VM{
		conn:    conn,
		party:   party,
		session: session,
		config:  config,
		log: config.GetLogger().WithFields(logrus.Fields{
			"party":   "P" + superscript.Itoa(party),
			"session": session.String(),
		}),
		regs: make(map[Address]*register),
	}, nil
}

// PartyID returns the local party ID.
func (vm *VM) PartyID() int {
	return vm.party
}

// Session returns the VM session ID. The session ID is local to the
// party and used for logging.
func (vm *VM) Session() uuid.UUID {
	return vm.session
}

// Conn returns the connection to the peer party.
func (vm *VM) Conn() *p2p.Conn {
	return vm.conn
}

// IsEmpty tests if the VM has no live registers.
func (vm *VM) IsEmpty() bool {
	return len(vm.regs) == 0
}

// Len returns the number of live registers.
func (vm *VM) Len() int {
	return len(vm.regs)
}

func (vm *VM) alloc(kind Kind, owner int) Address {
	vm.next++
	addr := vm.next
	vm.regs[addr] = newRegister(kind, owner)
	vm.log.Debugf("alloc %s@%d", kind, addr)
	return addr
}

func (vm *VM) allocPrivate(kind Kind, owner int) (Address, error) {
	if owner < 0 || owner >= NumParties {
		return 0, errors.Wrapf(duet.ErrInvalidArgument,
			"owner party %d not in [0, %d)", owner, NumParties)
	}
	return vm.alloc(kind, owner), nil
}

// NewPrivateDoubleMatrix allocates a private real matrix owned by
// the party.
func (vm *VM) NewPrivateDoubleMatrix(owner int) (Address, error) {
	return vm.allocPrivate(PrivateDoubleMatrix, owner)
}

// NewPrivateBoolMatrix allocates a private boolean matrix owned by
// the party.
func (vm *VM) NewPrivateBoolMatrix(owner int) (Address, error) {
	return vm.allocPrivate(PrivateBoolMatrix, owner)
}

// NewPublicDoubleMatrix allocates a public real matrix.
func (vm *VM) NewPublicDoubleMatrix() Address {
	return vm.alloc(PublicDoubleMatrix, -1)
}

// NewPublicBoolMatrix allocates a public boolean matrix.
func (vm *VM) NewPublicBoolMatrix() Address {
	return vm.alloc(PublicBoolMatrix, -1)
}

// NewArithShareMatrix allocates an arithmetic share matrix.
func (vm *VM) NewArithShareMatrix() Address {
	return vm.alloc(ArithShareMatrix, -1)
}

// NewBoolShareMatrix allocates a boolean share matrix.
func (vm *VM) NewBoolShareMatrix() Address {
	return vm.alloc(BoolShareMatrix, -1)
}

// NewPublicDouble allocates a public real scalar.
func (vm *VM) NewPublicDouble() Address {
	return vm.alloc(PublicDouble, -1)
}

// NewPublicIndex allocates a public integer scalar.
func (vm *VM) NewPublicIndex() Address {
	return vm.alloc(PublicIndex, -1)
}

// Kind returns the kind of the register.
func (vm *VM) Kind(addr Address) (Kind, error) {
	r, ok := vm.regs[addr]
	if !ok {
		return 0, errors.Wrapf(duet.ErrUnknownRegister, "address %d", addr)
	}
	return r.kind, nil
}

// Owner returns the owner party of a private register.
func (vm *VM) Owner(addr Address) (int, error) {
	r, ok := vm.regs[addr]
	if !ok {
		return 0, errors.Wrapf(duet.ErrUnknownRegister, "address %d", addr)
	}
	if !r.kind.Private() {
		return 0, errors.Wrapf(duet.ErrTypeMismatch,
			"%s@%d is not private", r.kind, addr)
	}
	return r.owner, nil
}

// Delete deletes the register. The address is invalid after the call.
func (vm *VM) Delete(addr Address) error {
	r, ok := vm.regs[addr]
	if !ok {
		return errors.Wrapf(duet.ErrUnknownRegister, "address %d", addr)
	}
	delete(vm.regs, addr)
	vm.log.Debugf("delete %s@%d", r.kind, addr)
	return nil
}

func (vm *VM) lookup(addr Address, kind Kind) (*register, error) {
	r, ok := vm.regs[addr]
	if !ok {
		return nil, errors.Wrapf(duet.ErrUnknownRegister, "address %d", addr)
	}
	if r.kind != kind {
		return nil, errors.Wrapf(duet.ErrTypeMismatch,
			"register %d: %s, expected %s", addr, r.kind, kind)
	}
	return r, nil
}

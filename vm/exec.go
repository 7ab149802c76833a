//
// exec.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package vm

import (
	"sort"
	"strings"

	"github.com/markkurossi/duet"
	"github.com/markkurossi/duet/matrix"
	"github.com/pkg/errors"
)

// Instruction defines a VM instruction: an operation and the kinds
// of its operand registers. The last operand is the destination
// register.
type Instruction struct {
	Op    string
	Kinds []Kind
}

// NewInstruction creates a new instruction.
func NewInstruction(op string, kinds ...Kind) Instruction {
	return Instruction{
		Op:    op,
		Kinds: kinds,
	}
}

// ParseInstruction parses an instruction from its textual form, for
// example "add am am am".
func ParseInstruction(s string) (Instruction, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Instruction{}, errors.Wrap(duet.ErrInvalidArgument,
			"empty instruction")
	}
	inst := Instruction{
		Op: fields[0],
	}
	for _, f := range fields[1:] {
		kind, err := ParseKind(f)
		if err != nil {
			return Instruction{}, err
		}
		inst.Kinds = append(inst.Kinds, kind)
	}
	return inst, nil
}

func (inst Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(inst.Op)
	for _, kind := range inst.Kinds {
		sb.WriteRune(' ')
		sb.WriteString(kind.String())
	}
	return sb.String()
}

type handler func(vm *VM, regs []*register) error

var handlers = map[string]handler{
	"add am am am":        opShares(matrix.Add[int64]),
	"sub am am am":        opShares(matrix.Sub[int64]),
	"add am cdm am":       opSharePublic(false, false),
	"sub am cdm am":       opSharePublic(true, false),
	"add cdm am am":       opSharePublic(false, true),
	"sub cdm am am":       opSharePublic(true, true),
	"add cdm cdm cdm":     opPublic(matrix.Add[float64]),
	"sub cdm cdm cdm":     opPublic(matrix.Sub[float64]),
	"add pdm pdm pdm":     opPrivate(matrix.Add[float64]),
	"sub pdm pdm pdm":     opPrivate(matrix.Sub[float64]),
	"mul am cdm am":       opMulPublic(false),
	"mul cdm am am":       opMulPublic(true),
	"mul am cd am":        opMulScalar,
	"mul am am am":        opMulShares,
	"xor bm bm bm":        opShares(matrix.Xor),
	"and bm bm bm":        opAndShares,
	"not bm bm":           opNot,
	"share pdm am":        opShareDouble,
	"share pbm bm":        opShareBool,
	"reveal am pdm":       opRevealPrivate(false),
	"reveal bm pbm":       opRevealPrivate(true),
	"reveal am cdm":       opRevealPublic(false),
	"reveal bm cbm":       opRevealPublic(true),
	"transpose am am":     opTranspose,
	"reshape am ci ci am": opReshape,
}

// Instructions returns the supported instructions in sorted order.
func Instructions() []string {
	var result []string
	for k := range handlers {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

// Exec executes the instruction with the operand registers. Both
// parties must execute the same instructions in the same order.
// Connection and OT errors are returned unchanged.
func (vm *VM) Exec(inst Instruction, addrs ...Address) error {
	if len(addrs) != len(inst.Kinds) {
		return errors.Wrapf(duet.ErrInvalidArgument,
			"%s: expected %d operands, got %d",
			inst, len(inst.Kinds), len(addrs))
	}
	name := inst.String()
	h, ok := handlers[name]
	if !ok {
		return errors.Wrapf(duet.ErrInvalidArgument,
			"unsupported instruction '%s'", name)
	}
	regs := make([]*register, len(addrs))
	for idx, addr := range addrs {
		r, err := vm.lookup(addr, inst.Kinds[idx])
		if err != nil {
			return errors.WithMessage(err, name)
		}
		regs[idx] = r
	}
	vm.log.Debugf("exec %s %v", name, addrs)
	return h(vm, regs)
}

func opShares(f func(a, b *matrix.Matrix[int64]) (*matrix.Matrix[int64],
	error)) handler {

	return func(vm *VM, regs []*register) error {
		m, err := f(regs[0].i, regs[1].i)
		if err != nil {
			return err
		}
		regs[2].i = m
		return nil
	}
}

func opPublic(f func(a, b *matrix.Matrix[float64]) (*matrix.Matrix[float64],
	error)) handler {

	return func(vm *VM, regs []*register) error {
		m, err := f(regs[0].f, regs[1].f)
		if err != nil {
			return err
		}
		regs[2].f = m
		return nil
	}
}

func opPrivate(f func(a, b *matrix.Matrix[float64]) (*matrix.Matrix[float64],
	error)) handler {

	return func(vm *VM, regs []*register) error {
		if err := sameOwner(regs...); err != nil {
			return err
		}
		if !regs[0].visible(vm.party) {
			return nil
		}
		return opPublic(f)(vm, regs)
	}
}

// opSharePublic adds or subtracts a public matrix and a share
// matrix. The party 0 carries the public value in its share.
func opSharePublic(sub, publicFirst bool) handler {
	return func(vm *VM, regs []*register) error {
		s, p := regs[0], regs[1]
		if publicFirst {
			s, p = p, s
		}
		enc := matrix.EncodeMatrix(p.f)
		if !s.i.SameShape(enc) {
			return errors.Wrapf(duet.ErrInvalidArgument,
				"shape mismatch: %dx%d != %dx%d",
				s.i.Rows, s.i.Cols, enc.Rows, enc.Cols)
		}
		result := matrix.New[int64](s.i.Rows, s.i.Cols)
		for idx, sv := range s.i.Data {
			var pv int64
			if vm.party == 0 {
				pv = enc.Data[idx]
			}
			switch {
			case !sub:
				result.Data[idx] = sv + pv
			case publicFirst:
				result.Data[idx] = pv - sv
			default:
				result.Data[idx] = sv - pv
			}
		}
		regs[2].i = result
		return nil
	}
}

func truncate(m *matrix.Matrix[int64], party int) *matrix.Matrix[int64] {
	return matrix.Map(m, func(v int64) int64 {
		return matrix.Truncate(v, party)
	})
}

func opMulPublic(publicFirst bool) handler {
	return func(vm *VM, regs []*register) error {
		s, p := regs[0], regs[1]
		if publicFirst {
			s, p = p, s
		}
		m, err := matrix.Mul(s.i, matrix.EncodeMatrix(p.f))
		if err != nil {
			return err
		}
		regs[2].i = truncate(m, vm.party)
		return nil
	}
}

func opMulScalar(vm *VM, regs []*register) error {
	v := matrix.Encode(regs[1].d)
	m := matrix.Map(regs[0].i, func(s int64) int64 {
		return matrix.Truncate(s*v, vm.party)
	})
	regs[2].i = m
	return nil
}

func toUint64s(m *matrix.Matrix[int64]) []uint64 {
	result := make([]uint64, len(m.Data))
	for i, v := range m.Data {
		result[i] = uint64(v)
	}
	return result
}

func opMulShares(vm *VM, regs []*register) error {
	a, b := regs[0].i, regs[1].i
	local, err := matrix.Mul(a, b)
	if err != nil {
		return err
	}
	cross, err := vm.cross(toUint64s(a), toUint64s(b),
		vm.productSend, vm.productReceive,
		func(x, y uint64) uint64 {
			return x + y
		})
	if err != nil {
		return err
	}
	for i := range local.Data {
		local.Data[i] = matrix.Truncate(local.Data[i]+int64(cross[i]),
			vm.party)
	}
	regs[2].i = local
	return nil
}

func opAndShares(vm *VM, regs []*register) error {
	a, b := regs[0].i, regs[1].i
	local, err := matrix.And(a, b)
	if err != nil {
		return err
	}
	cross, err := vm.cross(toUint64s(a), toUint64s(b),
		vm.andSend, vm.andReceive,
		func(x, y uint64) uint64 {
			return x ^ y
		})
	if err != nil {
		return err
	}
	for i := range local.Data {
		local.Data[i] = (local.Data[i] ^ int64(cross[i])) & 1
	}
	regs[2].i = local
	return nil
}

func opNot(vm *VM, regs []*register) error {
	regs[1].i = matrix.Map(regs[0].i, func(v int64) int64 {
		if vm.party == 0 {
			return v ^ 1
		}
		return v
	})
	return nil
}

// opShareDouble splits the private real matrix into arithmetic
// shares. The owner keeps x-r and sends the random mask r to the
// peer.
func opShareDouble(vm *VM, regs []*register) error {
	src, dst := regs[0], regs[1]
	if !src.visible(vm.party) {
		m, err := vm.receiveMatrix()
		if err != nil {
			return err
		}
		dst.i = m
		return nil
	}
	x := matrix.EncodeMatrix(src.f)
	r, err := vm.randomUint64s(len(x.Data))
	if err != nil {
		return err
	}
	mask := matrix.New[int64](x.Rows, x.Cols)
	for i := range x.Data {
		mask.Data[i] = int64(r[i])
		x.Data[i] -= mask.Data[i]
	}
	if err := vm.sendMatrix(mask); err != nil {
		return err
	}
	dst.i = x
	return nil
}

// opShareBool splits the private boolean matrix into boolean shares.
func opShareBool(vm *VM, regs []*register) error {
	src, dst := regs[0], regs[1]
	if !src.visible(vm.party) {
		m, err := vm.receiveMatrix()
		if err != nil {
			return err
		}
		dst.i = m
		return nil
	}
	r, err := vm.randomUint64s(len(src.i.Data))
	if err != nil {
		return err
	}
	mask := matrix.New[int64](src.i.Rows, src.i.Cols)
	share := matrix.New[int64](src.i.Rows, src.i.Cols)
	for i, v := range src.i.Data {
		mask.Data[i] = int64(r[i] & 1)
		share.Data[i] = (v & 1) ^ mask.Data[i]
	}
	if err := vm.sendMatrix(mask); err != nil {
		return err
	}
	dst.i = share
	return nil
}

func reconstruct(a, b *matrix.Matrix[int64], boolean bool) (
	*matrix.Matrix[int64], error) {

	if boolean {
		m, err := matrix.Xor(a, b)
		if err != nil {
			return nil, err
		}
		return matrix.Map(m, func(v int64) int64 {
			return v & 1
		}), nil
	}
	return matrix.Add(a, b)
}

// opRevealPrivate reveals the shares to the owner of the destination
// register. The other party sends its share and its destination
// register becomes empty.
func opRevealPrivate(boolean bool) handler {
	return func(vm *VM, regs []*register) error {
		src, dst := regs[0], regs[1]
		if !dst.visible(vm.party) {
			if err := vm.sendMatrix(src.i); err != nil {
				return err
			}
			dst.f = matrix.New[float64](0, 0)
			dst.i = matrix.New[int64](0, 0)
			return nil
		}
		peer, err := vm.receiveMatrix()
		if err != nil {
			return err
		}
		m, err := reconstruct(src.i, peer, boolean)
		if err != nil {
			return err
		}
		if boolean {
			dst.i = m
		} else {
			dst.f = matrix.DecodeMatrix(m)
		}
		return nil
	}
}

// opRevealPublic reveals the shares to both parties.
func opRevealPublic(boolean bool) handler {
	return func(vm *VM, regs []*register) error {
		src, dst := regs[0], regs[1]
		peer, err := vm.exchangeMatrix(src.i)
		if err != nil {
			return err
		}
		m, err := reconstruct(src.i, peer, boolean)
		if err != nil {
			return err
		}
		if boolean {
			dst.i = m
		} else {
			dst.f = matrix.DecodeMatrix(m)
		}
		return nil
	}
}

func opTranspose(vm *VM, regs []*register) error {
	regs[1].i = regs[0].i.Transpose()
	return nil
}

func opReshape(vm *VM, regs []*register) error {
	m, err := regs[0].i.Reshape(int(regs[1].n), int(regs[2].n))
	if err != nil {
		return err
	}
	regs[3].i = m
	return nil
}

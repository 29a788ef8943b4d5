// Copyright the predicatejit contributors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package jit

import (
	"fmt"
	"unsafe"

	"github.com/corejit/predicatejit/pkg/ir"
	"github.com/corejit/predicatejit/pkg/jit/asm"
	"github.com/corejit/predicatejit/pkg/primitives"
	"github.com/corejit/predicatejit/pkg/record"
)

// compileFilter assembles fn — a "filter(record) bool" function taken from
// a linked, optimized module (see pkg/filterir, pkg/optimizer) — into
// straight-line amd64 machine code.
//
// Instruction selection here is narrow on purpose. After InlinePrimitives
// every field access and string comparison reaches filter() as a direct
// OpCallRuntime rather than a cross-function OpCall, and those two
// intrinsic families are the only ones this backend knows how to lower:
//
//   - rt_record_field becomes two plain loads: a Go string header is a
//     {ptr, len} pair at a fixed struct offset, the same shape as
//     record.StringABI, so reading a field is data movement, not a call
//     (see fields.go).
//   - the four rt_strings_* comparators become inline compare loops using
//     the same register convention x86-64's string instructions expect
//     (RSI/RDI/RCX), rather than a call back into Go.
//
// Nothing else (rt_run_filter, rt_unwind_resume, rt_eh_personality) is ever
// reachable from filter() itself post-inlining, so compileFilter never
// needs to call back into the host process at all — the one remaining
// runtime symbol, rt_run_filter, stays a host-driven Go loop
// (CompiledFilter.FilterAll), never natively compiled. See DESIGN.md's pkg/jit entry for why
// that split was chosen over reproducing ORC's full call-back machinery.
func compileFilter(m *ir.Module, fn *ir.Function) ([]byte, [][]byte, error) {
	if len(fn.Type.Params) != 1 || fn.Type.Params[0] != ir.TypeRecordPtr || fn.Type.Return != ir.TypeBool {
		return nil, nil, fmt.Errorf("jit: %q is not a filter(record) bool function", fn.Name)
	}
	if err := ir.Verify(fn); err != nil {
		return nil, nil, err
	}

	c := &compiler{
		m:  m,
		fn: fn,
		b:  asm.NewBuilder(),
	}
	// One 16-byte slot per virtual register (room for a {ptr, len} pair or
	// a lone bool/int64 in the low word) plus one for the incoming record
	// pointer; see slotIndex/ptrDisp.
	c.frameSize = int32(16 * (fn.NumRegs + 2))

	c.blockLbl = make([]asm.Label, len(fn.Blocks))
	for i := range fn.Blocks {
		c.blockLbl[i] = c.b.NewLabel()
	}

	// Prologue. The record pointer arrives in RAX (Go's amd64 ABIInternal
	// places the first integer/pointer argument there). The caller's RBP is
	// pushed before it gets repointed at the new frame, since Go's
	// ABIInternal treats RBP as a frame pointer that must survive a call —
	// traceback, SIGPROF and async-preempt all walk it while this frame is
	// live, so every return site below pops it back before `ret`.
	c.b.PushReg(asm.RBP)
	c.b.MovRegReg(asm.RBP, asm.RSP)
	c.b.SubRegImm32(asm.RSP, c.frameSize)
	if err := c.storeSlot(recordPtrSlot, 0, asm.RAX); err != nil {
		return nil, nil, err
	}

	for i, bb := range fn.Blocks {
		c.b.BindLabel(c.blockLbl[i])
		for _, instr := range bb.Instr {
			if err := c.emit(instr); err != nil {
				return nil, nil, err
			}
		}
	}

	code, err := c.b.Bytes()
	if err != nil {
		return nil, nil, err
	}
	return code, c.keepAlive, nil
}

// recordPtrSlot is the sentinel "virtual register" the incoming record
// pointer is stashed under — never collides with a real Result, those are
// always >= 0.
const recordPtrSlot = -1

type compiler struct {
	m         *ir.Module
	fn        *ir.Function
	b         *asm.Builder
	blockLbl  []asm.Label
	frameSize int32

	// keepAlive pins every literal's backing byte slice for the lifetime of
	// the assembled code, since its address is baked in as a raw immediate
	// (see emitConstString) rather than threaded through any Go-visible
	// reference the GC would otherwise track for us.
	keepAlive [][]byte
}

func (c *compiler) slotIndex(reg int) int32 { return int32(reg + 1) }
func (c *compiler) ptrDisp(reg int) int32   { return -16 * (c.slotIndex(reg) + 1) }

func (c *compiler) storeSlot(reg int, wordOffset int32, src asm.Reg) error {
	return c.b.MovMemReg(asm.RBP, c.ptrDisp(reg)+wordOffset, src)
}

func (c *compiler) loadSlot(dst asm.Reg, reg int, wordOffset int32) error {
	return c.b.MovRegMem(dst, asm.RBP, c.ptrDisp(reg)+wordOffset)
}

func (c *compiler) loadStringABI(v ir.Value, ptrReg, lenReg asm.Reg) error {
	if v.Kind != ir.ValueReg {
		return fmt.Errorf("jit: %q: expected a register operand, got %s", c.fn.Name, v)
	}
	if err := c.loadSlot(ptrReg, v.Reg, 0); err != nil {
		return err
	}
	return c.loadSlot(lenReg, v.Reg, 8)
}

func (c *compiler) emit(instr ir.Instruction) error {
	switch instr.Op {
	case ir.OpConstString:
		return c.emitConstString(instr)
	case ir.OpCallRuntime:
		return c.emitCallRuntime(instr)
	case ir.OpCondBr:
		return c.emitCondBr(instr)
	case ir.OpBr:
		c.b.Jmp(c.blockLbl[instr.Target])
		return nil
	case ir.OpRet:
		return c.emitRet(instr)
	case ir.OpRetVoid:
		c.b.MovRegReg(asm.RSP, asm.RBP)
		c.b.PopReg(asm.RBP)
		c.b.Ret()
		return nil
	default:
		return fmt.Errorf("jit: %q: opcode %d has no native codegen", c.fn.Name, instr.Op)
	}
}

func (c *compiler) emitConstString(instr ir.Instruction) error {
	g, ok := c.m.Global(instr.Literal)
	if !ok || g.Kind != ir.GlobalStringABI {
		return fmt.Errorf("jit: %q: const.str references unknown global %q", c.fn.Name, instr.Literal)
	}
	chars, ok := c.m.Global(g.CharactersRef)
	if !ok {
		return fmt.Errorf("jit: %q: global %q has no backing characters global %q", c.fn.Name, instr.Literal, g.CharactersRef)
	}

	var ptr uint64
	if len(chars.Bytes) > 0 {
		c.keepAlive = append(c.keepAlive, chars.Bytes)
		ptr = uint64(uintptr(unsafe.Pointer(&chars.Bytes[0])))
	}

	c.b.MovRegImm64(asm.RAX, ptr)
	if err := c.storeSlot(instr.Result, 0, asm.RAX); err != nil {
		return err
	}
	c.b.MovRegImm64(asm.RAX, g.Len)
	return c.storeSlot(instr.Result, 8, asm.RAX)
}

func (c *compiler) emitCallRuntime(instr ir.Instruction) error {
	switch instr.Callee {
	case primitives.SymRecordField:
		return c.emitRecordField(instr)
	case primitives.SymStringsEqual, primitives.SymStringsPrefix, primitives.SymStringsSuffix, primitives.SymStringsContain:
		return c.emitComparator(instr)
	default:
		return fmt.Errorf("jit: %q: %q has no native codegen (only field access and string comparison lower to machine code)", c.fn.Name, instr.Callee)
	}
}

func (c *compiler) emitRecordField(instr ir.Instruction) error {
	if len(instr.Args) != 2 || instr.Args[1].Kind != ir.ValueInt64 {
		return fmt.Errorf("jit: %q: malformed %s call", c.fn.Name, primitives.SymRecordField)
	}
	field := record.Field(instr.Args[1].Int64)
	if field < 0 || int(field) >= record.FieldCount {
		return fmt.Errorf("jit: %q: field index %d out of range", c.fn.Name, field)
	}
	offset := int32(fieldOffset[field])

	if err := c.loadSlot(asm.RDX, recordPtrSlot, 0); err != nil {
		return err
	}
	if err := c.b.MovRegMem(asm.RAX, asm.RDX, offset); err != nil {
		return err
	}
	if err := c.storeSlot(instr.Result, 0, asm.RAX); err != nil {
		return err
	}
	if err := c.b.MovRegMem(asm.RAX, asm.RDX, offset+8); err != nil {
		return err
	}
	return c.storeSlot(instr.Result, 8, asm.RAX)
}

func (c *compiler) emitComparator(instr ir.Instruction) error {
	if len(instr.Args) != 2 {
		return fmt.Errorf("jit: %q: %s expects two operands", c.fn.Name, instr.Callee)
	}
	switch instr.Callee {
	case primitives.SymStringsEqual:
		return c.emitEquals(instr)
	case primitives.SymStringsPrefix:
		return c.emitPrefix(instr)
	case primitives.SymStringsSuffix:
		return c.emitSuffix(instr)
	case primitives.SymStringsContain:
		return c.emitContains(instr)
	default:
		return fmt.Errorf("jit: %q: unresolved runtime symbol %q", c.fn.Name, instr.Callee)
	}
}

// boolEpilogue binds trueLbl/falseLbl (created earlier by the caller, with
// every branch into them already emitted) and writes the 0/1 outcome into
// result's slot.
func (c *compiler) boolEpilogue(result int, trueLbl, falseLbl asm.Label) error {
	doneLbl := c.b.NewLabel()
	c.b.BindLabel(falseLbl)
	c.b.MovRegImm64(asm.RAX, 0)
	c.b.Jmp(doneLbl)
	c.b.BindLabel(trueLbl)
	c.b.MovRegImm64(asm.RAX, 1)
	c.b.BindLabel(doneLbl)
	return c.storeSlot(result, 0, asm.RAX)
}

func (c *compiler) emitEquals(instr ir.Instruction) error {
	if err := c.loadStringABI(instr.Args[0], asm.RSI, asm.RAX); err != nil { // RSI=aPtr, RAX=aLen
		return err
	}
	if err := c.loadStringABI(instr.Args[1], asm.RDI, asm.RBX); err != nil { // RDI=bPtr, RBX=bLen
		return err
	}
	trueLbl, falseLbl := c.b.NewLabel(), c.b.NewLabel()
	c.b.CmpRegReg(asm.RAX, asm.RBX)
	c.b.Jcc(asm.CondNE, falseLbl)
	c.b.MovRegReg(asm.RCX, asm.RAX)
	c.b.RepCmpsb()
	c.b.Jcc(asm.CondE, trueLbl)
	c.b.Jmp(falseLbl)
	return c.boolEpilogue(instr.Result, trueLbl, falseLbl)
}

func (c *compiler) emitPrefix(instr ir.Instruction) error {
	if err := c.loadStringABI(instr.Args[0], asm.RSI, asm.RAX); err != nil { // RSI=aPtr, RAX=aLen
		return err
	}
	if err := c.loadStringABI(instr.Args[1], asm.RDI, asm.RBX); err != nil { // RDI=bPtr, RBX=bLen
		return err
	}
	trueLbl, falseLbl := c.b.NewLabel(), c.b.NewLabel()
	c.b.CmpRegImm32(asm.RBX, 0)
	c.b.Jcc(asm.CondE, trueLbl) // empty needle always matches
	c.b.CmpRegReg(asm.RAX, asm.RBX)
	c.b.Jcc(asm.CondB, falseLbl) // haystack shorter than needle
	c.b.MovRegReg(asm.RCX, asm.RBX)
	c.b.RepCmpsb()
	c.b.Jcc(asm.CondE, trueLbl)
	c.b.Jmp(falseLbl)
	return c.boolEpilogue(instr.Result, trueLbl, falseLbl)
}

func (c *compiler) emitSuffix(instr ir.Instruction) error {
	if err := c.loadStringABI(instr.Args[0], asm.RSI, asm.RAX); err != nil { // RSI=aPtr, RAX=aLen
		return err
	}
	if err := c.loadStringABI(instr.Args[1], asm.RDI, asm.RBX); err != nil { // RDI=bPtr, RBX=bLen
		return err
	}
	trueLbl, falseLbl := c.b.NewLabel(), c.b.NewLabel()
	c.b.CmpRegImm32(asm.RBX, 0)
	c.b.Jcc(asm.CondE, trueLbl)
	c.b.CmpRegReg(asm.RAX, asm.RBX)
	c.b.Jcc(asm.CondB, falseLbl)
	c.b.SubRegReg(asm.RAX, asm.RBX) // RAX = aLen-bLen
	c.b.AddRegReg(asm.RSI, asm.RAX) // RSI = aPtr + (aLen-bLen)
	c.b.MovRegReg(asm.RCX, asm.RBX)
	c.b.RepCmpsb()
	c.b.Jcc(asm.CondE, trueLbl)
	c.b.Jmp(falseLbl)
	return c.boolEpilogue(instr.Result, trueLbl, falseLbl)
}

// emitContains is the one primitive with a real loop: try matching the
// needle at every start offset in the haystack, R12/R13/R10/R11 holding
// (aPtr, bPtr, aLen, bLen) across iterations since repe cmpsb only touches
// RSI/RDI/RCX and the flags.
func (c *compiler) emitContains(instr ir.Instruction) error {
	if err := c.loadStringABI(instr.Args[0], asm.R12, asm.R10); err != nil { // R12=aPtr, R10=aLen
		return err
	}
	if err := c.loadStringABI(instr.Args[1], asm.R13, asm.R11); err != nil { // R13=bPtr, R11=bLen
		return err
	}

	trueLbl, falseLbl, loopLbl := c.b.NewLabel(), c.b.NewLabel(), c.b.NewLabel()

	c.b.CmpRegImm32(asm.R11, 0)
	c.b.Jcc(asm.CondE, trueLbl) // empty needle always matches
	c.b.CmpRegReg(asm.R10, asm.R11)
	c.b.Jcc(asm.CondB, falseLbl) // haystack shorter than needle

	c.b.MovRegReg(asm.RBX, asm.R10)
	c.b.SubRegReg(asm.RBX, asm.R11) // RBX = maxStart = aLen-bLen
	c.b.XorRegReg(asm.RAX)          // RAX = i = 0

	c.b.BindLabel(loopLbl)
	c.b.MovRegReg(asm.RSI, asm.R12)
	c.b.AddRegReg(asm.RSI, asm.RAX) // RSI = aPtr+i
	c.b.MovRegReg(asm.RDI, asm.R13)
	c.b.MovRegReg(asm.RCX, asm.R11)
	c.b.RepCmpsb()
	c.b.Jcc(asm.CondE, trueLbl)

	c.b.CmpRegReg(asm.RAX, asm.RBX)
	c.b.Jcc(asm.CondAE, falseLbl) // i == maxStart was the last possible start
	c.b.IncReg(asm.RAX)
	c.b.Jmp(loopLbl)

	return c.boolEpilogue(instr.Result, trueLbl, falseLbl)
}

func (c *compiler) emitCondBr(instr ir.Instruction) error {
	if instr.Cond.Kind != ir.ValueReg {
		return fmt.Errorf("jit: %q: condbr operand must be a register, got %s", c.fn.Name, instr.Cond)
	}
	if err := c.loadSlot(asm.RAX, instr.Cond.Reg, 0); err != nil {
		return err
	}
	c.b.CmpRegImm32(asm.RAX, 0)
	c.b.Jcc(asm.CondNE, c.blockLbl[instr.True])
	c.b.Jmp(c.blockLbl[instr.False])
	return nil
}

func (c *compiler) emitRet(instr ir.Instruction) error {
	switch instr.RetValue.Kind {
	case ir.ValueReg:
		if err := c.loadSlot(asm.RAX, instr.RetValue.Reg, 0); err != nil {
			return err
		}
	case ir.ValueBool:
		imm := uint64(0)
		if instr.RetValue.Bool {
			imm = 1
		}
		c.b.MovRegImm64(asm.RAX, imm)
	default:
		return fmt.Errorf("jit: %q: unsupported ret operand %s", c.fn.Name, instr.RetValue)
	}
	c.b.MovRegReg(asm.RSP, asm.RBP)
	c.b.PopReg(asm.RBP)
	c.b.Ret()
	return nil
}

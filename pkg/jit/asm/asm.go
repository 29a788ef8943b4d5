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

// Package asm is a deliberately tiny amd64 encoder: just the register-direct
// and [reg+disp32]-addressed instruction forms pkg/jit's codegen actually
// emits (move, compare, add/sub, the repe-cmpsb string primitive, and near
// jumps with label fixups). It has no instruction selector or scheduler of
// its own — pkg/jit decides what to emit, this package only turns that
// decision into bytes.
package asm

import (
	"encoding/binary"
	"fmt"
)

// Reg is an amd64 general-purpose register, numbered the way ModRM/SIB and
// REX expect (0-7 need no REX.B/R/X extension bit, 8-15 do).
type Reg int

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

func (r Reg) lowBits() byte  { return byte(r) & 7 }
func (r Reg) extended() bool { return r >= R8 }

// Label is an unbound jump target, created by Builder.NewLabel and fixed in
// place by Builder.BindLabel.
type Label int

type fixup struct {
	pos   int // offset of the rel32 field to patch
	label Label
}

// Builder accumulates machine code for a single function body. Every
// function this pipeline compiles is straight-line-with-branches over a
// handful of stack slots, so the Builder carries no register allocator:
// callers pick registers and stack-slot offsets themselves (see
// pkg/jit.compileFilter).
type Builder struct {
	buf      []byte
	labels   []int // index by Label; -1 until bound
	fixups   []fixup
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Len returns the number of bytes emitted so far — used as a fixed point
// for forward-reference bookkeeping outside this package (e.g. remembering
// "the epilogue starts here").
func (b *Builder) Len() int { return len(b.buf) }

// NewLabel allocates an unbound label.
func (b *Builder) NewLabel() Label {
	b.labels = append(b.labels, -1)
	return Label(len(b.labels) - 1)
}

// BindLabel fixes id to the current write position.
func (b *Builder) BindLabel(id Label) {
	b.labels[id] = len(b.buf)
}

func (b *Builder) emit(bs ...byte) {
	b.buf = append(b.buf, bs...)
}

func (b *Builder) emitRel32Fixup(label Label) {
	b.fixups = append(b.fixups, fixup{pos: len(b.buf), label: label})
	b.emit(0, 0, 0, 0)
}

func rex(w, r, x, rm bool) byte {
	v := byte(0x40)
	if w {
		v |= 0x08
	}
	if r {
		v |= 0x04
	}
	if x {
		v |= 0x02
	}
	if rm {
		v |= 0x01
	}
	return v
}

func modrm(mod, reg, rm byte) byte {
	return mod<<6 | (reg&7)<<3 | (rm & 7)
}

// MovRegImm64 encodes `movabs dst, imm64`.
func (b *Builder) MovRegImm64(dst Reg, imm uint64) {
	b.emit(rex(true, false, false, dst.extended()), 0xB8+dst.lowBits())
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], imm)
	b.emit(buf[:]...)
}

// MovRegReg encodes `mov dst, src` (REX.W + 89 /r, register-direct).
func (b *Builder) MovRegReg(dst, src Reg) {
	b.emit(rex(true, src.extended(), false, dst.extended()), 0x89, modrm(0b11, byte(src), byte(dst)))
}

// MovRegMem encodes `mov dst, [base+disp32]` (REX.W + 8B /r). base must not
// be RSP or R12 (those require a SIB byte this encoder does not emit); the
// codegen in pkg/jit never uses them as a memory base for this reason.
func (b *Builder) MovRegMem(dst, base Reg, disp int32) error {
	if base == RSP || base == R12 {
		return fmt.Errorf("asm: %v cannot be used as a disp32 base without a SIB byte", base)
	}
	b.emit(rex(true, dst.extended(), false, base.extended()), 0x8B, modrm(0b10, byte(dst), byte(base)))
	b.emitDisp32(disp)
	return nil
}

// MovMemReg encodes `mov [base+disp32], src` (REX.W + 89 /r). Same base
// restriction as MovRegMem.
func (b *Builder) MovMemReg(base Reg, disp int32, src Reg) error {
	if base == RSP || base == R12 {
		return fmt.Errorf("asm: %v cannot be used as a disp32 base without a SIB byte", base)
	}
	b.emit(rex(true, src.extended(), false, base.extended()), 0x89, modrm(0b10, byte(src), byte(base)))
	b.emitDisp32(disp)
	return nil
}

func (b *Builder) emitDisp32(disp int32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(disp))
	b.emit(buf[:]...)
}

// AddRegImm32 encodes `add dst, imm32` (REX.W + 81 /0 id).
func (b *Builder) AddRegImm32(dst Reg, imm int32) {
	b.emit(rex(true, false, false, dst.extended()), 0x81, modrm(0b11, 0, byte(dst)))
	b.emitDisp32(imm)
}

// SubRegImm32 encodes `sub dst, imm32` (REX.W + 81 /5 id).
func (b *Builder) SubRegImm32(dst Reg, imm int32) {
	b.emit(rex(true, false, false, dst.extended()), 0x81, modrm(0b11, 5, byte(dst)))
	b.emitDisp32(imm)
}

// AddRegReg encodes `add dst, src` (REX.W + 01 /r).
func (b *Builder) AddRegReg(dst, src Reg) {
	b.emit(rex(true, src.extended(), false, dst.extended()), 0x01, modrm(0b11, byte(src), byte(dst)))
}

// SubRegReg encodes `sub dst, src` (REX.W + 29 /r).
func (b *Builder) SubRegReg(dst, src Reg) {
	b.emit(rex(true, src.extended(), false, dst.extended()), 0x29, modrm(0b11, byte(src), byte(dst)))
}

// IncReg encodes `add dst, 1` via AddRegImm32 — named separately because
// pkg/jit's Contains loop counter reads more clearly as "increment" at the
// call site.
func (b *Builder) IncReg(dst Reg) {
	b.AddRegImm32(dst, 1)
}

// CmpRegReg encodes `cmp a, b` (REX.W + 39 /r).
func (b *Builder) CmpRegReg(a, bReg Reg) {
	b.emit(rex(true, bReg.extended(), false, a.extended()), 0x39, modrm(0b11, byte(bReg), byte(a)))
}

// CmpRegImm32 encodes `cmp dst, imm32` (REX.W + 81 /7 id).
func (b *Builder) CmpRegImm32(dst Reg, imm int32) {
	b.emit(rex(true, false, false, dst.extended()), 0x81, modrm(0b11, 7, byte(dst)))
	b.emitDisp32(imm)
}

// XorRegReg zeroes dst via `xor dst, dst` (31 /r) — cheaper than a movabs 0.
func (b *Builder) XorRegReg(dst Reg) {
	b.emit(rex(true, dst.extended(), false, dst.extended()), 0x31, modrm(0b11, byte(dst), byte(dst)))
}

// Jcc is a near conditional jump (0F 8x + rel32) fixed up once its label is
// bound.
type Cond byte

const (
	CondE  Cond = 0x84 // ZF=1
	CondNE Cond = 0x85 // ZF=0
	CondB  Cond = 0x82 // CF=1 (unsigned <)
	CondAE Cond = 0x83 // CF=0 (unsigned >=)
	CondG  Cond = 0x8F // signed >
	CondLE Cond = 0x8E // signed <=
)

func (b *Builder) Jcc(cond Cond, target Label) {
	b.emit(0x0F, byte(cond))
	b.emitRel32Fixup(target)
}

// Jmp is an unconditional near jump (E9 + rel32).
func (b *Builder) Jmp(target Label) {
	b.emit(0xE9)
	b.emitRel32Fixup(target)
}

// RepCmpsb encodes `repe cmpsb`: compares RCX bytes at [RSI] and [RDI],
// advancing both, clearing ZF on the first mismatch and leaving it set if
// every byte matched. pkg/jit's codegen always loads RCX/RSI/RDI
// immediately before this instruction; no other code in this package
// touches those three registers.
func (b *Builder) RepCmpsb() {
	b.emit(0xF3, 0xA6)
}

// PushReg encodes `push r64` (50+rd, with REX.B if r is extended). Push/pop
// default to 64-bit operands in long mode, so no REX.W is needed.
func (b *Builder) PushReg(r Reg) {
	if r.extended() {
		b.emit(rex(false, false, false, true))
	}
	b.emit(0x50 + r.lowBits())
}

// PopReg encodes `pop r64` (58+rd, with REX.B if r is extended).
func (b *Builder) PopReg(r Reg) {
	if r.extended() {
		b.emit(rex(false, false, false, true))
	}
	b.emit(0x58 + r.lowBits())
}

// Ret encodes a bare `ret`.
func (b *Builder) Ret() {
	b.emit(0xC3)
}

// Bytes finalizes every recorded label fixup and returns the assembled
// machine code. Returns an error if any referenced label was never bound.
func (b *Builder) Bytes() ([]byte, error) {
	for _, f := range b.fixups {
		target := b.labels[f.label]
		if target < 0 {
			return nil, fmt.Errorf("asm: label %d referenced at offset %d was never bound", f.label, f.pos)
		}
		rel := int32(target - (f.pos + 4))
		binary.LittleEndian.PutUint32(b.buf[f.pos:], uint32(rel))
	}
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out, nil
}

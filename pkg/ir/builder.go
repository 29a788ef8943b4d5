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
package ir

import "fmt"

// Builder accumulates basic blocks and registers for a single Function body.
// Both pkg/primitives (small leaf bodies) and pkg/filterir (the recursive
// predicate lowering) construct functions through one of these rather than
// poking at Function.Blocks directly, so register numbering and block
// indices stay consistent however deep the caller's own recursion gets.
type Builder struct {
	fn  *Function
	cur int // index of the block currently being appended to
}

// NewBuilder starts building fn's body. fn must currently be a declaration
// (no blocks); NewBuilder gives it one entry block named "entry".
func NewBuilder(fn *Function) *Builder {
	fn.Blocks = []BasicBlock{{Name: "entry"}}
	return &Builder{fn: fn, cur: 0}
}

// Block returns the index of the block currently being appended to.
func (b *Builder) Block() int { return b.cur }

// NewBlock appends a fresh, empty block named name and returns its index.
// It does not switch the builder's current block — call SetBlock to do
// that once the caller is ready to emit into it.
func (b *Builder) NewBlock(name string) int {
	b.fn.Blocks = append(b.fn.Blocks, BasicBlock{Name: name})
	return len(b.fn.Blocks) - 1
}

// SetBlock switches the block subsequent emitted instructions append to.
func (b *Builder) SetBlock(idx int) { b.cur = idx }

// nextReg allocates a fresh virtual register.
func (b *Builder) nextReg() int {
	r := b.fn.NumRegs
	b.fn.NumRegs++
	return r
}

// emit appends instr to the current block as-is (instr.Result, if any, must
// already be allocated via nextReg through one of the typed helpers below).
func (b *Builder) emit(instr Instruction) {
	b.fn.Blocks[b.cur].Instr = append(b.fn.Blocks[b.cur].Instr, instr)
}

// ConstString emits an OpConstString referencing the global literal name
// (see pkg/filterir's literal-emission step for how that global is created)
// and returns the register holding it.
func (b *Builder) ConstString(globalName string) Value {
	reg := b.nextReg()
	b.emit(Instruction{Op: OpConstString, Result: reg, Literal: globalName})
	return Reg(reg)
}

// Call emits a call to an in-module function and returns the register
// holding its result. Use CallVoid for void-returning callees.
func (b *Builder) Call(callee string, args ...Value) Value {
	reg := b.nextReg()
	b.emit(Instruction{Op: OpCall, Result: reg, Callee: callee, Args: args})
	return Reg(reg)
}

// CallVoid emits a call to a void-returning in-module function.
func (b *Builder) CallVoid(callee string, args ...Value) {
	b.emit(Instruction{Op: OpCall, Result: -1, Callee: callee, Args: args})
}

// CallRuntime emits a call to a native runtime symbol by name
// (pkg/primitives' leaf bodies; pkg/jit lowers the ones a filter body
// contains to inline code).
func (b *Builder) CallRuntime(symbol string, args ...Value) Value {
	reg := b.nextReg()
	b.emit(Instruction{Op: OpCallRuntime, Result: reg, Callee: symbol, Args: args})
	return Reg(reg)
}

// CallVoidRuntime emits a call to a void-returning native runtime symbol.
func (b *Builder) CallVoidRuntime(symbol string, args ...Value) {
	b.emit(Instruction{Op: OpCallRuntime, Result: -1, Callee: symbol, Args: args})
}

// CondBr emits a conditional branch and ends the current block.
func (b *Builder) CondBr(cond Value, trueBlock, falseBlock int) {
	b.emit(Instruction{Op: OpCondBr, Cond: cond, True: trueBlock, False: falseBlock})
}

// Br emits an unconditional jump and ends the current block.
func (b *Builder) Br(target int) {
	b.emit(Instruction{Op: OpBr, Target: target})
}

// Ret emits a value return and ends the current block.
func (b *Builder) Ret(v Value) {
	b.emit(Instruction{Op: OpRet, RetValue: v})
}

// RetBool emits a boolean return and ends the current block. An alias for
// Ret kept separate so call sites returning a bool read as such.
func (b *Builder) RetBool(v Value) {
	b.Ret(v)
}

// RetVoid emits a void return and ends the current block.
func (b *Builder) RetVoid() {
	b.emit(Instruction{Op: OpRetVoid})
}

// Verify performs the handful of structural sanity checks a freshly built
// function body should satisfy: every block is terminated by exactly one
// control-flow instruction, and every branch target is in range. It does
// not attempt general dataflow validation — that burden stays on the
// builders (pkg/primitives, pkg/filterir) that know what they intend to
// construct.
func Verify(fn *Function) error {
	for i, bb := range fn.Blocks {
		if len(bb.Instr) == 0 {
			return fmt.Errorf("ir: function %q block %d (%s) is empty", fn.Name, i, bb.Name)
		}
		last := bb.Instr[len(bb.Instr)-1]
		switch last.Op {
		case OpCondBr:
			if last.True < 0 || last.True >= len(fn.Blocks) || last.False < 0 || last.False >= len(fn.Blocks) {
				return fmt.Errorf("ir: function %q block %d: branch target out of range", fn.Name, i)
			}
		case OpBr:
			if last.Target < 0 || last.Target >= len(fn.Blocks) {
				return fmt.Errorf("ir: function %q block %d: branch target out of range", fn.Name, i)
			}
		case OpRet, OpRetVoid:
			// terminal, nothing further to check here
		default:
			return fmt.Errorf("ir: function %q block %d (%s) does not end in a terminator", fn.Name, i, bb.Name)
		}
	}
	return nil
}

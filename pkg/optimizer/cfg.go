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
package optimizer

import (
	"fmt"

	"github.com/corejit/predicatejit/pkg/ir"
)

// SimplifyCFG retargets every branch that points at a pure-trampoline block
// (a block whose only instruction is an unconditional Br) directly at that
// block's own target, following chains of trampolines to their end. Blocks
// left unreachable by this are not physically removed — block indices are
// addressed by branch targets throughout this IR, so deleting one would
// require renumbering every reference; an unreachable trampoline is still
// assembled by pkg/jit but is never executed.
func SimplifyCFG(m *ir.Module) {
	for _, fn := range m.Functions() {
		simplifyFunctionCFG(fn)
	}
}

func trampolineTarget(fn *ir.Function, idx int) (int, bool) {
	instrs := fn.Blocks[idx].Instr
	if len(instrs) != 1 || instrs[0].Op != ir.OpBr {
		return 0, false
	}
	return instrs[0].Target, true
}

// resolve follows a chain of trampoline blocks starting at idx to its final
// non-trampoline destination.
func resolve(fn *ir.Function, idx int) int {
	seen := map[int]bool{}
	for {
		if seen[idx] {
			return idx // a trampoline cycle; leave as-is rather than loop forever
		}
		seen[idx] = true
		next, ok := trampolineTarget(fn, idx)
		if !ok {
			return idx
		}
		idx = next
	}
}

func simplifyFunctionCFG(fn *ir.Function) {
	for bi := range fn.Blocks {
		instrs := fn.Blocks[bi].Instr
		if len(instrs) == 0 {
			continue
		}
		last := &instrs[len(instrs)-1]
		switch last.Op {
		case ir.OpBr:
			last.Target = resolve(fn, last.Target)
		case ir.OpCondBr:
			last.True = resolve(fn, last.True)
			last.False = resolve(fn, last.False)
		}
	}
}

// DeadBranchElimination rewrites any OpCondBr whose Cond is now a constant
// bool (typically the result of ConstantFold) into an unconditional Br.
func DeadBranchElimination(m *ir.Module) {
	for _, fn := range m.Functions() {
		for bi := range fn.Blocks {
			instrs := fn.Blocks[bi].Instr
			if len(instrs) == 0 {
				continue
			}
			last := &instrs[len(instrs)-1]
			if last.Op != ir.OpCondBr || last.Cond.Kind != ir.ValueBool {
				continue
			}
			target := last.False
			if last.Cond.Bool {
				target = last.True
			}
			*last = ir.Instruction{Op: ir.OpBr, Target: target}
		}
	}
}

// MergeIdenticalBlocks deduplicates blocks within a function that are
// byte-for-byte identical (same instructions, same terminator targets),
// retargeting every branch at a duplicate onto the first block with that
// shape. Like SimplifyCFG, duplicates are left in place rather than
// physically removed.
func MergeIdenticalBlocks(m *ir.Module) {
	for _, fn := range m.Functions() {
		mergeFunctionBlocks(fn)
	}
}

func mergeFunctionBlocks(fn *ir.Function) {
	canonical := make(map[string]int)
	redirect := make(map[int]int)

	for bi, bb := range fn.Blocks {
		key := fingerprint(bb)
		if first, ok := canonical[key]; ok {
			redirect[bi] = first
			continue
		}
		canonical[key] = bi
	}
	if len(redirect) == 0 {
		return
	}

	for bi := range fn.Blocks {
		instrs := fn.Blocks[bi].Instr
		if len(instrs) == 0 {
			continue
		}
		last := &instrs[len(instrs)-1]
		switch last.Op {
		case ir.OpBr:
			if to, ok := redirect[last.Target]; ok {
				last.Target = to
			}
		case ir.OpCondBr:
			if to, ok := redirect[last.True]; ok {
				last.True = to
			}
			if to, ok := redirect[last.False]; ok {
				last.False = to
			}
		}
	}
}

// fingerprint renders a block's instructions as a comparable string key.
// Two blocks are "identical" here if their instructions and terminator
// targets match exactly; blocks reached via different trampolines still
// fingerprint equal if SimplifyCFG already normalized their targets.
func fingerprint(bb ir.BasicBlock) string {
	s := ""
	for _, instr := range bb.Instr {
		s += fmt.Sprintf("%d|%d|%s|%v|%s|%v|%d|%d|%d|%v;",
			instr.Op, instr.Result, instr.Callee, instr.Args,
			instr.Literal, instr.Cond, instr.True, instr.False, instr.Target, instr.RetValue)
	}
	return s
}

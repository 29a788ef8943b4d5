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

import "github.com/corejit/predicatejit/pkg/ir"

// foldsToTrueOnEmptyNeedle is the set of runtime comparators whose result is
// statically true regardless of the field value when the needle/prefix/
// suffix literal is the empty string.
var foldsToTrueOnEmptyNeedle = map[string]bool{
	"rt_strings_contains":   true,
	"rt_strings_has_prefix": true,
	"rt_strings_has_suffix": true,
}

// ConstantFold runs after InlinePrimitives (so comparator calls are visible
// as OpCallRuntime directly in filter()'s own body) and replaces any
// comparator call against a known-empty literal with BoolConst(true),
// rewriting every downstream use of that call's result and then dropping
// the now-dead call instruction.
func ConstantFold(m *ir.Module) {
	for _, fn := range m.Functions() {
		foldFunction(m, fn)
	}
}

func foldFunction(m *ir.Module, fn *ir.Function) {
	emptyLiteralReg := findEmptyConstStringRegs(m, fn)
	if len(emptyLiteralReg) == 0 {
		return
	}

	folded := make(map[int]ir.Value)
	dead := make(map[int]map[int]bool) // block index -> set of dead instruction indices

	for bi := range fn.Blocks {
		instrs := fn.Blocks[bi].Instr
		for ii, instr := range instrs {
			if instr.Op != ir.OpCallRuntime || !foldsToTrueOnEmptyNeedle[instr.Callee] {
				continue
			}
			if len(instr.Args) != 2 {
				continue
			}
			needle := instr.Args[1]
			if needle.Kind != ir.ValueReg || !emptyLiteralReg[needle.Reg] {
				continue
			}
			folded[instr.Result] = ir.BoolConst(true)
			if dead[bi] == nil {
				dead[bi] = make(map[int]bool)
			}
			dead[bi][ii] = true
		}
	}

	if len(folded) == 0 {
		return
	}

	rewriteFoldedUses(fn, folded)
	stripDeadInstructions(fn, dead)
}

// findEmptyConstStringRegs returns the set of registers defined by an
// OpConstString instruction whose referenced global holds the empty
// string.
func findEmptyConstStringRegs(m *ir.Module, fn *ir.Function) map[int]bool {
	out := make(map[int]bool)
	for _, bb := range fn.Blocks {
		for _, instr := range bb.Instr {
			if instr.Op != ir.OpConstString {
				continue
			}
			g, ok := m.Global(instr.Literal)
			if !ok || g.Len != 0 {
				continue
			}
			out[instr.Result] = true
		}
	}
	return out
}

func rewriteValue(v ir.Value, folded map[int]ir.Value) ir.Value {
	if v.Kind == ir.ValueReg {
		if replacement, ok := folded[v.Reg]; ok {
			return replacement
		}
	}
	return v
}

func rewriteFoldedUses(fn *ir.Function, folded map[int]ir.Value) {
	for bi := range fn.Blocks {
		instrs := fn.Blocks[bi].Instr
		for ii := range instrs {
			instr := &instrs[ii]
			for ai := range instr.Args {
				instr.Args[ai] = rewriteValue(instr.Args[ai], folded)
			}
			instr.Cond = rewriteValue(instr.Cond, folded)
			instr.RetValue = rewriteValue(instr.RetValue, folded)
		}
	}
}

// stripDeadInstructions removes the instructions marked dead in dead,
// preserving order, without disturbing any block index (branch/jump
// targets address blocks, never instruction positions).
func stripDeadInstructions(fn *ir.Function, dead map[int]map[int]bool) {
	for bi, deadIdx := range dead {
		instrs := fn.Blocks[bi].Instr
		kept := make([]ir.Instruction, 0, len(instrs))
		for ii, instr := range instrs {
			if deadIdx[ii] {
				continue
			}
			kept = append(kept, instr)
		}
		fn.Blocks[bi].Instr = kept
	}
}

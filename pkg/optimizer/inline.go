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

// passthroughShape recognizes a function whose entire body is "call one
// runtime intrinsic, then return its result (or return void)" — exactly
// the bodies pkg/primitives builds for every accessor, comparator and
// run_filter. Such a function contributes nothing beyond renaming its own
// parameters, so a caller can always inline it directly.
func passthroughShape(fn *ir.Function) (call ir.Instruction, ok bool) {
	if fn.IsDeclaration() || len(fn.Blocks) != 1 {
		return ir.Instruction{}, false
	}
	instr := fn.Blocks[0].Instr
	if len(instr) != 2 {
		return ir.Instruction{}, false
	}
	if instr[0].Op != ir.OpCallRuntime {
		return ir.Instruction{}, false
	}
	switch instr[1].Op {
	case ir.OpRet:
		if instr[1].RetValue.Kind != ir.ValueReg || instr[1].RetValue.Reg != instr[0].Result {
			return ir.Instruction{}, false
		}
	case ir.OpRetVoid:
		// fine, call result (if any) is simply discarded
	default:
		return ir.Instruction{}, false
	}
	return instr[0], true
}

// substituteParams rewrites args, replacing every ValueParam with the
// corresponding value from callArgs — the substitution a call-site inline
// performs on a passthrough callee's own CallRuntime arguments.
func substituteParams(args []ir.Value, callArgs []ir.Value) []ir.Value {
	out := make([]ir.Value, len(args))
	for i, a := range args {
		if a.Kind == ir.ValueParam {
			out[i] = callArgs[a.Param]
		} else {
			out[i] = a
		}
	}
	return out
}

// InlinePrimitives replaces every OpCall to a passthrough function with the
// equivalent OpCallRuntime directly, across every function body in m, then
// drops any inlined function left with no remaining callers.
func InlinePrimitives(m *ir.Module) {
	inlineable := make(map[string]ir.Instruction)
	inlined := make(map[string]bool)
	for _, fn := range m.Functions() {
		if call, ok := passthroughShape(fn); ok {
			inlineable[fn.Name] = call
		}
	}

	for _, fn := range m.Functions() {
		if _, isInlineable := inlineable[fn.Name]; isInlineable {
			continue // don't inline a passthrough into itself
		}
		for bi := range fn.Blocks {
			instrs := fn.Blocks[bi].Instr
			for ii, instr := range instrs {
				if instr.Op != ir.OpCall {
					continue
				}
				callee, ok := inlineable[instr.Callee]
				if !ok {
					continue
				}
				instrs[ii] = ir.Instruction{
					Op:     ir.OpCallRuntime,
					Result: instr.Result,
					Callee: callee.Callee,
					Args:   substituteParams(callee.Args, instr.Args),
				}
				inlined[instr.Callee] = true
			}
		}
	}

	removeUncalledInlinedFunctions(m, inlined)
}

// removeUncalledInlinedFunctions drops every function named in inlined
// (inlined at one call site or more) that no remaining OpCall instruction
// in m references. A passthrough that was never inlined anywhere is kept.
func removeUncalledInlinedFunctions(m *ir.Module, inlined map[string]bool) {
	stillCalled := make(map[string]bool)
	for _, fn := range m.Functions() {
		for _, bb := range fn.Blocks {
			for _, instr := range bb.Instr {
				if instr.Op == ir.OpCall {
					stillCalled[instr.Callee] = true
				}
			}
		}
	}
	for name := range inlined {
		if !stillCalled[name] {
			m.RemoveFunction(name)
		}
	}
}

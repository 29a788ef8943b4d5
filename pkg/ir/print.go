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

import (
	"fmt"
	"io"
	"strings"
)

// Print renders m as human-readable textual IR — the equivalent of
// LLVMPrintModuleToFile, used for cmd/genprimitives' optional --dump-ir
// debug dump (SPEC_FULL.md §12).
func Print(w io.Writer, m *Module) error {
	for _, g := range m.Globals() {
		if _, err := fmt.Fprintln(w, printGlobal(g)); err != nil {
			return err
		}
	}
	for _, fn := range m.Functions() {
		if _, err := fmt.Fprintln(w, printFunction(fn)); err != nil {
			return err
		}
	}
	return nil
}

func printGlobal(g *Global) string {
	switch g.Kind {
	case GlobalBytes:
		return fmt.Sprintf("%s @%s = %s constant [%d x i8] %q", g.Linkage, g.Name, g.Linkage, len(g.Bytes), g.Bytes)
	case GlobalStringABI:
		return fmt.Sprintf("%s @%s = %s constant str {ptr @%s, i64 %d}", g.Linkage, g.Name, g.Linkage, g.CharactersRef, g.Len)
	default:
		return fmt.Sprintf("@%s = ?", g.Name)
	}
}

func printFunction(fn *Function) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s fn %s(%v) %v", fn.Linkage, fn.Name, fn.Type.Params, fn.Type.Return)
	if fn.IsDeclaration() {
		b.WriteString(" ;; declaration\n")
		return b.String()
	}
	b.WriteString(" {\n")
	for i, bb := range fn.Blocks {
		fmt.Fprintf(&b, "%s: ;; block %d\n", bb.Name, i)
		for _, instr := range bb.Instr {
			fmt.Fprintf(&b, "  %s\n", printInstruction(instr))
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func printInstruction(i Instruction) string {
	switch i.Op {
	case OpConstString:
		return fmt.Sprintf("%%%d = const.str @%s", i.Result, i.Literal)
	case OpCall:
		return fmt.Sprintf("%%%d = call @%s(%s)", i.Result, i.Callee, joinValues(i.Args))
	case OpCallRuntime:
		return fmt.Sprintf("%%%d = call.rt @%s(%s)", i.Result, i.Callee, joinValues(i.Args))
	case OpCondBr:
		return fmt.Sprintf("br %s, label %d, label %d", i.Cond, i.True, i.False)
	case OpBr:
		return fmt.Sprintf("br label %d", i.Target)
	case OpRet:
		return fmt.Sprintf("ret %s", i.RetValue)
	case OpRetVoid:
		return "ret void"
	default:
		return "?"
	}
}

func joinValues(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

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

// Package filterir lowers a record.Predicate tree into "filter" and
// "execute" IR functions spliced into a clone of the primitive library
// module — the specializing half of the pipeline, run once per distinct
// predicate rather than once per record.
package filterir

import (
	"fmt"

	"github.com/corejit/predicatejit/pkg/ir"
	"github.com/corejit/predicatejit/pkg/linker"
	"github.com/corejit/predicatejit/pkg/record"
)

// builder accumulates the per-predicate-tree build state: the module being
// spliced into, the function under construction, and the private-literal
// counter. str_<n> resets per Build call, not per module — two filters
// built from the same primitive library each start their literal numbering
// at str_0, since each lives in its own module clone.
type builder struct {
	m        *ir.Module
	b        *ir.Builder
	strCount int
}

// Build lowers pred into a fresh "filter"/"execute" pair spliced into a
// clone of primitivesModule, links the result, and returns the finished
// module. primitivesModule is never mutated.
func Build(primitivesModule *ir.Module, pred *record.Predicate) (*ir.Module, error) {
	m := primitivesModule.Clone()

	if err := buildFilterFn(m, pred); err != nil {
		return nil, err
	}
	if err := buildExecuteFn(m); err != nil {
		return nil, err
	}

	linker.ExternalizeOnly(m, "execute")
	linker.Link(m)

	return m, nil
}

// buildFilterFn synthesizes "filter(record) bool": signature cloned from
// filter_fn_sig, private linkage, entry/fail/success blocks, recursive
// descent over pred parameterized by (onFalse, onTrue).
func buildFilterFn(m *ir.Module, pred *record.Predicate) error {
	sigFn, err := m.MustFunction("filter_fn_sig")
	if err != nil {
		return err
	}

	fn := &ir.Function{Name: "filter", Type: sigFn.Type, Linkage: ir.LinkagePrivate}
	b := ir.NewBuilder(fn) // block 0: entry

	failBlock := b.NewBlock("fail")
	successBlock := b.NewBlock("success")

	bld := &builder{m: m, b: b}
	if err := bld.lower(pred, failBlock, successBlock); err != nil {
		return err
	}

	b.SetBlock(failBlock)
	b.RetBool(ir.BoolConst(false))

	b.SetBlock(successBlock)
	b.RetBool(ir.BoolConst(true))

	m.AddFunction(fn)
	return nil
}

// lower recursively lowers pred starting at the builder's current block,
// branching to onTrue when pred is satisfied and onFalse otherwise. This is
// the direct Go translation of build_join_filter's three cases.
func (bld *builder) lower(pred *record.Predicate, onFalse, onTrue int) error {
	switch pred.Tag {
	case record.TagLeaf:
		result, err := bld.lowerLeaf(pred.Leaf)
		if err != nil {
			return err
		}
		bld.b.CondBr(result, onTrue, onFalse)
		return nil

	case record.TagAnd:
		mid := bld.b.NewBlock("and_middle")
		if err := bld.lower(pred.L, onFalse, mid); err != nil {
			return err
		}
		bld.b.SetBlock(mid)
		return bld.lower(pred.R, onFalse, onTrue)

	case record.TagOr:
		mid := bld.b.NewBlock("or_middle")
		if err := bld.lower(pred.L, mid, onTrue); err != nil {
			return err
		}
		bld.b.SetBlock(mid)
		return bld.lower(pred.R, onFalse, onTrue)

	default:
		return fmt.Errorf("filterir: unknown predicate tag %d", pred.Tag)
	}
}

// lowerLeaf emits the literal, the field accessor call and the comparator
// call for a single leaf, returning the boolean result register.
func (bld *builder) lowerLeaf(leaf record.Leaf) (ir.Value, error) {
	litGlobal := bld.emitLiteral(leaf.Literal)
	literal := bld.b.ConstString(litGlobal)

	accessorSym := leaf.Field.Symbol()
	if _, err := bld.m.MustFunction(accessorSym); err != nil {
		return ir.Value{}, err
	}
	field := bld.b.Call(accessorSym, ir.Param(0))

	comparatorSym := leaf.Kind.Symbol()
	if _, err := bld.m.MustFunction(comparatorSym); err != nil {
		return ir.Value{}, err
	}
	return bld.b.Call(comparatorSym, field, literal), nil
}

// emitLiteral adds the str_<n>.characters / str_<n> global pair for text
// and returns the StringABI global's name.
func (bld *builder) emitLiteral(text string) string {
	n := bld.strCount
	bld.strCount++

	charsName := fmt.Sprintf("str_%d.characters", n)
	strName := fmt.Sprintf("str_%d", n)

	bld.m.AddGlobal(&ir.Global{
		Name:    charsName,
		Kind:    ir.GlobalBytes,
		Linkage: ir.LinkagePrivate,
		Bytes:   []byte(text),
	})
	bld.m.AddGlobal(&ir.Global{
		Name:          strName,
		Kind:          ir.GlobalStringABI,
		Linkage:       ir.LinkagePrivate,
		CharactersRef: charsName,
		Len:           uint64(len(text)),
	})

	return strName
}

// buildExecuteFn synthesizes "execute(records, out)": signature cloned from
// fn_sig, body is one call to run_filter(records, out, &filter). Linkage is
// left for the caller to externalize explicitly — execute must stay
// visible to the JIT engine's symbol lookup.
func buildExecuteFn(m *ir.Module) error {
	sigFn, err := m.MustFunction("fn_sig")
	if err != nil {
		return err
	}
	if _, err := m.MustFunction("filter"); err != nil {
		return err
	}
	if _, err := m.MustFunction("run_filter"); err != nil {
		return err
	}

	fn := &ir.Function{Name: "execute", Type: sigFn.Type, Linkage: ir.LinkagePrivate}
	b := ir.NewBuilder(fn)
	b.CallVoid("run_filter", ir.Param(0), ir.Param(1), ir.FuncRef("filter"))
	b.RetVoid()

	m.AddFunction(fn)
	return nil
}

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
package primitives

import (
	"github.com/corejit/predicatejit/pkg/ir"
	"github.com/corejit/predicatejit/pkg/record"
)

// comparatorSignature is shared by every filter_str_* comparator: two
// string views in, one bool out.
var comparatorSignature = ir.FunctionType{
	Params: []ir.Type{ir.TypeStringABI, ir.TypeStringABI},
	Return: ir.TypeBool,
}

// accessorSignature is shared by every user_get_field_<name> accessor.
var accessorSignature = ir.FunctionType{
	Params: []ir.Type{ir.TypeRecordPtr},
	Return: ir.TypeStringABI,
}

// comparatorRuntimeSymbol maps each FilterKind to the runtime intrinsic its
// comparator body forwards to.
var comparatorRuntimeSymbol = [...]string{
	record.StrContains:   SymStringsContain,
	record.StrEquals:     SymStringsEqual,
	record.StrStartsWith: SymStringsPrefix,
	record.StrEndsWith:   SymStringsSuffix,
}

// BuildModule constructs the primitive library module: the signature
// templates the Filter IR Builder clones from, the field accessors, the
// string comparators, and run_filter. Every function defined here starts
// out LinkagePrivate; pkg/filterir marks only its own "execute" External
// (pkg/linker.ExternalizeOnly) and everything else stays Private.
func BuildModule() *ir.Module {
	m := ir.NewModule("primitives")

	// Signature templates: declarations with no body, cloned by callers that
	// need to synthesize a function of the same shape (SPEC_FULL.md §9,
	// "signature cloning") without hand-writing the record/slice ABI types
	// at every call site.
	m.AddFunction(&ir.Function{
		Name:    "filter_fn_sig",
		Type:    ir.FunctionType{Params: []ir.Type{ir.TypeRecordPtr}, Return: ir.TypeBool},
		Linkage: ir.LinkagePrivate,
	})
	m.AddFunction(&ir.Function{
		Name:    "fn_sig",
		Type:    ir.FunctionType{Params: []ir.Type{ir.TypeRecordSlice, ir.TypeRecordOutPtr}, Return: ir.TypeVoid},
		Linkage: ir.LinkagePrivate,
	})

	for field := 0; field < record.FieldCount; field++ {
		buildAccessor(m, record.Field(field))
	}

	for kind := record.StrContains; kind <= record.StrEndsWith; kind++ {
		buildComparator(m, kind)
	}

	buildRunFilter(m)

	return m
}

func buildAccessor(m *ir.Module, field record.Field) {
	fn := &ir.Function{Name: field.Symbol(), Type: accessorSignature, Linkage: ir.LinkagePrivate}
	b := ir.NewBuilder(fn)
	result := b.CallRuntime(SymRecordField, ir.Param(0), ir.Int64Const(int64(field)))
	b.Ret(result)
	m.AddFunction(fn)
}

func buildComparator(m *ir.Module, kind record.FilterKind) {
	fn := &ir.Function{Name: kind.Symbol(), Type: comparatorSignature, Linkage: ir.LinkagePrivate}
	b := ir.NewBuilder(fn)
	result := b.CallRuntime(comparatorRuntimeSymbol[kind], ir.Param(0), ir.Param(1))
	b.RetBool(result)
	m.AddFunction(fn)
}

// run_filter's parameter order — (records, out, filter) — mirrors
// execute()'s call into it (see pkg/filterir), itself grounded on
// build_fn.rs's `make_call("run_filter", ..., &mut [users_arr_arg,
// result_vec_arg, filter_fn_ptr])`.
func buildRunFilter(m *ir.Module) {
	fn := &ir.Function{
		Name:    "run_filter",
		Type:    ir.FunctionType{Params: []ir.Type{ir.TypeRecordSlice, ir.TypeRecordOutPtr, ir.TypeFuncPtr}, Return: ir.TypeVoid},
		Linkage: ir.LinkagePrivate,
	}
	b := ir.NewBuilder(fn)
	b.CallVoidRuntime(SymRunFilter, ir.Param(0), ir.Param(1), ir.Param(2))
	b.RetVoid()
	m.AddFunction(fn)
}

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
	"bytes"
	"strings"
	"testing"
)

func buildSampleModule() *Module {
	m := NewModule("sample")

	m.AddGlobal(&Global{Name: "str_0.characters", Kind: GlobalBytes, Linkage: LinkagePrivate, Bytes: []byte("gmail.com")})
	m.AddGlobal(&Global{Name: "str_0", Kind: GlobalStringABI, Linkage: LinkagePrivate, CharactersRef: "str_0.characters", Len: 9})

	leaf := &Function{
		Name:    "filter_str_contains",
		Type:    FunctionType{Params: []Type{TypeStringABI, TypeStringABI}, Return: TypeBool},
		Linkage: LinkagePrivate,
	}
	b := NewBuilder(leaf)
	res := b.CallRuntime("rt_strings_contains", Param(0), Param(1))
	b.RetBool(res)
	m.AddFunction(leaf)

	fn := &Function{
		Name:    "filter",
		Type:    FunctionType{Params: []Type{TypeRecordOutPtr}, Return: TypeBool},
		Linkage: LinkageExternal,
	}
	fb := NewBuilder(fn)
	lit := fb.ConstString("str_0")
	ok := fb.Call("filter_str_contains", Param(0), lit)
	fb.RetBool(ok)
	m.AddFunction(fn)

	return m
}

func Check(t *testing.T, name string, got, want any) {
	t.Helper()
	if got != want {
		t.Fatalf("%s: got %v, want %v", name, got, want)
	}
}

func TestModuleFunctionsPreserveInsertionOrder(t *testing.T) {
	m := buildSampleModule()
	fns := m.Functions()
	Check(t, "len", len(fns), 2)
	Check(t, "fns[0].Name", fns[0].Name, "filter_str_contains")
	Check(t, "fns[1].Name", fns[1].Name, "filter")
}

func TestMustFunctionMissingSymbol(t *testing.T) {
	m := NewModule("empty")
	_, err := m.MustFunction("user_get_field_email")
	if err == nil {
		t.Fatal("expected an error for a missing primitive symbol")
	}
	if !strings.Contains(err.Error(), "user_get_field_email") {
		t.Fatalf("error should name the missing symbol, got: %v", err)
	}
}

func TestRemoveFunction(t *testing.T) {
	m := buildSampleModule()
	m.RemoveFunction("filter_str_contains")
	if _, ok := m.Function("filter_str_contains"); ok {
		t.Fatal("expected filter_str_contains to be gone")
	}
	Check(t, "remaining functions", len(m.Functions()), 1)
}

func TestVerifyRejectsUnterminatedBlock(t *testing.T) {
	fn := &Function{Name: "bad", Type: FunctionType{Return: TypeBool}}
	fn.Blocks = []BasicBlock{{Name: "entry", Instr: []Instruction{{Op: OpConstString, Result: 0, Literal: "x"}}}}
	if err := Verify(fn); err == nil {
		t.Fatal("expected Verify to reject a block with no terminator")
	}
}

func TestVerifyAcceptsBuiltFunction(t *testing.T) {
	fn := &Function{Name: "ok", Type: FunctionType{Return: TypeBool}}
	b := NewBuilder(fn)
	b.RetBool(BoolConst(true))
	if err := Verify(fn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	m := buildSampleModule()

	data, err := SaveArtifact(m)
	if err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}

	loaded, err := LoadArtifact(data)
	if err != nil {
		t.Fatalf("LoadArtifact: %v", err)
	}

	got := loaded.Module
	Check(t, "Name", got.Name, m.Name)
	Check(t, "function count", len(got.Functions()), len(m.Functions()))
	Check(t, "global count", len(got.Globals()), len(m.Globals()))

	fn, ok := got.Function("filter")
	if !ok {
		t.Fatal("round-tripped module missing filter")
	}
	Check(t, "filter linkage", fn.Linkage, LinkageExternal)
	Check(t, "filter block count", len(fn.Blocks), 1)

	if loaded.Context.Module() != got {
		t.Fatal("Context should own the loaded module")
	}
}

func TestPrintProducesNonEmptyText(t *testing.T) {
	m := buildSampleModule()
	var buf bytes.Buffer
	if err := Print(&buf, m); err != nil {
		t.Fatalf("Print: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "filter") || !strings.Contains(out, "str_0") {
		t.Fatalf("expected dump to mention filter and str_0, got:\n%s", out)
	}
}

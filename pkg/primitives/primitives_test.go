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
	"path/filepath"
	"testing"

	"github.com/corejit/predicatejit/pkg/record"
)

func TestBuildModuleDeclaresEveryPrimitive(t *testing.T) {
	m := BuildModule()

	for field := 0; field < record.FieldCount; field++ {
		sym := record.Field(field).Symbol()
		fn, ok := m.Function(sym)
		if !ok {
			t.Fatalf("missing accessor %s", sym)
		}
		if fn.IsDeclaration() {
			t.Fatalf("accessor %s should have a body", sym)
		}
	}

	for kind := record.StrContains; kind <= record.StrEndsWith; kind++ {
		sym := kind.Symbol()
		fn, ok := m.Function(sym)
		if !ok {
			t.Fatalf("missing comparator %s", sym)
		}
		if fn.IsDeclaration() {
			t.Fatalf("comparator %s should have a body", sym)
		}
	}

	if _, ok := m.Function("run_filter"); !ok {
		t.Fatal("missing run_filter")
	}
}

func TestRuntimeFieldAccessorMatchesFieldGet(t *testing.T) {
	r := &record.Record{Email: "a@b.com", FirstName: "Ada"}
	got := rtRecordField(r, int64(record.FieldEmail))
	if got.String() != r.Email {
		t.Fatalf("got %q, want %q", got.String(), r.Email)
	}
	got = rtRecordField(r, int64(record.FieldFirstName))
	if got.String() != r.FirstName {
		t.Fatalf("got %q, want %q", got.String(), r.FirstName)
	}
}

func TestRuntimeStringComparators(t *testing.T) {
	a := record.NewStringABI("hello world")
	cases := []struct {
		name string
		fn   func(record.StringABI, record.StringABI) bool
		b    string
		want bool
	}{
		{"contains", rtStringsContains, "lo wo", true},
		{"contains-miss", rtStringsContains, "xyz", false},
		{"equal", rtStringsEqual, "hello world", true},
		{"prefix", rtStringsHasPrefix, "hello", true},
		{"suffix", rtStringsHasSuffix, "world", true},
	}
	for _, c := range cases {
		if got := c.fn(a, record.NewStringABI(c.b)); got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestRunFilterAppliesPredicateInOrder(t *testing.T) {
	records := []record.Record{
		{Email: "one@x.com"}, {Email: "two@x.com"}, {Email: "three@x.com"},
	}
	var out []record.Record
	rtRunFilter(records, &out, func(r *record.Record) bool { return r.Email != "two@x.com" })

	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].Email != "one@x.com" || out[1].Email != "three@x.com" {
		t.Fatalf("unexpected order/contents: %+v", out)
	}
}

func TestSymbolsTableCoversOpCallRuntimeUses(t *testing.T) {
	symbols := Symbols()
	for _, name := range []string{SymRecordField, SymStringsContain, SymStringsEqual, SymStringsPrefix, SymStringsSuffix, SymRunFilter} {
		if _, ok := symbols[name]; !ok {
			t.Errorf("Symbols() missing %s", name)
		}
	}
}

func TestArtifactRoundTripsThroughDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "primitives.artifact")

	if err := WriteArtifact(path); err != nil {
		t.Fatalf("WriteArtifact: %v", err)
	}

	mc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := mc.Module.Function("run_filter"); !ok {
		t.Fatal("loaded artifact missing run_filter")
	}
}

func TestLoadFallsBackWhenArtifactMissing(t *testing.T) {
	mc, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := mc.Module.Function("run_filter"); !ok {
		t.Fatal("fallback module missing run_filter")
	}
}

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
	"testing"

	"github.com/corejit/predicatejit/pkg/filterir"
	"github.com/corejit/predicatejit/pkg/ir"
	"github.com/corejit/predicatejit/pkg/primitives"
	"github.com/corejit/predicatejit/pkg/record"
)

func buildFilterModule(t *testing.T, pred *record.Predicate) *ir.Module {
	t.Helper()
	m, err := filterir.Build(primitives.BuildModule(), pred)
	if err != nil {
		t.Fatalf("filterir.Build: %v", err)
	}
	return m
}

func TestInlinePrimitivesRemovesInlinedFunctions(t *testing.T) {
	pred := record.NewLeaf(record.FieldEmail, record.StrContains, "gmail.com")
	m := buildFilterModule(t, pred)

	InlinePrimitives(m)

	if _, ok := m.Function(record.FieldEmail.Symbol()); ok {
		t.Fatal("accessor should have been inlined away")
	}
	if _, ok := m.Function(record.StrContains.Symbol()); ok {
		t.Fatal("comparator should have been inlined away")
	}
	if _, ok := m.Function("run_filter"); ok {
		t.Fatal("run_filter should have been inlined into execute")
	}

	filterFn, _ := m.Function("filter")
	if err := ir.Verify(filterFn); err != nil {
		t.Fatalf("filter failed verification after inlining: %v", err)
	}
}

func TestConstantFoldEmptyContainsLiteral(t *testing.T) {
	pred := record.NewLeaf(record.FieldUsername, record.StrContains, "")
	m := buildFilterModule(t, pred)

	InlinePrimitives(m)
	ConstantFold(m)

	filterFn, _ := m.Function("filter")
	entry := filterFn.Blocks[0]
	last := entry.Instr[len(entry.Instr)-1]
	if last.Op != ir.OpCondBr {
		t.Fatalf("expected entry to still end in a CondBr, got %v", last.Op)
	}
	if last.Cond.Kind != ir.ValueBool || !last.Cond.Bool {
		t.Fatalf("expected folded condition to be constant true, got %+v", last.Cond)
	}
}

func TestDeadBranchEliminationFoldsConstantCondBr(t *testing.T) {
	pred := record.NewLeaf(record.FieldUsername, record.StrContains, "")
	m := buildFilterModule(t, pred)

	InlinePrimitives(m)
	ConstantFold(m)
	DeadBranchElimination(m)

	filterFn, _ := m.Function("filter")
	entry := filterFn.Blocks[0]
	last := entry.Instr[len(entry.Instr)-1]
	if last.Op != ir.OpBr {
		t.Fatalf("expected entry to end in an unconditional Br, got %v", last.Op)
	}
}

func TestOptimizerRunFullPipelineProducesVerifiableModule(t *testing.T) {
	pred := record.And(
		record.NewLeaf(record.FieldEmail, record.StrContains, "gmail.com"),
		record.Or(
			record.NewLeaf(record.FieldGender, record.StrEquals, "female"),
			record.NewLeaf(record.FieldTitle, record.StrStartsWith, "Dr"),
		),
	)
	m := buildFilterModule(t, pred)

	opt := New(DefaultLevel)
	defer opt.Close()

	if err := opt.Run(m); err != nil {
		t.Fatalf("Run: %v", err)
	}

	execFn, ok := m.Function("execute")
	if !ok {
		t.Fatal("missing execute")
	}
	if err := ir.Verify(execFn); err != nil {
		t.Fatalf("execute failed verification: %v", err)
	}

	if err := opt.Run(m); err != nil {
		t.Fatalf("second Run should also succeed (idempotent pipeline): %v", err)
	}
}

func TestRunAfterCloseErrors(t *testing.T) {
	pred := record.NewLeaf(record.FieldEmail, record.StrContains, "x")
	m := buildFilterModule(t, pred)

	opt := New(DefaultLevel)
	opt.Close()

	if err := opt.Run(m); err == nil {
		t.Fatal("expected Run after Close to error")
	}
}

func TestCollapseRedundantDisjunctsDropsDuplicates(t *testing.T) {
	leaf := record.NewLeaf(record.FieldEmail, record.StrEquals, "spam@x.com")

	deepOr := leaf
	for i := 0; i < 31; i++ {
		deepOr = record.Or(record.NewLeaf(record.FieldEmail, record.StrEquals, "spam@x.com"), deepOr)
	}

	collapsed := CollapseRedundantDisjuncts(deepOr)
	if collapsed.Tag != record.TagLeaf {
		t.Fatalf("expected a single collapsed leaf, got %s", collapsed)
	}
	if collapsed.Leaf.Literal != "spam@x.com" {
		t.Fatalf("unexpected collapsed literal: %s", collapsed.Leaf.Literal)
	}
}

func TestCollapseRedundantDisjunctsKeepsDistinctBranches(t *testing.T) {
	pred := record.Or(
		record.NewLeaf(record.FieldEmail, record.StrEquals, "a@x.com"),
		record.NewLeaf(record.FieldEmail, record.StrEquals, "b@x.com"),
	)
	collapsed := CollapseRedundantDisjuncts(pred)
	if collapsed.Tag != record.TagOr {
		t.Fatalf("distinct disjuncts should not collapse, got %s", collapsed)
	}
}

func TestCollapseRedundantDisjunctsRecursesIntoAnd(t *testing.T) {
	dup := record.Or(
		record.NewLeaf(record.FieldTitle, record.StrEquals, "Dr"),
		record.NewLeaf(record.FieldTitle, record.StrEquals, "Dr"),
	)
	pred := record.And(record.NewLeaf(record.FieldEmail, record.StrContains, "x"), dup)

	collapsed := CollapseRedundantDisjuncts(pred)
	if collapsed.Tag != record.TagAnd {
		t.Fatalf("expected top-level And to survive, got %s", collapsed)
	}
	if collapsed.R.Tag != record.TagLeaf {
		t.Fatalf("expected nested Or to collapse to a single leaf, got %s", collapsed.R)
	}
}

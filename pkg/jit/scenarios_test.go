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
package jit

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/corejit/predicatejit/pkg/interp"
	"github.com/corejit/predicatejit/pkg/record"
)

// mustEqual fails t if got and want differ, printing a go-cmp diff rather
// than a raw %+v dump.
func mustEqual(t *testing.T, got, want []record.Record) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filtered records mismatch (-want +got):\n%s", diff)
	}
}

func scenarioUsers() []record.Record {
	return []record.Record{
		{Email: "u1@example.com", Gender: "male", Username: "user_one", FirstName: "Ada", LastName: "Lovelace",
			Location: record.Location{City: "New York", State: "Yorkshire"}, PhoneNumber: "+123456"},
		{Email: "u2@example.com", Gender: "female", Username: "user_two", FirstName: "Grace", LastName: "Hopper",
			Location: record.Location{City: "London", State: "Hampshire"}, PhoneNumber: "+999999"},
		{Email: "u3@other.net", Gender: "female", Username: "account3", FirstName: "John", LastName: "Doe",
			Location: record.Location{City: "Paris", State: "Texas"}, PhoneNumber: "+000000"},
		{Email: "u4@other.net", Gender: "male", Username: "account4", FirstName: "John", LastName: "Smith",
			Location: record.Location{City: "London", State: "Bavaria"}, PhoneNumber: "+000000", Title: "Dr"},
	}
}

// TestScenarioA_EmptyLiteralContains: every record matches an empty-literal
// Contains predicate.
func TestScenarioA_EmptyLiteralContains(t *testing.T) {
	users := scenarioUsers()
	pred := record.NewLeaf(record.FieldEmail, record.StrContains, "")

	e := newTestEngine(t)
	defer e.Close()
	cf, err := e.Compile(pred)
	if err != nil {
		t.Fatal(err)
	}

	mustEqual(t, cf.FilterAll(users), interp.Filter(pred, users))
	mustEqual(t, cf.FilterAll(users), users)
}

// TestScenarioB_EqualityOnGender: exact-match equality picks out only the
// matching gender.
func TestScenarioB_EqualityOnGender(t *testing.T) {
	users := scenarioUsers()
	pred := record.NewLeaf(record.FieldGender, record.StrEquals, "female")

	e := newTestEngine(t)
	defer e.Close()
	cf, err := e.Compile(pred)
	if err != nil {
		t.Fatal(err)
	}

	mustEqual(t, cf.FilterAll(users), interp.Filter(pred, users))
	mustEqual(t, cf.FilterAll(users), []record.Record{users[1], users[2]})
}

// TestScenarioC_Conjunction: And requires both the email and gender leaves
// to hold simultaneously.
func TestScenarioC_Conjunction(t *testing.T) {
	users := scenarioUsers()
	pred := record.And(
		record.NewLeaf(record.FieldEmail, record.StrContains, "example.com"),
		record.NewLeaf(record.FieldGender, record.StrEquals, "female"),
	)

	e := newTestEngine(t)
	defer e.Close()
	cf, err := e.Compile(pred)
	if err != nil {
		t.Fatal(err)
	}

	mustEqual(t, cf.FilterAll(users), interp.Filter(pred, users))
	mustEqual(t, cf.FilterAll(users), []record.Record{users[1]})
}

// TestScenarioD_NestedDisjunctionShortCircuit: with no record matching the
// StartsWith leaf, the Or degenerates to exactly the Doe-lastname matches.
func TestScenarioD_NestedDisjunctionShortCircuit(t *testing.T) {
	users := scenarioUsers()
	pred := record.Or(
		record.NewLeaf(record.FieldFirstName, record.StrStartsWith, "a long value"),
		record.NewLeaf(record.FieldLastName, record.StrEquals, "Doe"),
	)

	e := newTestEngine(t)
	defer e.Close()
	cf, err := e.Compile(pred)
	if err != nil {
		t.Fatal(err)
	}

	mustEqual(t, cf.FilterAll(users), interp.Filter(pred, users))
	mustEqual(t, cf.FilterAll(users), []record.Record{users[2]})
}

// TestScenarioE_DeepOrTreeDegeneracy: 32 copies of a never-matching leaf
// joined by Or still matches nothing, and CollapseRedundantDisjuncts must
// actually have collapsed them to a single fail-through branch before
// filterir lowers the tree — not just leave the degenerate 32-way Or
// structurally intact but happening to evaluate to "no matches" anyway.
func TestScenarioE_DeepOrTreeDegeneracy(t *testing.T) {
	users := scenarioUsers()
	pred := burnerPredicateForTest()

	e := newTestEngine(t)
	defer e.Close()
	cf, err := e.Compile(pred)
	if err != nil {
		t.Fatal(err)
	}

	mustEqual(t, cf.FilterAll(users), interp.Filter(pred, users))
	if got := cf.FilterAll(users); len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}

	fn, err := cf.module.MustFunction("filter")
	if err != nil {
		t.Fatal(err)
	}
	// Every uncollapsed Or node adds its own "or_middle" block; 32
	// congruent copies collapsed to one leaves just entry/fail/success.
	if got := len(fn.Blocks); got != 3 {
		t.Fatalf("filter() has %d blocks after collapse, want 3 (entry/fail/success) — 32 copies were not collapsed to one", got)
	}
}

func burnerPredicateForTest() *record.Predicate {
	leaf := record.NewLeaf(record.FieldFirstName, record.StrStartsWith, "a long value")
	p := leaf
	for i := 0; i < 5; i++ {
		p = record.Or(p, p)
	}
	return p
}

// TestScenarioF_ThreeLevelMix: the Or(Or(A, B), C) mix from SPEC_FULL.md §8
// must agree with the interpreter exactly, record for record.
func TestScenarioF_ThreeLevelMix(t *testing.T) {
	users := scenarioUsers()

	a := record.And(
		record.Or(
			record.NewLeaf(record.FieldEmail, record.StrContains, "example.com"),
			record.NewLeaf(record.FieldLocationCity, record.StrEquals, "New York"),
		),
		record.NewLeaf(record.FieldGender, record.StrEquals, "female"),
	)
	b := record.Or(
		record.And(
			record.NewLeaf(record.FieldUsername, record.StrStartsWith, "user_"),
			record.NewLeaf(record.FieldLocationState, record.StrEndsWith, "shire"),
		),
		record.NewLeaf(record.FieldPhoneNumber, record.StrContains, "+123"),
	)
	c := record.And(
		record.NewLeaf(record.FieldFirstName, record.StrEquals, "John"),
		record.Or(
			record.NewLeaf(record.FieldLastName, record.StrEquals, "Doe"),
			record.And(
				record.NewLeaf(record.FieldLocationCity, record.StrEquals, "London"),
				record.NewLeaf(record.FieldTitle, record.StrEquals, "Dr"),
			),
		),
	)
	pred := record.Or(record.Or(a, b), c)

	e := newTestEngine(t)
	defer e.Close()
	cf, err := e.Compile(pred)
	if err != nil {
		t.Fatal(err)
	}

	mustEqual(t, cf.FilterAll(users), interp.Filter(pred, users))
}

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
package main

import "github.com/corejit/predicatejit/pkg/record"

// burnerFilter builds the "deep OR of a never-matching leaf" filter: 32
// copies of a single StartsWith leaf joined by Or, doubled five times. It
// never matches anything in the demo dataset; its purpose is to waste CPU
// time in the interpreter and to exercise the optimizer's CFG collapse (the
// compiled body degenerates to a single fail-through branch).
func burnerFilter() *record.Predicate {
	leaf := record.NewLeaf(record.FieldFirstName, record.StrStartsWith, "a long value")
	p := leaf
	for i := 0; i < 5; i++ {
		p = record.Or(p, p)
	}
	return p
}

// complexFilter builds the three-level-mix filter: Or(Or(A, B), C), ported
// field-for-field from build_complex_filter in original_source.
func complexFilter() *record.Predicate {
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

	return record.Or(record.Or(a, b), c)
}

// buildComplexFilter joins the burner filter and the three-level mix exactly
// as build_complex_filter does: Or(burner, mix).
func buildComplexFilter() *record.Predicate {
	return record.Or(burnerFilter(), complexFilter())
}

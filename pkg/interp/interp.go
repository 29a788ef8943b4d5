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

// Package interp is the reference implementation: it evaluates a predicate
// tree directly over a record, short-circuiting in Go's own && / ||. It
// exists only to validate the JIT (pkg/jit); it is never the fast path.
package interp

import "github.com/corejit/predicatejit/pkg/record"

// Eval evaluates pred against r, short-circuiting And/Or exactly like the
// synthesized CFG does.
func Eval(pred *record.Predicate, r *record.Record) bool {
	if pred == nil {
		return true
	}
	switch pred.Tag {
	case record.TagLeaf:
		return pred.Leaf.Eval(r)
	case record.TagAnd:
		return Eval(pred.L, r) && Eval(pred.R, r)
	case record.TagOr:
		return Eval(pred.L, r) || Eval(pred.R, r)
	default:
		panic("interp: unknown predicate tag")
	}
}

// Filter returns the subsequence of records matching pred, preserving order.
func Filter(pred *record.Predicate, records []record.Record) []record.Record {
	out := make([]record.Record, 0, len(records))
	for i := range records {
		if Eval(pred, &records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

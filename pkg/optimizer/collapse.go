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

import "github.com/corejit/predicatejit/pkg/record"

// CollapseRedundantDisjuncts simplifies pred by collapsing any run of
// structurally congruent Or branches — the same Leaf repeated, or nested Or
// trees that are themselves congruent — into a single copy. This is this
// pipeline's concrete stand-in for what a real compiler's CSE plus
// jump-threading would do to a hand-built filter containing many copies of
// the same disjunct: rather than reconstruct that congruence after
// lowering (where it would be disguised as separate basic blocks calling
// the same symbols with the same literal globals), it is detected directly
// on the tree, before pkg/filterir ever sees it.
//
// And nodes are walked but their two sides are never merged or dropped;
// an And that is itself a disjunct of an Or is compared as a whole, so an
// exact duplicate of it in the same Or-spine is dropped like any other.
func CollapseRedundantDisjuncts(pred *record.Predicate) *record.Predicate {
	if pred == nil {
		return nil
	}
	switch pred.Tag {
	case record.TagLeaf:
		return pred
	case record.TagAnd:
		return record.And(CollapseRedundantDisjuncts(pred.L), CollapseRedundantDisjuncts(pred.R))
	case record.TagOr:
		return collapseOr(pred)
	default:
		return pred
	}
}

// collapseOr flattens pred's Or-spine into a list of disjuncts, drops
// congruent duplicates (keeping the first occurrence, preserving order),
// recursively collapses what survives, and rebuilds a right-leaning Or
// chain — the same shape record.Or's constructor produces.
func collapseOr(pred *record.Predicate) *record.Predicate {
	disjuncts := flattenOr(pred)

	seen := make(map[string]bool, len(disjuncts))
	var kept []*record.Predicate
	for _, d := range disjuncts {
		key := fingerprintPredicate(d)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, CollapseRedundantDisjuncts(d))
	}

	if len(kept) == 1 {
		return kept[0]
	}

	result := kept[len(kept)-1]
	for i := len(kept) - 2; i >= 0; i-- {
		result = record.Or(kept[i], result)
	}
	return result
}

// flattenOr collects every non-Or leaf of pred's Or-spine, in left-to-right
// order, without recursing into And subtrees (those are opaque terms as far
// as the disjunction is concerned).
func flattenOr(pred *record.Predicate) []*record.Predicate {
	if pred.Tag != record.TagOr {
		return []*record.Predicate{pred}
	}
	return append(flattenOr(pred.L), flattenOr(pred.R)...)
}

// fingerprintPredicate renders pred's full structure as a string usable as
// a congruence key — two predicates fingerprint equal only when they have
// the same structure, so equal fingerprints always evaluate to the same
// result; equivalent predicates of different structure fingerprint apart.
func fingerprintPredicate(pred *record.Predicate) string {
	if pred == nil {
		return "()"
	}
	switch pred.Tag {
	case record.TagLeaf:
		return "L:" + pred.Leaf.Field.String() + ":" + pred.Leaf.Kind.String() + ":" + pred.Leaf.Literal
	case record.TagAnd:
		return "A(" + fingerprintPredicate(pred.L) + "," + fingerprintPredicate(pred.R) + ")"
	case record.TagOr:
		return "O(" + fingerprintPredicate(pred.L) + "," + fingerprintPredicate(pred.R) + ")"
	default:
		return "?"
	}
}

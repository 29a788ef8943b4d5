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
package record

import (
	"fmt"
	"strings"
)

// Leaf is a single field comparison: "field <kind> literal".
type Leaf struct {
	Field   Field
	Kind    FilterKind
	Literal string
}

// Eval applies this leaf directly to r.  Used by the interpreter.
func (l Leaf) Eval(r *Record) bool {
	value := l.Field.Get(r)
	switch l.Kind {
	case StrContains:
		return strings.Contains(value, l.Literal)
	case StrEquals:
		return value == l.Literal
	case StrStartsWith:
		return strings.HasPrefix(value, l.Literal)
	case StrEndsWith:
		return strings.HasSuffix(value, l.Literal)
	default:
		panic(fmt.Sprintf("record: unknown filter kind %d", l.Kind))
	}
}

// PredicateTag discriminates the tagged variant making up a Predicate.
type PredicateTag int

// The complete set of predicate tags.
const (
	TagLeaf PredicateTag = iota
	TagAnd
	TagOr
)

// Predicate is the user-level filter expression: leaves joined by AND/OR.
// Trees are finite, acyclic, and owned by value; no deduplication or sharing
// is required of a caller constructing one.
type Predicate struct {
	Tag  PredicateTag
	Leaf Leaf
	L, R *Predicate
}

// NewLeaf constructs a single-comparison predicate.
func NewLeaf(field Field, kind FilterKind, literal string) *Predicate {
	return &Predicate{Tag: TagLeaf, Leaf: Leaf{Field: field, Kind: kind, Literal: literal}}
}

// And joins two predicates with short-circuiting conjunction.
func And(l, r *Predicate) *Predicate {
	return &Predicate{Tag: TagAnd, L: l, R: r}
}

// Or joins two predicates with short-circuiting disjunction.
func Or(l, r *Predicate) *Predicate {
	return &Predicate{Tag: TagOr, L: l, R: r}
}

// String renders the predicate as a small s-expression, useful for test
// failure messages and IR debug dumps.
func (p *Predicate) String() string {
	if p == nil {
		return "()"
	}
	switch p.Tag {
	case TagLeaf:
		return fmt.Sprintf("(%s %s %q)", p.Leaf.Field, p.Leaf.Kind, p.Leaf.Literal)
	case TagAnd:
		return fmt.Sprintf("(and %s %s)", p.L, p.R)
	case TagOr:
		return fmt.Sprintf("(or %s %s)", p.L, p.R)
	default:
		return "(?)"
	}
}

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

// Package primitives is the ahead-of-time primitive library: the small set
// of native Go runtime intrinsics a compiled filter leans on (field access,
// string comparison, record iteration), plus the IR module that declares
// and wires them into callable symbols (BuildModule). This is the Go-native
// stand-in for the Rust "primitives" crate compiled once to an .ll library
// and linked into every specialized filter.
package primitives

import (
	"strings"

	"github.com/corejit/predicatejit/pkg/record"
)

// Runtime intrinsic symbol names. BuildModule's bodies call these by name;
// pkg/jit's compileFilter matches them to lower field access and string
// comparison to inline machine code.
const (
	SymRecordField    = "rt_record_field"
	SymStringsContain = "rt_strings_contains"
	SymStringsEqual   = "rt_strings_equal"
	SymStringsPrefix  = "rt_strings_has_prefix"
	SymStringsSuffix  = "rt_strings_has_suffix"
	SymRunFilter      = "rt_run_filter"
)

// rtRecordField is the native implementation behind every
// user_get_field_<name> accessor body: field selection is a runtime switch
// over a baked-in constant index rather than twelve distinct intrinsics.
func rtRecordField(rec *record.Record, fieldIndex int64) record.StringABI {
	return record.NewStringABI(record.Field(fieldIndex).Get(rec))
}

func rtStringsContains(a, b record.StringABI) bool {
	return strings.Contains(a.String(), b.String())
}

func rtStringsEqual(a, b record.StringABI) bool {
	return a.String() == b.String()
}

func rtStringsHasPrefix(a, b record.StringABI) bool {
	return strings.HasPrefix(a.String(), b.String())
}

func rtStringsHasSuffix(a, b record.StringABI) bool {
	return strings.HasSuffix(a.String(), b.String())
}

// FilterFunc is the shape of a compiled (or interpreted) single-record
// predicate, as run_filter's runtime loop invokes it.
type FilterFunc func(*record.Record) bool

// rtRunFilter is run_filter's actual iteration: this IR has no arithmetic
// or loop instructions of its own, so the surrounding record-at-a-time loop is a
// fixed native intrinsic and only the branchy predicate body gets compiled
// per filter. Argument order mirrors execute()'s own (records, out, filter)
// call into run_filter.
func rtRunFilter(records []record.Record, out *[]record.Record, filter FilterFunc) {
	for i := range records {
		if filter(&records[i]) {
			*out = append(*out, records[i])
		}
	}
}

// Symbols returns every runtime intrinsic this library exposes, keyed by
// the symbol name its IR callers use. pkg/jit does not consult this map:
// it lowers rt_record_field and the string comparators inline and rejects
// any other runtime call in a filter body.
func Symbols() map[string]any {
	return map[string]any{
		SymRecordField:    rtRecordField,
		SymStringsContain: rtStringsContains,
		SymStringsEqual:   rtStringsEqual,
		SymStringsPrefix:  rtStringsHasPrefix,
		SymStringsSuffix:  rtStringsHasSuffix,
		SymRunFilter:      rtRunFilter,
	}
}

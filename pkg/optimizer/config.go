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

// Package optimizer is the O3-equivalent pass pipeline: a fixed sequence of
// transformations run over a filter module before it is handed to the JIT
// engine. Passes are conservative by design — each only ever makes a module
// smaller or more direct, never changes what "execute" computes.
package optimizer

// Config controls how aggressively the pipeline runs. Mirrors the
// precanned-levels shape of a production optimizer config: a small struct
// of toggles, selected by level rather than hand-assembled per caller.
type Config struct {
	// InlinePrimitives inlines single-call passthrough functions (field
	// accessors, comparators, run_filter itself) into their callers.
	InlinePrimitives bool
	// ConstantFold folds comparator calls whose literal operand makes the
	// result statically known (e.g. "contains ''" is always true).
	ConstantFold bool
	// SimplifyCFG retargets branches through pure-jump trampoline blocks.
	SimplifyCFG bool
	// DeadBranchElimination rewrites conditional branches whose condition
	// is now a compile-time constant into unconditional jumps.
	DeadBranchElimination bool
	// MergeIdenticalBlocks deduplicates structurally identical blocks.
	MergeIdenticalBlocks bool
}

// Levels provides precanned optimization configurations, indexed the same
// way as a real optimizer's -O0/-O3: level 0 does nothing, higher levels
// enable strictly more passes.
var Levels = []Config{
	// Level 0: no optimization, used for debugging IR dumps.
	{},
	// Level 1: inline primitives but leave CFG shape alone.
	{InlinePrimitives: true},
	// Level 2: aggressive, the default for compiled filters.
	{
		InlinePrimitives:      true,
		ConstantFold:          true,
		SimplifyCFG:           true,
		DeadBranchElimination: true,
		MergeIdenticalBlocks:  true,
	},
}

// DefaultLevel is the configuration cmd/filterjit and pkg/jit's cache use
// unless a caller asks for something else — the aggressive level, matching
// the original pipeline's unconditional "default<O3>" pass run.
var DefaultLevel = Levels[2]

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

// Package runtimehooks provides the handful of symbols a JIT'd module
// expects to find already resolved in the process, rather than defined
// anywhere in the module itself — the Go-native counterpart of the
// personality routine and unwind entry point a compiled Rust/C module
// links against implicitly.
package runtimehooks

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Symbol names of the runtime-satisfied hooks, independent of whatever
// primitive library is loaded. pkg/jit.NewEngine does not install them:
// compiled filters call neither hook.
const (
	SymUnwindResume = "rt_unwind_resume"
	SymPersonality  = "rt_eh_personality"
)

// UnwindResume is called if a JIT'd function ever reaches an unreachable
// path this pipeline's lowering should never produce (every predicate
// lowering always reaches a Leaf CondBr or an explicit return — see
// pkg/filterir). Treated as a fatal bug, not a recoverable condition.
func UnwindResume() {
	logrus.Fatal("predicatejit: jit: reached unwind_resume — compiled filter took an unreachable path")
	os.Exit(1)
}

// Personality is a no-op landing pad. This pipeline never generates
// exception tables (pkg/jit/asm emits straight-line compare-and-branch
// code only), so it is never actually invoked; it exists only because
// run_filter's call graph is identical in shape to code that would expect
// one, matching the original's #[no_std] eh_personality requirement.
func Personality() {}

// Symbols returns the runtime-satisfied symbol table, in the same shape
// pkg/primitives.Symbols returns. pkg/jit does not consume it.
func Symbols() map[string]any {
	return map[string]any{
		SymUnwindResume: UnwindResume,
		SymPersonality:  Personality,
	}
}

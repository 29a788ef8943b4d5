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
	"unsafe"

	"github.com/corejit/predicatejit/pkg/record"
)

// filterFn is the Go-callable shape of a compiled filter: exactly the
// signature compileFilter's prologue/epilogue assume (one *record.Record
// argument in RAX, a bool result in AL).
type filterFn func(*record.Record) bool

// asFilterFunc builds a fresh funcval pointing at addr, turning a freshly
// mmap'd page of machine code into an ordinary Go func value the rest of
// the program can call like any other.
//
// A Go function value's in-memory representation is itself just a pointer
// to a runtime funcval struct whose first word is the entry address; a call
// through it dereferences the func value to find that word, then jumps to
// it. An earlier version of this function patched the entry word of a
// non-capturing closure literal in place — but a closure that captures
// nothing gets exactly one static funcval, shared by every call site in the
// process, so retargeting it here would silently retarget every other
// CompiledFilter built the same way, and that funcval lives in read-only
// memory besides, so the write would fault. Allocating our own one-word
// struct and reinterpreting a pointer to it as a filterFn sidesteps both
// problems: each CompiledFilter gets its own private funcval on the heap,
// writable because we allocated it ourselves. This is the same trick small
// from-scratch Go JIT experiments use to avoid needing cgo or a
// hand-written assembly trampoline to cross into raw machine code —
// genuinely unsafe, and exactly why CompiledFilter never exposes addr or
// this function outside the package.
func asFilterFunc(addr uintptr) filterFn {
	c := &struct{ code uintptr }{addr}
	return *(*filterFn)(unsafe.Pointer(&c))
}

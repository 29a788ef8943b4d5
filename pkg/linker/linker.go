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

// Package linker performs the one-time linkage pass cmd/genprimitives runs
// over the built primitive library before it is serialized: every item is
// briefly promoted to link-once-any (so a real linker would be free to
// dedupe multiply-defined symbols across translation units), then anything
// that stays link-once-any is demoted back to private, and finally
// everything but an explicitly external symbol is forced private. With a
// single Go-native module there is only ever one translation unit, so the
// "multiple units" step is a no-op pass over itself — but it is kept as a
// real, separate pass rather than special-cased away, because pkg/filterir
// relies on exactly the same Link call to re-privatize a module after it
// splices its own filter/execute functions in alongside the primitives.
package linker

import "github.com/corejit/predicatejit/pkg/ir"

// MarkAllForLinking promotes every function and global in m that is not
// already External to LinkageLinkOnceAny; External items keep their
// linkage, so Link never demotes them. Grounded on transformations.rs'
// mark_all_module_items_for_linking.
func MarkAllForLinking(m *ir.Module) {
	for _, fn := range m.Functions() {
		if fn.Linkage != ir.LinkageExternal {
			fn.Linkage = ir.LinkageLinkOnceAny
		}
	}
	for _, g := range m.Globals() {
		if g.Linkage != ir.LinkageExternal {
			g.Linkage = ir.LinkageLinkOnceAny
		}
	}
}

// ReplaceLinkedWithPrivate demotes every LinkOnceAny item in m back to
// Private. Grounded on transformations.rs' replace_linked_with_private.
func ReplaceLinkedWithPrivate(m *ir.Module) {
	for _, fn := range m.Functions() {
		if fn.Linkage == ir.LinkageLinkOnceAny {
			fn.Linkage = ir.LinkagePrivate
		}
	}
	for _, g := range m.Globals() {
		if g.Linkage == ir.LinkageLinkOnceAny {
			g.Linkage = ir.LinkagePrivate
		}
	}
}

// MarkAllAsPrivate forces every definition in m to Private except items
// already marked External. Declarations are left alone — a declaration
// carries no linkage decision of its own, it is just a stub naming a symbol
// defined elsewhere. Grounded on transformations.rs' mark_all_as_private.
func MarkAllAsPrivate(m *ir.Module) {
	for _, fn := range m.Functions() {
		if fn.IsDeclaration() {
			continue
		}
		if fn.Linkage != ir.LinkageExternal {
			fn.Linkage = ir.LinkagePrivate
		}
	}
	for _, g := range m.Globals() {
		if g.Linkage != ir.LinkageExternal {
			g.Linkage = ir.LinkagePrivate
		}
	}
}

// Link runs the full promote/demote/finalize sequence over m in place.
// There is no separate "other translation units" argument the way the
// original compile step links sibling .bc files in: a Go module is already
// one self-contained unit, so MarkAllForLinking/ReplaceLinkedWithPrivate
// bracket nothing but m itself. The sequence is kept intact anyway, because
// pkg/filterir calls Link again after splicing a new filter() and execute()
// into a primitives module clone, at which point what "the rest of the
// module" means has genuinely changed.
func Link(m *ir.Module) {
	MarkAllForLinking(m)
	ReplaceLinkedWithPrivate(m)
	MarkAllAsPrivate(m)
}

// ExternalizeOnly flips the linkage of exactly the named functions to
// External and leaves everything else untouched by that flip; callers
// still need to run Link afterward so untouched definitions fall back to
// Private. Used by pkg/filterir to mark "execute" (and nothing else)
// externally visible before a final Link pass.
func ExternalizeOnly(m *ir.Module, names ...string) {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	for _, fn := range m.Functions() {
		if set[fn.Name] {
			fn.Linkage = ir.LinkageExternal
		}
	}
}

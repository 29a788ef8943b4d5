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

import "unsafe"

// StringABI is the {ptr, len} pair a compiled filter exchanges strings as —
// field accessors return one, the four filter_str_* comparators each take
// two. It exists so pkg/primitives' native runtime intrinsics and a JIT'd
// caller agree on a layout without ever needing a real Go string header to
// cross the boundary.
type StringABI struct {
	Ptr *byte
	Len int64
}

// NewStringABI views s without copying. The caller must keep s (or whatever
// owns its backing array) alive for as long as the StringABI is in use —
// for literals baked into a compiled filter, that means the JIT'd function
// retains a reference to the owning Module for its own lifetime (see
// pkg/jit, "keepAlive").
func NewStringABI(s string) StringABI {
	if len(s) == 0 {
		return StringABI{}
	}
	return StringABI{Ptr: unsafe.StringData(s), Len: int64(len(s))}
}

// String copies the view back into a Go string.
func (a StringABI) String() string {
	if a.Len == 0 {
		return ""
	}
	return unsafe.String(a.Ptr, int(a.Len))
}

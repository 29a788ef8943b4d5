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

//go:build unix

package jit

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// codePage is one mmap'd region holding a single compiled filter's machine
// code. Allocated read-write, populated, then flipped to read-execute —
// never read-write-execute at once — mirroring wazero's wazevo engine
// (platform.MmapCodeSegment: allocate, copy, then mprotect to exec-only).
type codePage struct {
	mem []byte
}

func allocExecutable(code []byte) (*codePage, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("jit: refusing to map zero-length code")
	}
	mem, err := unix.Mmap(-1, 0, len(code), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("jit: mmap: %w", err)
	}
	copy(mem, code)
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		_ = unix.Munmap(mem)
		return nil, fmt.Errorf("jit: mprotect: %w", err)
	}
	return &codePage{mem: mem}, nil
}

func (p *codePage) addr() uintptr {
	return uintptr(unsafe.Pointer(&p.mem[0]))
}

func (p *codePage) free() error {
	return unix.Munmap(p.mem)
}

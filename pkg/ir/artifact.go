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
package ir

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// snapshot is the gob-friendly mirror of Module: Module keeps its function
// and global tables behind unexported fields (so callers go through
// AddFunction/Function rather than poking at the maps directly), but gob
// can only encode exported fields, hence this separate wire type.
type snapshot struct {
	Name      string
	FuncOrder []string
	Funcs     map[string]*Function

	GlobalOrder []string
	Globals     map[string]*Global
}

func toSnapshot(m *Module) snapshot {
	return snapshot{
		Name:        m.Name,
		FuncOrder:   append([]string(nil), m.funcOrder...),
		Funcs:       m.funcs,
		GlobalOrder: append([]string(nil), m.globalOrder...),
		Globals:     m.globals,
	}
}

func fromSnapshot(s snapshot) *Module {
	m := &Module{
		Name:        s.Name,
		funcOrder:   s.FuncOrder,
		funcs:       s.Funcs,
		globalOrder: s.GlobalOrder,
		globals:     s.Globals,
	}
	if m.funcs == nil {
		m.funcs = make(map[string]*Function)
	}
	if m.globals == nil {
		m.globals = make(map[string]*Global)
	}
	return m
}

// SaveArtifact gob-encodes m and LZ4-compresses the result — the Go-native
// stand-in for emitting bitcode (SPEC_FULL.md §6). The artifact must
// round-trip through SaveArtifact -> LoadArtifact without diagnostics; tests
// in this package assert exactly that.
func SaveArtifact(m *Module) ([]byte, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(toSnapshot(m)); err != nil {
		return nil, fmt.Errorf("ir: encode module: %w", err)
	}

	var compressed bytes.Buffer
	w := lz4.NewWriter(&compressed)
	if _, err := w.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("ir: compress artifact: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("ir: compress artifact: %w", err)
	}

	return compressed.Bytes(), nil
}

// LoadArtifact parses an artifact byte slice into a fresh Module inside a
// fresh Context. A non-nil error here is fatal per SPEC_FULL.md §7 ("IR
// parse failure"); callers in cmd/ convert it into a logged exit.
func LoadArtifact(data []byte) (*ModuleWithContext, error) {
	r := lz4.NewReader(bytes.NewReader(data))

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ir: decompress artifact: %w", err)
	}

	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&s); err != nil {
		return nil, fmt.Errorf("ir: decode module: %w", err)
	}

	module := fromSnapshot(s)

	return &ModuleWithContext{Module: module, Context: NewContext(module)}, nil
}

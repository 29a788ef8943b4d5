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
package primitives

import (
	"fmt"
	"os"

	"github.com/corejit/predicatejit/pkg/ir"
)

// DefaultArtifactPath is where cmd/genprimitives writes the built library by
// default, and where cmd/filterjit looks for it first. The two-stage split
// (build once, load many times) mirrors compiling primitives.ll to bitcode
// once rather than re-parsing IR text on every run; here it mostly buys a
// faster cold start when iterating on run_filter callers without touching
// the primitive bodies themselves.
const DefaultArtifactPath = "build/primitives.artifact"

// Build constructs the primitive module and serializes it, the moral
// equivalent of invoking clang on primitives.ll once at build time.
func Build() ([]byte, error) {
	return ir.SaveArtifact(BuildModule())
}

// WriteArtifact builds the primitive module and writes it to path.
func WriteArtifact(path string) error {
	data, err := Build()
	if err != nil {
		return fmt.Errorf("primitives: build artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("primitives: write artifact %s: %w", path, err)
	}
	return nil
}

// Load reads a previously built artifact from path. If path does not exist,
// Load falls back to building the module fresh in-process — the artifact
// file is a cache, not a dependency a caller must provision by hand.
func Load(path string) (*ir.ModuleWithContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			m := BuildModule()
			return &ir.ModuleWithContext{Module: m, Context: ir.NewContext(m)}, nil
		}
		return nil, fmt.Errorf("primitives: read artifact %s: %w", path, err)
	}
	mc, err := ir.LoadArtifact(data)
	if err != nil {
		return nil, fmt.Errorf("primitives: load artifact %s: %w", path, err)
	}
	return mc, nil
}

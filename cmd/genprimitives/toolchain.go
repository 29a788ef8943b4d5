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
package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// sanityBuildThroughToolchain shells out to the real Go toolchain to build a
// throwaway module that imports this module's pkg/primitives, the one
// blocking subprocess in this pipeline — the moral equivalent of the
// original's `cargo build --emit=llvm-bc` compiling the primitive crate
// before its bitcode is linked. A non-zero exit is fatal; stderr is passed
// through verbatim so a real compile error in pkg/primitives is visible to
// the caller. sourcePkg only labels the error: the package built is always
// pkg/primitives of the module in the working directory, whatever path
// sourcePkg names.
func sanityBuildThroughToolchain(sourcePkg string) error {
	moduleRoot, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve module root: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "predicatejit-genprimitives-*")
	if err != nil {
		return fmt.Errorf("create throwaway build dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := writeThrowawayModule(tmpDir, moduleRoot); err != nil {
		return err
	}

	outBin := filepath.Join(tmpDir, "sanitycheck")
	cmd := exec.Command("go", "build", "-buildmode=pie", "-o", outBin, ".")
	cmd.Dir = tmpDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go build %s: %w\n%s", sourcePkg, err, stderr.String())
	}

	return nil
}

// writeThrowawayModule writes a minimal standalone module in dir that
// imports and exercises the real primitives package via a replace
// directive back at moduleRoot — a throwaway copy of the build graph rather
// than a literal file copy, since the primitive package's own import path
// must keep resolving to pkg/record.
func writeThrowawayModule(dir, moduleRoot string) error {
	goMod := fmt.Sprintf(`module predicatejit-sanitycheck

go 1.23.4

require github.com/corejit/predicatejit v0.0.0

replace github.com/corejit/predicatejit => %s
`, moduleRoot)
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(goMod), 0o644); err != nil {
		return fmt.Errorf("write throwaway go.mod: %w", err)
	}

	mainGo := `package main

import "github.com/corejit/predicatejit/pkg/primitives"

func main() {
	_ = primitives.BuildModule()
}
`
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte(mainGo), 0o644); err != nil {
		return fmt.Errorf("write throwaway main.go: %w", err)
	}

	return nil
}

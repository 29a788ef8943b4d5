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

// Command genprimitives is the build-time bitcode linker: it builds the
// primitive library module, sanity-builds it through the real Go toolchain,
// links and optimizes it, and emits the artifact cmd/filterjit loads.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/corejit/predicatejit/pkg/cmdutil"
	"github.com/corejit/predicatejit/pkg/ir"
	"github.com/corejit/predicatejit/pkg/linker"
	"github.com/corejit/predicatejit/pkg/optimizer"
	"github.com/corejit/predicatejit/pkg/primitives"
)

var rootCmd = &cobra.Command{
	Use:   "genprimitives",
	Short: "Build and link the primitive library artifact.",
	Long:  "Builds the primitive operation library, links it, optimizes it, and writes the resulting artifact to disk.",
	Run:   runGenPrimitives,
}

func init() {
	rootCmd.Flags().String("source", "./pkg/primitives", "primitive module package path, used to label toolchain errors (the sanity build always compiles this module's pkg/primitives)")
	rootCmd.Flags().String("out", primitives.DefaultArtifactPath, "output path for the linked artifact")
	rootCmd.Flags().Bool("dump-ir", false, "also write a textual IR dump alongside the artifact")
	rootCmd.Flags().Bool("skip-toolchain-check", false, "skip the go-build sanity check of the source package")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().String("log-level", "info", "logrus level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("color", true, "colorize diagnostic output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGenPrimitives(cmd *cobra.Command, _ []string) {
	configureLogging(cmd)

	source := cmdutil.GetString(cmd, "source")
	out := cmdutil.GetString(cmd, "out")
	dumpIR := cmdutil.GetFlag(cmd, "dump-ir")
	skipToolchain := cmdutil.GetFlag(cmd, "skip-toolchain-check")

	// Step 1: delete the prior artifact at the output path.
	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		fatalf("removing prior artifact %s: %v", out, err)
	}

	// Step 2: build the primitive library module.
	log.Debug("building primitive module")
	module := primitives.BuildModule()

	// Step 3: sanity-build the source package through the real toolchain —
	// the one blocking subprocess call, standing in for the original's
	// `cargo build --emit=llvm-bc`.
	if !skipToolchain {
		if err := sanityBuildThroughToolchain(source); err != nil {
			fatalf("toolchain sanity build of %s failed: %v", source, err)
		}
	} else {
		log.Debug("skipping toolchain sanity check (--skip-toolchain-check)")
	}

	// Step 4: purge module-level inline assembly equivalent — none exists in
	// this IR, so this step is a documented no-op kept for symmetry with the
	// original pipeline's analogous step.

	// Steps 5 and 8: run the promote/demote/finalize linkage sweep.
	linker.Link(module)

	// Steps 6-7: detect the host target and run the aggressive pass
	// pipeline over the linked module.
	opt := optimizer.New(optimizer.DefaultLevel)
	defer opt.Close()
	log.Debugf("optimizing for target %s", opt.Target)
	if err := opt.Run(module); err != nil {
		fatalf("optimizing primitive module: %v", err)
	}

	// Step 9: emit the artifact, plus an optional textual IR dump.
	if err := writeArtifact(module, out); err != nil {
		fatalf("writing artifact: %v", err)
	}
	log.Infof("wrote primitive artifact to %s", out)

	if dumpIR {
		txtPath := out + ".txt"
		if err := writeIRDump(module, txtPath); err != nil {
			fatalf("writing IR dump: %v", err)
		}
		log.Infof("wrote IR dump to %s", txtPath)
	}
}

func writeArtifact(module *ir.Module, path string) error {
	data, err := ir.SaveArtifact(module)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func writeIRDump(module *ir.Module, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ir.Print(f, module)
}

func configureLogging(cmd *cobra.Command) {
	if cmdutil.GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
		return
	}
	level, err := log.ParseLevel(cmdutil.GetString(cmd, "log-level"))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func fatalf(format string, args ...any) {
	log.Errorf(format, args...)
	os.Exit(1)
}

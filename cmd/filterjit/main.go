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

// Command filterjit is the runner: it loads the primitive artifact, builds
// the bundled demo dataset and the three-level-mix filter, compiles it
// through the JIT engine, and checks its output against the reference
// interpreter.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/corejit/predicatejit/internal/testdata"
	"github.com/corejit/predicatejit/pkg/cmdutil"
	"github.com/corejit/predicatejit/pkg/interp"
	"github.com/corejit/predicatejit/pkg/jit"
	"github.com/corejit/predicatejit/pkg/optimizer"
	"github.com/corejit/predicatejit/pkg/primitives"
)

var rootCmd = &cobra.Command{
	Use:   "filterjit",
	Short: "Run the bundled demo filter through both the interpreter and the JIT.",
	Run:   runFilterJIT,
}

func init() {
	rootCmd.Flags().String("artifact", primitives.DefaultArtifactPath, "path to the primitive library artifact")
	rootCmd.Flags().Uint("records", testdata.DefaultSize, "number of demo records to generate")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().String("log-level", "info", "logrus level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("color", true, "colorize diagnostic output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runFilterJIT(cmd *cobra.Command, _ []string) {
	configureLogging(cmd)
	color.NoColor = !cmdutil.GetFlag(cmd, "color")

	artifactPath := cmdutil.GetString(cmd, "artifact")
	n := cmdutil.GetUint(cmd, "records")
	if n == 0 {
		n = uint(testdata.DefaultSize)
	}

	primitivesModule, err := primitives.Load(artifactPath)
	if err != nil {
		fatalf("loading primitive artifact: %v", err)
	}

	_, records := testdata.Generate(int(n))
	pred := buildComplexFilter()

	engine := jit.NewEngine(primitivesModule.Module, optimizer.DefaultLevel)
	defer engine.Close()

	compiled, err := engine.Compile(pred)
	if err != nil {
		fatalf("compiling filter: %v", err)
	}

	interpreted := interp.Filter(pred, records)
	jitted := compiled.FilterAll(records)

	fmt.Printf("Interpreted len: %d\n", len(interpreted))
	fmt.Printf("JIT len: %d\n", len(jitted))

	if len(interpreted) != len(jitted) {
		color.Red("mismatch: interpreter found %d records, JIT found %d", len(interpreted), len(jitted))
		os.Exit(1)
	}
	for i := range interpreted {
		if interpreted[i] != jitted[i] {
			color.Red("mismatch at result index %d: interpreter=%+v jit=%+v", i, interpreted[i], jitted[i])
			os.Exit(1)
		}
	}

	color.Green("interpreter and JIT agree: %d matching records", len(jitted))
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

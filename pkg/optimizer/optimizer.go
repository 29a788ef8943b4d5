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
package optimizer

import (
	"fmt"
	"runtime"

	"github.com/corejit/predicatejit/pkg/ir"
)

// TargetMachine names the host CPU the optimizer is tuning for. This
// module only ever JITs for the process's own architecture, so detection
// is a formality rather than a real target query — but it is kept as a
// distinct owned value, not an inlined string, so its lifetime mirrors a
// real target machine's (constructed once per Optimizer, released on
// Close).
type TargetMachine struct {
	Arch string
	CPU  string
}

// DetectHost builds a TargetMachine describing the running process.
func DetectHost() TargetMachine {
	return TargetMachine{Arch: runtime.GOARCH, CPU: "generic"}
}

func (t TargetMachine) String() string {
	return fmt.Sprintf("%s-%s", t.Arch, t.CPU)
}

// Optimizer owns a Config and a TargetMachine for the lifetime of one
// build. Close releases both; a closed Optimizer must not be reused.
type Optimizer struct {
	Config Config
	Target TargetMachine
	closed bool
}

// New constructs an Optimizer at cfg, targeting the host CPU.
func New(cfg Config) *Optimizer {
	return &Optimizer{Config: cfg, Target: DetectHost()}
}

// Run executes the pass pipeline over m in the module's own fixed order —
// InlinePrimitives, ConstantFold, SimplifyCFG, DeadBranchElimination,
// MergeIdenticalBlocks — skipping whichever passes o.Config disables.
// Running twice is safe (later passes that find nothing to do are no-ops)
// but not guaranteed to be a no-op on its own output, same as a real -O3
// pipeline.
func (o *Optimizer) Run(m *ir.Module) error {
	if o.closed {
		return fmt.Errorf("optimizer: Run called after Close")
	}
	if o.Config.InlinePrimitives {
		InlinePrimitives(m)
	}
	if o.Config.ConstantFold {
		ConstantFold(m)
	}
	if o.Config.SimplifyCFG {
		SimplifyCFG(m)
	}
	if o.Config.DeadBranchElimination {
		DeadBranchElimination(m)
	}
	if o.Config.MergeIdenticalBlocks {
		MergeIdenticalBlocks(m)
	}
	return nil
}

// Close releases the optimizer's target machine. It is idempotent.
func (o *Optimizer) Close() {
	o.closed = true
}

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

import "sync"

// Context is a thread-safe home for exactly one Module. It mirrors the ORC
// "thread-safe context" concept: the Context exclusively owns the Module for
// as long as the module is loaded, and disposing the Context while the
// module is in use elsewhere (e.g. still registered with a JIT engine) is a
// use-after-free — see pkg/jit's teardown order.
type Context struct {
	mu     sync.Mutex
	module *Module
}

// NewContext wraps module in a fresh Context, taking ownership of it. The
// caller must not mutate module through any other reference afterward.
func NewContext(module *Module) *Context {
	return &Context{module: module}
}

// Module returns the context's module. Safe to call from any goroutine, but
// concurrent mutation of the returned Module by multiple goroutines is the
// caller's responsibility to serialize, same as the ORC contract this type
// mirrors.
func (c *Context) Module() *Module {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.module
}

// ModuleWithContext pairs a Module with the Context that owns it — the
// result of IR Loader parsing an artifact, and the input to the JIT engine's
// AddFunction.
type ModuleWithContext struct {
	Module  *Module
	Context *Context
}

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

// Package jit is the specializing half of this pipeline's runtime: given a
// predicate, it builds and optimizes its filter IR (pkg/filterir,
// pkg/optimizer), assembles filter() into native amd64 code (compile.go),
// maps it executable (mem.go), and hands back a CompiledFilter the rest of
// the program calls exactly like the reference interpreter (pkg/interp) —
// this is the Go-native stand-in for an LLVM ORC LLJIT instance. Compiled
// filters are cached by a content hash of the predicate tree, so repeating
// a predicate the engine has already seen is a cache hit, not a recompile.
package jit

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/minio/highwayhash"

	"github.com/corejit/predicatejit/pkg/filterir"
	"github.com/corejit/predicatejit/pkg/ir"
	"github.com/corejit/predicatejit/pkg/optimizer"
	"github.com/corejit/predicatejit/pkg/record"
)

// cacheKeyHighwayKey is the fixed, shared highwayhash key every cache key
// is computed under. It does not need to be secret — the hash only needs
// to distinguish predicates within one process, not resist an adversary —
// so a well-known all-zero key is fine here (unlike, say, hashing
// untrusted network input).
var cacheKeyHighwayKey = make([]byte, 32)

// cacheKey returns a content-addressed key for pred: structurally identical
// predicates (same fields, kinds and literals in the same shape) hash
// identically regardless of where they came from.
func cacheKey(pred *record.Predicate) ([32]byte, error) {
	sum, err := highwayhash.New256(cacheKeyHighwayKey)
	if err != nil {
		return [32]byte{}, fmt.Errorf("jit: highwayhash: %w", err)
	}
	if _, err := sum.Write([]byte(pred.String())); err != nil {
		return [32]byte{}, fmt.Errorf("jit: highwayhash: %w", err)
	}
	var out [32]byte
	copy(out[:], sum.Sum(nil))
	return out, nil
}

// EngineStats are the cumulative counters Engine.Stats reports — compiled
// filters, cache hits/misses, and the total size of currently-live native
// code, so a host can decide when a cache is thrashing rather than paying
// off.
type EngineStats struct {
	Compiles  uint64
	CacheHits uint64
	CodeBytes int64
}

// Engine owns the primitive library module, the optimizer configuration
// used to specialize every predicate it compiles, and the cache of
// already-compiled filters.
type Engine struct {
	primitives *ir.Module
	optConfig  optimizer.Config

	mu    sync.Mutex
	cache map[[32]byte]*CompiledFilter

	compiles  atomic.Uint64
	cacheHits atomic.Uint64
	codeBytes atomic.Int64
}

// NewEngine returns an Engine backed by primitivesModule (normally
// primitives.Load's result) and optCfg (normally optimizer.DefaultLevel).
func NewEngine(primitivesModule *ir.Module, optCfg optimizer.Config) *Engine {
	return &Engine{
		primitives: primitivesModule,
		optConfig:  optCfg,
		cache:      make(map[[32]byte]*CompiledFilter),
	}
}

// Compile returns a CompiledFilter for pred, reusing a cached one if this
// Engine has already compiled a structurally identical predicate.
func (e *Engine) Compile(pred *record.Predicate) (*CompiledFilter, error) {
	key, err := cacheKey(pred)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if cf, ok := e.cache[key]; ok {
		e.mu.Unlock()
		e.cacheHits.Add(1)
		return cf, nil
	}
	e.mu.Unlock()

	cf, err := e.compile(pred, key)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if existing, ok := e.cache[key]; ok {
		// Lost a race with a concurrent Compile of the same predicate;
		// keep the winner, discard our redundant page.
		e.mu.Unlock()
		_ = cf.page.free()
		e.cacheHits.Add(1)
		return existing, nil
	}
	e.cache[key] = cf
	e.mu.Unlock()

	e.compiles.Add(1)
	e.codeBytes.Add(int64(len(cf.page.mem)))
	return cf, nil
}

func (e *Engine) compile(pred *record.Predicate, key [32]byte) (*CompiledFilter, error) {
	pred = optimizer.CollapseRedundantDisjuncts(pred)

	module, err := filterir.Build(e.primitives, pred)
	if err != nil {
		return nil, fmt.Errorf("jit: lowering %s: %w", pred, err)
	}

	opt := optimizer.New(e.optConfig)
	defer opt.Close()
	if err := opt.Run(module); err != nil {
		return nil, fmt.Errorf("jit: optimizing %s: %w", pred, err)
	}

	fn, ferr := module.MustFunction("filter")
	if ferr != nil {
		return nil, fmt.Errorf("jit: %w", ferr)
	}

	code, keepAlive, err := compileFilter(module, fn)
	if err != nil {
		return nil, err
	}

	page, err := allocExecutable(code)
	if err != nil {
		return nil, err
	}

	return &CompiledFilter{
		engine:    e,
		key:       key,
		pred:      pred,
		page:      page,
		fn:        asFilterFunc(page.addr()),
		keepAlive: keepAlive,
		module:    module,
	}, nil
}

// Stats reports the engine's cumulative counters.
func (e *Engine) Stats() EngineStats {
	return EngineStats{
		Compiles:  e.compiles.Load(),
		CacheHits: e.cacheHits.Load(),
		CodeBytes: e.codeBytes.Load(),
	}
}

// Close releases every compiled filter this engine still holds. Safe to
// call once at shutdown; not safe to call concurrently with Compile.
func (e *Engine) Close() error {
	e.mu.Lock()
	cached := make([]*CompiledFilter, 0, len(e.cache))
	for _, cf := range e.cache {
		cached = append(cached, cf)
	}
	e.cache = make(map[[32]byte]*CompiledFilter)
	e.mu.Unlock()

	var firstErr error
	for _, cf := range cached {
		e.codeBytes.Add(-int64(len(cf.page.mem)))
		if err := cf.page.free(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CompiledFilter is one predicate's specialized native filter. It is safe
// for concurrent use by multiple goroutines calling Eval/FilterAll; it is
// not safe to call Release while another goroutine might still be calling
// Eval.
type CompiledFilter struct {
	engine *Engine
	key    [32]byte
	pred   *record.Predicate

	page *codePage
	fn   filterFn

	// keepAlive and module pin the literal byte slices and the IR module
	// compileFilter baked raw addresses from — the compiled code has no
	// Go-visible reference of its own for the GC to follow.
	keepAlive [][]byte
	module    *ir.Module
}

// Eval runs the compiled filter against r.
func (cf *CompiledFilter) Eval(r *record.Record) bool {
	return cf.fn(r)
}

// FilterAll returns the subsequence of records matching this filter,
// preserving order — the compiled-code counterpart of interp.Filter and of
// run_filter's own record-at-a-time loop (pkg/primitives.rtRunFilter),
// kept here rather than natively compiled: run_filter itself has no
// branchy predicate logic worth specializing, just a host-side loop and an
// append.
func (cf *CompiledFilter) FilterAll(records []record.Record) []record.Record {
	out := make([]record.Record, 0, len(records))
	for i := range records {
		if cf.Eval(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

// Release unmaps this filter's native code and drops it from its engine's
// cache, in that order: remove the cache entry, then free the pages,
// mirroring ORC LLJIT's resource-tracker teardown (remove from the
// session, then release the tracker) rather than the reverse, which would
// let a concurrent Compile briefly hand out a CompiledFilter whose code is
// already gone.
func (cf *CompiledFilter) Release() error {
	cf.engine.mu.Lock()
	if existing, ok := cf.engine.cache[cf.key]; ok && existing == cf {
		delete(cf.engine.cache, cf.key)
	}
	cf.engine.mu.Unlock()
	cf.engine.codeBytes.Add(-int64(len(cf.page.mem)))
	return cf.page.free()
}

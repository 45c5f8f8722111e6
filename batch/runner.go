// Package batch implements the directory/assembly-set driver SPEC_FULL.md
// supplements onto the distilled spec, which only specifies single-method
// analysis: it walks a directory tree for compiled assemblies the way
// analyzer.AnalyzeDir/analyzePackages walk a directory tree for source
// packages, then runs the CFG builder and points-to analysis over every
// method body a Disassembler produces, emitting one MethodResult per
// method. Distinct methods are analyzed concurrently (spec §5: "distinct
// methods may be analyzed in parallel, TypeResolver must be safe for
// concurrent read").
package batch

import (
	"context"
	"os"
	"sync"

	"github.com/viant/ilanalysis/cfg"
	"github.com/viant/ilanalysis/dataflow"
	"github.com/viant/ilanalysis/external"
	"github.com/viant/ilanalysis/il"
	"github.com/viant/ilanalysis/ilerr"
	"github.com/viant/ilanalysis/pointer"
)

// Source enumerates the methods a compiled assembly declares. The core's
// own contract (§6) names BytecodeLoader, TypeResolver and Disassembler
// only, each keyed by a method the caller already knows; there is no
// enumeration collaborator because single-method analysis never needed
// one. batch defines its own, treated as an opaque producer exactly like
// the three the core already depends on.
type Source interface {
	Methods(assembly *il.AssemblyRef) ([]*il.MethodRef, error)
}

// Matcher reports whether a file discovered while walking a directory
// names a compiled assembly Runner should analyze, mirroring the
// teacher's MatcherFn gate on AnalyzeDir's own directory walk.
type Matcher func(os.FileInfo) bool

// MethodResult pairs one method's solved points-to graph with its
// identity so callers of Run can tell results from different methods,
// and different assemblies, apart. Err is set when the method's own
// pipeline (load, disassemble, or CFG construction) failed; such a
// failure never aborts the batch, mirroring analyzePackages returning
// one PackageModel per discovered package rather than failing the whole
// walk over one bad file.
type MethodResult struct {
	Assembly *il.AssemblyRef
	Method   *il.MethodRef
	Body     *il.MethodBody
	Graph    *cfg.ControlFlowGraph
	Solved   *dataflow.Result[*pointer.Graph]
	// Warnings accumulates recovered UnresolvedReference errors the
	// points-to analysis hit while solving this method (§7); a non-empty
	// Warnings marks the result partial, it does not set Err.
	Warnings ilerr.Warnings
	Err      error
	// Hash is the method's cfg.ControlFlowGraph.ContentHash(), used to key
	// Runner's cross-method analysis cache; zero when the CFG was never
	// built (a Loader/Disassembler failure) or hashing itself errored.
	Hash uint64
}

// cacheSlot is the unit Runner.cache stores per distinct ContentHash: two
// methods with byte-identical instruction streams (a common case for
// compiler-generated stub methods) share one solved points-to result
// instead of each re-running the fixpoint solver. once guards the actual
// solve so two goroutines racing on a first-seen hash still solve exactly
// once, rather than a plain Load-then-Store leaving a window where both
// solve independently and the later Store silently loses one result.
type cacheSlot struct {
	once     sync.Once
	solved   *dataflow.Result[*pointer.Graph]
	warnings ilerr.Warnings
}

// Runner wires the three external collaborators plus a Source into the
// directory-wide pipeline.
type Runner struct {
	Loader       external.BytecodeLoader
	Disassembler external.Disassembler
	Resolver     external.TypeResolver
	Source       Source
	Walker       Walker
	Mode         cfg.Mode
	// Concurrency bounds how many methods are analyzed at once; <= 0
	// defaults to 4.
	Concurrency int

	// cache memoizes solved analyses by cfg.ControlFlowGraph.ContentHash,
	// shared (and safe for concurrent read/write) across every analyzeMethod
	// goroutine of one Run.
	cache sync.Map
}

// Option configures a Runner.
type Option func(*Runner)

// WithMode overrides the CFG builder mode (cfg.Normal by default).
func WithMode(mode cfg.Mode) Option {
	return func(r *Runner) { r.Mode = mode }
}

// WithConcurrency overrides the method-level fan-out width.
func WithConcurrency(n int) Option {
	return func(r *Runner) { r.Concurrency = n }
}

// NewRunner builds a Runner ready to Run over a directory tree.
func NewRunner(loader external.BytecodeLoader, disassembler external.Disassembler, resolver external.TypeResolver, source Source, walker Walker, opts ...Option) *Runner {
	r := &Runner{
		Loader:       loader,
		Disassembler: disassembler,
		Resolver:     resolver,
		Source:       source,
		Walker:       walker,
		Mode:         cfg.Normal,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run walks root for assemblies, enumerates each assembly's methods via
// Source, and analyzes every method concurrently, returning one
// MethodResult per method discovered. Order is not significant; callers
// that need deterministic output should sort by Assembly/Method.
func (r *Runner) Run(ctx context.Context, root string) ([]*MethodResult, error) {
	assemblies, err := r.Walker.Walk(ctx, root)
	if err != nil {
		return nil, err
	}

	type job struct {
		assembly *il.AssemblyRef
		method   *il.MethodRef
	}
	var jobs []job
	for _, assembly := range assemblies {
		methods, err := r.Source.Methods(assembly)
		if err != nil {
			return nil, err
		}
		for _, method := range methods {
			jobs = append(jobs, job{assembly: assembly, method: method})
		}
	}

	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	sem := make(chan struct{}, concurrency)
	results := make([]*MethodResult, len(jobs))
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, j job) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = r.analyzeMethod(j.assembly, j.method)
		}(i, j)
	}
	wg.Wait()
	return results, nil
}

// analyzeMethod runs the full per-method pipeline: load raw bytecode,
// disassemble to TAC, build the CFG, solve points-to. A failure at any
// stage is recorded on the MethodResult rather than returned, so one
// malformed method never sinks the rest of the batch.
func (r *Runner) analyzeMethod(assembly *il.AssemblyRef, method *il.MethodRef) *MethodResult {
	out := &MethodResult{Assembly: assembly, Method: method}

	raw, err := r.Loader.LoadMethod(assembly, method)
	if err != nil {
		out.Err = err
		return out
	}
	body, err := r.Disassembler.Disassemble(raw)
	if err != nil {
		out.Err = err
		return out
	}
	out.Body = body

	graph, err := cfg.Build(body, cfg.BuildOptions{Mode: r.Mode})
	if err != nil {
		out.Err = err
		return out
	}
	cfg.ComputeDominators(graph)
	out.Graph = graph

	solve := func() (*dataflow.Result[*pointer.Graph], ilerr.Warnings) {
		analysis := &pointer.Analysis{Resolver: r.Resolver}
		input := &pointer.MethodInput{Body: body, Graph: graph}
		solved := pointer.Solve(analysis, input)
		return solved, analysis.Warnings
	}

	hash, hashErr := graph.ContentHash()
	if hashErr != nil {
		out.Solved, out.Warnings = solve()
		return out
	}
	out.Hash = hash

	slotIface, _ := r.cache.LoadOrStore(hash, &cacheSlot{})
	slot := slotIface.(*cacheSlot)
	slot.once.Do(func() {
		slot.solved, slot.warnings = solve()
	})
	out.Solved, out.Warnings = slot.solved, slot.warnings
	return out
}

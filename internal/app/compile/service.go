// Package compile orchestrates a build over a directory of theme sources:
// loading, ordering, two-phase validation, status caching and artifact
// emission.
package compile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/themekit/internal/config"
	"github.com/alexisbeaulieu97/themekit/internal/domain/theme"
	"github.com/alexisbeaulieu97/themekit/internal/graph"
	"github.com/alexisbeaulieu97/themekit/internal/logger"
	"github.com/alexisbeaulieu97/themekit/internal/registry"
)

// DefaultParallel bounds concurrent validations when Request.Parallel is unset.
const DefaultParallel = 4

// Request configures a compile run.
type Request struct {
	Dir      string
	Parallel int
	// CachePath enables the status cache when non-empty.
	CachePath string
	// OutputDir enables artifact emission for ready definitions when non-empty.
	OutputDir string
}

// Service coordinates compile runs.
type Service struct {
	log *logger.Logger
	now func() time.Time
}

// NewService constructs a compile service. A nil logger discards output.
func NewService(log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{log: log.WithField("component", "compile"), now: time.Now}
}

// Load parses every source file in dir and publishes the definitions to a
// fresh registry.
func Load(dir string) (*registry.Registry, *config.Result, error) {
	loaded, err := config.ParseDir(dir)
	if err != nil {
		return nil, nil, err
	}

	reg := registry.NewRegistry()
	for _, def := range loaded.Definitions {
		if err := reg.Publish(def); err != nil {
			return nil, nil, err
		}
	}
	return reg, loaded, nil
}

// Compile validates every definition found in req.Dir. Load failures are
// returned as errors; validation failures are recorded in the report. When
// ctx is cancelled the partial report is returned with ctx.Err().
func (s *Service) Compile(ctx context.Context, req Request) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := s.now()

	reg, loaded, err := Load(req.Dir)
	if err != nil {
		return nil, fmt.Errorf("load themes from %s: %w", req.Dir, err)
	}
	for _, w := range loaded.Warnings {
		s.log.WithField("location", w.Location.String()).Warn(w.Message)
	}

	cache, err := registry.NewStatusCache(req.CachePath)
	if err != nil {
		return nil, fmt.Errorf("open status cache: %w", err)
	}

	defs := reg.List()
	p, err := newPlan(reg, defs)
	if err != nil {
		return nil, err
	}

	r := &run{
		svc:       s,
		reg:       reg,
		cache:     cache,
		outputDir: req.OutputDir,
		revisions: make(map[theme.Descriptor]string, len(defs)),
		states:    make(map[theme.Descriptor]State, len(defs)),
		results:   make(map[theme.Descriptor]Result, len(defs)),
	}
	for _, def := range defs {
		r.states[def.Descriptor()] = StateUnvalidated
		r.revisions[def.Descriptor()] = chainRevision(reg, def)
	}
	r.dropStaleDependents(p.full, defs)

	s.log.WithFields(map[string]any{
		"dir":         req.Dir,
		"definitions": len(defs),
		"waves":       len(p.waves),
		"cyclic":      len(p.tainted),
	}).Info("starting compile")

	parallel := req.Parallel
	if parallel <= 0 {
		parallel = DefaultParallel
	}

	var runErr error
	for _, wave := range p.waves {
		if runErr = r.runWave(ctx, wave, parallel, true); runErr != nil {
			break
		}
	}
	if runErr == nil && len(p.tainted) > 0 {
		runErr = r.runWave(ctx, p.tainted, parallel, false)
	}

	if err := cache.Save(); err != nil {
		s.log.Error(err, "failed to save status cache")
	}

	report := &Report{
		Dir:      req.Dir,
		Results:  r.collect(defs),
		Warnings: loaded.Warnings,
		Waves:    p.waves,
		Duration: s.now().Sub(start),
	}

	s.log.WithFields(map[string]any{
		"total":    report.Total(),
		"ready":    report.Ready(),
		"invalid":  report.Invalid(),
		"cached":   report.CacheHits(),
		"duration": report.Duration.String(),
	}).Info("compile complete")

	if runErr != nil {
		return report, runErr
	}
	if r.artifactErr != nil {
		return report, r.artifactErr
	}
	return report, nil
}

// plan holds the validation order. Definitions on a cycle, or extending one,
// cannot be layered and are validated together after the acyclic waves.
type plan struct {
	full    *graph.DependencyGraph
	waves   [][]theme.Descriptor
	tainted []theme.Descriptor
}

func newPlan(reg *registry.Registry, defs []*theme.Definition) (plan, error) {
	full := graph.FromDefinitions(defs)

	tainted := make(map[theme.Descriptor]bool)
	for _, d := range full.Cycles() {
		tainted[d] = true
		for _, dependent := range full.Invalidated(d) {
			tainted[dependent] = true
		}
	}

	acyclic := make([]*theme.Definition, 0, len(defs))
	var rest []theme.Descriptor
	for _, def := range defs {
		if tainted[def.Descriptor()] {
			rest = append(rest, def.Descriptor())
			continue
		}
		acyclic = append(acyclic, def)
	}

	layers, err := graph.FromDefinitions(acyclic).Layers()
	if err != nil {
		return plan{}, fmt.Errorf("order definitions: %w", err)
	}

	// Unresolved extends targets appear as graph nodes but are not definitions.
	waves := make([][]theme.Descriptor, 0, len(layers))
	for _, layer := range layers {
		var wave []theme.Descriptor
		for _, d := range layer {
			if _, err := reg.Resolve(d); err == nil {
				wave = append(wave, d)
			}
		}
		if len(wave) > 0 {
			waves = append(waves, wave)
		}
	}

	return plan{full: full, waves: waves, tainted: rest}, nil
}

type run struct {
	svc       *Service
	reg       *registry.Registry
	cache     *registry.StatusCache
	outputDir string
	revisions map[theme.Descriptor]string

	mu          sync.Mutex
	states      map[theme.Descriptor]State
	results     map[theme.Descriptor]Result
	artifactErr error
}

// dropStaleDependents removes cached outcomes of everything downstream of a
// definition whose revision changed since the cache was written.
func (r *run) dropStaleDependents(g *graph.DependencyGraph, defs []*theme.Definition) {
	for _, def := range defs {
		d := def.Descriptor()
		if _, ok := r.cache.Get(d.String(), r.revisions[d]); ok {
			continue
		}
		dependents := g.Invalidated(d)
		if len(dependents) == 0 {
			continue
		}
		keys := make([]string, len(dependents))
		for i, dependent := range dependents {
			keys[i] = dependent.String()
		}
		r.cache.Invalidate(keys...)
	}
}

func (r *run) runWave(ctx context.Context, wave []theme.Descriptor, parallel int, useCache bool) error {
	sem := make(chan struct{}, parallel)
	var wg sync.WaitGroup

	for _, d := range wave {
		if ctx.Err() != nil {
			break
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(d theme.Descriptor) {
			defer wg.Done()
			defer func() { <-sem }()
			r.validate(d, useCache)
		}(d)
	}

	wg.Wait()
	return ctx.Err()
}

func (r *run) validate(d theme.Descriptor, useCache bool) {
	def, err := r.reg.Resolve(d)
	if err != nil {
		return
	}

	log := r.svc.log.WithField("definition", d.String())
	started := r.svc.now()
	revision := r.revisions[d]
	res := Result{Descriptor: d, Location: def.Location(), State: StateUnvalidated}

	if useCache {
		if cached, ok := r.cache.Get(d.String(), revision); ok && cached.Status == registry.StatusReady && r.ancestorsReady(def) {
			res.State = StateReady
			res.Cached = true
			log.Debug("reusing cached outcome")
		}
	}

	if !res.Cached {
		log.Debug("validating definition")
		if err := def.ValidateDefinition(); err != nil {
			res.State, res.Code, res.Err = StateInvalid, theme.CodeOf(err), err
		} else {
			r.setState(d, StateStructurallyValid)
			if err := def.ValidateReferences(r.reg); err != nil {
				res.State, res.Code, res.Err = StateInvalid, theme.CodeOf(err), err
			} else {
				res.State = StateReady
			}
		}
		r.record(revision, res)
	}

	if res.State == StateInvalid {
		log.WithField("code", string(res.Code)).Error(res.Err, "definition invalid")
	}

	if res.State == StateReady && r.outputDir != "" {
		artifact, err := writeArtifact(r.outputDir, def)
		if err != nil {
			log.Error(err, "failed to write artifact")
			r.setArtifactErr(err)
		} else {
			log.WithField("change", string(artifact.Change)).Debug("artifact emitted")
			res.Artifact = &artifact
		}
	}

	res.Duration = r.svc.now().Sub(started)

	r.mu.Lock()
	r.states[d] = res.State
	r.results[d] = res
	r.mu.Unlock()
}

func (r *run) ancestorsReady(def *theme.Definition) bool {
	chain := ancestors(r.reg, def)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ancestor := range chain {
		if r.states[ancestor] != StateReady {
			return false
		}
	}
	return true
}

func (r *run) record(revision string, res Result) {
	status := registry.CachedStatus{
		Hash:      revision,
		Status:    registry.StatusReady,
		CheckedAt: r.svc.now().UTC(),
	}
	if res.State == StateInvalid {
		status.Status = registry.StatusInvalid
		status.Code = string(res.Code)
		status.Message = res.Err.Error()
	}
	r.cache.Set(res.Descriptor.String(), status)
}

func (r *run) setState(d theme.Descriptor, state State) {
	r.mu.Lock()
	r.states[d] = state
	r.mu.Unlock()
}

func (r *run) setArtifactErr(err error) {
	r.mu.Lock()
	if r.artifactErr == nil {
		r.artifactErr = err
	}
	r.mu.Unlock()
}

func (r *run) collect(defs []*theme.Definition) []Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]Result, 0, len(defs))
	for _, def := range defs {
		d := def.Descriptor()
		res, ok := r.results[d]
		if !ok {
			res = Result{Descriptor: d, Location: def.Location(), State: StateUnvalidated}
		}
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Descriptor.String() < results[j].Descriptor.String()
	})
	return results
}

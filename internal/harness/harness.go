package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/oefquery/internal/compiler"
	"github.com/roach88/oefquery/internal/directory"
	"github.com/roach88/oefquery/internal/schema"
	"github.com/roach88/oefquery/internal/store"
	"github.com/roach88/oefquery/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios against a directory with a deterministic clock and
// sequential search ids.
type Harness struct {
	store  *store.Store
	dir    *directory.Directory
	specs  *compiler.Specs
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Compile the scenario's CUE specs
// 3. Apply registrations, then removals
// 4. Run searches, comparing keys against expectations
// 5. Check final registration counts
//
// An error return means the scenario could not be executed; assertion
// failures are reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunContext is Run with a caller-supplied context and logger.
func RunContext(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	specs, errs := compiler.LoadFiles(scenario.Specs, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to compile specs: %w", errors.Join(errs...))
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewDeterministicClock()
	dir, err := directory.New(ctx, st,
		directory.WithClock(clock),
		directory.WithIDGenerator(testutil.NewSequentialIDGenerator("search")),
		directory.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	h := &Harness{
		store:  st,
		dir:    dir,
		specs:  specs,
		clock:  clock,
		logger: logger,
	}

	result := NewResult()
	if err := h.executeRegister(ctx, scenario.Register, result); err != nil {
		return nil, fmt.Errorf("failed to execute register: %w", err)
	}
	if err := h.executeUnregister(ctx, scenario.Unregister, result); err != nil {
		return nil, fmt.Errorf("failed to execute unregister: %w", err)
	}
	if err := h.executeSearches(ctx, scenario.Searches, result); err != nil {
		return nil, fmt.Errorf("failed to execute searches: %w", err)
	}
	if scenario.Registered != nil {
		if err := assertRegistered(ctx, st, *scenario.Registered, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (h *Harness) executeRegister(ctx context.Context, steps []RegisterStep, result *Result) error {
	for i, step := range steps {
		desc, ok := h.specs.Description(step.Description)
		if !ok {
			return fmt.Errorf("register[%d]: unknown description %q", i, step.Description)
		}

		var err error
		switch store.Kind(step.Kind) {
		case store.KindAgent:
			err = h.dir.RegisterAgent(ctx, step.Key, desc)
		default:
			err = h.dir.RegisterService(ctx, step.Key, desc)
		}
		if err != nil {
			return fmt.Errorf("register[%d]: %w", i, err)
		}

		result.addTrace(TraceEvent{
			Op:          OpRegister,
			Kind:        step.Kind,
			Key:         step.Key,
			Description: step.Description,
			Seq:         h.clock.Current(),
		})
		h.logger.Info("registered",
			"step", i,
			"kind", step.Kind,
			"public_key", step.Key,
			"description", step.Description,
		)
	}
	return nil
}

func (h *Harness) executeUnregister(ctx context.Context, steps []UnregisterStep, result *Result) error {
	for i, step := range steps {
		var desc *schema.Description
		if step.Description != "" {
			d, ok := h.specs.Description(step.Description)
			if !ok {
				return fmt.Errorf("unregister[%d]: unknown description %q", i, step.Description)
			}
			desc = d
		}

		var err error
		switch store.Kind(step.Kind) {
		case store.KindAgent:
			err = h.dir.UnregisterAgent(ctx, step.Key)
		default:
			err = h.dir.UnregisterService(ctx, step.Key, desc)
		}

		ev := TraceEvent{
			Op:          OpUnregister,
			Kind:        step.Kind,
			Key:         step.Key,
			Description: step.Description,
		}
		switch {
		case err == nil && step.ExpectError:
			result.AddError(fmt.Sprintf("unregister[%d]: expected %s %q to be unregistered already", i, step.Kind, step.Key))
		case err != nil && !errors.Is(err, directory.ErrNotRegistered):
			return fmt.Errorf("unregister[%d]: %w", i, err)
		case err != nil:
			ev.Error = directory.ErrNotRegistered.Error()
			if !step.ExpectError {
				result.AddError(fmt.Sprintf("unregister[%d]: %v", i, err))
			}
		}
		result.addTrace(ev)
	}
	return nil
}

func (h *Harness) executeSearches(ctx context.Context, steps []SearchStep, result *Result) error {
	for i, step := range steps {
		q, ok := h.specs.Query(step.Query)
		if !ok {
			return fmt.Errorf("searches[%d]: unknown query %q", i, step.Query)
		}

		res, err := h.dir.Search(ctx, store.Kind(step.Kind), q)
		if err != nil {
			return fmt.Errorf("searches[%d]: %w", i, err)
		}

		result.addTrace(TraceEvent{
			Op:       OpSearch,
			Kind:     step.Kind,
			Query:    step.Query,
			SearchID: res.ID,
			Seq:      res.Seq,
			Keys:     res.PublicKeys,
		})

		if err := assertSearch(i, step, res.PublicKeys); err != nil {
			result.AddError(err.Error())
		}
		h.logger.Info("searched",
			"step", i,
			"kind", step.Kind,
			"query", step.Query,
			"matches", len(res.PublicKeys),
		)
	}
	return nil
}

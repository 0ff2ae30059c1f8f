package jobs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Service fronts the registry: jobs run by key, or all in registry order.
type Service struct {
	runner *Runner
	defs   []Definition
	byKey  map[string]Definition
}

// NewService creates a service over a runner and the registered definitions.
func NewService(runner *Runner, defs []Definition) *Service {
	byKey := make(map[string]Definition, len(defs))
	for _, def := range defs {
		byKey[def.Key] = def
	}
	return &Service{runner: runner, defs: defs, byKey: byKey}
}

// Keys returns the registered job keys in registry order.
func (s *Service) Keys() []string {
	keys := make([]string, len(s.defs))
	for i, def := range s.defs {
		keys[i] = def.Key
	}
	return keys
}

// RunJob executes one job by key.
func (s *Service) RunJob(ctx context.Context, key string, opts RunOptions) error {
	def, ok := s.byKey[key]
	if !ok {
		return fmt.Errorf("unknown job: %s", key)
	}
	return s.runner.Run(ctx, def, opts)
}

// RunAll executes every registered job sequentially in registry order,
// continuing past failures. The returned error joins every failure.
func (s *Service) RunAll(ctx context.Context, opts RunOptions) error {
	var errs []error
	for _, def := range s.defs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.runner.Run(ctx, def, opts); err != nil {
			log.Error().Err(err).Str("job", def.Key).Msg("Job failed, continuing with remaining jobs")
			errs = append(errs, err)
		}
	}
	return joinErrors(errs)
}

func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return fmt.Errorf("%d jobs failed, first: %w", len(errs), errs[0])
}

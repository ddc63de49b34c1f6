package sim

import (
	"context"
	"sync"
)

// Run steps the engine with dt until it stops, completes, or maxSteps steps
// have been taken. It starts the engine if needed and reports false when
// validation fails.
func (e *Engine) Run(ctx context.Context, dt float64, maxSteps int) (bool, error) {
	if !e.state.Running && !e.Start() {
		return false, nil
	}
	for i := 0; i < maxSteps && e.state.Running; i++ {
		select {
		case <-ctx.Done():
			e.Stop()
			return true, ctx.Err()
		default:
		}
		e.Step(dt)
	}
	return true, nil
}

// RunAll runs independent engines concurrently, one goroutine each. Engines
// must not share a project.
func RunAll(ctx context.Context, engines []*Engine, dt float64, maxSteps int) ([]bool, error) {
	started := make([]bool, len(engines))
	errs := make([]error, len(engines))

	var wg sync.WaitGroup
	for i, e := range engines {
		wg.Add(1)
		go func(idx int, e *Engine) {
			defer wg.Done()
			started[idx], errs[idx] = e.Run(ctx, dt, maxSteps)
		}(i, e)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return started, err
		}
	}
	return started, nil
}

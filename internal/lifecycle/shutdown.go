package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Shutdown tears down the bot's components on exit. The telegram poller, the
// reminder scheduler and worker, and the redis client do not depend on each
// other's close order, so every registered stop function runs in parallel
// under the caller's deadline.
type Shutdown struct {
	mu         sync.Mutex
	components []component
	log        *slog.Logger
}

type component struct {
	name string
	stop func(context.Context) error
}

func NewShutdown(log *slog.Logger) *Shutdown {
	if log == nil {
		log = slog.Default()
	}

	return &Shutdown{log: log}
}

// Register adds a named stop function. Nil functions are ignored.
func (s *Shutdown) Register(name string, stop func(context.Context) error) {
	if stop == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.components = append(s.components, component{name: name, stop: stop})
}

// Execute stops every registered component and collects their failures. A
// component that ignores the context deadline holds up the whole sequence;
// the caller bounds that with the context it passes in.
func (s *Shutdown) Execute(ctx context.Context) error {
	s.mu.Lock()
	components := append([]component(nil), s.components...)
	s.mu.Unlock()

	start := time.Now()
	s.log.Info("stopping components", slog.Int("count", len(components)))

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  []error
	)

	for _, c := range components {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := c.stop(ctx); err != nil {
				s.log.Error("component failed to stop",
					slog.String("component", c.name), slog.Any("error", err))
				errMu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
				errMu.Unlock()
				return
			}

			s.log.Info("component stopped", slog.String("component", c.name))
		}()
	}

	wg.Wait()
	s.log.Info("shutdown finished", slog.Duration("elapsed", time.Since(start)))

	return errors.Join(errs...)
}

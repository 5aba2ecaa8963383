// Package runner feeds wake commands from every configured source to the wake handler.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fgeck/gowol/internal/metrics"
	"github.com/fgeck/gowol/internal/models"
	"github.com/fgeck/gowol/internal/services/wol"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// HandleFunc processes one wake command. Errors are already logged by the handler.
type HandleFunc func(ctx context.Context, command string) (*models.WakeResult, error)

// Source delivers wake commands until its context is cancelled or its input ends.
type Source interface {
	Name() string
	Run(ctx context.Context, handle HandleFunc) error
}

// Service defines the interface for the command runner.
type Service interface {
	Run(ctx context.Context) error
}

// Impl implements the runner Service interface.
type Impl struct {
	wolSvc  wol.Service
	sources []Source
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// New creates a runner that dispatches commands from sources to wolSvc.
func New(logger zerolog.Logger, wolSvc wol.Service, m *metrics.Metrics, sources ...Source) *Impl {
	return &Impl{
		wolSvc:  wolSvc,
		sources: sources,
		metrics: m,
		logger:  logger,
	}
}

// Run starts all sources and blocks until they have all stopped.
// A failing wake command never stops a source; a failing source stops the others.
func (s *Impl) Run(ctx context.Context) error {
	if len(s.sources) == 0 {
		return errors.New("no command sources configured")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range s.sources {
		src := src
		g.Go(func() error {
			s.logger.Info().Str("source", src.Name()).Msg("command source started")

			err := src.Run(gctx, s.handler(src.Name()))
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error().Err(err).Str("source", src.Name()).Msg("command source failed")
				return fmt.Errorf("%s source failed: %w", src.Name(), err)
			}

			s.logger.Info().Str("source", src.Name()).Msg("command source stopped")
			return nil
		})
	}

	return g.Wait()
}

func (s *Impl) handler(source string) HandleFunc {
	return func(ctx context.Context, command string) (*models.WakeResult, error) {
		s.metrics.Command(source)
		command = strings.TrimSpace(command)

		s.logger.Debug().
			Str("source", source).
			Str("command", command).
			Msg("command received")

		return s.wolSvc.Wake(ctx, command)
	}
}

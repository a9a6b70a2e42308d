// Package scheduler ejecuta tareas periódicas (p. ej. el refresco de analítica) sobre un
// reloj inyectable.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Task tarea periódica. Run debe ser idempotente.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner lanza una goroutine por tarea; cada una corre en cada tick hasta que ctx termina.
// Un error se registra y no detiene el ciclo.
type Runner struct {
	clock clockwork.Clock
	log   zerolog.Logger
	wg    sync.WaitGroup
}

// NewRunner construye el runner. clock puede ser nil.
func NewRunner(clock clockwork.Clock, log zerolog.Logger) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{clock: clock, log: log}
}

// Start lanza la tarea en segundo plano. Tareas con intervalo no positivo se ignoran.
func (r *Runner) Start(ctx context.Context, t Task) {
	if t.Interval <= 0 {
		r.log.Warn().Str("task", t.Name).Msg("scheduler: intervalo no positivo, tarea deshabilitada")
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := r.clock.NewTicker(t.Interval)
		defer ticker.Stop()

		r.log.Info().Str("task", t.Name).Dur("interval", t.Interval).Msg("scheduler: started")
		for {
			select {
			case <-ctx.Done():
				r.log.Info().Str("task", t.Name).Msg("scheduler: shutting down")
				return
			case <-ticker.Chan():
				r.runOnce(ctx, t)
			}
		}
	}()
}

// Wait espera a que todas las tareas terminen (después de cancelar ctx).
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) runOnce(ctx context.Context, t Task) {
	start := r.clock.Now()
	if err := t.Run(ctx); err != nil {
		r.log.Error().Err(err).Str("task", t.Name).Msg("scheduler: ejecución fallida")
		return
	}
	r.log.Debug().Str("task", t.Name).Dur("elapsed", r.clock.Since(start)).Msg("scheduler: ejecución completada")
}

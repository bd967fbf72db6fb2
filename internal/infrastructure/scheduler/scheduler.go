// Package scheduler ejecuta tareas periódicas sin solapamiento.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/stockflow-api/pkg/logger"
)

// Job tarea periódica. Recibe el contexto del scheduler.
type Job func(ctx context.Context) error

// Interval corre un Job cada intervalo. Si la ejecución anterior sigue en curso, el tick se omite.
type Interval struct {
	name     string
	every    time.Duration
	job      Job
	log      *logger.Logger
	running  atomic.Bool
	wg       sync.WaitGroup
	stopOnce sync.Once
	cancel   context.CancelFunc
}

// NewInterval crea el runner. every debe ser positivo.
func NewInterval(name string, every time.Duration, job Job, log *logger.Logger) *Interval {
	if log == nil {
		log = logger.Nop()
	}
	return &Interval{name: name, every: every, job: job, log: log.Component("scheduler")}
}

// Start lanza el bucle en segundo plano hasta que ctx termine o se llame Stop.
func (s *Interval) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(s.every)
		defer t.Stop()
		s.log.Info().Str("job", s.name).Dur("every", s.every).Msg("scheduler iniciado")
		for {
			select {
			case <-ctx.Done():
				s.log.Info().Str("job", s.name).Msg("scheduler detenido")
				return
			case <-t.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce ejecuta el job si no hay otra ejecución en curso. Devuelve false si se omitió.
func (s *Interval) RunOnce(ctx context.Context) (ran bool) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn().Str("job", s.name).Msg("ejecución anterior en curso, se omite")
		return false
	}
	ran = true
	defer s.running.Store(false)
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("job", s.name).Str("panic", fmt.Sprint(r)).Msg("tarea en pánico")
		}
	}()

	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.log.Error().Err(err).Str("job", s.name).Msg("tarea falló")
		return ran
	}
	s.log.Debug().Str("job", s.name).Dur("took", time.Since(start)).Msg("tarea completada")
	return ran
}

// Stop cancela el bucle y espera a que termine la ejecución en curso.
func (s *Interval) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
	s.wg.Wait()
}

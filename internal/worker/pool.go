package worker

import (
	"context"
	"sync"

	"github.com/thepalians/reviewer-sub002/internal/logger"

	"github.com/rs/zerolog"
)

// Pool is a bounded set of goroutines draining a shared job channel.
// Used by the notification worker so a burst of uploads cannot fan out
// into unbounded goroutines.
type Pool struct {
	workerCount int
	jobChan     chan func(context.Context) error
	wg          sync.WaitGroup
	log         zerolog.Logger
}

func NewPool(workerCount int) *Pool {
	return &Pool{
		workerCount: workerCount,
		jobChan:     make(chan func(context.Context) error, workerCount*2),
		log:         logger.Get(),
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.log.Info().Int("worker_count", p.workerCount).Msg("Starting worker pool")

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) Stop() {
	p.log.Info().Msg("Stopping worker pool")
	close(p.jobChan)
	p.wg.Wait()
	p.log.Info().Msg("Worker pool stopped")
}

// Submit queues a job, reporting false when the pool is saturated so
// the caller can divert the work instead of losing it.
func (p *Pool) Submit(job func(context.Context) error) bool {
	select {
	case p.jobChan <- job:
		return true
	default:
		p.log.Warn().Msg("Worker pool job queue full, job rejected")
		return false
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	log := p.log.With().Int("worker_id", id).Logger()
	log.Debug().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Worker stopping due to context cancellation")
			return
		case job, ok := <-p.jobChan:
			if !ok {
				log.Debug().Msg("Worker stopping due to closed job channel")
				return
			}

			if err := job(ctx); err != nil {
				log.Error().Err(err).Msg("Job execution failed")
			}
		}
	}
}

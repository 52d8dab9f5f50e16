package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	pluglogin "github.com/miniplug/plug-login"
)

type TaskResult struct {
	Email  string
	Result *pluglogin.Result
	Error  error
	Fatal  bool
}

type Worker struct {
	id     string
	proxy  string
	logger pluglogin.Logger
}

// Scheduler runs independent user logins on a fixed set of workers. Each
// login builds its own transport; workers only differ by proxy.
type Scheduler struct {
	workers      []*Worker
	workChan     chan Account
	resultsChan  chan TaskResult
	wg           sync.WaitGroup
	base         pluglogin.Options
	proxyManager *ProxyManager
	logger       pluglogin.Logger
	staggerDelay time.Duration
	cancel       context.CancelFunc
	fatalOnce    sync.Once
	fatalErr     error
	stopped      atomic.Bool
}

// NewScheduler prepares workerCount workers. proxyManager may be nil.
func NewScheduler(workerCount int, base *pluglogin.Options, proxyManager *ProxyManager, staggerDelay time.Duration, logger pluglogin.Logger) *Scheduler {
	s := &Scheduler{
		workers:      make([]*Worker, workerCount),
		workChan:     make(chan Account, workerCount*2),
		resultsChan:  make(chan TaskResult, workerCount*2),
		base:         *base,
		proxyManager: proxyManager,
		logger:       logger,
		staggerDelay: staggerDelay,
	}

	for i := range workerCount {
		s.workers[i] = s.createWorker()
	}

	return s
}

func generateWorkerID() string {
	return uuid.New().String()[:8]
}

func (s *Scheduler) createWorker() *Worker {
	id := generateWorkerID()
	w := &Worker{
		id:     id,
		logger: &workerLogger{id: id, base: s.logger},
	}

	// A caller-provided transport carries its own routing.
	if s.proxyManager != nil && s.base.Client == nil {
		proxyURL, proxyIdx := s.proxyManager.Random()
		w.proxy = proxyURL
		w.logger.Log("Using proxy: %s", s.proxyManager.DisplayAt(proxyIdx))
	}

	return w
}

// workerLogger wraps a logger with worker ID prefix.
type workerLogger struct {
	id   string
	base pluglogin.Logger
}

func (w *workerLogger) Log(format string, args ...any) {
	w.base.Log("[%s] "+format, append([]any{w.id}, args...)...)
}

// Run feeds accounts to the workers and returns the results channel. The
// channel is closed once every worker has stopped.
func (s *Scheduler) Run(ctx context.Context, accounts []Account) <-chan TaskResult {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		defer close(s.workChan)
		for _, account := range accounts {
			select {
			case s.workChan <- account:
			case <-ctx.Done():
				return
			}
		}
	}()

	for i, worker := range s.workers {
		s.wg.Add(1)
		go s.runWorker(ctx, worker)

		if s.staggerDelay > 0 && i < len(s.workers)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(s.staggerDelay):
			}
		}
	}

	go func() {
		s.wg.Wait()
		s.cancel()
		close(s.resultsChan)
	}()

	return s.resultsChan
}

// handleFatalError stops every worker once; the first fatal error is
// reported on the results channel and kept for Err. The send blocks until
// the consumer takes it: the channel is only closed after every worker,
// this one included, has returned.
func (s *Scheduler) handleFatalError(email string, err error) {
	s.fatalOnce.Do(func() {
		s.fatalErr = err
		s.stopped.Store(true)
		s.logger.Log("FATAL ERROR: %v - stopping all workers", err)

		if s.cancel != nil {
			s.cancel()
		}

		s.resultsChan <- TaskResult{Email: email, Fatal: true, Error: err}
	})
}

// Err returns the fatal error that stopped the run, if any. It is only
// meaningful once the results channel has been drained.
func (s *Scheduler) Err() error {
	return s.fatalErr
}

// isFatal reports errors that would fail every remaining login as well.
func (s *Scheduler) isFatal(err error) bool {
	return pluglogin.IsMaintenance(err)
}

func (s *Scheduler) runWorker(ctx context.Context, worker *Worker) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case account, ok := <-s.workChan:
			if !ok {
				return
			}
			if s.stopped.Load() {
				return
			}

			worker.logger.Log("Logging in: %s", account.Email)

			opts := s.base
			opts.Logger = worker.logger
			if worker.proxy != "" {
				opts.Proxy = worker.proxy
			}

			res, err := pluglogin.User(ctx, account.Email, account.Password, &opts)
			if err != nil && s.isFatal(err) {
				s.handleFatalError(account.Email, err)
				return
			}

			select {
			case s.resultsChan <- TaskResult{Email: account.Email, Result: res, Error: err}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// WorkerCount returns the number of workers.
func (s *Scheduler) WorkerCount() int {
	return len(s.workers)
}

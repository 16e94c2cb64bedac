package core

import (
	"context"
	"sync"
	"time"

	"github.com/santiagomed/pagegen/logger"
)

// PipelineFactory builds the pipeline that serves one request.
type PipelineFactory func(r *Request, pub StepPublisher, log logger.Logger) (*Pipeline, error)

// ExecutionResult is delivered once per request on the channel returned by
// AddRequest.
type ExecutionResult struct {
	Output *Output
	Err    error
}

type ExecutionRequest struct {
	Ctx        context.Context
	Request    *Request
	Publisher  StepPublisher
	ResultChan chan ExecutionResult
	CreatedAt  time.Time
}

// Engine runs requests on a fixed pool of workers.
type Engine struct {
	build        PipelineFactory
	logger       logger.Logger
	requests     chan ExecutionRequest
	workers      int
	workerWG     sync.WaitGroup
	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

func NewEngine(build PipelineFactory, l logger.Logger, workers int) *Engine {
	if l == nil {
		l = logger.NewNullLogger()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Engine{
		build:        build,
		logger:       l,
		requests:     make(chan ExecutionRequest, 1000),
		workers:      workers,
		shutdownChan: make(chan struct{}),
	}
}

func (e *Engine) Start(ctx context.Context) {
	for i := 0; i < e.workers; i++ {
		e.workerWG.Add(1)
		go e.worker(ctx)
	}
}

func (e *Engine) worker(ctx context.Context) {
	defer e.workerWG.Done()
	for {
		select {
		case req := <-e.requests:
			req.ResultChan <- e.run(req)
			close(req.ResultChan)
		case <-ctx.Done():
			return
		case <-e.shutdownChan:
			return
		}
	}
}

func (e *Engine) run(req ExecutionRequest) ExecutionResult {
	log := e.logger.WithField("request_id", req.Request.ID)
	log.Debug("Request waited " + time.Since(req.CreatedAt).String())
	pipeline, err := e.build(req.Request, req.Publisher, log)
	if err != nil {
		return ExecutionResult{Err: err}
	}
	err = pipeline.Execute(req.Ctx)
	return ExecutionResult{Output: pipeline.Output(), Err: err}
}

// AddRequest queues r and returns the channel its result is sent on. The
// pipeline runs under ctx; pub may be nil.
func (e *Engine) AddRequest(ctx context.Context, r *Request, pub StepPublisher) chan ExecutionResult {
	resultChan := make(chan ExecutionResult, 1)
	e.requests <- ExecutionRequest{
		Ctx:        ctx,
		Request:    r,
		Publisher:  pub,
		ResultChan: resultChan,
		CreatedAt:  time.Now(),
	}
	return resultChan
}

func (e *Engine) Shutdown(timeout time.Duration) {
	e.shutdownOnce.Do(func() { close(e.shutdownChan) })

	done := make(chan struct{})
	go func() {
		e.workerWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("All workers shut down gracefully")
	case <-time.After(timeout):
		e.logger.Warn("Shutdown timed out, some workers may still be running")
	}
}

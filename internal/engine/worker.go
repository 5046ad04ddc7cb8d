package engine

import (
	"context"
	"errors"
	. "orderbook/internal/common"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	TASK_CHAN_SIZE = 100
)

var ErrWorkerStopped = errors.New("matching worker stopped")

type taskType int

const (
	taskSubmit taskType = iota
	taskTop
	taskDepth
	taskIndicative
	taskOpen
)

type task struct {
	typ       taskType
	order     Order
	maxLevels int
	reply     chan taskResult
}

type taskResult struct {
	result  Result
	top     Top
	depth   Depth
	auction AuctionResult
	err     error
}

// Worker is the single matching authority for an engine. Every submission and
// query goes through one FIFO task queue drained by one goroutine, so orders are
// matched strictly in the order they were accepted and queries never observe a
// book in the middle of a matching pass.
//
// Many goroutines may call into a Worker at once.
type Worker struct {
	engine *Engine
	tasks  chan task // FIFO task queue
	t      *tomb.Tomb
}

// NewWorker takes ownership of the engine and starts draining tasks. The worker
// stops when ctx is cancelled or Stop is called.
func NewWorker(ctx context.Context, engine *Engine) *Worker {
	t, _ := tomb.WithContext(ctx)
	w := &Worker{
		engine: engine,
		tasks:  make(chan task, TASK_CHAN_SIZE),
		t:      t,
	}
	t.Go(w.run)
	return w
}

// Stop kills the worker and waits for it to exit. Tasks still queued are not
// processed.
func (w *Worker) Stop() error {
	w.t.Kill(nil)
	if err := w.t.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (w *Worker) run() error {
	log.Info().Stringer("phase", w.engine.Phase()).Msg("matching worker running")
	for {
		select {
		case <-w.t.Dying():
			log.Info().Msg("matching worker exiting")
			return nil
		case task := <-w.tasks:
			task.reply <- w.handle(task)
		}
	}
}

func (w *Worker) handle(task task) taskResult {
	var res taskResult
	switch task.typ {
	case taskSubmit:
		res.result, res.err = w.engine.Submit(task.order)
	case taskTop:
		res.top = w.engine.Top()
	case taskDepth:
		res.depth = w.engine.Depth(task.maxLevels)
	case taskIndicative:
		res.auction, res.err = w.engine.Indicative()
	case taskOpen:
		res.auction, res.err = w.engine.Open()
	}
	return res
}

// do enqueues a task and waits for its reply. The context only bounds waiting:
// a task that has been accepted runs to completion regardless.
func (w *Worker) do(ctx context.Context, t task) (taskResult, error) {
	t.reply = make(chan taskResult, 1)

	select {
	case <-ctx.Done():
		return taskResult{}, ctx.Err()
	case <-w.t.Dying():
		return taskResult{}, ErrWorkerStopped
	case w.tasks <- t:
	}

	select {
	case res := <-t.reply:
		return res, res.err
	case <-ctx.Done():
		return taskResult{}, ctx.Err()
	case <-w.t.Dead():
		// The reply may have landed just before the worker died.
		select {
		case res := <-t.reply:
			return res, res.err
		default:
			return taskResult{}, ErrWorkerStopped
		}
	}
}

// Submit matches an order. See Engine.Submit.
func (w *Worker) Submit(ctx context.Context, order Order) (Result, error) {
	res, err := w.do(ctx, task{typ: taskSubmit, order: order})
	return res.result, err
}

func (w *Worker) Top(ctx context.Context) (Top, error) {
	res, err := w.do(ctx, task{typ: taskTop})
	return res.top, err
}

func (w *Worker) Depth(ctx context.Context, maxLevels int) (Depth, error) {
	res, err := w.do(ctx, task{typ: taskDepth, maxLevels: maxLevels})
	return res.depth, err
}

func (w *Worker) Indicative(ctx context.Context) (AuctionResult, error) {
	res, err := w.do(ctx, task{typ: taskIndicative})
	return res.auction, err
}

// Open runs the opening call auction. See Engine.Open.
func (w *Worker) Open(ctx context.Context) (AuctionResult, error) {
	res, err := w.do(ctx, task{typ: taskOpen})
	return res.auction, err
}

package concurrent

import "sync"

type JobFunc[T any, G any] func(job T) G

type Job[T any] struct {
	ID   int
	Data T
}

type Result[G any] struct {
	ID    int
	Value G
}

// WorkerPool runs jobFunc on a fixed number of goroutines. Results arrive
// in completion order, tagged with the id of their job.
type WorkerPool[T any, G any] struct {
	workers   int
	jobC      chan Job[T]
	resultC   chan Result[G]
	waitGroup sync.WaitGroup
	jobFunc   JobFunc[T, G]
}

func NewWorkerPool[T any, G any](workers, buffer int, jobFunc JobFunc[T, G]) *WorkerPool[T, G] {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool[T, G]{
		workers: workers,
		jobC:    make(chan Job[T], buffer),
		resultC: make(chan Result[G], buffer),
		jobFunc: jobFunc,
	}
}

func (wp *WorkerPool[T, G]) AddJob(id int, data T) {
	wp.jobC <- Job[T]{ID: id, Data: data}
}

func (wp *WorkerPool[T, G]) Start() {
	wp.waitGroup.Add(wp.workers)
	for i := 0; i < wp.workers; i++ {
		go func() {
			defer wp.waitGroup.Done()
			for job := range wp.jobC {
				wp.resultC <- Result[G]{ID: job.ID, Value: wp.jobFunc(job.Data)}
			}
		}()
	}
}

// Close stops accepting jobs. The results channel is closed once every
// queued job has finished.
func (wp *WorkerPool[T, G]) Close() {
	close(wp.jobC)
	go func() {
		wp.waitGroup.Wait()
		close(wp.resultC)
	}()
}

func (wp *WorkerPool[T, G]) CollectResults() <-chan Result[G] {
	return wp.resultC
}

// Map applies fn to every item on the given number of workers and returns
// the outputs in input order.
func Map[T any, G any](workers int, items []T, fn JobFunc[T, G]) []G {
	out := make([]G, len(items))
	if len(items) == 0 {
		return out
	}

	wp := NewWorkerPool[T, G](min(workers, len(items)), len(items), fn)
	wp.Start()
	for i, item := range items {
		wp.AddJob(i, item)
	}
	wp.Close()

	for res := range wp.CollectResults() {
		out[res.ID] = res.Value
	}
	return out
}

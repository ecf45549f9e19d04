package dms

import (
	"context"
	"errors"
	"sync"
)

// Workers is the number of concurrent renders used by RenderAll when no
// other value is given.
const Workers = 10

// Result is the outcome of rendering one message of a batch.
type Result struct {
	Index  int
	MULTI  string
	Frames []Frame
	Err    error
}

type job struct {
	index int
	ms    string
}

func (r *Renderer) generateJobs(ctx context.Context, messages []string) (<-chan job, <-chan error, error) {
	out := make(chan job)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for i, ms := range messages {
			select {
			case out <- job{index: i, ms: ms}:
			case <-ctx.Done():
				errc <- errors.New("render cancelled")
				return
			}
		}
	}()
	return out, errc, nil
}

// renderWorker renders jobs into results. Each job owns its slot in
// results so workers never write the same element.
func (r *Renderer) renderWorker(ctx context.Context, in <-chan job, results []Result) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for j := range in {
			select {
			case <-ctx.Done():
				errc <- errors.New("render cancelled")
				return
			default:
			}
			frames, err := r.Render(j.ms)
			results[j.index] = Result{
				Index:  j.index,
				MULTI:  j.ms,
				Frames: frames,
				Err:    err,
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// RenderAll renders independent messages concurrently using the given
// number of workers, or Workers if it is not positive. A message that
// fails to render is reported in its Result and does not stop the others.
// The returned error is only set if the batch was cancelled.
func (r *Renderer) RenderAll(ctx context.Context, messages []string, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = Workers
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	results := make([]Result, len(messages))

	var errcList []<-chan error

	jobs, errc, err := r.generateJobs(ctx, messages)
	if err != nil {
		return nil, err
	}
	errcList = append(errcList, errc)

	for i := 0; i < workers; i++ {
		errc, err := r.renderWorker(ctx, jobs, results)
		if err != nil {
			return nil, err
		}
		errcList = append(errcList, errc)
	}

	if err := waitForPipeline(errcList...); err != nil {
		return nil, err
	}

	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}
	r.logger.Printf("%s: rendered %d messages, %d failed\n", r.config.Name, len(messages), failed)

	return results, nil
}

package query

import "golang.org/x/sync/errgroup"

// RunParallel runs every fn concurrently and waits for all of them, returning the
// first error encountered (if any). It is a fan-out primitive for §5's task
// parallelism; no code in the module calls it (the MIR builder's per-item fan-out goes
// through MapParallel below). Because each
// fn receives its own *Context (created internally by the Get calls it makes), no
// shared mutable state needs to be synchronized beyond the Database's own mutex.
func RunParallel(fns ...func() error) error {
	var g errgroup.Group
	for _, fn := range fns {
		fn := fn
		g.Go(fn)
	}
	return g.Wait()
}

// MapParallel applies f to every item concurrently, preserving input order in the
// returned slice. It waits for every call to finish and then returns the first error,
// if any; a failing call does not cancel the others (errgroup's derived-context
// cancellation is not used since our queries do not take a context.Context — see
// DESIGN.md for why).
func MapParallel[In, Out any](items []In, f func(In) (Out, error)) ([]Out, error) {
	out := make([]Out, len(items))
	var g errgroup.Group
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			v, err := f(item)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

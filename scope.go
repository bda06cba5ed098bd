package stream

import "context"

// Run creates a registry, executes body with it and tears the registry
// down on every exit path: normal return, error and panic. Panic is
// re-raised once teardown is done.
//
// Returned error is the body error, the teardown error or RunError that
// carries both.
func Run(ctx context.Context, body func(context.Context, *Registry) error, options ...Option) (err error) {
	c := newConfig(options...)
	r := NewRegistry(options...)
	defer func() {
		p := recover()
		pending := r.Pending()
		flushErr := r.Teardown()
		if pending > 0 {
			c.log.Debug("scope released ", pending, " leftover resources")
		}
		if p != nil {
			panic(p)
		}
		err = withFlush(err, flushErr)
	}()
	return body(ctx, r)
}

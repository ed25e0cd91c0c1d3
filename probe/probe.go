// Package probe opens every stream of a catalog without playing it.
package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/peyitv/peyitv/log"
	"github.com/peyitv/peyitv/media"
	"github.com/peyitv/peyitv/network"
	"github.com/peyitv/peyitv/stream"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Options bound how hard the probe hits the stream hosts.
type Options struct {
	Client                *http.Client
	DefaultIdentification string
	// Concurrency is the number of streams opened at once.
	Concurrency int
	// Rate is the number of opens started per second.
	Rate float64
	// Timeout bounds each open.
	Timeout time.Duration
}

// Result is the outcome of opening one stream.
type Result struct {
	Stream   *stream.Descriptor
	Info     media.Info
	Err      error
	Duration time.Duration
}

// OK reports whether the stream opened.
func (r Result) OK() bool {
	return r.Err == nil
}

// Run opens every stream and returns the results in input order. Failures of single streams are
// reported in their Result; the returned error is only set when ctx ends first.
func Run(ctx context.Context, streams []*stream.Descriptor, opts Options) ([]Result, error) {
	results := make([]Result, len(streams))
	limiter := rate.NewLimiter(rate.Limit(opts.Rate), 1)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))

	for i, d := range streams {
		i, d := i, d
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}

			results[i] = open(ctx, d, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	return results, nil
}

func open(ctx context.Context, d *stream.Descriptor, opts Options) Result {
	config := network.Merge(d.Headers(), opts.DefaultIdentification)
	source := media.New(d, network.NewDataSource(opts.Client, config))

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	started := time.Now()
	err := source.Open(ctx)
	result := Result{
		Stream:   d,
		Info:     source.Info(),
		Err:      err,
		Duration: time.Since(started),
	}

	log.WithFields(log.Fields{
		"stream":   d.Name(),
		"protocol": d.Protocol().String(),
		"duration": result.Duration,
	}).Debugf("probe done: %s", outcome(err))

	return result
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return err.Error()
}

package core

import (
	"context"
	"fmt"

	"github.com/tsawler/pdfstream/logger"
	"golang.org/x/sync/errgroup"
)

// DecodeResult is the outcome of decoding one stream of a batch.
type DecodeResult struct {
	Data []byte
	Err  error
}

// DecodeStreams decodes independent streams concurrently, at most
// cfg.MaxConcurrent at a time, and returns one result per stream in input
// order. A stream that fails to decode does not stop the others; its error
// is in its result. The returned error is set for an invalid cfg or when
// ctx is cancelled, in which case streams not yet started report ctx's
// error. A nil cfg uses NewDefaultConfig.
//
// The logger is process wide. cfg.Logger replaces it for the duration of the
// call and the previous one is put back on return, so batches with
// different loggers should not run at the same time.
func DecodeStreams(ctx context.Context, streams []*Stream, cfg *Config) ([]DecodeResult, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Logger != nil {
		prev := logger.Swap(cfg.Logger)
		defer logger.SetLogger(prev)
	}

	logger.Debug("core: decoding streams", "count", len(streams), "max_concurrent", cfg.MaxConcurrent)

	opts := cfg.options()
	results := make([]DecodeResult, len(streams))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxConcurrent)
	for i, s := range streams {
		i, s := i, s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return err
			}
			if s == nil {
				results[i].Err = fmt.Errorf("stream %d is nil", i)
				return nil
			}
			data, err := s.decode(opts)
			if err != nil {
				logger.Debug("core: stream failed to decode", "stream", i, "err", err)
			}
			results[i] = DecodeResult{Data: data, Err: err}
			return nil
		})
	}

	return results, g.Wait()
}

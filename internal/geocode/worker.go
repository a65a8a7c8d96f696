package geocode

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/ka-abfall/abfallbot/pkg/metrics"
)

// ErrStopped indicates that the worker shut down before the lookup could be
// answered. The issuing dialogue step sees it as a geocode failure.
var ErrStopped = errors.New("geocode worker stopped")

// lookupResult is the single answer written to a request's response channel.
type lookupResult struct {
	location *Location
	err      error
}

// lookupRequest correlates one coordinate pair with its single-use response channel.
type lookupRequest struct {
	lat, lon float64
	resp     chan lookupResult
}

// Worker serializes reverse-geocoding lookups: requests from any number of
// chats drain through one bounded queue, one provider call at a time, paced to
// the provider's acceptable-use rate.
type Worker struct {
	geocoder ReverseGeocoder
	requests chan *lookupRequest
	limiter  *rate.Limiter
	log      *slog.Logger
	done     chan struct{}
}

// NewWorker builds a Worker with the given queue capacity and pacing interval.
func NewWorker(geocoder ReverseGeocoder, queueSize int, pace time.Duration, log *slog.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = 32
	}
	if pace <= 0 {
		pace = time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		geocoder: geocoder,
		requests: make(chan *lookupRequest, queueSize),
		limiter:  rate.NewLimiter(rate.Every(pace), 1),
		log:      log,
		done:     make(chan struct{}),
	}
}

// Run drains the queue until ctx is canceled. Each request receives exactly
// one answer; requests still queued at shutdown are failed with ErrStopped by
// Lookup observing the done channel.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	w.log.Info("geocode worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("geocode worker stopped")
			return
		case req := <-w.requests:
			metrics.SetGeocodeQueueDepth(len(w.requests))
			w.serve(ctx, req)

			if err := w.limiter.Wait(ctx); err != nil {
				w.log.Info("geocode worker stopped")
				return
			}
		}
	}
}

func (w *Worker) serve(ctx context.Context, req *lookupRequest) {
	location, err := w.geocoder.Reverse(ctx, req.lat, req.lon)

	switch {
	case err == nil:
		metrics.RecordGeocode("ok")
	case errors.Is(err, ErrNotFound):
		metrics.RecordGeocode("not_found")
		w.log.Warn("nothing found for location", slog.Float64("lat", req.lat), slog.Float64("lon", req.lon))
	default:
		metrics.RecordGeocode("error")
		w.log.Warn("reverse lookup failed", slog.Float64("lat", req.lat), slog.Float64("lon", req.lon), slog.Any("error", err))
	}

	// The response channel is buffered, so this never blocks and each request
	// is answered exactly once.
	req.resp <- lookupResult{location: location, err: err}
}

// Lookup enqueues a reverse-geocoding request and blocks until its correlated
// answer arrives, the context fires, or the worker stops. A full queue blocks
// the caller (bounded backpressure), never buffers beyond the queue size.
func (w *Worker) Lookup(ctx context.Context, lat, lon float64) (*Location, error) {
	req := &lookupRequest{
		lat:  lat,
		lon:  lon,
		resp: make(chan lookupResult, 1),
	}

	select {
	case w.requests <- req:
	case <-w.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case result := <-req.resp:
		return result.location, result.err
	case <-w.done:
		// The worker may have answered just before exiting.
		select {
		case result := <-req.resp:
			return result.location, result.err
		default:
			return nil, ErrStopped
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Package zkhmon coordinates periodic portal scrapes and serves the
// results. The scrape core returns either a complete snapshot or an
// error; this layer owns the "last known good" policy, a failed refresh
// keeps the previous snapshot on display.
package zkhmon

import (
	"context"
	"sync"
	"zkhmon-backend/lib/readingstore"
	"zkhmon-backend/lib/restyutil"
	"zkhmon-backend/lib/scrapers/zkh"
	"zkhmon-backend/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

type Options struct {
	BaseUrl  string
	Username string
	Password string
	// InstrumentOutput is forwarded to each cycle's client for HTTP
	// message dumps during debugging.
	InstrumentOutput restyutil.InstrumentOutput
}

type Service struct {
	opts  Options
	store readingstore.Store

	// the scrape core supports one cycle at a time, overlapping
	// refresh triggers serialize here
	refreshLock sync.Mutex
}

func NewService(opts Options, store readingstore.Store) *Service {
	return &Service{opts: opts, store: store}
}

// Refresh runs one scrape cycle with a fresh client and pushes the
// result to the store. On failure the store is left untouched.
func (s *Service) Refresh(ctx context.Context) error {
	s.refreshLock.Lock()
	defer s.refreshLock.Unlock()

	ctx, span := tracer.Start(ctx, "service:Refresh")
	defer span.End()

	client, err := zkh.NewClient(zkh.ClientOptions{
		BaseUrl:          s.opts.BaseUrl,
		Username:         s.opts.Username,
		Password:         s.opts.Password,
		InstrumentOutput: s.opts.InstrumentOutput,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize client")
		return err
	}
	defer client.Close()

	result, err := client.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh cycle failed")
		return err
	}

	err = s.store.Push(ctx, timezone.Now(), result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store snapshot")
		return err
	}
	return nil
}

// Snapshot returns the last known good result.
func (s *Service) Snapshot(ctx context.Context) (readingstore.Snapshot, error) {
	return s.store.Latest(ctx)
}

// MeterHistory returns the stored reading series for one meter.
func (s *Service) MeterHistory(ctx context.Context, serialKey string) ([]readingstore.ReadingPoint, error) {
	return s.store.MeterHistory(ctx, serialKey)
}

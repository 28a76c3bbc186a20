package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-pearl/Dashboard-sub014/internal/cache"
	"github.com/project-pearl/Dashboard-sub014/internal/domain"
	"github.com/project-pearl/Dashboard-sub014/internal/pipeline"
)

func TestRunScheduled_StartupOnly(t *testing.T) {
	compliance := newStubFetcher()
	compliance.serve("permits", "MD", permitRow("MD001"))
	complianceStore := cache.NewStore("compliance")
	waterquality := newStubFetcher()
	waterquality.serve("Result/search", "MD", readingRowAt("USGS-01", "pH", "2025-06-15", "7.1", "39.2894", "-76.6122"))
	waterqualityStore := cache.NewStore("waterquality")

	rebuilders := []*pipeline.Rebuilder{
		newTestRebuilder(permitSource("compliance", "MD"), complianceStore, compliance, compliance),
		newTestRebuilder(readingSource("waterquality", "MD"), waterqualityStore, waterquality, waterquality),
	}

	// Zero interval: one startup pass over every source, then return.
	pipeline.RunScheduled(context.Background(), 0, rebuilders, testLogger())

	assert.NotNil(t, complianceStore.Current())
	assert.NotNil(t, waterqualityStore.Current())
	assert.Equal(t, 1, compliance.callCount("MD"))
	assert.Equal(t, 1, waterquality.callCount("MD"))
}

func TestRunScheduled_RebuildsOnTick(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC))
	domain.SetClock(fc)
	defer domain.SetClock(nil)

	fetcher := newStubFetcher()
	fetcher.serve("permits", "MD", permitRow("MD001"))
	store := cache.NewStore("compliance")
	rb := newTestRebuilder(permitSource("compliance", "MD"), store, fetcher, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pipeline.RunScheduled(ctx, 6*time.Hour, []*pipeline.Rebuilder{rb}, testLogger())
		close(done)
	}()

	// The ticker is the only clock waiter; once it is armed the startup
	// build has finished.
	fc.BlockUntil(1)
	require.Equal(t, 1, fetcher.callCount("MD"))

	fc.Advance(6 * time.Hour)
	require.Eventually(t, func() bool {
		return fetcher.callCount("MD") == 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.NotNil(t, store.Current())
}

func TestRunScheduled_StopsWhenContextEnds(t *testing.T) {
	fetcher := newStubFetcher()
	store := cache.NewStore("compliance")
	rb := newTestRebuilder(permitSource("compliance", "MD"), store, fetcher, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		pipeline.RunScheduled(ctx, time.Hour, []*pipeline.Rebuilder{rb}, testLogger())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunScheduled did not return after cancellation")
	}
}

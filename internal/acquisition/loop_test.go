package acquisition

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/rangesensor/internal/adc"
	"github.com/chrissnell/rangesensor/internal/sensor"
	"github.com/chrissnell/rangesensor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLoop(t *testing.T) *Loop {
	t.Helper()
	source := adc.NewSimulatedSource(15.0, 0)
	s := sensor.New("test", source, sensor.Options{SampleCount: 1}, zap.NewNop().Sugar())
	return NewLoop(s, zap.NewNop().Sugar())
}

func TestLoopProducesReadings(t *testing.T) {
	l := newTestLoop(t)

	l.Start(context.Background(), 5*time.Millisecond)
	defer l.Stop()

	var first types.Reading
	select {
	case first = <-l.Readings():
	case <-time.After(2 * time.Second):
		t.Fatal("no reading produced within 2s")
	}

	assert.Equal(t, "test", first.SensorName)
	assert.NotEmpty(t, first.SessionID)
	assert.InDelta(t, 15.0, first.DistanceCM, 1.0)
	assert.Greater(t, first.VoltageV, 0.0)
	assert.Equal(t, 25.0, first.TemperatureC)

	// Readings arrive in acquisition order.
	select {
	case second := <-l.Readings():
		assert.False(t, second.Timestamp.Before(first.Timestamp))
		assert.Equal(t, first.SessionID, second.SessionID)
		assert.GreaterOrEqual(t, second.ElapsedTime, first.ElapsedTime)
	case <-time.After(2 * time.Second):
		t.Fatal("no second reading produced within 2s")
	}
}

func TestLoopStartStopLifecycle(t *testing.T) {
	l := newTestLoop(t)

	assert.False(t, l.Running())
	assert.Equal(t, "idle", l.Status().State)

	l.Start(context.Background(), 5*time.Millisecond)
	assert.True(t, l.Running())

	status := l.Status()
	assert.Equal(t, "running", status.State)
	assert.NotEmpty(t, status.SessionID)
	assert.Equal(t, int64(5), status.IntervalMs)

	l.Stop()
	assert.False(t, l.Running())
	assert.Equal(t, "idle", l.Status().State)
}

func TestLoopStartIsIdempotent(t *testing.T) {
	l := newTestLoop(t)

	l.Start(context.Background(), 5*time.Millisecond)
	defer l.Stop()

	firstSession := l.Status().SessionID
	require.NotEmpty(t, firstSession)

	// A second start must not replace the running session.
	l.Start(context.Background(), 50*time.Millisecond)
	assert.Equal(t, firstSession, l.Status().SessionID)
}

func TestLoopStopIsIdempotent(t *testing.T) {
	l := newTestLoop(t)

	// Stopping an idle loop is a no-op.
	l.Stop()
	assert.False(t, l.Running())

	l.Start(context.Background(), 5*time.Millisecond)
	l.Stop()
	l.Stop()
	assert.False(t, l.Running())
}

func TestLoopNewSessionIDPerStart(t *testing.T) {
	l := newTestLoop(t)

	l.Start(context.Background(), 5*time.Millisecond)
	first := l.Status().SessionID
	l.Stop()

	l.Start(context.Background(), 5*time.Millisecond)
	second := l.Status().SessionID
	l.Stop()

	assert.NotEqual(t, first, second)
}

func TestLoopDropsOldestWhenQueueFull(t *testing.T) {
	l := newTestLoop(t)

	// Fill the queue directly, then overflow it.
	for i := 0; i < queueSize; i++ {
		l.publish(types.Reading{ElapsedTime: float64(i)})
	}
	l.publish(types.Reading{ElapsedTime: float64(queueSize)})

	assert.Equal(t, int64(1), l.dropped.Load())

	// The oldest entry was evicted; the newest survived.
	first := <-l.Readings()
	assert.Equal(t, 1.0, first.ElapsedTime)

	var last types.Reading
	for i := 0; i < queueSize-1; i++ {
		last = <-l.Readings()
	}
	assert.Equal(t, float64(queueSize), last.ElapsedTime)
}

func TestLoopProducerNotStalledByFullQueue(t *testing.T) {
	l := newTestLoop(t)

	l.Start(context.Background(), time.Millisecond)

	// Never drain the queue; the producer must keep acquiring and
	// dropping rather than blocking.
	time.Sleep(200 * time.Millisecond)
	l.Stop()

	status := l.Status()
	assert.Greater(t, status.TotalReadings, int64(queueSize))
	assert.Greater(t, status.Dropped, int64(0))
}

func TestLoopStopsWithinBound(t *testing.T) {
	l := newTestLoop(t)

	interval := 20 * time.Millisecond
	l.Start(context.Background(), interval)

	// Let at least one reading happen.
	select {
	case <-l.Readings():
	case <-time.After(2 * time.Second):
		t.Fatal("no reading produced within 2s")
	}

	start := time.Now()
	l.Stop()
	assert.Less(t, time.Since(start), interval+2*time.Second)
	assert.False(t, l.Running())
}

func TestLoopParentContextCancellation(t *testing.T) {
	l := newTestLoop(t)

	ctx, cancel := context.WithCancel(context.Background())
	l.Start(ctx, 5*time.Millisecond)

	select {
	case <-l.Readings():
	case <-time.After(2 * time.Second):
		t.Fatal("no reading produced within 2s")
	}

	cancel()

	// The producer exits and settles to idle on its own; a later Stop is
	// a no-op.
	require.Eventually(t, func() bool { return l.Status().State == "idle" },
		2*time.Second, 5*time.Millisecond)
	l.Stop()
	assert.False(t, l.Running())
}

// recordingStore counts synchronous persists from the producer.
type recordingStore struct {
	mu       sync.Mutex
	readings []types.Reading
}

func (s *recordingStore) StoreReading(r types.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, r)
	return nil
}

func (s *recordingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.readings)
}

func TestLoopSynchronousStoreSeesEveryReading(t *testing.T) {
	l := newTestLoop(t)
	store := &recordingStore{}
	l.SetStore(store)

	l.Start(context.Background(), time.Millisecond)

	// Never drain the queue: readings age out of it, but the synchronous
	// store must still receive every one the producer took.
	time.Sleep(200 * time.Millisecond)
	l.Stop()

	status := l.Status()
	require.Greater(t, status.Dropped, int64(0))
	assert.Equal(t, status.TotalReadings, int64(store.Len()))
}

// stuckSource blocks reads until released, standing in for hardware that
// does not return promptly.
type stuckSource struct {
	release chan struct{}
}

func (s *stuckSource) ReadVoltage() (float64, error) {
	<-s.release
	return 1.0, nil
}

func (s *stuckSource) Close() error { return nil }

func TestLoopStartRefusedWhileProducerStuck(t *testing.T) {
	source := &stuckSource{release: make(chan struct{})}
	s := sensor.New("test", source, sensor.Options{SampleCount: 1}, zap.NewNop().Sugar())
	l := NewLoop(s, zap.NewNop().Sugar())

	l.Start(context.Background(), 5*time.Millisecond)
	firstSession := l.Status().SessionID
	require.NotEmpty(t, firstSession)

	// The producer is blocked in the read and cannot observe the cancel,
	// so Stop returns on its join timeout with the session still winding
	// down.
	l.Stop()
	assert.Equal(t, "stopping", l.Status().State)

	// A new session must not start while the old producer is alive; two
	// producers publishing into the same queue would interleave sessions.
	l.Start(context.Background(), 5*time.Millisecond)
	assert.Equal(t, "stopping", l.Status().State)
	assert.Equal(t, firstSession, l.Status().SessionID)

	// Once the read returns, the producer sees the cancel, exits, and the
	// loop settles to idle.
	close(source.release)
	require.Eventually(t, func() bool { return l.Status().State == "idle" },
		2*time.Second, 5*time.Millisecond)

	l.Start(context.Background(), 5*time.Millisecond)
	defer l.Stop()
	assert.True(t, l.Running())
	assert.NotEqual(t, firstSession, l.Status().SessionID)
}

// Package acquisition runs the background producer that feeds sensor
// readings to downstream consumers at a fixed cadence.
package acquisition

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chrissnell/rangesensor/internal/sensor"
	"github.com/chrissnell/rangesensor/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State tracks the producer lifecycle: Idle → Running → Stopping → Idle.
type State int

const (
	Idle State = iota
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "idle"
	}
}

const (
	// queueSize bounds the hand-off queue between the producer and its
	// consumers.
	queueSize = 10

	// recoveryDelay is how long the producer backs off after a failed
	// iteration before retrying.
	recoveryDelay = time.Second

	placeholderTemperatureC = 25.0
)

// ReadingStore persists a single reading. A store attached to the loop is
// called synchronously inside the producer iteration, so it sees every
// reading taken, unlike consumers behind the hand-off queue.
type ReadingStore interface {
	StoreReading(types.Reading) error
}

// Loop is the acquisition producer. It owns the sensor's filter and
// calibration state exclusively while running, and publishes readings in
// strict acquisition order to a bounded queue. When the queue is full the
// oldest unread reading is dropped rather than stalling the producer; a
// consumer that needs every sample persists through the synchronous
// ReadingStore instead.
type Loop struct {
	sensor *sensor.Sensor
	logger *zap.SugaredLogger
	queue  chan types.Reading
	store  ReadingStore

	mu           sync.Mutex
	state        State
	interval     time.Duration
	cancel       context.CancelFunc
	done         chan struct{}
	sessionID    string
	sessionStart time.Time

	totalReadings atomic.Int64
	dropped       atomic.Int64
}

// NewLoop creates an idle acquisition loop for the given sensor.
func NewLoop(s *sensor.Sensor, logger *zap.SugaredLogger) *Loop {
	return &Loop{
		sensor: s,
		logger: logger,
		queue:  make(chan types.Reading, queueSize),
	}
}

// Readings returns the hand-off queue consumers drain.
func (l *Loop) Readings() <-chan types.Reading {
	return l.queue
}

// SetStore attaches a store whose StoreReading is called inside each producer
// iteration, before the reading enters the hand-off queue. Must be set before
// Start.
func (l *Loop) SetStore(store ReadingStore) {
	l.store = store
}

// Start transitions Idle→Running and launches the producer goroutine.
// Starting an already-running loop is a no-op.
func (l *Loop) Start(ctx context.Context, interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != Idle {
		l.logger.Warnf("acquisition [%s]: loop is %s, start ignored", l.sensor.Name(), l.state)
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.interval = interval
	l.cancel = cancel
	l.done = make(chan struct{})
	l.sessionID = uuid.NewString()
	l.sessionStart = time.Now()
	l.totalReadings.Store(0)
	l.dropped.Store(0)
	l.state = Running

	l.logger.Infof("acquisition [%s]: session %s started, interval %v",
		l.sensor.Name(), l.sessionID, interval)
	go l.run(runCtx, interval, l.done)
}

// Stop signals the producer to exit after its current iteration and joins it
// with a bounded timeout. A producer still blocked in a hardware read when
// the timeout expires leaves the loop in the stopping state; it settles to
// idle when the read returns, and Start is refused until then, so two
// producers can never run at once. Stopping an idle loop is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.state != Running {
		l.mu.Unlock()
		return
	}
	l.state = Stopping
	cancel := l.cancel
	done := l.done
	timeout := l.interval + recoveryDelay
	l.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(timeout):
		l.logger.Warnf("acquisition [%s]: producer did not stop within %v, loop stays stopping until it exits",
			l.sensor.Name(), timeout)
		return
	}

	l.logger.Infof("acquisition [%s]: stopped after %d readings (%d dropped)",
		l.sensor.Name(), l.totalReadings.Load(), l.dropped.Load())
}

// Running reports whether a session is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == Running
}

// Status describes the current acquisition session.
type Status struct {
	State         string    `json:"state"`
	SessionID     string    `json:"session_id,omitempty"`
	StartTime     time.Time `json:"start_time,omitempty"`
	IntervalMs    int64     `json:"interval_ms,omitempty"`
	TotalReadings int64     `json:"total_readings"`
	Dropped       int64     `json:"dropped"`
}

// Status returns a snapshot of the session state.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := Status{
		State:         l.state.String(),
		TotalReadings: l.totalReadings.Load(),
		Dropped:       l.dropped.Load(),
	}
	if l.state != Idle {
		st.SessionID = l.sessionID
		st.StartTime = l.sessionStart
		st.IntervalMs = l.interval.Milliseconds()
	}
	return st
}

// run is the producer body. Each iteration performs one filtered read,
// persists it through the synchronous store when one is attached, publishes
// the reading, and sleeps out the remainder of the interval. Transient read
// failures are reported and retried after a fixed recovery delay; the loop
// only exits on cancellation.
func (l *Loop) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer l.finish(done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		loopStart := time.Now()

		m, err := l.sensor.Measure(ctx, true)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Errorf("acquisition [%s]: read failed: %v; retrying in %v",
				l.sensor.Name(), err, recoveryDelay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(recoveryDelay):
			}
			continue
		}

		r := types.Reading{
			Timestamp:        loopStart,
			SensorName:       l.sensor.Name(),
			SessionID:        l.sessionID,
			ElapsedTime:      loopStart.Sub(l.sessionStart).Seconds(),
			DistanceCM:       m.DistanceCM,
			DistanceRawCM:    m.DistanceRawCM,
			VoltageV:         m.VoltageV,
			VoltageStdV:      m.VoltageStdV,
			FilterCovariance: m.Covariance,
			TemperatureC:     placeholderTemperatureC,
		}

		if l.store != nil {
			if err := l.store.StoreReading(r); err != nil {
				l.logger.Errorf("acquisition [%s]: could not persist reading: %v",
					l.sensor.Name(), err)
			}
		}

		l.publish(r)
		l.totalReadings.Add(1)

		// Sleep out the rest of the interval to hold nominal cadence.
		if sleep := interval - time.Since(loopStart); sleep > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(sleep):
			}
		}
	}
}

// finish marks the loop idle and releases anyone joined on this session's
// done channel. Both happen under the mutex so a concurrent Start cannot
// observe the idle state before the channel is closed.
func (l *Loop) finish(done chan struct{}) {
	l.mu.Lock()
	l.state = Idle
	close(done)
	l.mu.Unlock()
}

// publish enqueues a reading, dropping the oldest unread entry when the
// queue is full. An unresponsive consumer never stalls acquisition.
func (l *Loop) publish(r types.Reading) {
	select {
	case l.queue <- r:
		return
	default:
	}

	select {
	case <-l.queue:
		l.dropped.Add(1)
	default:
	}

	select {
	case l.queue <- r:
	default:
		l.dropped.Add(1)
	}
}

// Package monitor runs the pipeline over a stream of frames and publishes
// what it reads.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"potwatch/internal/bus"
	"potwatch/internal/pipeline"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// ReadingTopic is the bus topic, below the prefix, for ReadingEvents.
const ReadingTopic = "reading"

// FrameReader turns a frame into a reading. *pipeline.Pipeline implements it.
type FrameReader interface {
	Read(frame gocv.Mat) pipeline.Reading
	Close() error
}

var _ FrameReader = (*pipeline.Pipeline)(nil)

// Monitor grabs frames on an interval, reads them and publishes the result.
type Monitor struct {
	source   FrameSource
	bus      bus.Bus
	topic    string
	interval time.Duration

	reader  FrameReader
	reloads chan FrameReader
	frame   gocv.Mat

	now   func() time.Time
	newID func() uuid.UUID

	mu     sync.Mutex
	frames int
	valid  int
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the delay between frames (default one second).
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// WithTopicPrefix sets the prefix of the reading topic.
func WithTopicPrefix(prefix string) Option {
	return func(m *Monitor) { m.topic = bus.JoinTopic(prefix, ReadingTopic) }
}

// New returns a monitor reading frames from src with reader and publishing
// to b. The monitor takes ownership of reader.
func New(src FrameSource, reader FrameReader, b bus.Bus, opts ...Option) *Monitor {
	m := &Monitor{
		source:   src,
		bus:      b,
		topic:    ReadingTopic,
		interval: time.Second,
		reader:   reader,
		reloads:  make(chan FrameReader, 1),
		frame:    gocv.NewMat(),
		now:      time.Now,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Topic returns the topic events are published to.
func (m *Monitor) Topic() string { return m.topic }

// Reload hands over a replacement reader. It takes effect before the next
// frame; a replacement still pending is closed and superseded.
func (m *Monitor) Reload(r FrameReader) {
	for {
		select {
		case m.reloads <- r:
			return
		default:
		}
		select {
		case old := <-m.reloads:
			old.Close()
		default:
		}
	}
}

func (m *Monitor) applyReload() {
	select {
	case r := <-m.reloads:
		m.reader.Close()
		m.reader = r
		slog.Info("pipeline reloaded")
	default:
	}
}

// Step processes one frame. It returns io.EOF when the source is exhausted.
func (m *Monitor) Step() (ReadingEvent, error) {
	m.applyReload()

	if err := m.source.Next(&m.frame); err != nil {
		return ReadingEvent{}, err
	}
	r := m.reader.Read(m.frame)
	ev := newEvent(m.newID(), m.now(), r)

	m.mu.Lock()
	m.frames++
	if ev.Valid {
		m.valid++
	}
	m.mu.Unlock()

	payload, err := json.Marshal(ev)
	if err != nil {
		return ev, fmt.Errorf("encode reading: %w", err)
	}
	if err := m.bus.Publish(m.topic, payload); err != nil {
		return ev, fmt.Errorf("publish reading: %w", err)
	}
	slog.Debug("reading published", "topic", m.topic, "panel", ev.PanelFound, "reading", ev.Reading, "valid", ev.Valid)
	return ev, nil
}

// Run processes frames until ctx is cancelled or the source ends. Frame and
// publish errors are logged and do not stop the loop.
func (m *Monitor) Run(ctx context.Context) error {
	slog.Info("monitor started", "topic", m.topic, "interval", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if _, err := m.Step(); err != nil {
			if errors.Is(err, io.EOF) {
				slog.Info("frame source exhausted", "frames", m.Frames())
				return nil
			}
			slog.Warn("frame failed", "error", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("monitor stopped", "frames", m.Frames())
			return nil
		case <-ticker.C:
		}
	}
}

// Frames returns the number of frames processed.
func (m *Monitor) Frames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

// Valid returns the number of frames that gave a valid reading.
func (m *Monitor) Valid() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.valid
}

// Close releases the current reader, any pending reload and the frame
// buffer. The source and bus belong to the caller.
func (m *Monitor) Close() error {
	select {
	case r := <-m.reloads:
		r.Close()
	default:
	}
	m.frame.Close()
	return m.reader.Close()
}

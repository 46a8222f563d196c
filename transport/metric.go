package transport

import "sync/atomic"

// Metrics contains atomic counters of a Worker.
type Metrics struct {
	// LinesSent is the number of lines written to the channel.
	LinesSent atomic.Uint64
	// LinesReceived is the number of non-empty lines read from the channel.
	LinesReceived atomic.Uint64
	// ErrCount is the number of errors reported to error handlers.
	ErrCount atomic.Uint64
	// QueueDepth is the number of lines waiting in the outbound queue.
	QueueDepth atomic.Int64
}

func (m *Metrics) incLinesSent() {
	m.LinesSent.Add(1)
}

func (m *Metrics) incLinesReceived() {
	m.LinesReceived.Add(1)
}

func (m *Metrics) incErrCount() {
	m.ErrCount.Add(1)
}

func (m *Metrics) incQueueDepth() {
	m.QueueDepth.Add(1)
}

func (m *Metrics) decQueueDepth() {
	m.QueueDepth.Add(-1)
}

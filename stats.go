package modbus

import (
	"sync/atomic"
	"time"
)

// ConnEvent describes a connection-lifecycle transition. It never carries
// register or coil data — only connection identity and timing — so that
// an observer wired to it (the statusapi event stream, for instance)
// cannot become an accidental readback channel for client writes.
type ConnEvent struct {
	ID     string
	Remote string
	Kind   string // "connected" or "disconnected"
	Time   time.Time
}

// stats accumulates counters surfaced through Server.Stats for the status
// API and the cron heartbeat job. It never influences request handling.
type stats struct {
	startedAt       time.Time
	activeConns     int64
	totalConns      uint64
	totalRequests   uint64
	totalExceptions uint64
}

func newStats() *stats {
	return &stats{startedAt: time.Now()}
}

func (s *stats) connOpened() {
	atomic.AddInt64(&s.activeConns, 1)
	atomic.AddUint64(&s.totalConns, 1)
}

func (s *stats) connClosed() {
	atomic.AddInt64(&s.activeConns, -1)
}

func (s *stats) recordRequest() {
	atomic.AddUint64(&s.totalRequests, 1)
}

func (s *stats) recordException() {
	atomic.AddUint64(&s.totalExceptions, 1)
}

// Stats is a point-in-time, read-only snapshot of server activity.
type Stats struct {
	Uptime          time.Duration `json:"uptime"`
	ActiveConns     int64         `json:"active_connections"`
	TotalConns      uint64        `json:"total_connections"`
	TotalRequests   uint64        `json:"total_requests"`
	TotalExceptions uint64        `json:"total_exceptions"`
}

func (s *stats) snapshot() Stats {
	return Stats{
		Uptime:          time.Since(s.startedAt),
		ActiveConns:     atomic.LoadInt64(&s.activeConns),
		TotalConns:      atomic.LoadUint64(&s.totalConns),
		TotalRequests:   atomic.LoadUint64(&s.totalRequests),
		TotalExceptions: atomic.LoadUint64(&s.totalExceptions),
	}
}

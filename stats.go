package sonic

import (
	"sync/atomic"
)

// ChannelStats contains statistics about a channel.
// All fields are safe for concurrent access.
//
// For Prometheus integration, expose these as counters:
// Commands, Events, Errors (with mode label), BytesSent, BytesReceived.
type ChannelStats struct {
	Commands      uint64 // Commands sent, START included
	Events        uint64 // Asynchronous events received
	Errors        uint64 // Failed operations
	BytesSent     uint64 // Bytes written to the connection
	BytesReceived uint64 // Bytes read from the connection
}

// statsCollector provides internal methods for updating channel stats.
type statsCollector struct {
	stats ChannelStats
}

func (c *statsCollector) recordCommand(bytes int) {
	atomic.AddUint64(&c.stats.Commands, 1)
	atomic.AddUint64(&c.stats.BytesSent, uint64(bytes))
}

func (c *statsCollector) recordReceive(bytes int) {
	atomic.AddUint64(&c.stats.BytesReceived, uint64(bytes))
}

func (c *statsCollector) recordEvent() {
	atomic.AddUint64(&c.stats.Events, 1)
}

func (c *statsCollector) recordError() {
	atomic.AddUint64(&c.stats.Errors, 1)
}

func (c *statsCollector) snapshot() ChannelStats {
	return ChannelStats{
		Commands:      atomic.LoadUint64(&c.stats.Commands),
		Events:        atomic.LoadUint64(&c.stats.Events),
		Errors:        atomic.LoadUint64(&c.stats.Errors),
		BytesSent:     atomic.LoadUint64(&c.stats.BytesSent),
		BytesReceived: atomic.LoadUint64(&c.stats.BytesReceived),
	}
}

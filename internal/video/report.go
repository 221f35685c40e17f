package video

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ReportEntry is one described moment of a monitoring run.
type ReportEntry struct {
	CapturedAt  time.Time
	Description string
}

// Collector accumulates described frames per session until the run is
// drained into a spoken report.
type Collector struct {
	mu      sync.Mutex
	entries map[string][]ReportEntry
}

func NewCollector() *Collector {
	return &Collector{entries: make(map[string][]ReportEntry)}
}

func (c *Collector) Add(sessionID string, entry ReportEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[sessionID] = append(c.entries[sessionID], entry)
}

func (c *Collector) Len(sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries[sessionID])
}

// Drain removes and returns a session's entries in capture order.
func (c *Collector) Drain(sessionID string) []ReportEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := c.entries[sessionID]
	delete(c.entries, sessionID)
	return entries
}

// Compile drains the run and renders it as one spoken report.
func (c *Collector) Compile(sessionID string) string {
	entries := c.Drain(sessionID)
	if len(entries) == 0 {
		return "Video monitoring ended. Nothing was observed."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Video monitoring ended after %d observations. ", len(entries))
	for _, entry := range entries {
		fmt.Fprintf(&b, "At %s: %s ", entry.CapturedAt.Format("15:04:05"), strings.TrimSpace(entry.Description))
	}
	return strings.TrimSpace(b.String())
}

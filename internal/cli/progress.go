// Package cli provides progress tracking with ETA estimation.
package cli

import (
	"fmt"
	"sync"
	"time"
)

// ScanProgress tracks the number of completed energy points of a running
// scan and estimates the time remaining from a smoothed completion rate. It
// is safe for concurrent use: workers call PointDone while the display
// goroutine reads Fraction and ETA.
type ScanProgress struct {
	mu           sync.Mutex
	total        int
	completed    int
	startTime    time.Time
	lastUpdate   time.Time
	lastFraction float64
	rate         float64 // smoothed completion rate (fraction per second)
}

// NewScanProgress creates a new progress tracker for a scan of the given
// number of energy points.
//
// Parameters:
//   - totalPoints: The number of points the scan will compute.
//
// Returns:
//   - *ScanProgress: A new progress tracker with ETA support.
func NewScanProgress(totalPoints int) *ScanProgress {
	now := time.Now()
	return &ScanProgress{
		total:      totalPoints,
		startTime:  now,
		lastUpdate: now,
	}
}

// PointDone records the completion of one energy point and refreshes the
// smoothed completion rate. It uses exponential smoothing to provide stable
// estimates even when per-point durations vary across the grid.
func (p *ScanProgress) PointDone() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.completed < p.total {
		p.completed++
	}
	fraction := p.fractionLocked()

	now := time.Now()
	elapsed := now.Sub(p.startTime)

	// Need some elapsed time and progress to make meaningful estimates
	if elapsed < 100*time.Millisecond || fraction <= 0.001 {
		p.lastUpdate = now
		p.lastFraction = fraction
		return
	}

	timeSinceUpdate := now.Sub(p.lastUpdate).Seconds()
	if timeSinceUpdate > 0.05 { // At least 50ms between rate samples
		delta := fraction - p.lastFraction
		if delta > 0 {
			instantRate := delta / timeSinceUpdate

			// Exponential smoothing: 70% old rate, 30% new rate
			if p.rate > 0 {
				p.rate = 0.7*p.rate + 0.3*instantRate
			} else {
				p.rate = fraction / elapsed.Seconds()
			}
		}
		p.lastUpdate = now
		p.lastFraction = fraction
	}
}

// Fraction returns the completed fraction of the scan (0.0 to 1.0).
func (p *ScanProgress) Fraction() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fractionLocked()
}

func (p *ScanProgress) fractionLocked() float64 {
	if p.total <= 0 {
		return 0
	}
	return float64(p.completed) / float64(p.total)
}

// ETA returns the estimated time remaining based on the smoothed completion
// rate, or 0 when no meaningful estimate is available yet.
func (p *ScanProgress) ETA() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	fraction := p.fractionLocked()
	if p.rate <= 0 || fraction >= 1.0 {
		return 0
	}

	remaining := 1.0 - fraction
	eta := time.Duration(remaining / p.rate * float64(time.Second))

	// Cap ETA at reasonable values
	if eta > 24*time.Hour {
		eta = 24 * time.Hour
	}
	return eta
}

// FormatETA formats a duration into a human-readable ETA string.
// It adapts the format based on the magnitude of the duration.
//
// Parameters:
//   - eta: The duration to format.
//
// Returns:
//   - string: A formatted string like "< 1s", "2m30s", "1h15m".
func FormatETA(eta time.Duration) string {
	if eta <= 0 {
		return "estimating..."
	}

	if eta < time.Second {
		return "< 1s"
	}

	if eta < time.Minute {
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	}

	if eta < time.Hour {
		minutes := int(eta.Minutes())
		seconds := int(eta.Seconds()) % 60
		if seconds > 0 {
			return fmt.Sprintf("%dm%ds", minutes, seconds)
		}
		return fmt.Sprintf("%dm", minutes)
	}

	hours := int(eta.Hours())
	minutes := int(eta.Minutes()) % 60
	if minutes > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	return fmt.Sprintf("%dh", hours)
}

package cli

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/astrohep/alpflux/internal/testutil"
	"github.com/briandowns/spinner"
)

// MockSpinner for testing
type MockSpinner struct {
	started bool
	stopped bool
	suffix  string
}

func (m *MockSpinner) Start() {
	m.started = true
}

func (m *MockSpinner) Stop() {
	m.stopped = true
}

func (m *MockSpinner) UpdateSuffix(suffix string) {
	m.suffix = suffix
}

func TestFormatExecutionDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{500 * time.Nanosecond, "0µs"}, // Truncates
		{10 * time.Microsecond, "10µs"},
		{10 * time.Millisecond, "10ms"},
		{2 * time.Second, "2s"},
	}

	for _, tt := range tests {
		got := FormatExecutionDuration(tt.d)
		if got != tt.expected {
			t.Errorf("FormatExecutionDuration(%v) = %s; want %s", tt.d, got, tt.expected)
		}
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	tests := []struct {
		progress float64
		length   int
		expected string
	}{
		{0.0, 10, "░░░░░░░░░░"},
		{0.5, 10, "█████░░░░░"},
		{1.0, 10, "██████████"},
		{1.2, 10, "██████████"},  // Cap at 1.0
		{-0.1, 10, "░░░░░░░░░░"}, // Floor at 0.0
	}

	for _, tt := range tests {
		got := progressBar(tt.progress, tt.length)
		if got != tt.expected {
			t.Errorf("progressBar(%f, %d) = %s; want %s", tt.progress, tt.length, got, tt.expected)
		}
	}
}

func TestDisplayProgress(t *testing.T) {
	// Inject the mock spinner
	mock := &MockSpinner{}
	origNewSpinner := newSpinner
	newSpinner = func(options ...spinner.Option) Spinner { return mock }
	defer func() { newSpinner = origNewSpinner }()

	var buf bytes.Buffer
	progressChan := make(chan struct{}, 10)

	var wg sync.WaitGroup
	wg.Add(1)
	go DisplayProgress(&wg, progressChan, 4, &buf)

	for i := 0; i < 4; i++ {
		progressChan <- struct{}{}
	}
	close(progressChan)
	wg.Wait()

	if !mock.started {
		t.Error("Expected the spinner to be started")
	}
	if !mock.stopped {
		t.Error("Expected the spinner to be stopped")
	}

	output := testutil.StripAnsiCodes(buf.String())
	if !strings.Contains(output, "100.00%") {
		t.Errorf("Expected a persistent 100%% line, got: %q", output)
	}
}

func TestDisplayProgress_ZeroPoints(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	progressChan := make(chan struct{}, 2)
	progressChan <- struct{}{}
	close(progressChan)

	var wg sync.WaitGroup
	wg.Add(1)
	DisplayProgress(&wg, progressChan, 0, &buf)

	// Channel drained, nothing rendered
	if buf.Len() != 0 {
		t.Errorf("Expected no output for a zero-point scan, got: %q", buf.String())
	}
}

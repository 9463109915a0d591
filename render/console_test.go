package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainlog/trainlog"
	"github.com/trainlog/trainlog/pkg/errors"
	"github.com/trainlog/trainlog/progress"
)

func plainColors(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func determinateReport() *trainlog.Report {
	return &trainlog.Report{
		Name:      "Training",
		NameStyle: "bold",
		Rows: []trainlog.Row{
			{Key: "loss", Value: "0.5   ", Style: "red", Width: 6},
			{Key: "acc", Value: "91.3  ", Style: "green", Width: 6},
		},
		Progress: progress.Snapshot{
			State:        progress.StateInEpoch,
			Epoch:        2,
			NEpochs:      10,
			Batch:        25,
			NBatches:     50,
			HasNBatches:  true,
			Fraction:     0.5,
			HasFraction:  true,
			ElapsedTotal: 90 * time.Second,
			ElapsedEpoch: 30 * time.Second,
			EpochETA:     30 * time.Second,
			HasEpochETA:  true,
			GlobalETA:    5 * time.Minute,
			HasGlobalETA: true,
		},
		ShowBar:      true,
		ShowTime:     true,
		ShouldRender: true,
		FreshRegion:  true,
	}
}

func TestRenderSkipsByCadence(t *testing.T) {
	plainColors(t)
	var buf bytes.Buffer
	console := NewConsole(&buf)

	report := determinateReport()
	report.ShouldRender = false
	console.Render(report)
	console.Render(nil)

	assert.Zero(t, buf.Len(), "suppressed reports must not touch the writer")
}

func TestRenderDeterminate(t *testing.T) {
	plainColors(t)
	var buf bytes.Buffer
	console := NewConsole(&buf)

	console.Render(determinateReport())
	out := buf.String()

	assert.Contains(t, out, "Training")
	assert.Contains(t, out, "epoch 2/10")
	assert.Contains(t, out, "batch 25/50")
	assert.Contains(t, out, "loss: 0.5")
	assert.Contains(t, out, "acc: 91.3")
	assert.Contains(t, out, "=>")
	assert.Contains(t, out, " 50%")
	assert.Contains(t, out, "[global 00:01:30 > 00:05:00 | epoch 00:00:30 > 00:00:30]")
	assert.NotContains(t, out, "\x1b[1A", "a fresh region never moves the cursor up")
}

func TestRenderBarWidths(t *testing.T) {
	plainColors(t)
	tests := []struct {
		name     string
		fraction float64
		filled   int
	}{
		{"empty", 0, 0},
		{"half", 0.5, 23},
		{"full", 1, barWidth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := barLine(progress.Snapshot{Fraction: tt.fraction, HasFraction: true})
			inner := line[strings.Index(line, "[")+1 : strings.Index(line, "]")]
			require.Len(t, inner, barWidth)
			got := strings.Count(inner, "=") + strings.Count(inner, ">")
			assert.Equal(t, tt.filled, got)
			if tt.filled > 0 && tt.filled < barWidth {
				assert.Contains(t, inner, ">", "partial bars end in an arrowhead")
			}
		})
	}
}

func TestRenderIndeterminate(t *testing.T) {
	plainColors(t)
	report := determinateReport()
	report.Progress.HasNBatches = false
	report.Progress.HasFraction = false
	report.Progress.HasEpochETA = false
	report.Progress.HasGlobalETA = false
	report.Progress.Phase = 3

	var buf bytes.Buffer
	NewConsole(&buf).Render(report)
	out := buf.String()

	assert.Contains(t, out, "batch 25/?")
	assert.Contains(t, out, "*")
	assert.Contains(t, out, "[ ? %]")
	assert.Contains(t, out, "[global 00:01:30 > ? | epoch 00:00:30 > ?]")
}

func TestIndeterminateMarkerBounces(t *testing.T) {
	plainColors(t)
	seen := make(map[int]struct{})
	for phase := 0; phase < 4*barWidth; phase++ {
		line := barLine(progress.Snapshot{Phase: phase})
		pos := strings.Index(line, "*") - 1
		require.GreaterOrEqual(t, pos, 0)
		require.Less(t, pos, barWidth)
		seen[pos] = struct{}{}
	}
	assert.Len(t, seen, barWidth, "the marker visits every cell")
}

func TestRenderRepaintsRegion(t *testing.T) {
	plainColors(t)
	var buf bytes.Buffer
	console := NewConsole(&buf)

	first := determinateReport()
	console.Render(first)
	firstLines := strings.Count(buf.String(), "\n")

	buf.Reset()
	second := determinateReport()
	second.FreshRegion = false
	console.Render(second)

	assert.True(t, strings.HasPrefix(buf.String(), "\x1b[4A"),
		"repaint moves the cursor up over the previous %d lines", firstLines)
}

func TestConsoleDetach(t *testing.T) {
	plainColors(t)
	var buf bytes.Buffer
	console := NewConsole(&buf)

	console.Render(determinateReport())
	console.Detach()
	buf.Reset()

	second := determinateReport()
	second.FreshRegion = false
	console.Render(second)
	assert.NotContains(t, buf.String(), "\x1b[4A")
}

func TestRenderMessageLine(t *testing.T) {
	plainColors(t)
	report := determinateReport()
	report.Message = "checkpoint saved"

	var buf bytes.Buffer
	NewConsole(&buf).Render(report)
	assert.Contains(t, buf.String(), "checkpoint saved")
}

func TestPaintStyles(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	console := NewConsole(&bytes.Buffer{})
	assert.Equal(t, "\x1b[1;31mloss\x1b[0m", console.paint("loss", "bold red"))
	assert.Equal(t, "plain", console.paint("plain", ""))
}

func TestPaintUnknownTokenWarnsOnce(t *testing.T) {
	plainColors(t)
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	console := NewConsole(&bytes.Buffer{})
	assert.Equal(t, "text", console.paint("text", "sparkly"))
	assert.Equal(t, "text", console.paint("text", "sparkly"))

	require.Len(t, warnings, 1)
	var cfgErr *errors.ConfigError
	require.ErrorAs(t, warnings[0], &cfgErr)
	assert.Equal(t, "sparkly", cfgErr.Key)
}

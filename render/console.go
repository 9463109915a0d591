// Package render paints trainlog reports to a terminal. It owns everything
// visual: style tokens, the progress bar, timing lines and in-place repaints
// of the live region. The core packages never touch the screen.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/trainlog/trainlog"
	"github.com/trainlog/trainlog/pkg/errors"
	"github.com/trainlog/trainlog/progress"
)

const (
	// barWidth is the inner width of the progress bar, brackets excluded.
	barWidth = 47

	cursorUpFmt = "\x1b[%dA"
	eraseLine   = "\x1b[0K"
)

// colorTokens maps style-token words to color attributes. Tokens compose:
// "bold red" is bold and red.
var colorTokens = map[string]color.Attribute{
	"black":     color.FgBlack,
	"red":       color.FgRed,
	"green":     color.FgGreen,
	"yellow":    color.FgYellow,
	"blue":      color.FgBlue,
	"magenta":   color.FgMagenta,
	"cyan":      color.FgCyan,
	"white":     color.FgWhite,
	"bold":      color.Bold,
	"faint":     color.Faint,
	"underline": color.Underline,
}

// Console renders reports to a terminal writer, repainting the live region
// in place between batches. It is not safe for concurrent use.
type Console struct {
	w         io.Writer
	lastLines int
	warned    map[string]struct{}
}

// NewConsole returns a renderer writing to w, typically os.Stdout.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, warned: make(map[string]struct{})}
}

// Render paints one report. Reports whose cadence says not to render are
// skipped entirely, so the caller can pass every report it receives.
func (c *Console) Render(report *trainlog.Report) {
	if report == nil || !report.ShouldRender {
		return
	}
	lines := c.compose(report)

	if report.FreshRegion {
		c.lastLines = 0
	}
	if c.lastLines > 0 {
		fmt.Fprintf(c.w, cursorUpFmt, c.lastLines)
	}
	for _, line := range lines {
		fmt.Fprint(c.w, "\r", line, eraseLine, "\n")
	}
	// A shrinking region leaves stale lines behind; blank them out.
	for extra := len(lines); extra < c.lastLines; extra++ {
		fmt.Fprint(c.w, "\r", eraseLine, "\n")
	}
	if stale := c.lastLines - len(lines); stale > 0 {
		fmt.Fprintf(c.w, cursorUpFmt, stale)
	}
	c.lastLines = len(lines)
}

// Detach forgets the live region so the next Render starts below whatever
// was printed in between. The logger's own Detach marks the report instead;
// this is for callers that write to the terminal directly.
func (c *Console) Detach() {
	c.lastLines = 0
}

func (c *Console) compose(report *trainlog.Report) []string {
	var lines []string

	header := c.headerLine(report)
	if header != "" {
		lines = append(lines, header)
	}
	if len(report.Rows) > 0 {
		lines = append(lines, c.rowsLine(report))
	}
	if report.ShowBar {
		lines = append(lines, barLine(report.Progress))
	}
	if report.ShowTime {
		lines = append(lines, timeLine(report.Progress))
	}
	if report.Message != "" {
		lines = append(lines, report.Message)
	}
	return lines
}

func (c *Console) headerLine(report *trainlog.Report) string {
	p := report.Progress
	var b strings.Builder
	if report.Name != "" {
		b.WriteString(c.paint(report.Name, report.NameStyle))
		b.WriteString("  ")
	}
	fmt.Fprintf(&b, "epoch %d/%d", p.Epoch, p.NEpochs)
	if p.HasNBatches {
		fmt.Fprintf(&b, "  batch %d/%d", p.Batch, p.NBatches)
	} else {
		fmt.Fprintf(&b, "  batch %d/?", p.Batch)
	}
	return b.String()
}

func (c *Console) rowsLine(report *trainlog.Report) string {
	parts := make([]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		key := row.Key
		if row.Bold {
			key = c.paint(key, "bold")
		}
		parts = append(parts, key+": "+c.paint(row.Value, row.Style))
	}
	return strings.Join(parts, "  ")
}

// paint applies a space-separated style token string. Unknown tokens leave
// the text unstyled and warn once per token.
func (c *Console) paint(text, style string) string {
	if style == "" {
		return text
	}
	attrs := make([]color.Attribute, 0, 2)
	for _, token := range strings.Fields(style) {
		attr, ok := colorTokens[token]
		if !ok {
			if _, seen := c.warned[token]; !seen {
				c.warned[token] = struct{}{}
				errors.Warn(errors.NewConfigError("style", token, "unknown style token"))
			}
			continue
		}
		attrs = append(attrs, attr)
	}
	if len(attrs) == 0 {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

// barLine draws the progress bar. With a known batch count the bar fills
// left to right with an arrowhead and a percentage; in indeterminate mode a
// marker cycles across the bar driven by the batch phase.
func barLine(p progress.Snapshot) string {
	if p.HasFraction {
		filled := int(p.Fraction * float64(barWidth))
		if filled > barWidth {
			filled = barWidth
		}
		var fill string
		switch {
		case filled == 0:
			fill = ""
		case filled < barWidth:
			fill = strings.Repeat("=", filled-1) + ">"
		default:
			fill = strings.Repeat("=", barWidth)
		}
		return fmt.Sprintf("[%-*s] %3.0f%%", barWidth, fill, p.Fraction*100)
	}

	pos := p.Phase % (2 * barWidth)
	if pos >= barWidth {
		pos = 2*barWidth - pos - 1
	}
	cells := []byte(strings.Repeat(" ", barWidth))
	cells[pos] = '*'
	return fmt.Sprintf("[%s] [ ? %%]", cells)
}

// timeLine shows elapsed and estimated times, global then epoch. Estimates
// not yet available print as "?".
func timeLine(p progress.Snapshot) string {
	globalETA := "?"
	if p.HasGlobalETA {
		globalETA = progress.FormatDuration(p.GlobalETA)
	}
	epochETA := "?"
	if p.HasEpochETA {
		epochETA = progress.FormatDuration(p.EpochETA)
	}
	return fmt.Sprintf("[global %s > %s | epoch %s > %s]",
		progress.FormatDuration(p.ElapsedTotal), globalETA,
		progress.FormatDuration(p.ElapsedEpoch), epochETA)
}

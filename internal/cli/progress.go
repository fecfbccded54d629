package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/cratescope/internal/crate"
)

// progressReporter drives a progress bar from aggregator callbacks.
type progressReporter struct {
	quiet bool
	out   io.Writer
	bar   *progressbar.ProgressBar
	start time.Time
}

func newProgressReporter(quiet bool, out io.Writer) *progressReporter {
	return &progressReporter{quiet: quiet, out: out, start: time.Now()}
}

// attach wires the reporter into aggregator options.
func (p *progressReporter) attach(opts *crate.Options) {
	if p.quiet {
		return
	}
	opts.OnDiscovered = p.onDiscovered
	opts.OnFileDone = p.onFileDone
}

func (p *progressReporter) onDiscovered(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription("Extracting files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(p.out)
		}),
	)
}

// onFileDone may run on several worker goroutines; the bar locks internally.
func (p *progressReporter) onFileDone(string, error) {
	if p.bar != nil {
		p.bar.Add(1)
	}
}

// complete prints the run summary.
func (p *progressReporter) complete(result *crate.Result) {
	if p.quiet {
		return
	}

	c := result.Crate
	fmt.Fprintf(p.out, "✓ Extracted %s: %s records from %s files in %.1fs\n",
		c.Name,
		formatNumber(c.Total()),
		formatNumber(len(result.Files)-len(result.Skipped)),
		time.Since(p.start).Seconds())
	if n := len(result.Skipped); n > 0 {
		fmt.Fprintf(p.out, "  Skipped %s files:\n", formatNumber(n))
		for _, s := range result.Skipped {
			fmt.Fprintf(p.out, "    %s: %v\n", s.Path, s.Err)
		}
	}
}

// formatNumber renders n with thousands separators.
func formatNumber(n int) string {
	str := fmt.Sprintf("%d", n)
	if n < 1000 && n > -1000 {
		return str
	}

	var result string
	digits := str
	if n < 0 {
		result, digits = "-", str[1:]
	}
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}

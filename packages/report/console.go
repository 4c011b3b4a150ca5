// Package report renders session outcomes: a colored console summary and
// JUnit XML for CI consumers. Secret values are redacted before anything
// is written.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/flowspec/packages/session"
)

type ConsoleReporter struct {
	writer  io.Writer
	verbose bool
	noColor bool
	redact  *Redactor
}

type ConsoleOption func(*ConsoleReporter)

func NewConsoleReporter(opts ...ConsoleOption) *ConsoleReporter {
	r := &ConsoleReporter{
		writer: os.Stdout,
		redact: NewRedactor(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.noColor {
		color.NoColor = true
	}
	return r
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(r *ConsoleReporter) {
		r.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(r *ConsoleReporter) {
		r.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(r *ConsoleReporter) {
		r.noColor = nc
	}
}

// WithSecrets installs the values to redact from every line.
func WithSecrets(values []string) ConsoleOption {
	return func(r *ConsoleReporter) {
		r.redact = NewRedactor(values)
	}
}

func (r *ConsoleReporter) Render(agg *session.Aggregator) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(r.writer, "\n%s\n\n", bold("Session "+agg.ID()))

	for _, o := range agg.Outcomes() {
		name := o.TestName
		if o.Iteration > 0 {
			name = fmt.Sprintf("%s [iteration %d]", name, o.Iteration)
		}

		switch o.Status {
		case session.StatusSkipped:
			fmt.Fprintf(r.writer, "  %s %s", yellow("-"), name)
			if o.Detail != "" {
				fmt.Fprintf(r.writer, " (%s)", r.redact.Line(o.Detail))
			}
			fmt.Fprintf(r.writer, "\n")
			continue
		case session.StatusPassed:
			fmt.Fprintf(r.writer, "  %s %s %s\n", green("✓"), name, cyan(fmt.Sprintf("(%dms)", o.Duration.Milliseconds())))
		case session.StatusFailed:
			fmt.Fprintf(r.writer, "  %s %s %s\n", red("✗"), name, cyan(fmt.Sprintf("(%dms)", o.Duration.Milliseconds())))
			if o.Detail != "" {
				fmt.Fprintf(r.writer, "    %s %s\n", red("→"), r.redact.Line(o.Detail))
			}
			for _, st := range o.Stages {
				for _, f := range st.Failures {
					fmt.Fprintf(r.writer, "    %s %s %s\n", red("→"), stageLabel(st), r.redact.Line(f.Error()))
				}
			}
		}

		if r.verbose && len(o.MissedExtract) > 0 {
			fmt.Fprintf(r.writer, "    %s extraction found no value for: %v\n", yellow("!"), o.MissedExtract)
		}
		if r.verbose && o.CleanupFailed {
			fmt.Fprintf(r.writer, "    %s cleanup request failed\n", yellow("!"))
		}
	}

	totals := agg.Totals()
	fmt.Fprintf(r.writer, "\nTests: ")
	if totals.Passed > 0 {
		fmt.Fprintf(r.writer, "%s, ", green(fmt.Sprintf("%d passed", totals.Passed)))
	}
	if totals.Failed > 0 {
		fmt.Fprintf(r.writer, "%s, ", red(fmt.Sprintf("%d failed", totals.Failed)))
	}
	if totals.Skipped > 0 {
		fmt.Fprintf(r.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", totals.Skipped)))
	}
	fmt.Fprintf(r.writer, "%d total\n", totals.Passed+totals.Failed+totals.Skipped)
	fmt.Fprintf(r.writer, "Time:  %dms\n\n", totals.Duration.Milliseconds())
}

func (r *ConsoleReporter) RenderError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(r.writer, "%s %s\n", red("Error:"), r.redact.Line(err.Error()))
}

func stageLabel(st session.StageResult) string {
	if st.Name != "" {
		return "[" + st.Name + "]"
	}
	if st.Index < 0 {
		return "[setup]"
	}
	return fmt.Sprintf("[stage %d]", st.Index+1)
}

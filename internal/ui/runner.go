package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// OpRunnerConfig describes one launcher operation to render.
type OpRunnerConfig struct {
	Title      string            // operation name shown in the header and result
	Command    string            // invocation line, e.g. "frigatemx-launcher install docker"
	Params     map[string]string // key/value pairs listed under the header
	TotalSteps int               // step count; zero disables progress lines
	StepNames  []string          // initial step names; the callback may override them
	Verbose    bool              // print the captured transcript after the result
	Output     io.Writer         // defaults to os.Stdout
}

// OpRunner renders a launcher operation as header, live step lines, and a
// closing result banner. The operation reports through a StepCallback; the
// runner owns all terminal output so steps and banners never interleave.
type OpRunner struct {
	config     OpRunnerConfig
	header     *Header
	progress   *Progress
	out        io.Writer
	transcript string
	started    time.Time
	width      int
}

// NewOpRunner prepares the chrome for one operation.
func NewOpRunner(config OpRunnerConfig) *OpRunner {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	r := &OpRunner{
		config: config,
		out:    config.Output,
		width:  GetTerminalWidth(),
	}
	r.header = NewHeader(config.Title, config.Command, config.Params).SetWidth(r.width)
	if config.TotalSteps > 0 {
		r.progress = NewProgress(config.TotalSteps).SetWidth(r.width).SetStepNames(config.StepNames)
	}
	return r
}

// Operation is the work to run; it reports progress through the callback.
type Operation func(onStep StepCallback) error

// Run executes the operation with UI updates: header, live step lines,
// then the result banner.
func (r *OpRunner) Run(ctx context.Context, operation Operation) error {
	_, err := r.RunWithResult(ctx, func(onStep StepCallback) (map[string]string, error) {
		return nil, operation(onStep)
	})
	return err
}

// RunWithResult is Run for operations that produce result details to show
// under the success banner. Returns the details that were displayed.
func (r *OpRunner) RunWithResult(ctx context.Context, operation func(onStep StepCallback) (map[string]string, error)) (map[string]string, error) {
	r.started = time.Now()

	_, _ = fmt.Fprintln(r.out, r.header.Render())
	_, _ = fmt.Fprintln(r.out)

	details, err := operation(r.createStepCallback())
	elapsed := time.Since(r.started)

	if err != nil {
		r.printFailure(err, elapsed)
	} else {
		r.printSuccess(details, elapsed)
	}

	return details, err
}

// SetTranscript stores the captured subprocess output for verbose display
func (r *OpRunner) SetTranscript(output string) {
	r.transcript = output
}

// createStepCallback adapts step reports into printed progress lines.
func (r *OpRunner) createStepCallback() StepCallback {
	return func(stepNumber int, name string, status StepStatus, message string) {
		if r.progress == nil || stepNumber < 1 || stepNumber > len(r.progress.Steps) {
			return
		}

		step := &r.progress.Steps[stepNumber-1]
		if name != "" {
			step.Name = name
		}
		r.progress.UpdateStep(stepNumber, status, message)

		switch status {
		case StepRunning:
			// Running lines end with \r so the settled line overwrites them
			_, _ = fmt.Fprint(r.out, r.progress.renderStepLine(*step)+"\r")
		case StepComplete, StepFailed, StepSkipped:
			_, _ = fmt.Fprintln(r.out, r.progress.renderStepLine(*step))
		}
	}
}

func (r *OpRunner) printSuccess(details map[string]string, elapsed time.Duration) {
	if details == nil {
		details = map[string]string{}
	}
	details["Duration"] = elapsed.Round(time.Millisecond).String()

	result := NewSuccessResult(r.config.Title+" complete", details)
	_, _ = fmt.Fprintln(r.out)
	_, _ = fmt.Fprintln(r.out, result.SetWidth(r.width).Render())

	r.printTranscript()
}

func (r *OpRunner) printFailure(err error, elapsed time.Duration) {
	tips := []string{
		"Check the host prerequisites: frigatemx-launcher status",
		"Inspect recent container logs: frigatemx-launcher logs --tail 100",
		"Run with --verbose for the full command transcript",
	}

	result := NewFailureResult(r.config.Title+" failed", err, tips)
	_, _ = fmt.Fprintln(r.out)
	_, _ = fmt.Fprintln(r.out, result.SetWidth(r.width).Render())

	r.printTranscript()
}

// printTranscript shows the captured subprocess output in verbose mode
func (r *OpRunner) printTranscript() {
	if !r.config.Verbose || r.transcript == "" {
		return
	}
	_, _ = fmt.Fprintln(r.out)
	_, _ = fmt.Fprintln(r.out, NewCommandOutput(r.transcript).SetWidth(r.width).Render())
}

// Simple helpers for commands that do not need the full runner flow.

// printBoxed prints a blank separator line followed by a rendered box.
func printBoxed(render func(width int) string) {
	fmt.Println()
	fmt.Println(render(GetTerminalWidth()))
}

// PrintCommandHeader prints the title box a command shows before its work.
func PrintCommandHeader(title, command string, params map[string]string) {
	fmt.Println(NewHeader(title, command, params).SetWidth(GetTerminalWidth()).Render())
	fmt.Println()
}

// PrintSuccess prints a standalone success banner.
func PrintSuccess(title string, details map[string]string) {
	printBoxed(func(width int) string {
		return NewSuccessResult(title, details).SetWidth(width).Render()
	})
}

// PrintFailure prints a standalone failure banner.
func PrintFailure(title string, err error, troubleshooting []string) {
	printBoxed(func(width int) string {
		return NewFailureResult(title, err, troubleshooting).SetWidth(width).Render()
	})
}

// PrintWarning prints a standalone warning banner.
func PrintWarning(title string, details map[string]string) {
	printBoxed(func(width int) string {
		return NewWarningResult(title, details).SetWidth(width).Render()
	})
}

// PrintCommandOutput prints a transcript box, used with --verbose.
func PrintCommandOutput(output string) {
	printBoxed(func(width int) string {
		return NewCommandOutput(output).SetWidth(width).Render()
	})
}

// PrintPleaseWait prints a notice that a long operation is underway, with
// an optional duration hint like "10 to 30 minutes".
func PrintPleaseWait(message, durationHint string) {
	accent := fg(PrimaryColor).Bold(true)
	hint := ""
	if durationHint != "" {
		hint = " " + fg(MutedColor).Italic(true).Render("("+durationHint+")")
	}
	fmt.Printf("\n  %s%s%s\n\n", accent.Render("⏳ "+message), hint, accent.Render("..."))
}

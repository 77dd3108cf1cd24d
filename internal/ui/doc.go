// Package ui renders the styled, non-interactive terminal output of
// the launcher commands: a banner up front, a streaming step list
// while the operation runs, and a bordered result box at the end.
// Lipgloss does the styling. The interactive wizard lives in
// internal/wizard/tui; nothing here reads input besides the
// destructive-operation confirmation prompt.
//
// The pieces:
//
//   - Header prints what is about to run, the exact invocation, and
//     the parameters it resolved.
//   - Progress tracks numbered steps and prints one line per step as
//     it settles.
//   - Result is the closing success, warning, or failure box.
//   - CommandOutput replays the captured subprocess transcript when
//     the user asked for --verbose.
//
// OpRunner ties them together. A command hands it an operation
// function and gets the whole banner/steps/result flow without
// touching the components directly:
//
//	runner := ui.NewOpRunner(ui.OpRunnerConfig{
//	    Title:      "Docker Engine Install",
//	    Command:    "frigatemx-launcher install docker",
//	    Params:     map[string]string{"Repository": "download.docker.com"},
//	    TotalSteps: 12,
//	    Verbose:    verbose,
//	})
//	err := runner.Run(ctx, func(onStep ui.StepCallback) error {
//	    onStep(1, "Update package lists", ui.StepRunning, "")
//	    // work
//	    onStep(1, "Update package lists", ui.StepComplete, "")
//	    return nil
//	})
//
// The curated output assumes zap stays quiet: leave
// FRIGATEMX_LOG_LEVEL unset unless debugging, or log lines will
// interleave with the step list.
package ui
